package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/selfix/washfleet/internal/ledger/domain"
)

type dailySubmissionRequest struct {
	SiteCode   string `json:"site_code"`
	UnitID     string `json:"unit_id"`
	Period     string `json:"period"`
	DailyCount int64  `json:"daily_count"`
}

type applySubmissionsRequest struct {
	Submissions []dailySubmissionRequest `json:"submissions"`
}

func (s *Server) ApplyDailySubmissions(c *gin.Context) {
	var req applySubmissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Submissions) == 0 {
		AbortWithError(c, newValidationError("submissions", "empty_batch", "at least one submission is required"))
		return
	}

	batch := make([]ledgerdomain.DailySubmission, 0, len(req.Submissions))
	for _, sub := range req.Submissions {
		batch = append(batch, ledgerdomain.DailySubmission{
			SiteCode:   strings.TrimSpace(sub.SiteCode),
			UnitID:     strings.TrimSpace(sub.UnitID),
			Period:     strings.TrimSpace(sub.Period),
			DailyCount: sub.DailyCount,
		})
	}

	written, err := s.ledgerSvc.ApplyDailySubmissions(c.Request.Context(), batch)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"rows_written": written}})
}

type correctionRequest struct {
	SiteCode string `json:"site_code"`
	UnitID   string `json:"unit_id"`
	Period   string `json:"period"`
	Value    int64  `json:"value"`
}

func (s *Server) CorrectMonth(c *gin.Context) {
	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	site, unit, period := strings.TrimSpace(req.SiteCode), strings.TrimSpace(req.UnitID), strings.TrimSpace(req.Period)
	if err := s.ledgerSvc.CorrectMonth(c.Request.Context(), site, unit, period, req.Value); err != nil {
		AbortWithError(c, err)
		return
	}

	record, err := s.ledgerSvc.GetMonth(c.Request.Context(), site, unit, period)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": record})
}

func (s *Server) CorrectMonthByCumulative(c *gin.Context) {
	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	site, unit, period := strings.TrimSpace(req.SiteCode), strings.TrimSpace(req.UnitID), strings.TrimSpace(req.Period)
	if err := s.ledgerSvc.CorrectMonthByCumulative(c.Request.Context(), site, unit, period, req.Value); err != nil {
		AbortWithError(c, err)
		return
	}

	record, err := s.ledgerSvc.GetMonth(c.Request.Context(), site, unit, period)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": record})
}

func (s *Server) RecalculateAll(c *gin.Context) {
	result, err := s.ledgerSvc.RecalculateAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ListUsage(c *gin.Context) {
	var query struct {
		Site string `form:"site"`
		Unit string `form:"unit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	records, err := s.ledgerSvc.List(c.Request.Context(),
		strings.TrimSpace(query.Site), strings.TrimSpace(query.Unit))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}
