package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
	projectdomain "github.com/selfix/washfleet/internal/project/domain"
)

func projectID(c *gin.Context) (snowflake.ID, bool) {
	raw, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid project id"))
		return 0, false
	}
	return snowflake.ID(raw), true
}

func parseWorkDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type registerProjectRequest struct {
	SiteCode string `json:"site_code"`
	UnitID   string `json:"unit_id"`
	Part     string `json:"part"`
	Note     string `json:"note"`
}

func (s *Server) RegisterProject(c *gin.Context) {
	var req registerProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	project, err := s.projectSvc.Register(c.Request.Context(), projectdomain.RegisterRequest{
		SiteCode: strings.TrimSpace(req.SiteCode),
		UnitID:   strings.TrimSpace(req.UnitID),
		Part:     equipmentdomain.Part(strings.TrimSpace(req.Part)),
		Note:     strings.TrimSpace(req.Note),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": project})
}

func (s *Server) ListProjects(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	projects, err := s.projectSvc.List(c.Request.Context(), activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projects})
}

func (s *Server) GetProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	project, err := s.projectSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateProjectStatus(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	project, err := s.projectSvc.UpdateStatus(c.Request.Context(), id, projectdomain.Status(strings.TrimSpace(req.Status)))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}

type scheduleRequest struct {
	Date string `json:"date"`
}

func (s *Server) ScheduleProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	date, err := parseWorkDate(req.Date)
	if err != nil || date == nil {
		AbortWithError(c, newValidationError("date", "invalid_date", "date must be YYYY-MM-DD"))
		return
	}

	project, err := s.projectSvc.Schedule(c.Request.Context(), id, *date)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}

type completeRequest struct {
	WorkDate string `json:"work_date"`
}

func (s *Server) CompleteProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}
	workDate, err := parseWorkDate(req.WorkDate)
	if err != nil {
		AbortWithError(c, newValidationError("work_date", "invalid_date", "work_date must be YYYY-MM-DD"))
		return
	}

	project, err := s.projectSvc.Complete(c.Request.Context(), id, workDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (s *Server) CancelProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	project, err := s.projectSvc.Cancel(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}
