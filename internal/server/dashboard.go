package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetDashboard(c *gin.Context) {
	overview, err := s.dashboardSvc.Overview(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": overview})
}

func (s *Server) ListExchangeTargets(c *gin.Context) {
	targets, err := s.dashboardSvc.ExchangeTargets(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": targets})
}

func (s *Server) CreateQuoteDrafts(c *gin.Context) {
	result, err := s.dashboardSvc.CreateQuoteDrafts(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ProcessInspectionInbox(c *gin.Context) {
	results, err := s.inspectionSvc.ProcessInbox(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results})
}
