package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListSnapshots(c *gin.Context) {
	snapshots, err := s.statusSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snapshots})
}

func (s *Server) GetSnapshot(c *gin.Context) {
	snap, err := s.statusSvc.Get(c.Request.Context(), c.Param("site"), c.Param("unit"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap})
}

func (s *Server) RefreshSnapshots(c *gin.Context) {
	count, err := s.statusSvc.Refresh(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"units_refreshed": count}})
}
