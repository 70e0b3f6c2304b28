package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListEquipment(c *gin.Context) {
	units, err := s.equipmentSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": units})
}

func (s *Server) GetEquipment(c *gin.Context) {
	eq, err := s.equipmentSvc.Get(c.Request.Context(), c.Param("site"), c.Param("unit"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": eq})
}

func (s *Server) GetReplacementHistory(c *gin.Context) {
	history, err := s.equipmentSvc.History(c.Request.Context(), c.Param("site"), c.Param("unit"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": history})
}

type workNoteRequest struct {
	Note string `json:"note"`
}

func (s *Server) SaveWorkNote(c *gin.Context) {
	var req workNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.equipmentSvc.SaveWorkNote(c.Request.Context(), c.Param("site"), c.Param("unit"), strings.TrimSpace(req.Note))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"saved": true}})
}
