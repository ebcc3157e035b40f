package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ScanRequest is the scan endpoint payload. Data is an arbitrary tree of
// strings, maps, and lists.
type ScanRequest struct {
	TenantID  string      `json:"tenant_id" binding:"required"`
	UserID    string      `json:"user_id"`
	Operation string      `json:"operation"`
	Data      interface{} `json:"data" binding:"required"`
}

// ExportCheckRequest is the export guard endpoint payload.
type ExportCheckRequest struct {
	TenantID string      `json:"tenant_id" binding:"required"`
	UserID   string      `json:"user_id"`
	Format   string      `json:"format"`
	Data     interface{} `json:"data" binding:"required"`
}

func (s *Server) handleScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	operation := req.Operation
	if operation == "" {
		operation = "api_scan"
	}

	result, err := s.service.ScanForLeakage(c.Request.Context(), req.Data, req.TenantID, req.UserID, operation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleExportCheck(c *gin.Context) {
	var req ExportCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision := s.service.PreventDataExport(c.Request.Context(), req.Data, req.TenantID, req.UserID, req.Format)

	// A policy block is a normal outcome; only an internal fault is a 5xx.
	status := http.StatusOK
	if decision.SystemError {
		status = http.StatusInternalServerError
	}
	c.JSON(status, decision)
}

func (s *Server) handleStatistics(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id is required"})
		return
	}

	var start, end time.Time
	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be RFC3339"})
			return
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must be RFC3339"})
			return
		}
		end = parsed
	}

	stats, err := s.service.GetLeakageStatistics(c.Request.Context(), tenantID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
