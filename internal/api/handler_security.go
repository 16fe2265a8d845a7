package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hydromat-tooling-backend/internal/security"
)

// GetSecurityMode handles GET /api/security/mode.
func (h *Handler) GetSecurityMode(c *gin.Context) {
	mode := security.ModeFullAccess
	if h.guard != nil {
		mode = h.guard.Mode()
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":     mode,
		"can_edit": mode.Permissions().CanEdit,
	})
}

type putSecurityModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// PutSecurityMode handles PUT /api/security/mode. Switching is always
// allowed; the mode only gates mutations, not who may flip it.
func (h *Handler) PutSecurityMode(c *gin.Context) {
	var req putSecurityModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode, err := security.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.guard == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "security guard is not configured"})
		return
	}

	if err := h.guard.SetMode(mode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":     mode,
		"can_edit": mode.Permissions().CanEdit,
	})
}
