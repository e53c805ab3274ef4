package handlers

import (
	"net/http"

	"github.com/ArowuTest/raffle-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// SystemConfigHandler handles raffle settings requests
type SystemConfigHandler struct {
	settingsService services.SystemConfigService
}

// NewSystemConfigHandler creates a new SystemConfigHandler
func NewSystemConfigHandler(settingsService services.SystemConfigService) *SystemConfigHandler {
	return &SystemConfigHandler{settingsService: settingsService}
}

// GetSettings handles GET /admin/settings
func (h *SystemConfigHandler) GetSettings(c *gin.Context) {
	cfg, err := h.settingsService.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpdateSettings handles PUT /admin/settings
func (h *SystemConfigHandler) UpdateSettings(c *gin.Context) {
	var input services.SettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.settingsService.UpdateSettings(c.Request.Context(), input, reviewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// PreviewNumbers handles GET /numbers/preview?amount=
func (h *SystemConfigHandler) PreviewNumbers(c *gin.Context) {
	amount, ok := parseAmount(c, c.Query("amount"))
	if !ok {
		return
	}
	preview, err := h.settingsService.NumbersForAmount(c.Request.Context(), amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}
