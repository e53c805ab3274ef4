package handlers

import (
	"net/http"

	"github.com/ArowuTest/raffle-backend/internal/engine"
	"github.com/ArowuTest/raffle-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// RaffleHandler handles raffle lifecycle requests
type RaffleHandler struct {
	raffleService services.RaffleService
}

// NewRaffleHandler creates a new RaffleHandler
func NewRaffleHandler(raffleService services.RaffleService) *RaffleHandler {
	return &RaffleHandler{raffleService: raffleService}
}

// CreateRaffle handles POST /admin/raffles
func (h *RaffleHandler) CreateRaffle(c *gin.Context) {
	var input services.RaffleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raffle, err := h.raffleService.CreateRaffle(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, raffle)
}

// ListRaffles handles GET /admin/raffles
func (h *RaffleHandler) ListRaffles(c *gin.Context) {
	page, limit := pagination(c)
	raffles, err := h.raffleService.ListRaffles(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"raffles": raffles, "page": page, "limit": limit})
}

// GetRaffle handles GET /raffles/:id
func (h *RaffleHandler) GetRaffle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	raffle, err := h.raffleService.GetRaffle(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// GetOpenRaffle handles GET /raffles/open
func (h *RaffleHandler) GetOpenRaffle(c *gin.Context) {
	raffle, err := h.raffleService.GetOpenRaffle(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// UpdateVideo handles PUT /admin/raffles/:id/video
func (h *RaffleHandler) UpdateVideo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var request struct {
		VideoURL string `json:"videoUrl"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raffle, err := h.raffleService.UpdateVideo(c.Request.Context(), id, request.VideoURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// CloseRaffle handles POST /admin/raffles/:id/close
func (h *RaffleHandler) CloseRaffle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input services.CloseRaffleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Strategy == "" {
		input.Strategy = string(engine.StrategyAutomatic)
	}

	raffle, err := h.raffleService.CloseRaffle(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// GetWinners handles GET /raffles/:id/winners
func (h *RaffleHandler) GetWinners(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	winners, err := h.raffleService.GetWinners(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"winners": winners})
}
