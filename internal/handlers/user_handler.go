package handlers

import (
	"net/http"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// UserHandler handles participant views and admin reporting
type UserHandler struct {
	userService services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUser handles POST /admin/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var request struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
		CPF   string `json:"cpf"`
		Phone string `json:"phone"`
		Role  string `json:"role"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{
		Name:  request.Name,
		Email: request.Email,
		CPF:   request.CPF,
		Phone: request.Phone,
		Role:  request.Role,
	}
	if err := h.userService.CreateUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Me handles GET /me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// MyNumbers handles GET /me/numbers
func (h *UserHandler) MyNumbers(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	numbers, err := h.userService.MyNumbers(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"raffles": numbers})
}

// History handles GET /me/history
func (h *UserHandler) History(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	history, err := h.userService.History(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// SearchPlayers handles GET /admin/players?q=
func (h *UserHandler) SearchPlayers(c *gin.Context) {
	players, err := h.userService.SearchPlayers(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": players})
}

// GetPlayer handles GET /admin/users/:id
func (h *UserHandler) GetPlayer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	detail, err := h.userService.PlayerDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Dashboard handles GET /admin/dashboard
func (h *UserHandler) Dashboard(c *gin.Context) {
	stats, err := h.userService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
