package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ArowuTest/raffle-backend/internal/engine"
	"github.com/ArowuTest/raffle-backend/internal/middleware"
	"github.com/ArowuTest/raffle-backend/internal/services"
	"github.com/ArowuTest/raffle-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// statusFor maps service and engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrBelowMinimumDeposit),
		errors.Is(err, services.ErrInvalidRaffleConfig),
		errors.Is(err, engine.ErrUnknownStrategy):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrVoucherNotPending),
		errors.Is(err, services.ErrCouponCodeTaken),
		errors.Is(err, services.ErrRaffleClosed),
		errors.Is(err, services.ErrRaffleAlreadyOpen):
		return http.StatusConflict
	case errors.Is(err, services.ErrNoOpenRaffle),
		errors.Is(err, engine.ErrAllocationNonTerminating),
		errors.Is(err, engine.ErrDrawInsufficientInput),
		errors.Is(err, engine.ErrDrawEmptyRaffle),
		errors.Is(err, engine.ErrNoExternalSource):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Internal errors are logged and not echoed.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// callerID returns the authenticated user's ID from the token subject
func callerID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token subject is not a valid user ID"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// reviewer names the admin acting on a request, preferring the email claim
func reviewer(c *gin.Context) string {
	if email := c.GetString(middleware.ContextUserEmail); email != "" {
		return email
	}
	return c.GetString(middleware.ContextUserID)
}

func pagination(c *gin.Context) (int, int) {
	return utils.ParsePagination(c.Query("page"), c.Query("limit"))
}

func parseAmount(c *gin.Context, raw string) (float64, bool) {
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || !engine.IsFiniteAmount(amount) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return 0, false
	}
	return amount, true
}
