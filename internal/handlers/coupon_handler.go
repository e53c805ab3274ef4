package handlers

import (
	"net/http"

	"github.com/ArowuTest/raffle-backend/internal/services"
	"github.com/ArowuTest/raffle-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

// CouponHandler handles coupon requests
type CouponHandler struct {
	couponService services.CouponService
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(couponService services.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

// CreateCoupon handles POST /admin/coupons
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var input services.CouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	coupon, err := h.couponService.CreateCoupon(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

// UpdateCoupon handles PUT /admin/coupons/:id
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input services.CouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	coupon, err := h.couponService.UpdateCoupon(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coupon)
}

// ToggleCoupon handles PATCH /admin/coupons/:id/toggle
func (h *CouponHandler) ToggleCoupon(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	coupon, err := h.couponService.ToggleCoupon(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coupon)
}

// DeleteCoupon handles DELETE /admin/coupons/:id
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.couponService.DeleteCoupon(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCoupons handles GET /admin/coupons
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	page, limit := pagination(c)
	coupons, err := h.couponService.ListCoupons(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons, "page": page, "limit": limit})
}

// PreviewCoupon handles GET /coupons/preview?code=&amount=
func (h *CouponHandler) PreviewCoupon(c *gin.Context) {
	amount, ok := parseAmount(c, c.DefaultQuery("amount", "0"))
	if !ok {
		return
	}
	preview, err := h.couponService.PreviewCoupon(c.Request.Context(), c.Query("code"), amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// ImportCoupons handles POST /admin/coupons/import with a multipart "file" CSV
func (h *CouponHandler) ImportCoupons(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CSV file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	coupons, rowErrors, err := utils.ParseCouponCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rejected := make([]string, 0, len(rowErrors))
	for _, rowErr := range rowErrors {
		rejected = append(rejected, rowErr.Error())
	}

	created := 0
	for _, coupon := range coupons {
		active := coupon.Active
		_, err := h.couponService.CreateCoupon(c.Request.Context(), services.CouponInput{
			Code:      coupon.Code,
			Kind:      coupon.Kind,
			Value:     coupon.Value,
			Active:    &active,
			ExpiresAt: coupon.ExpiresAt,
			MaxUses:   coupon.MaxUses,
		})
		if err != nil {
			if statusFor(err) == http.StatusInternalServerError {
				respondError(c, err)
				return
			}
			rejected = append(rejected, coupon.Code+": "+err.Error())
			continue
		}
		created++
	}
	if len(rejected) > 0 {
		slog.Warn("Coupon import finished with rejected rows", "created", created, "rejected", len(rejected))
	}

	c.JSON(http.StatusOK, gin.H{"created": created, "rejected": rejected})
}
