package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// maxVoucherImageSize bounds the voucher image read into memory for validation
const maxVoucherImageSize = 10 << 20

// VoucherHandler handles deposit voucher requests
type VoucherHandler struct {
	voucherService services.VoucherService
}

// NewVoucherHandler creates a new VoucherHandler
func NewVoucherHandler(voucherService services.VoucherService) *VoucherHandler {
	return &VoucherHandler{voucherService: voucherService}
}

// SubmitVoucher handles POST /vouchers. It accepts either a multipart form
// (amount, couponCode, image) or a JSON body (amount, couponCode, imageRef).
func (h *VoucherHandler) SubmitVoucher(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var input services.VoucherInput
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		amount, ok := parseAmount(c, c.PostForm("amount"))
		if !ok {
			return
		}
		input.Amount = amount
		input.CouponCode = c.PostForm("couponCode")

		if header, err := c.FormFile("image"); err == nil {
			if header.Size > maxVoucherImageSize {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Voucher image is too large"})
				return
			}
			file, err := header.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open voucher image"})
				return
			}
			input.Image, err = io.ReadAll(io.LimitReader(file, maxVoucherImageSize))
			file.Close()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read voucher image"})
				return
			}
			input.ImageRef = header.Filename
		}
	} else {
		var request struct {
			Amount     float64 `json:"amount" binding:"required"`
			CouponCode string  `json:"couponCode"`
			ImageRef   string  `json:"imageRef"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.Amount = request.Amount
		input.CouponCode = request.CouponCode
		input.ImageRef = request.ImageRef
	}

	outcome, err := h.voucherService.SubmitVoucher(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, outcome)
}

// ListMyVouchers handles GET /vouchers
func (h *VoucherHandler) ListMyVouchers(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	page, limit := pagination(c)
	vouchers, err := h.voucherService.ListUserVouchers(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers, "page": page, "limit": limit})
}

// ListVouchers handles GET /admin/vouchers?status=
func (h *VoucherHandler) ListVouchers(c *gin.Context) {
	page, limit := pagination(c)
	status := models.VoucherStatus(strings.ToUpper(c.Query("status")))
	vouchers, err := h.voucherService.ListVouchers(c.Request.Context(), status, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers, "page": page, "limit": limit})
}

// ApproveVoucher handles POST /admin/vouchers/:id/approve
func (h *VoucherHandler) ApproveVoucher(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	outcome, err := h.voucherService.ApproveVoucher(c.Request.Context(), id, reviewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// RejectVoucher handles POST /admin/vouchers/:id/reject
func (h *VoucherHandler) RejectVoucher(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	voucher, err := h.voucherService.RejectVoucher(c.Request.Context(), id, reviewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, voucher)
}
