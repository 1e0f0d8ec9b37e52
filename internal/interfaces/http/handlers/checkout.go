// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/storefront-labs/storefront-api/internal/domain/checkout"
	"github.com/storefront-labs/storefront-api/internal/interfaces/http/middleware"
)

// CheckoutHandler handles voucher and checkout endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
	log             logrus.FieldLogger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service, log logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		log:             log,
	}
}

// ApplyVoucher handles POST /cart/voucher
func (h *CheckoutHandler) ApplyVoucher(c *gin.Context) {
	var req checkout.ApplyVoucherInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	applied, err := h.checkoutService.ApplyVoucher(c.Request.Context(), middleware.CartIdentity(c), req)
	if err != nil {
		respondError(c, h.log, err, "Failed to apply voucher")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Voucher applied successfully",
		"data":    applied,
	})
}

// RemoveVoucher handles DELETE /cart/voucher
func (h *CheckoutHandler) RemoveVoucher(c *gin.Context) {
	if err := h.checkoutService.RemoveVoucher(c.Request.Context(), middleware.CartIdentity(c)); err != nil {
		respondError(c, h.log, err, "Failed to remove voucher")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Voucher removed successfully",
	})
}

// GetCheckout handles GET /checkout
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	summary, err := h.checkoutService.Summary(c.Request.Context(), middleware.CartIdentity(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to load checkout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout summary retrieved successfully",
		"data":    summary,
	})
}

// PlaceOrder handles POST /checkout
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	var req checkout.PlaceOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	placement, err := h.checkoutService.PlaceOrder(c.Request.Context(), middleware.CartIdentity(c), req)
	if err != nil {
		respondError(c, h.log, err, "Failed to place order")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data": gin.H{
			"order_number": placement.OrderNumber,
			"redirect":     placement.Redirect,
		},
	})
}
