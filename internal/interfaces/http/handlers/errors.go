// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/storefront-labs/storefront-api/internal/domain/cart"
	"github.com/storefront-labs/storefront-api/internal/domain/checkout"
	"github.com/storefront-labs/storefront-api/internal/domain/order"
	"github.com/storefront-labs/storefront-api/internal/domain/product"
	"github.com/storefront-labs/storefront-api/internal/domain/voucher"
	"github.com/storefront-labs/storefront-api/internal/interfaces/http/middleware"
	"github.com/storefront-labs/storefront-api/internal/pkg/validation"
)

// classify maps a domain error to its HTTP status and client message.
// Unknown errors return status 0.
func classify(err error) (int, string) {
	switch {
	// checked first: the wrapped cause is internal
	case errors.Is(err, checkout.ErrCheckoutFailed):
		return 0, ""
	case errors.Is(err, cart.ErrNoIdentity):
		return http.StatusBadRequest, "Shopping session required"
	case errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, cart.ErrProductUnavailable):
		return http.StatusUnprocessableEntity, "This product is currently unavailable."
	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusUnprocessableEntity, "Quantity must be between 1 and 10."
	case errors.Is(err, cart.ErrItemNotInCart):
		return http.StatusNotFound, "Cart item not found"
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest, "Your cart is empty."
	case errors.Is(err, checkout.ErrGuestCheckout):
		return http.StatusUnauthorized, "Please sign in to place an order."
	case errors.Is(err, checkout.ErrInvalidPaymentMethod):
		return http.StatusUnprocessableEntity, "Invalid payment method selected."
	case errors.Is(err, voucher.ErrInvalid):
		return http.StatusUnprocessableEntity, "Invalid or expired voucher code."
	case errors.Is(err, voucher.ErrNotApplicable):
		return http.StatusUnprocessableEntity, "This voucher cannot be applied to your cart."
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound, "Order not found"
	}
	return 0, ""
}

// respondError writes the client facing error for err. Anything not
// recognised is logged and answered with a 500 carrying fallback.
func respondError(c *gin.Context, log logrus.FieldLogger, err error, fallback string) {
	if status, message := classify(err); status != 0 {
		c.JSON(status, gin.H{"error": message})
		return
	}

	log.WithError(err).WithFields(logrus.Fields{
		"request_id": middleware.GetRequestIDFromContext(c),
		"path":       c.FullPath(),
	}).Error(fallback)

	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

// respondBindError answers a failed ShouldBind call
func respondBindError(c *gin.Context, err error) {
	if details := validation.Details(err); details != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Validation failed",
			"details": details,
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}
