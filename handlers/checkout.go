package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-storefront/checkout"
	"food-storefront/currency"
)

// GetCheckoutAddress returns the address form cached from the last checkout
func (h *Handler) GetCheckoutAddress(c *gin.Context) {
	addr, ok := h.checkout.SavedAddress()
	c.JSON(http.StatusOK, gin.H{"saved": ok, "address": addr})
}

// PlaceOrder creates an order from the cart and starts its payment
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.remoteContext(c)
	defer cancel()
	res, err := h.checkout.PlaceOrder(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    res.Message,
		"order":      res,
		"totalLabel": currency.Format(res.Total),
	})
}

// VerifyPayment handles the redirect back from a payment provider
func (h *Handler) VerifyPayment(c *gin.Context) {
	ctx, cancel := h.remoteContext(c)
	defer cancel()
	v, err := h.checkout.Verify(ctx, c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if !v.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"verification": v, "message": v.Message})
}
