package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-storefront/currency"
	"food-storefront/store"
)

type cartLineView struct {
	store.CartLine
	UnitPriceLabel string `json:"unitPriceLabel"`
	TotalLabel     string `json:"totalLabel"`
}

// GetCart returns the resolved cart lines and the amounts due
func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartBody(h.store.Snapshot()))
}

func (h *Handler) cartBody(snap store.Snapshot) gin.H {
	lines := snap.CartLines()
	views := make([]cartLineView, 0, len(lines))
	for _, l := range lines {
		views = append(views, cartLineView{
			CartLine:       l,
			UnitPriceLabel: currency.Format(l.UnitPrice),
			TotalLabel:     currency.Format(l.Total),
		})
	}
	quote := h.checkout.QuoteFor(snap)
	return gin.H{
		"items":            views,
		"count":            len(views),
		"subtotal":         quote.Subtotal,
		"subtotalLabel":    currency.Format(quote.Subtotal),
		"deliveryFee":      quote.DeliveryFee,
		"deliveryFeeLabel": currency.Format(quote.DeliveryFee),
		"total":            quote.Total,
		"totalLabel":       currency.Format(quote.Total),
	}
}

// AddCartItem adds one unit of a variant
func (h *Handler) AddCartItem(c *gin.Context) {
	ctx, cancel := h.remoteContext(c)
	defer cancel()
	if err := h.store.AddUnit(ctx, c.Param("variantId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartBody(h.store.Snapshot()))
}

// RemoveCartItem takes one unit of a variant out of the cart
func (h *Handler) RemoveCartItem(c *gin.Context) {
	ctx, cancel := h.remoteContext(c)
	defer cancel()
	if err := h.store.RemoveUnit(ctx, c.Param("variantId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartBody(h.store.Snapshot()))
}

func (h *Handler) ResetCart(c *gin.Context) {
	h.store.ResetCart()
	c.JSON(http.StatusOK, h.cartBody(h.store.Snapshot()))
}
