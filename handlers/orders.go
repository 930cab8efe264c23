package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"food-storefront/currency"
	"food-storefront/middleware"
	"food-storefront/models"
	"food-storefront/statemachine"
	"food-storefront/tracker"
)

type orderView struct {
	models.Order
	StatusLabel string                `json:"statusLabel"`
	TotalLabel  string                `json:"totalLabel"`
	Actions     []statemachine.Action `json:"actions"`
	Terminal    bool                  `json:"terminal"`
}

func newOrderView(o models.Order) orderView {
	return orderView{
		Order:       o,
		StatusLabel: statemachine.Label(o.Status),
		TotalLabel:  currency.Format(o.TotalAmount),
		Actions:     statemachine.ActionsFor(o.Status),
		Terminal:    statemachine.IsTerminal(o.Status),
	}
}

// GetMyOrders returns the customer's orders with the actions each one offers
func (h *Handler) GetMyOrders(c *gin.Context) {
	ctx, cancel := h.remoteContext(c)
	defer cancel()
	orders, err := h.orders.ListMyOrders(ctx, middleware.GetToken(c))
	if err != nil {
		respondError(c, err)
		return
	}

	status := models.OrderStatus(c.Query("status")).Normalize()
	views := make([]orderView, 0, len(orders))
	summary := map[string]int{}
	for _, o := range orders {
		if status != "" && o.Status.Normalize() != status {
			continue
		}
		views = append(views, newOrderView(o))
		summary[string(o.Status.Normalize())]++
	}
	c.JSON(http.StatusOK, gin.H{
		"count":         len(views),
		"order_summary": summary,
		"orders":        views,
	})
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder cancels an order that has not left the kitchen yet
func (h *Handler) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "Cancelled by customer"
	}

	h.orderAction(c, statemachine.ActionCancel, func(ctx context.Context, token, id string) error {
		return h.orders.CancelOrder(ctx, token, id, reason)
	}, "Order cancelled successfully")
}

// ConfirmDelivery tells the backend the customer has received the order
func (h *Handler) ConfirmDelivery(c *gin.Context) {
	h.orderAction(c, statemachine.ActionConfirmDelivery, h.orders.ConfirmDelivery, "Delivery confirmed")
}

// orderAction checks that the order's current status offers action before
// asking the backend to perform it.
func (h *Handler) orderAction(c *gin.Context, action statemachine.Action, perform func(ctx context.Context, token, id string) error, done string) {
	token := middleware.GetToken(c)
	orderID := c.Param("id")

	ctx, cancel := h.remoteContext(c)
	defer cancel()
	orders, err := h.orders.ListMyOrders(ctx, token)
	if err != nil {
		respondError(c, err)
		return
	}
	order, ok := findOrder(orders, orderID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	if action == statemachine.ActionConfirmDelivery && order.Status.Normalize() == models.StatusCompleted {
		c.JSON(http.StatusOK, gin.H{"message": "Order already completed", "order_id": orderID})
		return
	}
	if err := statemachine.CanPerform(order.Status, action); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":         "Cannot " + string(action) + " order",
			"reason":        err.Error(),
			"current_state": order.Status,
		})
		return
	}

	if err := perform(ctx, token, orderID); err != nil {
		h.log.WithError(err).WithField("order", orderID).Warnf("%s failed", action)
		h.notices.Error("Unable to " + strings.ReplaceAll(string(action), "-", " ") + " order")
		respondError(c, err)
		return
	}
	h.notices.Success(done)
	c.JSON(http.StatusOK, gin.H{"message": done, "order_id": orderID})
}

// TrackOrders streams order updates as server-sent events for as long as the
// client stays connected
func (h *Handler) TrackOrders(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	updates := make(chan tracker.Update, 1)

	t := tracker.New(h.orders, h.store.Token, h.pollInterval, func(u tracker.Update) {
		select {
		case updates <- u:
		case <-ctx.Done():
		}
	}, h.log)
	if err := t.Start(ctx); err != nil {
		cancel()
		respondError(c, err)
		return
	}
	defer t.Stop()
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case u := <-updates:
			views := make([]orderView, 0, len(u.Orders))
			for _, o := range u.Orders {
				views = append(views, newOrderView(o))
			}
			c.SSEvent("orders", gin.H{
				"orders":  views,
				"changes": u.Changes,
				"initial": u.Initial,
				"at":      u.At,
			})
			return true
		case <-ctx.Done():
			return false
		}
	})
}
