package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-storefront/statemachine"
)

// Health reports liveness and the store version
func (h *Handler) Health(c *gin.Context) {
	snap := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Food Storefront",
		"version": snap.Version,
		"foods":   len(snap.Foods),
	})
}

// GetNotifications drains pending notices, oldest first
func (h *Handler) GetNotifications(c *gin.Context) {
	notices := h.notices.Drain()
	c.JSON(http.StatusOK, gin.H{"count": len(notices), "notifications": notices})
}

// GetOrderActions lists which customer actions each order status offers
func (h *Handler) GetOrderActions(c *gin.Context) {
	rules := statemachine.GetAllRules()
	info := make([]gin.H, 0, len(rules))
	for _, r := range rules {
		info = append(info, gin.H{"from": r.From, "action": r.Action})
	}
	c.JSON(http.StatusOK, gin.H{
		"actions":  info,
		"terminal": statemachine.TerminalStatuses(),
	})
}
