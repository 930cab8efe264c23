package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"food-storefront/middleware"
	"food-storefront/store"
)

type SessionRequest struct {
	Token string `json:"token" binding:"required"`
}

// GetSession reports whether a session is active and whose it is
func (h *Handler) GetSession(c *gin.Context) {
	token := h.store.Token()
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"signedIn": false})
		return
	}
	claims, err := middleware.InspectToken(token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"signedIn": false, "error": err.Error()})
		return
	}
	body := gin.H{"signedIn": true, "userId": claims.UserID}
	if claims.ExpiresAt != nil {
		body["expiresAt"] = claims.ExpiresAt.Time
	}
	c.JSON(http.StatusOK, body)
}

// CreateSession adopts a token issued by the backend and pulls its cart
func (h *Handler) CreateSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, err := middleware.InspectToken(req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
		return
	}

	ctx, cancel := h.remoteContext(c)
	defer cancel()
	cartSynced := true
	if err := h.store.SetSession(ctx, req.Token); err != nil {
		if !errors.Is(err, store.ErrCartSync) {
			h.log.WithError(err).Error("adopt session")
			respondError(c, err)
			return
		}
		h.log.WithError(err).Warn("session adopted without cart")
		cartSynced = false
	}
	c.JSON(http.StatusOK, gin.H{
		"signedIn":   true,
		"userId":     claims.UserID,
		"cartSynced": cartSynced,
	})
}

// DeleteSession signs out and empties the cart
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.store.ClearSession(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signedIn": false, "message": "Signed out"})
}
