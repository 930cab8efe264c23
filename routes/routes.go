package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"food-storefront/handlers"
	"food-storefront/middleware"
	"food-storefront/store"
)

// NewRouter builds the engine with the shared middleware stack.
func NewRouter(log *logrus.Logger, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = origins
	}
	r.Use(cors.New(corsConfig))
	return r
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, s *store.Store) {
	r.GET("/health", h.Health)

	// ── Storefront ─────────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Session
		public.GET("/session", h.GetSession)
		public.POST("/session", h.CreateSession)
		public.DELETE("/session", h.DeleteSession)

		// Catalog and filters
		public.GET("/menu", h.GetMenu)
		public.POST("/menu/refresh", h.RefreshMenu)
		public.GET("/menu/foods/:foodId", h.GetFood)
		public.GET("/branches", h.ListBranches)
		public.PUT("/branches/selected", h.SelectBranch)
		public.PUT("/search", h.SetSearch)
		public.PUT("/location", h.SetLocation)
		public.POST("/location/nearest", h.LocateNearest)

		// Cart
		public.GET("/cart", h.GetCart)
		public.POST("/cart/items/:variantId", h.AddCartItem)
		public.DELETE("/cart/items/:variantId", h.RemoveCartItem)
		public.DELETE("/cart", h.ResetCart)

		// Checkout
		public.GET("/checkout/address", h.GetCheckoutAddress)
		public.GET("/verify", h.VerifyPayment)

		public.GET("/notifications", h.GetNotifications)
		public.GET("/order-actions", h.GetOrderActions)
	}

	// ── Signed-in routes ───────────────────────────────────────────
	customer := r.Group("/api")
	customer.Use(middleware.SessionRequired(s))
	{
		customer.POST("/checkout", h.PlaceOrder)
		customer.GET("/orders", h.GetMyOrders)
		customer.GET("/orders/track", h.TrackOrders)
		customer.PATCH("/orders/:id/cancel", h.CancelOrder)
		customer.POST("/orders/:id/confirm-delivery", h.ConfirmDelivery)
	}
}
