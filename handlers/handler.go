package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"food-storefront/backend"
	"food-storefront/checkout"
	"food-storefront/models"
	"food-storefront/notify"
	"food-storefront/store"
	"food-storefront/tracker"
)

// OrderService is the part of the backend the order views call directly.
type OrderService interface {
	tracker.Fetcher
	CancelOrder(ctx context.Context, token, orderID, reason string) error
	ConfirmDelivery(ctx context.Context, token, orderID string) error
}

type Handler struct {
	store        *store.Store
	checkout     *checkout.Service
	orders       OrderService
	notices      *notify.Center
	log          *logrus.Logger
	timeout      time.Duration
	pollInterval time.Duration
}

type Deps struct {
	Store        *store.Store
	Checkout     *checkout.Service
	Orders       OrderService
	Notices      *notify.Center
	Logger       *logrus.Logger
	Timeout      time.Duration
	PollInterval time.Duration
}

func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Timeout <= 0 {
		d.Timeout = 15 * time.Second
	}
	if d.PollInterval <= 0 {
		d.PollInterval = tracker.DefaultInterval
	}
	if d.Notices == nil {
		d.Notices = notify.NewCenter(notify.DefaultCapacity, d.Logger)
	}
	return &Handler{
		store:        d.Store,
		checkout:     d.Checkout,
		orders:       d.Orders,
		notices:      d.Notices,
		log:          d.Logger,
		timeout:      d.Timeout,
		pollInterval: d.PollInterval,
	}
}

// remoteContext bounds a backend call without tying it to the client
// connection: a request the customer started keeps going if they navigate
// away.
func (h *Handler) remoteContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.timeout)
}

// respondError maps domain errors to a status code and a gin.H body.
func respondError(c *gin.Context, err error) {
	var (
		verr     *checkout.ValidationError
		rejected *backend.RejectedError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, store.ErrUnknownVariant):
		c.JSON(http.StatusNotFound, gin.H{"error": "Food variant does not exist"})
	case errors.Is(err, store.ErrUnknownBranch):
		c.JSON(http.StatusNotFound, gin.H{"error": "Branch not found"})
	case errors.Is(err, store.ErrNoNearbyBranch):
		c.JSON(http.StatusNotFound, gin.H{"error": "Unable to determine the nearest branch"})
	case errors.Is(err, store.ErrInvalidCoords), errors.Is(err, store.ErrEmptyToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &rejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": rejected.Reason("Request rejected by server")})
	case errors.Is(err, backend.ErrUnreachable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to reach server"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

func findOrder(orders []models.Order, id string) (models.Order, bool) {
	for _, o := range orders {
		if o.ID.String() == id {
			return o, true
		}
	}
	return models.Order{}, false
}
