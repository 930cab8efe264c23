package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"food-storefront/models"
)

type OrderLine struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	BranchID string         `json:"branchId"`
	Items    []OrderLine    `json:"items"`
	Address  models.Address `json:"address"`
}

type PaymentConfirmation struct {
	OrderID       string          `json:"orderId"`
	Provider      string          `json:"provider"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
}

// ListMyOrders returns the session owner's orders, newest first.
func (c *Client) ListMyOrders(ctx context.Context, token string) ([]models.Order, error) {
	env, err := c.do(ctx, call{op: "list orders", method: http.MethodGet, path: "/api/v2/orders/me", token: token})
	if err != nil {
		return nil, err
	}
	return decodeData[[]models.Order]("list orders", env.Data)
}

// CreateOrder places an order and returns its id.
func (c *Client) CreateOrder(ctx context.Context, token string, req CreateOrderRequest) (string, error) {
	env, err := c.do(ctx, call{op: "create order", method: http.MethodPost, path: "/api/v2/orders", token: token, body: req})
	if err != nil {
		return "", err
	}
	created, err := decodeData[struct {
		ID models.ID `json:"_id"`
	}]("create order", env.Data)
	if err != nil {
		return "", err
	}
	if created.ID.IsZero() {
		return "", &RejectedError{Op: "create order", Message: "order id missing from response"}
	}
	return created.ID.String(), nil
}

func (c *Client) ConfirmPayment(ctx context.Context, token string, p PaymentConfirmation) error {
	_, err := c.do(ctx, call{op: "confirm payment", method: http.MethodPost, path: "/api/v2/orders/confirm-payment", token: token, body: p})
	return err
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (c *Client) CancelOrder(ctx context.Context, token, orderID, reason string) error {
	_, err := c.do(ctx, call{
		op:     "cancel order",
		method: http.MethodPatch,
		path:   "/api/v2/orders/" + url.PathEscape(orderID) + "/cancel",
		token:  token,
		body:   cancelRequest{Reason: reason},
	})
	return err
}

func (c *Client) ConfirmDelivery(ctx context.Context, token, orderID string) error {
	_, err := c.do(ctx, call{
		op:     "confirm delivery",
		method: http.MethodPost,
		path:   "/api/v2/orders/" + url.PathEscape(orderID) + "/confirm-delivery",
		token:  token,
		body:   struct{}{},
	})
	return err
}
