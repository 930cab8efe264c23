package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

type Card struct {
	Name   string `json:"name" validate:"required"`
	Number string `json:"number" validate:"required"`
	Expiry string `json:"expiry" validate:"required"`
	CVC    string `json:"cvc" validate:"required"`
}

type PaymentRequest struct {
	OrderID string          `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"`
	Card    *Card           `json:"card,omitempty"`
}

type StripeInit struct {
	ClientSecret string `json:"clientSecret"`
	CheckoutURL  string `json:"checkoutUrl"`
	SessionID    string `json:"sessionId"`
}

type MomoInit struct {
	PayURL    string `json:"payUrl"`
	Deeplink  string `json:"deeplink"`
	QRCodeURL string `json:"qrCodeUrl"`
	RequestID string `json:"requestId"`
}

type VnpayInit struct {
	PaymentURL string          `json:"paymentUrl"`
	Amount     decimal.Decimal `json:"amount"`
	TxnRef     string          `json:"txnRef"`
}

func (c *Client) PayStripe(ctx context.Context, token string, req PaymentRequest) (*StripeInit, error) {
	env, err := c.do(ctx, call{op: "init stripe payment", method: http.MethodPost, path: "/api/v2/orders/pay/stripe", token: token, body: req})
	if err != nil {
		return nil, err
	}
	out, err := decodeData[StripeInit]("init stripe payment", env.Data)
	return &out, err
}

func (c *Client) PayMomo(ctx context.Context, token string, req PaymentRequest) (*MomoInit, error) {
	env, err := c.do(ctx, call{op: "init momo payment", method: http.MethodPost, path: "/api/v2/orders/pay/momo", token: token, body: req})
	if err != nil {
		return nil, err
	}
	out, err := decodeData[MomoInit]("init momo payment", env.Data)
	return &out, err
}

func (c *Client) PayVnpay(ctx context.Context, token string, req PaymentRequest) (*VnpayInit, error) {
	env, err := c.do(ctx, call{op: "init vnpay payment", method: http.MethodPost, path: "/api/v2/orders/pay/vnpay", token: token, body: req})
	if err != nil {
		return nil, err
	}
	out, err := decodeData[VnpayInit]("init vnpay payment", env.Data)
	return &out, err
}

// VerifyVnpay forwards the provider's return query untouched; the backend
// checks its signature.
func (c *Client) VerifyVnpay(ctx context.Context, query url.Values) error {
	_, err := c.do(ctx, call{op: "verify vnpay payment", method: http.MethodGet, path: "/api/v2/orders/pay/vnpay/verify", query: query})
	return err
}

func (c *Client) VerifyStripe(ctx context.Context, sessionID, orderID string) error {
	_, err := c.do(ctx, call{
		op:     "verify stripe payment",
		method: http.MethodGet,
		path:   "/api/v2/orders/pay/stripe/verify",
		query:  url.Values{"sessionId": {sessionID}, "orderId": {orderID}},
	})
	return err
}

func (c *Client) VerifyMomo(ctx context.Context, orderID, requestID string) error {
	q := url.Values{"orderId": {orderID}}
	if requestID != "" {
		q.Set("requestId", requestID)
	}
	_, err := c.do(ctx, call{op: "verify momo payment", method: http.MethodGet, path: "/api/v2/orders/pay/momo/verify", query: q})
	return err
}

type legacyVerifyRequest struct {
	Success string `json:"success"`
	OrderID string `json:"orderId"`
}

// VerifyLegacy confirms redirects issued by the first-generation order API.
func (c *Client) VerifyLegacy(ctx context.Context, success, orderID string) error {
	_, err := c.do(ctx, call{
		op:     "verify order",
		method: http.MethodPost,
		path:   "/api/order/verify",
		body:   legacyVerifyRequest{Success: success, OrderID: orderID},
	})
	return err
}
