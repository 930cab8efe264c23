package backend

import (
	"context"
	"net/http"
)

type cartItemRequest struct {
	ItemID string `json:"itemId"`
}

func (c *Client) AddToCart(ctx context.Context, token, variantID string) error {
	_, err := c.do(ctx, call{
		op:     "add to cart",
		method: http.MethodPost,
		path:   "/api/cart/add",
		token:  token,
		body:   cartItemRequest{ItemID: variantID},
	})
	return err
}

func (c *Client) RemoveFromCart(ctx context.Context, token, variantID string) error {
	_, err := c.do(ctx, call{
		op:     "remove from cart",
		method: http.MethodPost,
		path:   "/api/cart/remove",
		token:  token,
		body:   cartItemRequest{ItemID: variantID},
	})
	return err
}

// GetCart returns the remote cart snapshot for the session, variant id to
// quantity. The endpoint answers a bare {cartData} without a success flag, so
// a response carrying cartData is accepted either way.
func (c *Client) GetCart(ctx context.Context, token string) (map[string]int, error) {
	env, err := c.do(ctx, call{
		op:     "get cart",
		method: http.MethodPost,
		path:   "/api/cart/get",
		token:  token,
		body:   struct{}{},
	})
	if err != nil && !(IsRejected(err) && hasCartData(env)) {
		return nil, err
	}
	cart, err := decodeData[map[string]int]("get cart", env.CartData)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = map[string]int{}
	}
	return cart, nil
}

func hasCartData(env *envelope) bool {
	return env != nil && len(env.CartData) > 0 && string(env.CartData) != "null"
}
