package backend

import (
	"context"
	"net/http"

	"food-storefront/models"
)

// FetchDefaultMenu returns the full default menu snapshot.
func (c *Client) FetchDefaultMenu(ctx context.Context) (*models.Catalog, error) {
	env, err := c.do(ctx, call{op: "fetch menu", method: http.MethodGet, path: "/api/v2/menu/default"})
	if err != nil {
		return nil, err
	}
	catalog, err := decodeData[models.Catalog]("fetch menu", env.Data)
	if err != nil {
		return nil, err
	}
	return &catalog, nil
}
