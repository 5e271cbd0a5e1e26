package catalog

import (
	"context"
	"errors"
	"strings"
)

const shopQuery = `{ shop { name myshopifyDomain } }`

// ShopName returns the shop's display name. It is a cheap authenticated call
// used by doctor to confirm the token works.
func (c *Client) ShopName(ctx context.Context) (string, error) {
	var data struct {
		Shop struct {
			Name   string `json:"name"`
			Domain string `json:"myshopifyDomain"`
		} `json:"shop"`
	}
	if err := c.do(ctx, "shop", shopQuery, nil, &data); err != nil {
		return "", err
	}
	name := strings.TrimSpace(data.Shop.Name)
	if name == "" {
		name = strings.TrimSpace(data.Shop.Domain)
	}
	if name == "" {
		return "", errors.New("shop query returned no name")
	}
	return name, nil
}
