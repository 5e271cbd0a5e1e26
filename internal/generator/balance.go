package generator

import (
	"context"
	"fmt"
	"net/http"
)

const balancePath = "/openapi/v1/balance"

// Balance returns the account's remaining credits. It is used by doctor to
// confirm the API key works without creating a task.
func (c *Client) Balance(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+balancePath, nil)
	if err != nil {
		return 0, fmt.Errorf("balance: build request: %w", err)
	}
	var payload struct {
		Balance int `json:"balance"`
	}
	if err := c.doJSON(req, "balance", &payload); err != nil {
		return 0, err
	}
	return payload.Balance, nil
}
