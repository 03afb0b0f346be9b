package fler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Top promotes a single listing. Once the account's promotion quota is used
// up the server answers with an *APIError for which QuotaExhausted is true.
func (c *Client) Top(ctx context.Context, id string) (json.RawMessage, error) {
	var ack json.RawMessage
	if err := c.Call(ctx, "/seller/products/action/top", url.Values{"id": {id}}, &ack); err != nil {
		return nil, fmt.Errorf("topping product %s: %w", id, err)
	}
	return ack, nil
}
