package fler

import (
	"context"
	"fmt"

	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// Ping checks that the credentials are accepted by the server.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.Call(ctx, "/seller/ping", nil, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// AccountInfo fetches the seller account summary, including the reputation
// score that selects the promotion quota tier.
func (c *Client) AccountInfo(ctx context.Context) (*domain.Account, error) {
	var a domain.Account
	if err := c.Call(ctx, "/user/account/info", nil, &a); err != nil {
		return nil, fmt.Errorf("fetching account info: %w", err)
	}
	return &a, nil
}
