package gateway

import (
	"context"
	"time"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/domain"
)

// FixedClient sends every message with a single configured request shape.
type FixedClient struct {
	transport
	candidate Candidate
}

func NewFixedClient(cfg Config, c Candidate) *FixedClient {
	return &FixedClient{transport: newTransport(cfg), candidate: c}
}

func (c *FixedClient) Provider() string {
	return c.cfg.Provider
}

func (c *FixedClient) Send(ctx context.Context, phone, message string) domain.Dispatch {
	d := domain.NewDispatch(phone, message)
	start := time.Now()

	switch err := c.cfg.validate(); {
	case err != nil:
		d.Fail(err)
	default:
		if err := c.attempt(ctx, c.candidate, &d); err != nil {
			d.Fail(err)
		} else {
			settle(&d)
		}
	}

	d.Duration = time.Since(start)
	return d
}
