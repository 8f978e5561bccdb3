package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/domain"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/logging"
)

// ProbingClient walks an ordered list of candidates until the gateway gives
// a conclusive answer. 404 and 405 move on to the next candidate; any other
// status, or a transport failure, ends the walk.
type ProbingClient struct {
	transport
	candidates []Candidate
}

func NewProbingClient(cfg Config, plan Plan) *ProbingClient {
	return &ProbingClient{transport: newTransport(cfg), candidates: plan.Candidates()}
}

func (c *ProbingClient) Provider() string {
	return c.cfg.Provider
}

func (c *ProbingClient) Send(ctx context.Context, phone, message string) domain.Dispatch {
	d := domain.NewDispatch(phone, message)
	start := time.Now()

	if err := c.cfg.validate(); err != nil {
		d.Fail(err)
		d.Duration = time.Since(start)
		return d
	}

	for _, cand := range c.candidates {
		if err := ctx.Err(); err != nil {
			d.Fail(fmt.Errorf("%w: %v", domain.ErrGatewayUnreachable, err))
			d.Duration = time.Since(start)
			return d
		}

		if err := c.attempt(ctx, cand, &d); err != nil {
			d.Fail(err)
			d.Duration = time.Since(start)
			return d
		}

		if !IsInconclusive(d.Status) {
			settle(&d)
			d.Duration = time.Since(start)
			return d
		}
	}

	logging.FromContext(ctx).Warn("no gateway route accepted the request",
		"provider", c.cfg.Provider,
		"attempts", d.Attempts,
	)
	d.Inconclusive = true
	if d.Attempts == 0 {
		d.Fail(domain.ErrNoRouteFound)
	} else {
		d.Fail(fmt.Errorf("%w: last status %d", domain.ErrNoRouteFound, d.Status))
	}
	d.Duration = time.Since(start)
	return d
}
