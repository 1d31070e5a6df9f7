package client

import (
	"context"
	"time"
)

// HealthUpdate is one poll result. Err is set when the probe itself
// failed; Status is set when the server answered.
type HealthUpdate struct {
	Status *HealthStatus
	Err    error
}

// PollHealth probes the health endpoint at a fixed interval and calls
// onUpdate with each result. It probes once immediately, then ticks
// until the context is cancelled.
func (c *Client) PollHealth(ctx context.Context, interval time.Duration, onUpdate func(HealthUpdate)) {
	probe := func() {
		status, err := c.Health(ctx)
		onUpdate(HealthUpdate{Status: status, Err: err})
	}

	probe()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}
