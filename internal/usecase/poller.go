package usecase

import (
	"context"
	"time"

	"rescuebite/internal/telemetry"
	"rescuebite/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const (
	defaultPollInitialDelay = 3 * time.Second
	defaultPollMaxDelay     = 30 * time.Second
	defaultPollMaxAttempts  = 20
)

// StatusPoller repeatedly queries the provider for a charge attempt's status
// until a terminal result arrives or the attempt budget is spent. It is an
// optional accelerant for callers that cannot wait for the webhook; the
// record store stays the single source of truth, and the poller racing the
// callback reconciler is benign (both observe the same terminal state).
type StatusPoller struct {
	gateway interfaces.IProviderGateway

	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

func NewStatusPoller(gateway interfaces.IProviderGateway) *StatusPoller {
	return &StatusPoller{
		gateway:      gateway,
		InitialDelay: defaultPollInitialDelay,
		MaxDelay:     defaultPollMaxDelay,
		MaxAttempts:  defaultPollMaxAttempts,
	}
}

// Poll waits InitialDelay before the first check and grows the delay by half
// after each non-terminal result, capped at MaxDelay. It returns the first
// terminal status payload, or nil after MaxAttempts without one. Query errors
// are treated as non-terminal observations. Cancelling ctx stops the loop
// without leaking the timer.
func (p *StatusPoller) Poll(ctx context.Context, checkoutRequestID string) (*interfaces.StatusResult, error) {
	delay := p.InitialDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		status, err := p.gateway.QueryStatus(ctx, checkoutRequestID)
		if err != nil {
			telemetry.Logger.Debug("payment.status_query_failed",
				zap.String("checkout_request_id", checkoutRequestID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		} else if status.Terminal() {
			return status, nil
		}

		delay = delay + delay/2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return nil, nil
}
