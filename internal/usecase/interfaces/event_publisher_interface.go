package interfaces

import (
	"context"
	"time"
)

// LifecycleEvent is a payment/order state-change record published for
// downstream consumers (and asserted on in tests to verify idempotence).
type LifecycleEvent struct {
	Name              string    `json:"event"`
	PaymentID         string    `json:"payment_id,omitempty"`
	OrderID           string    `json:"order_id,omitempty"`
	ExternalReference string    `json:"external_reference,omitempty"`
	CheckoutRequestID string    `json:"checkout_request_id,omitempty"`
	PreviousStatus    string    `json:"previous_status,omitempty"`
	Status            string    `json:"status,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// IEventPublisher publishes lifecycle events. Implementations must be
// fire-and-forget from the caller's perspective; a publish failure never
// fails the request that produced it.
type IEventPublisher interface {
	Publish(ctx context.Context, ev LifecycleEvent)
}
