package interfaces

import (
	"context"
	"errors"

	"rescuebite/internal/domain/entities"
)

// ErrTerminalConflict is returned by the store when a reconciliation write
// loses the race against another terminal write with a different outcome.
var ErrTerminalConflict = errors.New("record already reconciled to a different terminal status")

// IPaymentRepository abstracts DynamoDB persistence for Payment.
//
// ApplyReconciliation must be safe to apply twice: a write carrying the same
// terminal status as the stored record overwrites with identical values, and
// a write that would move a terminal record to a different status must be
// rejected by the store (condition expression), not just by the caller.

type IPaymentRepository interface {
	Create(ctx context.Context, p entities.Payment) (entities.Payment, error)
	GetByID(ctx context.Context, id string) (entities.Payment, error)
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (entities.Payment, error)
	GetByExternalReference(ctx context.Context, externalReference string) (entities.Payment, error)
	ListByUserID(ctx context.Context, userID string) ([]entities.Payment, error)
	ApplyReconciliation(ctx context.Context, id string, upd entities.ReconciliationUpdate) (entities.Payment, error)
}
