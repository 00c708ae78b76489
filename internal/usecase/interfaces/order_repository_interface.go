package interfaces

import (
	"context"
	"rescuebite/internal/domain/entities"
)

// IOrderRepository abstracts DynamoDB persistence for Order.
//
// GetByPaymentReference is the webhook join: payment_reference is the only
// correlation key the checkout provider echoes back. ApplyCheckoutUpdate has
// the same idempotence contract as IPaymentRepository.ApplyReconciliation.

type IOrderRepository interface {
	Create(ctx context.Context, o entities.Order) (entities.Order, error)
	GetByID(ctx context.Context, id string) (entities.Order, error)
	GetByPaymentReference(ctx context.Context, paymentReference string) (entities.Order, error)
	ListByBuyerID(ctx context.Context, buyerID string) ([]entities.Order, error)
	ApplyCheckoutUpdate(ctx context.Context, id string, upd entities.OrderCheckoutUpdate) (entities.Order, error)
	SetProviderTransactionID(ctx context.Context, id, transactionID string) error
}
