package interfaces

import (
	"context"
	"rescuebite/internal/domain/entities"
)

// IChannelRepository abstracts DynamoDB persistence for PaymentChannel.
//
// GetByIDForUser scopes the lookup to the owning user; initiation uses it so
// one tenant can never charge through another tenant's channel.

type IChannelRepository interface {
	Create(ctx context.Context, ch entities.PaymentChannel) (entities.PaymentChannel, error)
	GetByIDForUser(ctx context.Context, id, userID string) (entities.PaymentChannel, error)
	ListByUserID(ctx context.Context, userID string) ([]entities.PaymentChannel, error)
	SetActive(ctx context.Context, id, userID string, active bool) (entities.PaymentChannel, error)
}
