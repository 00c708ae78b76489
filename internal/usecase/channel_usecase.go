package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"rescuebite/internal/domain/entities"
	"rescuebite/internal/usecase/interfaces"

	"github.com/google/uuid"
)

var (
	ErrInvalidChannelName       = errors.New("invalid channel name")
	ErrInvalidProvider          = errors.New("invalid provider")
	ErrInvalidProviderChannelID = errors.New("invalid provider channel id")
	ErrNetworkCodeRequired      = errors.New("network_code is required for wallet channels")
	ErrUnexpectedNetworkCode    = errors.New("network_code is only valid for wallet channels")
)

type CreateChannelInput struct {
	UserID            string
	Name              string
	Provider          entities.PaymentProvider
	ProviderChannelID int
	IsWallet          bool
	NetworkCode       string
}

// IChannelUseCase manages a business user's payment channels. Channels are
// deactivated, never deleted.

type IChannelUseCase interface {
	Create(ctx context.Context, in CreateChannelInput) (entities.PaymentChannel, error)
	ListByUser(ctx context.Context, userID string) ([]entities.PaymentChannel, error)
	SetActive(ctx context.Context, id, userID string, active bool) (entities.PaymentChannel, error)
}

type ChannelUseCase struct {
	repo interfaces.IChannelRepository
}

var _ IChannelUseCase = (*ChannelUseCase)(nil)

func NewChannelUseCase(repo interfaces.IChannelRepository) *ChannelUseCase {
	return &ChannelUseCase{repo: repo}
}

func (u *ChannelUseCase) Create(ctx context.Context, in CreateChannelInput) (entities.PaymentChannel, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	if in.UserID == "" {
		return entities.PaymentChannel{}, ErrMissingIdentity
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return entities.PaymentChannel{}, ErrInvalidChannelName
	}
	if !in.Provider.Valid() {
		return entities.PaymentChannel{}, ErrInvalidProvider
	}
	if in.ProviderChannelID <= 0 {
		return entities.PaymentChannel{}, ErrInvalidProviderChannelID
	}

	// network_code present iff the channel is a wallet.
	in.NetworkCode = strings.TrimSpace(in.NetworkCode)
	if in.IsWallet && in.NetworkCode == "" {
		return entities.PaymentChannel{}, ErrNetworkCodeRequired
	}
	if !in.IsWallet && in.NetworkCode != "" {
		return entities.PaymentChannel{}, ErrUnexpectedNetworkCode
	}

	ch := entities.PaymentChannel{
		ID:                uuid.NewString(),
		UserID:            in.UserID,
		Name:              in.Name,
		Provider:          in.Provider,
		ProviderChannelID: in.ProviderChannelID,
		IsWallet:          in.IsWallet,
		NetworkCode:       in.NetworkCode,
		IsActive:          true,
		CreatedAt:         time.Now().UTC(),
	}
	return u.repo.Create(ctx, ch)
}

func (u *ChannelUseCase) ListByUser(ctx context.Context, userID string) ([]entities.PaymentChannel, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingIdentity
	}
	return u.repo.ListByUserID(ctx, userID)
}

func (u *ChannelUseCase) SetActive(ctx context.Context, id, userID string, active bool) (entities.PaymentChannel, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.PaymentChannel{}, ErrChannelNotFound
	}
	ch, err := u.repo.SetActive(ctx, id, strings.TrimSpace(userID), active)
	if err != nil {
		return entities.PaymentChannel{}, err
	}
	if ch.ID == "" {
		return entities.PaymentChannel{}, ErrChannelNotFound
	}
	return ch, nil
}
