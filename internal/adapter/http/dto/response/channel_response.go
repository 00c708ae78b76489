package response

import (
	"time"

	"rescuebite/internal/domain/entities"
)

type ChannelResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Provider          string    `json:"provider"`
	ProviderChannelID int       `json:"provider_channel_id"`
	IsWallet          bool      `json:"is_wallet"`
	NetworkCode       string    `json:"network_code,omitempty"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

func FromChannel(c entities.PaymentChannel) ChannelResponse {
	return ChannelResponse{
		ID:                c.ID,
		Name:              c.Name,
		Provider:          string(c.Provider),
		ProviderChannelID: c.ProviderChannelID,
		IsWallet:          c.IsWallet,
		NetworkCode:       c.NetworkCode,
		IsActive:          c.IsActive,
		CreatedAt:         c.CreatedAt,
	}
}

func FromChannels(cs []entities.PaymentChannel) []ChannelResponse {
	out := make([]ChannelResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, FromChannel(c))
	}
	return out
}
