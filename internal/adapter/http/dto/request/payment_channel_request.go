package request

// CreateChannelRequest registers a provider payout/collection channel for the
// authenticated user.
type CreateChannelRequest struct {
	Name              string `json:"name" binding:"required"`
	Provider          string `json:"provider" binding:"required"`
	ProviderChannelID int    `json:"provider_channel_id" binding:"required"`
	IsWallet          bool   `json:"is_wallet"`
	NetworkCode       string `json:"network_code"`
}

// SetChannelActiveRequest toggles a channel without deleting its history.
type SetChannelActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
