package entities

import "time"

// PaymentProvider identifies the mobile-money rail a channel charges through.

type PaymentProvider string

const (
	ProviderMpesa   PaymentProvider = "m-pesa"
	ProviderSasaPay PaymentProvider = "sasapay"
)

func (p PaymentProvider) Valid() bool {
	return p == ProviderMpesa || p == ProviderSasaPay
}

// PaymentChannel is a merchant sub-account (paybill/till/wallet) registered
// at the provider by a business user.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (user_id-index): user_id
//
// Invariant: NetworkCode is set if and only if IsWallet is true. Channels are
// toggled inactive rather than deleted.
type PaymentChannel struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Name              string          `json:"name"`
	ProviderChannelID int             `json:"provider_channel_id"`
	Provider          PaymentProvider `json:"provider"`
	IsWallet          bool            `json:"is_wallet"`
	NetworkCode       string          `json:"network_code,omitempty"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
}
