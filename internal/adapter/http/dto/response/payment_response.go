package response

import (
	"time"

	"rescuebite/internal/domain/entities"
)

// InitiatePaymentResponse is the synchronous acknowledgement for an STK push.
// The terminal outcome arrives later via callback or polling.
type InitiatePaymentResponse struct {
	PaymentID         string `json:"payment_id"`
	PayheroReference  string `json:"payhero_reference"`
	CheckoutRequestID string `json:"checkout_request_id"`
	ExternalReference string `json:"external_reference"`
	Status            string `json:"status"`
}

type PaymentResponse struct {
	ID                string     `json:"id"`
	ChannelID         string     `json:"channel_id"`
	Amount            int        `json:"amount"`
	PhoneNumber       string     `json:"phone_number"`
	CustomerName      string     `json:"customer_name,omitempty"`
	ExternalReference string     `json:"external_reference"`
	ProviderReference string     `json:"provider_reference,omitempty"`
	CheckoutRequestID string     `json:"checkout_request_id,omitempty"`
	Status            string     `json:"status"`
	ResultCode        *int       `json:"result_code,omitempty"`
	ResultDescription string     `json:"result_description,omitempty"`
	ReceiptNumber     string     `json:"receipt_number,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

func FromPayment(p entities.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		ChannelID:         p.ChannelID,
		Amount:            p.Amount,
		PhoneNumber:       p.PhoneNumber,
		CustomerName:      p.CustomerName,
		ExternalReference: p.ExternalReference,
		ProviderReference: p.ProviderReference,
		CheckoutRequestID: p.CheckoutRequestID,
		Status:            string(p.Status),
		ResultCode:        p.ResultCode,
		ResultDescription: p.ResultDescription,
		ReceiptNumber:     p.ReceiptNumber,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		CompletedAt:       p.CompletedAt,
	}
}

func FromPayments(ps []entities.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, FromPayment(p))
	}
	return out
}
