package response

import (
	"time"

	"rescuebite/internal/domain/entities"
)

// CheckoutResponse carries the hosted checkout URL the buyer must visit to
// complete payment.
type CheckoutResponse struct {
	OrderID          string `json:"order_id"`
	PaymentReference string `json:"payment_reference"`
	TransactionID    string `json:"transaction_id"`
	PaymentURL       string `json:"payment_url"`
	Status           string `json:"status"`
}

type OrderResponse struct {
	ID                 string     `json:"id"`
	BuyerName          string     `json:"buyer_name"`
	BuyerEmail         string     `json:"buyer_email"`
	ListingID          string     `json:"listing_id"`
	Quantity           int        `json:"quantity"`
	TotalAmount        int        `json:"total_amount"`
	Currency           string     `json:"currency"`
	Status             string     `json:"status"`
	PaymentStatus      string     `json:"payment_status"`
	PaymentReference   string     `json:"payment_reference"`
	ReceiptNumber      string     `json:"receipt_number,omitempty"`
	PaymentCompletedAt *time.Time `json:"payment_completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func FromOrder(o entities.Order) OrderResponse {
	return OrderResponse{
		ID:                 o.ID,
		BuyerName:          o.BuyerName,
		BuyerEmail:         o.BuyerEmail,
		ListingID:          o.ListingID,
		Quantity:           o.Quantity,
		TotalAmount:        o.TotalAmount,
		Currency:           o.Currency,
		Status:             string(o.Status),
		PaymentStatus:      string(o.PaymentStatus),
		PaymentReference:   o.PaymentReference,
		ReceiptNumber:      o.ReceiptNumber,
		PaymentCompletedAt: o.PaymentCompletedAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func FromOrders(os []entities.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(os))
	for _, o := range os {
		out = append(out, FromOrder(o))
	}
	return out
}
