package entities

import "time"

// OrderStatus is the marketplace-side lifecycle of an order.

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderPaymentStatus tracks the checkout outcome attached to an order.

type OrderPaymentStatus string

const (
	OrderPaymentPending   OrderPaymentStatus = "pending"
	OrderPaymentCompleted OrderPaymentStatus = "completed"
	OrderPaymentFailed    OrderPaymentStatus = "failed"
)

func (s OrderPaymentStatus) IsTerminal() bool {
	return s == OrderPaymentCompleted || s == OrderPaymentFailed
}

// OrderCheckoutUpdate is the terminal payment outcome applied to an Order
// when the checkout provider's webhook is reconciled.
type OrderCheckoutUpdate struct {
	PaymentStatus OrderPaymentStatus
	Status        OrderStatus
	ReceiptNumber string
	CompletedAt   time.Time
}

// Order aggregates a buyer's checkout for a food listing.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (payment_reference-index): payment_reference
//   - GSI2 (buyer_id-index): buyer_id
//
// PaymentReference is unique per order and is the sole join key the checkout
// webhook uses to locate the order; ProviderTransactionID is the hosted
// checkout session assigned by the provider.
type Order struct {
	ID                    string             `json:"id"`
	BuyerID               string             `json:"buyer_id"`
	BuyerName             string             `json:"buyer_name"`
	BuyerEmail            string             `json:"buyer_email"`
	ListingID             string             `json:"listing_id"`
	Quantity              int                `json:"quantity"`
	TotalAmount           int                `json:"total_amount"`
	Currency              string             `json:"currency"`
	Status                OrderStatus        `json:"status"`
	PaymentStatus         OrderPaymentStatus `json:"payment_status"`
	PaymentReference      string             `json:"payment_reference"`
	ProviderTransactionID string             `json:"provider_transaction_id,omitempty"`
	ReceiptNumber         string             `json:"receipt_number,omitempty"`
	PaymentCompletedAt    *time.Time         `json:"payment_completed_at,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}
