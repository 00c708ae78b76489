package entities

import "time"

// PaymentStatus tracks one STK-push charge attempt.
//
// Lifecycle: QUEUED -> PENDING -> {SUCCESS | FAILED | CANCELLED}.
// SUCCESS/FAILED/CANCELLED are terminal; the only transition allowed out of
// a terminal status is an overwrite with the same status (duplicate
// provider callbacks are applied idempotently, never reinterpreted).

type PaymentStatus string

const (
	PaymentStatusQueued    PaymentStatus = "QUEUED"
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal status
// change. Identity transitions on terminal states are allowed so a redelivered
// callback can be re-applied as an overwrite.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	if s.IsTerminal() {
		return s == next
	}
	switch s {
	case PaymentStatusQueued:
		return next == PaymentStatusPending || next.IsTerminal()
	case PaymentStatusPending:
		return next.IsTerminal()
	}
	return false
}

// PayHero result codes carried in the callback envelope.
const (
	ResultCodeSuccess       = 0
	ResultCodeUserCancelled = 1032
)

// StatusFromResultCode classifies the provider's numeric result code.
func StatusFromResultCode(code int) PaymentStatus {
	switch code {
	case ResultCodeSuccess:
		return PaymentStatusSuccess
	case ResultCodeUserCancelled:
		return PaymentStatusCancelled
	default:
		return PaymentStatusFailed
	}
}

// Payment is one charge attempt against a payment channel.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (checkout_request_id-index): checkout_request_id
//   - GSI2 (external_reference-index): external_reference
//   - GSI3 (user_id-index): user_id
//
// Correlation keys:
//   - ExternalReference is the caller-chosen (or generated) idempotency key
//     threaded through initiation and callback.
//   - CheckoutRequestID is assigned by the provider on initiation and is the
//     primary key used to match the later callback; ExternalReference is the
//     fallback.
type Payment struct {
	ID                string        `json:"id"`
	UserID            string        `json:"user_id"`
	ChannelID         string        `json:"channel_id"`
	Amount            int           `json:"amount"`
	PhoneNumber       string        `json:"phone_number"`
	CustomerName      string        `json:"customer_name,omitempty"`
	ExternalReference string        `json:"external_reference"`
	ProviderReference string        `json:"provider_reference,omitempty"`
	CheckoutRequestID string        `json:"checkout_request_id,omitempty"`
	Status            PaymentStatus `json:"status"`
	ResultCode        *int          `json:"result_code,omitempty"`
	ResultDescription string        `json:"result_description,omitempty"`
	ReceiptNumber     string        `json:"receipt_number,omitempty"`

	// Metadata keeps raw provider payloads (initiation ack, callback body)
	// for traceability; the reconciler merges into it rather than replacing.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ReconciliationUpdate is the terminal state applied to a Payment when a
// provider callback (or a terminal poll result) is reconciled. Metadata is
// the full merged map (existing keys plus the callback payload); when nil,
// the stored metadata is left untouched.
type ReconciliationUpdate struct {
	Status            PaymentStatus
	ResultCode        int
	ResultDescription string
	ReceiptNumber     string
	Metadata          map[string]interface{}
	CompletedAt       time.Time
}
