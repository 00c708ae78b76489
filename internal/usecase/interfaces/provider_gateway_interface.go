package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrProviderUnreachable marks a network/timeout failure before any provider
// response was parsed. Safe to retry by resubmission: no record exists yet.
var ErrProviderUnreachable = errors.New("payment provider unreachable")

// ProviderRejectedError carries the provider's own error text verbatim.
// Initiation surfaces it to the caller and never retries automatically; the
// caller resubmits with a fresh external reference.
type ProviderRejectedError struct {
	StatusCode int
	Message    string
}

func (e *ProviderRejectedError) Error() string {
	return fmt.Sprintf("provider rejected charge (status %d): %s", e.StatusCode, e.Message)
}

// ChargeRequest is the normalized charge a gateway adapter translates into
// its provider's wire format. Adapters use the subset they need.
type ChargeRequest struct {
	Amount            int
	Currency          string
	PhoneNumber       string
	Email             string
	CustomerName      string
	ChannelID         int
	Provider          string
	ExternalReference string
	CallbackURL       string
	NetworkCode       string
}

// ChargeAck is the provider's initial acknowledgment, normalized.
type ChargeAck struct {
	Success           bool
	Status            string
	Reference         string
	CheckoutRequestID string
	// PaymentURL is set by hosted-checkout providers only.
	PaymentURL string
	// Raw keeps the provider's response body for the payment metadata.
	Raw json.RawMessage
}

// StatusResult is one provider status observation for a charge attempt,
// either polled or delivered in a callback envelope.
type StatusResult struct {
	Amount             float64 `json:"Amount"`
	CheckoutRequestID  string  `json:"CheckoutRequestID"`
	ExternalReference  string  `json:"ExternalReference"`
	MerchantRequestID  string  `json:"MerchantRequestID"`
	MpesaReceiptNumber string  `json:"MpesaReceiptNumber,omitempty"`
	Phone              string  `json:"Phone"`
	ResultCode         int     `json:"ResultCode"`
	ResultDesc         string  `json:"ResultDesc"`
	Status             string  `json:"Status"`
}

// Terminal reports whether this observation is final. Anything the provider
// does not label Pending is terminal.
func (s *StatusResult) Terminal() bool {
	return s != nil && s.Status != "" && s.Status != "Pending"
}

// IProviderGateway abstracts an external payment provider's charge API.
//
// The two mobile-money gateways in this system are two instances of this
// contract with different base URLs, auth schemes and payload shapes; the
// usecases are provider-agnostic beyond building the ChargeRequest.
type IProviderGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeAck, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (*StatusResult, error)
}
