package request

import (
	"errors"
	"strings"
)

var (
	ErrInvalidPhoneFormat = errors.New("invalid phone number format")
)

// InitiatePaymentRequest is the payload for the STK push initiation route.
//
// `external_reference` is optional; when absent the server generates one and
// returns it so the client can track the payment.
type InitiatePaymentRequest struct {
	Amount            int    `json:"amount" binding:"required"`
	PhoneNumber       string `json:"phone_number" binding:"required"`
	ChannelID         string `json:"channel_id" binding:"required"`
	CustomerName      string `json:"customer_name"`
	ExternalReference string `json:"external_reference"`
}

// ResolvePhone normalizes Kenyan MSISDNs to the 254XXXXXXXXX form the
// provider requires. Accepted inputs: 07XX/01XX, +2547XX, 2547XX.
func (r InitiatePaymentRequest) ResolvePhone() (string, error) {
	p := strings.TrimSpace(r.PhoneNumber)
	p = strings.ReplaceAll(p, " ", "")
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, "0") {
		p = "254" + p[1:]
	}
	if len(p) != 12 || !strings.HasPrefix(p, "254") {
		return "", ErrInvalidPhoneFormat
	}
	for _, c := range p {
		if c < '0' || c > '9' {
			return "", ErrInvalidPhoneFormat
		}
	}
	return p, nil
}
