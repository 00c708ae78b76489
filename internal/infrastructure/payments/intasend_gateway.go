package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rescuebite/internal/telemetry"
	"rescuebite/internal/usecase/interfaces"

	"go.uber.org/zap"
)

var ErrMissingIntaSendCredentials = errors.New("missing INTASEND_SECRET_KEY")

type intaSendCheckoutRequest struct {
	Amount      int      `json:"amount"`
	Currency    string   `json:"currency"`
	Method      []string `json:"method"`
	Email       string   `json:"email"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	APIRef      string   `json:"api_ref"`
	WebhookURL  string   `json:"webhook_url,omitempty"`
	PublicKey   string   `json:"public_key,omitempty"`
}

type intaSendCheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type intaSendPaymentState struct {
	InvoiceID      string  `json:"invoice_id"`
	State          string  `json:"state"`
	APIRef         string  `json:"api_ref"`
	Value          float64 `json:"value"`
	MpesaReference string  `json:"mpesa_reference"`
	Account        string  `json:"account"`
}

// IntaSendGateway opens hosted checkout sessions on IntaSend. The buyer
// completes payment on IntaSend's page; the outcome arrives via webhook.

type IntaSendGateway struct {
	baseURL   string
	secretKey string
	publicKey string
	client    *http.Client
}

var _ interfaces.IProviderGateway = (*IntaSendGateway)(nil)

func NewIntaSendGateway(baseURL, secretKey, publicKey string) (*IntaSendGateway, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, ErrMissingIntaSendCredentials
	}
	return &IntaSendGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		publicKey: publicKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Charge creates the hosted checkout. The session id and payment URL come
// back in the ChargeAck; the ack status is always pending because the buyer
// has not paid yet.
func (g *IntaSendGateway) Charge(ctx context.Context, req interfaces.ChargeRequest) (interfaces.ChargeAck, error) {
	payload := intaSendCheckoutRequest{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Method:      []string{"MPESA", "CARD"},
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		APIRef:      req.ExternalReference,
		WebhookURL:  req.CallbackURL,
		PublicKey:   g.publicKey,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return interfaces.ChargeAck{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/checkout/", bytes.NewReader(body))
	if err != nil {
		return interfaces.ChargeAck{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		telemetry.Logger.Warn("intasend.checkout_unreachable", zap.Error(err))
		return interfaces.ChargeAck{}, interfaces.ErrProviderUnreachable
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return interfaces.ChargeAck{}, interfaces.ErrProviderUnreachable
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return interfaces.ChargeAck{}, &interfaces.ProviderRejectedError{
			StatusCode: resp.StatusCode,
			Message:    rejectionMessage(respBody, resp.StatusCode),
		}
	}

	var checkout intaSendCheckoutResponse
	if err := json.Unmarshal(respBody, &checkout); err != nil {
		return interfaces.ChargeAck{}, fmt.Errorf("decode checkout response: %w", err)
	}
	return interfaces.ChargeAck{
		Success:           true,
		Status:            "PENDING",
		CheckoutRequestID: checkout.ID,
		PaymentURL:        checkout.URL,
		Raw:               respBody,
	}, nil
}

// QueryStatus fetches the checkout session state and normalizes it into the
// shared StatusResult shape: COMPLETE maps to a success result code, any
// other terminal state to a failure.
func (g *IntaSendGateway) QueryStatus(ctx context.Context, transactionID string) (*interfaces.StatusResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/payments/"+transactionID+"/", nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, interfaces.ErrProviderUnreachable
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, interfaces.ErrProviderUnreachable
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &interfaces.ProviderRejectedError{
			StatusCode: resp.StatusCode,
			Message:    rejectionMessage(respBody, resp.StatusCode),
		}
	}

	var state intaSendPaymentState
	if err := json.Unmarshal(respBody, &state); err != nil {
		return nil, fmt.Errorf("decode payment state: %w", err)
	}
	return normalizeIntaSendState(state), nil
}

func normalizeIntaSendState(state intaSendPaymentState) *interfaces.StatusResult {
	res := &interfaces.StatusResult{
		Amount:             state.Value,
		CheckoutRequestID:  state.InvoiceID,
		ExternalReference:  state.APIRef,
		MpesaReceiptNumber: state.MpesaReference,
		Phone:              state.Account,
	}
	switch strings.ToUpper(strings.TrimSpace(state.State)) {
	case "COMPLETE", "COMPLETED", "PAID":
		res.Status = "Success"
		res.ResultCode = 0
		res.ResultDesc = "The transaction completed successfully."
	case "FAILED", "CANCELLED":
		res.Status = "Failed"
		res.ResultCode = 1
		res.ResultDesc = "The transaction failed."
	default:
		res.Status = "Pending"
	}
	return res
}
