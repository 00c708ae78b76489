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

var ErrMissingPayHeroCredentials = errors.New("missing PAYHERO_BASIC_AUTH")

type payHeroChargeRequest struct {
	Amount            int    `json:"amount"`
	PhoneNumber       string `json:"phone_number"`
	ChannelID         int    `json:"channel_id"`
	Provider          string `json:"provider"`
	ExternalReference string `json:"external_reference"`
	CustomerName      string `json:"customer_name"`
	CallbackURL       string `json:"callback_url"`
	NetworkCode       string `json:"network_code,omitempty"`
}

type payHeroChargeResponse struct {
	Success           bool   `json:"success"`
	Status            string `json:"status"`
	Reference         string `json:"reference"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type payHeroQueryEnvelope struct {
	Response *interfaces.StatusResult `json:"response"`
}

// PayHeroGateway charges via PayHero's STK push API.
//
// Auth is a pre-encoded Basic credential; it goes into the Authorization
// header and nowhere else, never into logs.

type PayHeroGateway struct {
	baseURL   string
	basicAuth string
	client    *http.Client
}

var _ interfaces.IProviderGateway = (*PayHeroGateway)(nil)

func NewPayHeroGateway(baseURL, basicAuth string) (*PayHeroGateway, error) {
	if strings.TrimSpace(basicAuth) == "" {
		return nil, ErrMissingPayHeroCredentials
	}
	return &PayHeroGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		basicAuth: basicAuth,
		client:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Charge submits the STK push. A non-2xx response surfaces the provider's
// body verbatim as a ProviderRejectedError; transport failures map to
// ErrProviderUnreachable.
func (g *PayHeroGateway) Charge(ctx context.Context, req interfaces.ChargeRequest) (interfaces.ChargeAck, error) {
	payload := payHeroChargeRequest{
		Amount:            req.Amount,
		PhoneNumber:       req.PhoneNumber,
		ChannelID:         req.ChannelID,
		Provider:          req.Provider,
		ExternalReference: req.ExternalReference,
		CustomerName:      req.CustomerName,
		CallbackURL:       req.CallbackURL,
		NetworkCode:       req.NetworkCode,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return interfaces.ChargeAck{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return interfaces.ChargeAck{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Basic "+g.basicAuth)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		telemetry.Logger.Warn("payhero.charge_unreachable", zap.Error(err))
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

	var ack payHeroChargeResponse
	if err := json.Unmarshal(respBody, &ack); err != nil {
		return interfaces.ChargeAck{}, fmt.Errorf("decode charge response: %w", err)
	}
	return interfaces.ChargeAck{
		Success:           ack.Success,
		Status:            ack.Status,
		Reference:         ack.Reference,
		CheckoutRequestID: ack.CheckoutRequestID,
		Raw:               respBody,
	}, nil
}

// QueryStatus fetches the provider's current view of a push. The result comes
// wrapped in a {response: ...} envelope.
func (g *PayHeroGateway) QueryStatus(ctx context.Context, checkoutRequestID string) (*interfaces.StatusResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/payments/query/"+checkoutRequestID, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Basic "+g.basicAuth)

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

	var env payHeroQueryEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	if env.Response == nil {
		return nil, fmt.Errorf("status response missing payload")
	}
	return env.Response, nil
}

// rejectionMessage extracts a human-readable message from a provider error
// body: the error/message JSON field when present, otherwise the raw text.
func rejectionMessage(body []byte, status int) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", status)
}
