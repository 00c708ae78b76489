package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rescuebite/internal/usecase/interfaces"
)

func chargeReq() interfaces.ChargeRequest {
	return interfaces.ChargeRequest{
		Amount:            100,
		PhoneNumber:       "254712345678",
		ChannelID:         7,
		Provider:          "m-pesa",
		ExternalReference: "ext-1",
		CustomerName:      "Jane",
		CallbackURL:       "https://api.example.com/payments/callback",
	}
}

func TestNewPayHeroGateway_MissingCredentials(t *testing.T) {
	if _, err := NewPayHeroGateway("https://backend.payhero.co.ke/api/v2", " "); !errors.Is(err, ErrMissingPayHeroCredentials) {
		t.Fatalf("expected ErrMissingPayHeroCredentials, got %v", err)
	}
}

func TestPayHeroGateway_Charge(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/payments" || r.Method != http.MethodPost {
				t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Basic c2VjcmV0" {
				t.Fatalf("unexpected auth header: %q", got)
			}
			var payload map[string]any
			_ = json.NewDecoder(r.Body).Decode(&payload)
			if payload["phone_number"] != "254712345678" || payload["external_reference"] != "ext-1" {
				t.Fatalf("unexpected payload: %+v", payload)
			}
			if _, ok := payload["network_code"]; ok {
				t.Fatalf("network_code must be omitted when empty: %+v", payload)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"status":"QUEUED","reference":"R1","CheckoutRequestID":"ws_CO_1"}`))
		}))
		defer srv.Close()

		g, err := NewPayHeroGateway(srv.URL, "c2VjcmV0")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ack, err := g.Charge(context.Background(), chargeReq())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ack.Success || ack.Reference != "R1" || ack.CheckoutRequestID != "ws_CO_1" || ack.Status != "QUEUED" {
			t.Fatalf("unexpected ack: %+v", ack)
		}
		if len(ack.Raw) == 0 {
			t.Fatalf("raw response not preserved")
		}
	})

	t.Run("rejection surfaces provider text verbatim", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"insufficient channel balance"}`))
		}))
		defer srv.Close()

		g, _ := NewPayHeroGateway(srv.URL, "c2VjcmV0")
		_, err := g.Charge(context.Background(), chargeReq())

		var rejected *interfaces.ProviderRejectedError
		if !errors.As(err, &rejected) {
			t.Fatalf("expected ProviderRejectedError, got %v", err)
		}
		if rejected.StatusCode != http.StatusBadRequest || rejected.Message != "insufficient channel balance" {
			t.Fatalf("unexpected rejection: %+v", rejected)
		}
	})

	t.Run("non-json error body kept as raw text", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("upstream maintenance"))
		}))
		defer srv.Close()

		g, _ := NewPayHeroGateway(srv.URL, "c2VjcmV0")
		_, err := g.Charge(context.Background(), chargeReq())

		var rejected *interfaces.ProviderRejectedError
		if !errors.As(err, &rejected) {
			t.Fatalf("expected ProviderRejectedError, got %v", err)
		}
		if rejected.Message != "upstream maintenance" {
			t.Fatalf("raw text not preserved: %q", rejected.Message)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		g, _ := NewPayHeroGateway(srv.URL, "c2VjcmV0")
		if _, err := g.Charge(context.Background(), chargeReq()); !errors.Is(err, interfaces.ErrProviderUnreachable) {
			t.Fatalf("expected ErrProviderUnreachable, got %v", err)
		}
	})
}

func TestPayHeroGateway_QueryStatus(t *testing.T) {
	t.Run("unwraps response envelope", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/payments/query/ws_CO_1" {
				t.Fatalf("unexpected path: %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"response":{"Amount":100,"CheckoutRequestID":"ws_CO_1","ResultCode":0,"ResultDesc":"ok","Status":"Success","MpesaReceiptNumber":"SFK123"}}`))
		}))
		defer srv.Close()

		g, _ := NewPayHeroGateway(srv.URL, "c2VjcmV0")
		res, err := g.QueryStatus(context.Background(), "ws_CO_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Status != "Success" || res.MpesaReceiptNumber != "SFK123" || !res.Terminal() {
			t.Fatalf("unexpected result: %+v", res)
		}
	})

	t.Run("missing envelope payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		g, _ := NewPayHeroGateway(srv.URL, "c2VjcmV0")
		if _, err := g.QueryStatus(context.Background(), "ws_CO_1"); err == nil {
			t.Fatalf("expected error for empty envelope")
		}
	})
}

