package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rescuebite/internal/adapter/http/handlers/mocks"
	"rescuebite/internal/domain/entities"
	"rescuebite/internal/usecase"
	"rescuebite/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

const callbackBody = `{
	"forward_url": "",
	"status": true,
	"response": {
		"Amount": 100,
		"CheckoutRequestID": "ws_CO_1",
		"ExternalReference": "ext-1",
		"MpesaReceiptNumber": "SFK123",
		"Phone": "254712345678",
		"ResultCode": 0,
		"ResultDesc": "The service request is processed successfully.",
		"Status": "Success"
	}
}`

func callbackRouter(rc *mocks.MockIReconcileUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCallbackHandler(rc)
	r := gin.New()
	r.POST("/v1/payments/callback", h.HandlePaymentCallback)
	return r
}

func postCallback(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/callback", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCallbackHandler_HandlePaymentCallback(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		r := callbackRouter(mocks.NewMockIReconcileUseCase(ctrl))

		if w := postCallback(r, "{not json"); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("missing result envelope", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		rc := mocks.NewMockIReconcileUseCase(ctrl)
		r := callbackRouter(rc)

		// Valid JSON with no response object: the reconciler is never invoked.
		if w := postCallback(r, `{"status": true}`); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("unmatched callback", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		rc := mocks.NewMockIReconcileUseCase(ctrl)
		r := callbackRouter(rc)

		rc.EXPECT().HandleCallback(gomock.Any(), gomock.Any(), gomock.Any()).Return(entities.Payment{}, usecase.ErrPaymentNotFound)

		if w := postCallback(r, callbackBody); w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		rc := mocks.NewMockIReconcileUseCase(ctrl)
		r := callbackRouter(rc)

		rc.EXPECT().HandleCallback(gomock.Any(), gomock.Any(), gomock.Any()).Return(entities.Payment{}, errors.New("dynamodb down"))

		if w := postCallback(r, callbackBody); w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})

	t.Run("success acknowledges receipt", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		rc := mocks.NewMockIReconcileUseCase(ctrl)
		r := callbackRouter(rc)

		rc.EXPECT().HandleCallback(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ interface{}, result interfaces.StatusResult, raw json.RawMessage) (entities.Payment, error) {
				if result.CheckoutRequestID != "ws_CO_1" || result.ResultCode != 0 {
					t.Fatalf("envelope not unwrapped: %+v", result)
				}
				if !json.Valid(raw) {
					t.Fatalf("raw body must be preserved")
				}
				return entities.Payment{ID: "pay-1", Status: entities.PaymentStatusSuccess}, nil
			})

		w := postCallback(r, callbackBody)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp["received"] != true {
			t.Fatalf("expected received:true, got %s", w.Body.String())
		}
	})
}
