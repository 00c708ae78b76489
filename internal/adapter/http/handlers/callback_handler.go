package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	request "rescuebite/internal/adapter/http/dto/request"
	"rescuebite/internal/usecase"
	"rescuebite/pkg"

	"github.com/gin-gonic/gin"
)

// CallbackHandler receives asynchronous provider notifications. These routes
// are unauthenticated; the provider does not carry our bearer tokens.

type CallbackHandler struct {
	reconciler usecase.IReconcileUseCase
}

func NewCallbackHandler(rc usecase.IReconcileUseCase) *CallbackHandler {
	return &CallbackHandler{reconciler: rc}
}

// HandlePaymentCallback processes the STK push result envelope. A 200 with
// {"received": true} tells the provider to stop redelivering; anything else
// triggers a retry on their side, so only unmatched and storage failures
// return non-200.
func (h *CallbackHandler) HandlePaymentCallback(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || !json.Valid(raw) {
		appErr := pkg.NewDomainErrorSimple("INVALID_CALLBACK", "Callback body is not valid json", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	var cb request.ProviderCallback
	if err := json.Unmarshal(raw, &cb); err != nil {
		appErr := pkg.NewDomainErrorSimple("INVALID_CALLBACK", "Callback body is not valid json", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	// Valid JSON without the result envelope is malformed, not unmatched.
	if cb.Response.CheckoutRequestID == "" && cb.Response.ExternalReference == "" {
		appErr := pkg.NewDomainErrorSimple("INVALID_CALLBACK", "Callback body carries no payment reference", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	if _, err := h.reconciler.HandleCallback(c.Request.Context(), cb.Response, raw); err != nil {
		if errors.Is(err, usecase.ErrPaymentNotFound) {
			appErr := pkg.NewDomainErrorSimple("PAYMENT_NOT_FOUND", "No payment matches this callback", http.StatusNotFound)
			c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		appErr := pkg.NewDomainError("CALLBACK_STORE_FAILED", "Callback received but could not be recorded", err, http.StatusInternalServerError)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
