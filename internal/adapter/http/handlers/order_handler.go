package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	request "rescuebite/internal/adapter/http/dto/request"
	response "rescuebite/internal/adapter/http/dto/response"
	"rescuebite/internal/adapter/http/middleware"
	"rescuebite/internal/usecase"
	"rescuebite/internal/usecase/interfaces"
	"rescuebite/pkg"

	"github.com/gin-gonic/gin"
)

// OrderHandler is the marketplace checkout vertical: hosted checkout
// creation, the provider webhook and order reads.

type OrderHandler struct {
	usecase usecase.IOrderUseCase
}

func NewOrderHandler(uc usecase.IOrderUseCase) *OrderHandler {
	return &OrderHandler{usecase: uc}
}

// Checkout opens a hosted checkout session and returns the payment URL the
// buyer must visit.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req request.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	res, err := h.usecase.CreateCheckout(c.Request.Context(), usecase.CreateCheckoutInput{
		BuyerID:     middleware.UserID(c),
		BuyerName:   req.BuyerName,
		BuyerEmail:  req.BuyerEmail,
		PhoneNumber: req.PhoneNumber,
		ListingID:   req.ListingID,
		Quantity:    req.Quantity,
		TotalAmount: req.TotalAmount,
		Currency:    req.Currency,
	})
	if err != nil {
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.CheckoutResponse{
		OrderID:          res.Order.ID,
		PaymentReference: res.Order.PaymentReference,
		TransactionID:    res.TransactionID,
		PaymentURL:       res.PaymentURL,
		Status:           string(res.Order.Status),
	})
}

// HandleWebhook processes the checkout provider's notification. Unauthenticated
// by necessity; matching is done on the api_ref the provider echoes back.
func (h *OrderHandler) HandleWebhook(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || !json.Valid(raw) {
		appErr := pkg.NewDomainErrorSimple("INVALID_CALLBACK", "Webhook body is not valid json", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	var ev usecase.CheckoutWebhookEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		appErr := pkg.NewDomainErrorSimple("INVALID_CALLBACK", "Webhook body is not valid json", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	// Valid JSON without an api_ref cannot be matched and is malformed.
	if ev.APIRef == "" {
		appErr := pkg.NewDomainErrorSimple("INVALID_CALLBACK", "Webhook body carries no api_ref", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	if _, err := h.usecase.HandleWebhook(c.Request.Context(), ev, raw); err != nil {
		if errors.Is(err, usecase.ErrOrderNotFound) {
			appErr := pkg.NewDomainErrorSimple("ORDER_NOT_FOUND", "No order matches this webhook", http.StatusNotFound)
			c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		appErr := pkg.NewDomainError("WEBHOOK_STORE_FAILED", "Webhook received but could not be recorded", err, http.StatusInternalServerError)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// Verify proxies the provider's state query for a checkout session.
func (h *OrderHandler) Verify(c *gin.Context) {
	res, err := h.usecase.VerifyCheckout(c.Request.Context(), c.Param("transaction_id"))
	if err != nil {
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *OrderHandler) GetByID(c *gin.Context) {
	o, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromOrder(o))
}

func (h *OrderHandler) List(c *gin.Context) {
	os, err := h.usecase.ListByBuyer(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromOrders(os))
}

func mapOrderError(err error) *pkg.AppError {
	var rejected *interfaces.ProviderRejectedError
	switch {
	case errors.Is(err, usecase.ErrMissingIdentity):
		return pkg.NewDomainErrorSimple("UNAUTHORIZED", "Missing caller identity", http.StatusUnauthorized)
	case errors.Is(err, usecase.ErrInvalidBuyerEmail),
		errors.Is(err, usecase.ErrInvalidListingID),
		errors.Is(err, usecase.ErrInvalidQuantity),
		errors.Is(err, usecase.ErrInvalidAmount):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrOrderNotFound):
		return pkg.NewDomainErrorSimple("ORDER_NOT_FOUND", "Order not found", http.StatusNotFound)
	case errors.As(err, &rejected):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_REJECTED", rejected.Message, http.StatusBadGateway)
	case errors.Is(err, interfaces.ErrProviderUnreachable):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_UNREACHABLE", "Payment provider unreachable", http.StatusInternalServerError)
	case errors.Is(err, usecase.ErrRecordAfterCharge):
		return pkg.NewDomainError("ORDER_RECORD_FAILED", "Checkout accepted but order record could not be stored", err, http.StatusInternalServerError)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
