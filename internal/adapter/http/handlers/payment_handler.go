package handlers

import (
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

// PaymentHandler handles the STK push vertical: initiation, reads and the
// on-demand provider status query.

type PaymentHandler struct {
	usecase usecase.IPaymentUseCase
}

func NewPaymentHandler(uc usecase.IPaymentUseCase) *PaymentHandler {
	return &PaymentHandler{usecase: uc}
}

// Initiate pushes an STK prompt to the customer's phone and records the
// pending payment. The terminal outcome arrives later via callback.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req request.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	phone, err := req.ResolvePhone()
	if err != nil {
		appErr := pkg.NewDomainErrorSimple("INVALID_PHONE_NUMBER", "Phone number must be a valid Kenyan MSISDN", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	created, err := h.usecase.Initiate(c.Request.Context(), usecase.InitiatePaymentInput{
		UserID:            middleware.UserID(c),
		Amount:            req.Amount,
		PhoneNumber:       phone,
		ChannelID:         req.ChannelID,
		CustomerName:      req.CustomerName,
		ExternalReference: req.ExternalReference,
	})
	if err != nil {
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.InitiatePaymentResponse{
		PaymentID:         created.ID,
		PayheroReference:  created.ProviderReference,
		CheckoutRequestID: created.CheckoutRequestID,
		ExternalReference: created.ExternalReference,
		Status:            string(created.Status),
	})
}

// GetByID returns one of the caller's payments.
func (h *PaymentHandler) GetByID(c *gin.Context) {
	p, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPayment(p))
}

// List returns all of the caller's payments.
func (h *PaymentHandler) List(c *gin.Context) {
	ps, err := h.usecase.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPayments(ps))
}

// QueryStatus asks the provider for the current state of a push, bypassing
// the local record. Useful when a callback is suspected lost.
func (h *PaymentHandler) QueryStatus(c *gin.Context) {
	res, err := h.usecase.QueryProviderStatus(c.Request.Context(), c.Param("checkout_request_id"))
	if err != nil {
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, res)
}

func mapPaymentError(err error) *pkg.AppError {
	var rejected *interfaces.ProviderRejectedError
	switch {
	case errors.Is(err, usecase.ErrMissingIdentity):
		return pkg.NewDomainErrorSimple("UNAUTHORIZED", "Missing caller identity", http.StatusUnauthorized)
	case errors.Is(err, usecase.ErrInvalidAmount),
		errors.Is(err, usecase.ErrInvalidPhoneNumber),
		errors.Is(err, usecase.ErrInvalidChannelID):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrChannelNotFound):
		return pkg.NewDomainErrorSimple("CHANNEL_NOT_FOUND", "Payment channel not found or inactive", http.StatusNotFound)
	case errors.Is(err, usecase.ErrPaymentNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_NOT_FOUND", "Payment not found", http.StatusNotFound)
	case errors.As(err, &rejected):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_REJECTED", rejected.Message, http.StatusBadGateway)
	case errors.Is(err, interfaces.ErrProviderUnreachable):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_UNREACHABLE", "Payment provider unreachable", http.StatusInternalServerError)
	case errors.Is(err, usecase.ErrRecordAfterCharge):
		return pkg.NewDomainError("PAYMENT_RECORD_FAILED", "Charge accepted but payment record could not be stored", err, http.StatusInternalServerError)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
