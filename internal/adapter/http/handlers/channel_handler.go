package handlers

import (
	"errors"
	"net/http"

	request "rescuebite/internal/adapter/http/dto/request"
	response "rescuebite/internal/adapter/http/dto/response"
	"rescuebite/internal/adapter/http/middleware"
	"rescuebite/internal/domain/entities"
	"rescuebite/internal/usecase"
	"rescuebite/pkg"

	"github.com/gin-gonic/gin"
)

// ChannelHandler manages the caller's payment channels.

type ChannelHandler struct {
	usecase usecase.IChannelUseCase
}

func NewChannelHandler(uc usecase.IChannelUseCase) *ChannelHandler {
	return &ChannelHandler{usecase: uc}
}

func (h *ChannelHandler) Create(c *gin.Context) {
	var req request.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	created, err := h.usecase.Create(c.Request.Context(), usecase.CreateChannelInput{
		UserID:            middleware.UserID(c),
		Name:              req.Name,
		Provider:          entities.PaymentProvider(req.Provider),
		ProviderChannelID: req.ProviderChannelID,
		IsWallet:          req.IsWallet,
		NetworkCode:       req.NetworkCode,
	})
	if err != nil {
		appErr := mapChannelError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusCreated, response.FromChannel(created))
}

func (h *ChannelHandler) List(c *gin.Context) {
	cs, err := h.usecase.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		appErr := mapChannelError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromChannels(cs))
}

// SetActive toggles a channel; history is kept either way.
func (h *ChannelHandler) SetActive(c *gin.Context) {
	var req request.SetChannelActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	updated, err := h.usecase.SetActive(c.Request.Context(), c.Param("id"), middleware.UserID(c), *req.IsActive)
	if err != nil {
		appErr := mapChannelError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromChannel(updated))
}

func mapChannelError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrMissingIdentity):
		return pkg.NewDomainErrorSimple("UNAUTHORIZED", "Missing caller identity", http.StatusUnauthorized)
	case errors.Is(err, usecase.ErrInvalidChannelName),
		errors.Is(err, usecase.ErrInvalidProvider),
		errors.Is(err, usecase.ErrInvalidProviderChannelID),
		errors.Is(err, usecase.ErrNetworkCodeRequired),
		errors.Is(err, usecase.ErrUnexpectedNetworkCode):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrChannelNotFound):
		return pkg.NewDomainErrorSimple("CHANNEL_NOT_FOUND", "Payment channel not found", http.StatusNotFound)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
