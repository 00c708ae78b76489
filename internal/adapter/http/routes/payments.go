package routes

import (
	"rescuebite/internal/adapter/http/handlers"
	"rescuebite/internal/adapter/http/middleware"

	"github.com/gin-gonic/gin"
)

const (
	PathPayments = "/payments"
	PathChannels = "/channels"
	PathOrders   = "/orders"
)

func addPaymentRoutes(
	rg *gin.RouterGroup,
	jwtSecret string,
	paymentHandler *handlers.PaymentHandler,
	callbackHandler *handlers.CallbackHandler,
	channelHandler *handlers.ChannelHandler,
	orderHandler *handlers.OrderHandler,
) {
	auth := middleware.Auth(jwtSecret)

	payments := rg.Group(PathPayments)
	{
		// Provider callbacks carry no bearer token.
		payments.POST("/callback", callbackHandler.HandlePaymentCallback)

		payments.POST("/initiate", auth, paymentHandler.Initiate)
		payments.GET("", auth, paymentHandler.List)
		payments.GET("/query/:checkout_request_id", auth, paymentHandler.QueryStatus)
		payments.GET("/:id", auth, paymentHandler.GetByID)
	}

	channels := rg.Group(PathChannels, auth)
	{
		channels.POST("", channelHandler.Create)
		channels.GET("", channelHandler.List)
		channels.PATCH("/:id/active", channelHandler.SetActive)
	}

	orders := rg.Group(PathOrders)
	{
		orders.POST("/webhook", orderHandler.HandleWebhook)

		orders.POST("/checkout", auth, orderHandler.Checkout)
		orders.GET("", auth, orderHandler.List)
		orders.GET("/verify/:transaction_id", auth, orderHandler.Verify)
		orders.GET("/:id", auth, orderHandler.GetByID)
	}
}
