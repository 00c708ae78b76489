package routes

import (
	"log"
	"net/http"

	_ "rescuebite/docs" // generated swagger docs
	"rescuebite/internal/adapter/http/handlers"
	"rescuebite/internal/adapter/persistence/repository"
	"rescuebite/internal/config"
	"rescuebite/internal/infrastructure/database"
	"rescuebite/internal/infrastructure/events"
	"rescuebite/internal/infrastructure/payments"
	"rescuebite/internal/telemetry"
	"rescuebite/internal/usecase"
	"rescuebite/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

var router = gin.New()

// Run wires the full service and starts the HTTP server.
func Run() {
	cfg := config.Load()
	if err := telemetry.Init("rescuebite-payments"); err != nil {
		log.Fatalf("telemetry init: %v", err)
	}
	defer telemetry.Shutdown()

	setMiddlewares()

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	registerRoutes(cfg)

	telemetry.Logger.Info("server starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		telemetry.Logger.Fatal("server failed", zap.Error(err))
	}
}

func registerRoutes(cfg *config.Config) {
	ddb := database.ConnectDynamoDB(cfg)

	paymentRepo := repository.NewPaymentDynamoRepository(ddb)
	channelRepo := repository.NewChannelDynamoRepository(ddb)
	orderRepo := repository.NewOrderDynamoRepository(ddb)

	var publisher interfaces.IEventPublisher
	if kp := events.NewKafkaPublisher(cfg.KafkaBrokers); kp != nil {
		publisher = kp
	} else {
		telemetry.Logger.Info("kafka not configured, lifecycle events disabled")
	}

	payHero, err := payments.NewPayHeroGateway(cfg.PayHeroBaseURL, cfg.PayHeroBasicAuth)
	if err != nil {
		telemetry.Logger.Fatal("payhero gateway not configured", zap.Error(err))
	}
	intaSend, err := payments.NewIntaSendGateway(cfg.IntaSendBaseURL, cfg.IntaSendSecretKey, cfg.IntaSendPublicKey)
	if err != nil {
		telemetry.Logger.Fatal("intasend gateway not configured", zap.Error(err))
	}

	paymentUseCase := usecase.NewPaymentUseCase(paymentRepo, channelRepo, payHero, publisher, cfg.PayHeroCallbackURL)
	reconcileUseCase := usecase.NewReconcileUseCase(paymentRepo, publisher)
	paymentUseCase.EnableFallbackPolling(usecase.NewStatusPoller(payHero), reconcileUseCase)
	channelUseCase := usecase.NewChannelUseCase(channelRepo)
	orderUseCase := usecase.NewOrderUseCase(orderRepo, intaSend, publisher, cfg.IntaSendWebhookURL)

	paymentHandler := handlers.NewPaymentHandler(paymentUseCase)
	callbackHandler := handlers.NewCallbackHandler(reconcileUseCase)
	channelHandler := handlers.NewChannelHandler(channelUseCase)
	orderHandler := handlers.NewOrderHandler(orderUseCase)

	v1 := router.Group("/v1")
	addPaymentRoutes(v1, cfg.JWTSecret, paymentHandler, callbackHandler, channelHandler, orderHandler)
}

func setMiddlewares() {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		telemetry.Logger.Error("recovered from panic", zap.Any("panic", recovered))
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
}
