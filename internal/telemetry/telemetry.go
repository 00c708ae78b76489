package telemetry

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide structured logger. Init must run before any
// component logs; handlers and usecases emit lifecycle events through it
// (payment.initiated, payment.callback_received, payment.reconciled, ...)
// carrying the correlation ids so reconciliation can be traced end to end.
// Defaults to a no-op logger so packages stay safe to use in tests.
var Logger = zap.NewNop()

// Init builds the production logger for the named service.
func Init(serviceName string) error {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build(zap.Fields(zap.String("service", serviceName)))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	Logger = logger
	return nil
}

// Shutdown flushes buffered log entries.
func Shutdown() error {
	if Logger == nil {
		return nil
	}
	return Logger.Sync()
}
