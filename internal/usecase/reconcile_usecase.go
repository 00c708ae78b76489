package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rescuebite/internal/domain/entities"
	"rescuebite/internal/metrics"
	"rescuebite/internal/telemetry"
	"rescuebite/internal/usecase/interfaces"

	"go.uber.org/zap"
)

// IReconcileUseCase applies asynchronous provider callbacks to stored
// payments. It only ever updates existing records; a callback that matches
// nothing is dropped with ErrPaymentNotFound and never creates a record.

type IReconcileUseCase interface {
	HandleCallback(ctx context.Context, result interfaces.StatusResult, raw json.RawMessage) (entities.Payment, error)
}

type ReconcileUseCase struct {
	repo   interfaces.IPaymentRepository
	events interfaces.IEventPublisher
}

var _ IReconcileUseCase = (*ReconcileUseCase)(nil)

func NewReconcileUseCase(repo interfaces.IPaymentRepository, events interfaces.IEventPublisher) *ReconcileUseCase {
	return &ReconcileUseCase{repo: repo, events: events}
}

// HandleCallback locates the target payment (checkout request id first,
// external reference as fallback) and transitions it to the terminal status
// derived from the result code, exactly once. Redelivered callbacks with the
// same outcome are re-applied as an overwrite with identical values and emit
// no second event; a conflicting outcome for an already-terminal record is
// logged and ignored.
func (u *ReconcileUseCase) HandleCallback(ctx context.Context, result interfaces.StatusResult, raw json.RawMessage) (entities.Payment, error) {
	target := entities.StatusFromResultCode(result.ResultCode)

	telemetry.Logger.Info("payment.callback_received",
		zap.String("checkout_request_id", result.CheckoutRequestID),
		zap.String("external_reference", result.ExternalReference),
		zap.Int("result_code", result.ResultCode),
		zap.String("derived_status", string(target)),
	)

	p, err := u.locate(ctx, result)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			metrics.PaymentCallbacks.WithLabelValues("not_found").Inc()
			telemetry.Logger.Warn("payment.callback_unmatched",
				zap.String("checkout_request_id", result.CheckoutRequestID),
				zap.String("external_reference", result.ExternalReference),
			)
		}
		return entities.Payment{}, err
	}

	if p.Status.IsTerminal() {
		if p.Status != target {
			metrics.PaymentCallbacks.WithLabelValues("stale_conflict").Inc()
			telemetry.Logger.Warn("payment.callback_conflict",
				zap.String("payment_id", p.ID),
				zap.String("stored_status", string(p.Status)),
				zap.String("callback_status", string(target)),
			)
			return p, nil
		}
		// Same terminal outcome delivered again: the stored record already
		// holds these values, so no write happens and no event is emitted.
		// A sparser redelivery (a poll result without the raw body) must
		// not be allowed to blank what the first delivery stored.
		metrics.PaymentCallbacks.WithLabelValues("duplicate").Inc()
		telemetry.Logger.Info("payment.callback_duplicate",
			zap.String("payment_id", p.ID),
			zap.String("status", string(p.Status)),
		)
		return p, nil
	}

	upd := entities.ReconciliationUpdate{
		Status:            target,
		ResultCode:        result.ResultCode,
		ResultDescription: result.ResultDesc,
		ReceiptNumber:     result.MpesaReceiptNumber,
		Metadata:          mergeCallbackMetadata(p.Metadata, raw),
		CompletedAt:       time.Now().UTC(),
	}

	updated, err := u.repo.ApplyReconciliation(ctx, p.ID, upd)
	if err != nil {
		if errors.Is(err, interfaces.ErrTerminalConflict) {
			// Lost the race against a concurrent terminal write (duplicate
			// callback or poller). The store kept the first outcome.
			metrics.PaymentCallbacks.WithLabelValues("stale_conflict").Inc()
			current, getErr := u.repo.GetByID(ctx, p.ID)
			if getErr != nil || current.ID == "" {
				return p, nil
			}
			return current, nil
		}
		return entities.Payment{}, err
	}

	metrics.PaymentCallbacks.WithLabelValues("matched").Inc()
	metrics.PaymentReconciliations.WithLabelValues(string(target)).Inc()
	telemetry.Logger.Info("payment.reconciled",
		zap.String("payment_id", updated.ID),
		zap.String("external_reference", updated.ExternalReference),
		zap.String("checkout_request_id", updated.CheckoutRequestID),
		zap.String("previous_status", string(p.Status)),
		zap.String("status", string(target)),
		zap.String("receipt_number", updated.ReceiptNumber),
	)
	if u.events != nil {
		u.events.Publish(ctx, interfaces.LifecycleEvent{
			Name:              "payment.reconciled",
			PaymentID:         updated.ID,
			ExternalReference: updated.ExternalReference,
			CheckoutRequestID: updated.CheckoutRequestID,
			PreviousStatus:    string(p.Status),
			Status:            string(target),
			Timestamp:         upd.CompletedAt,
		})
	}
	return updated, nil
}

// mergeCallbackMetadata folds the raw callback body into the payment's
// existing metadata under callback_data, preserving every key the initiation
// stored. Returns nil when there is nothing to add so the repository leaves
// the stored metadata alone.
func mergeCallbackMetadata(existing map[string]interface{}, raw []byte) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(existing)+1)
	for k, v := range existing {
		merged[k] = v
	}
	merged["callback_data"] = rawToMetadata(raw)
	return merged
}

// locate tries the provider-assigned checkout request id first; the
// caller-chosen external reference is only a fallback, so a reference that
// collides across users cannot shadow a checkout id match.
func (u *ReconcileUseCase) locate(ctx context.Context, result interfaces.StatusResult) (entities.Payment, error) {
	if result.CheckoutRequestID != "" {
		p, err := u.repo.GetByCheckoutRequestID(ctx, result.CheckoutRequestID)
		if err != nil {
			return entities.Payment{}, err
		}
		if p.ID != "" {
			return p, nil
		}
	}
	if result.ExternalReference != "" {
		p, err := u.repo.GetByExternalReference(ctx, result.ExternalReference)
		if err != nil {
			return entities.Payment{}, err
		}
		if p.ID != "" {
			return p, nil
		}
	}
	return entities.Payment{}, ErrPaymentNotFound
}
