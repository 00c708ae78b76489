package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"rescuebite/internal/domain/entities"
	"rescuebite/internal/usecase/interfaces"
	mock_interfaces "rescuebite/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

func pendingPayment() entities.Payment {
	return entities.Payment{
		ID:                "pay-1",
		UserID:            "user-1",
		ExternalReference: "ext-1",
		CheckoutRequestID: "C1",
		Status:            entities.PaymentStatusPending,
	}
}

func successCallback() interfaces.StatusResult {
	return interfaces.StatusResult{
		Amount:             100,
		CheckoutRequestID:  "C1",
		ExternalReference:  "ext-1",
		MpesaReceiptNumber: "XYZ123",
		ResultCode:         0,
		ResultDesc:         "The service request is processed successfully.",
		Status:             "Success",
	}
}

func TestReconcileUseCase_HandleCallback_OutcomeClassification(t *testing.T) {
	cases := []struct {
		name       string
		resultCode int
		want       entities.PaymentStatus
	}{
		{"result code 0 is success", 0, entities.PaymentStatusSuccess},
		{"result code 1032 is cancelled", 1032, entities.PaymentStatusCancelled},
		{"any other code is failed", 2001, entities.PaymentStatusFailed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			repo := mock_interfaces.NewMockIPaymentRepository(ctrl)
			uc := NewReconcileUseCase(repo, nil)

			cb := successCallback()
			cb.ResultCode = c.resultCode

			repo.EXPECT().GetByCheckoutRequestID(gomock.Any(), "C1").Return(pendingPayment(), nil)
			repo.EXPECT().ApplyReconciliation(gomock.Any(), "pay-1", gomock.Any()).DoAndReturn(
				func(_ context.Context, id string, upd entities.ReconciliationUpdate) (entities.Payment, error) {
					if upd.Status != c.want {
						t.Fatalf("expected status %s, got %s", c.want, upd.Status)
					}
					p := pendingPayment()
					p.Status = upd.Status
					p.ReceiptNumber = upd.ReceiptNumber
					return p, nil
				})

			got, err := uc.HandleCallback(context.Background(), cb, json.RawMessage(`{}`))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != c.want {
				t.Fatalf("expected %s, got %s", c.want, got.Status)
			}
		})
	}
}

func TestReconcileUseCase_HandleCallback_SuccessCapturesReceipt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIPaymentRepository(ctrl)
	events := mock_interfaces.NewMockIEventPublisher(ctrl)
	uc := NewReconcileUseCase(repo, events)

	repo.EXPECT().GetByCheckoutRequestID(gomock.Any(), "C1").Return(pendingPayment(), nil)
	repo.EXPECT().ApplyReconciliation(gomock.Any(), "pay-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, id string, upd entities.ReconciliationUpdate) (entities.Payment, error) {
			if upd.ReceiptNumber != "XYZ123" {
				t.Fatalf("expected receipt XYZ123, got %q", upd.ReceiptNumber)
			}
			if upd.CompletedAt.IsZero() {
				t.Fatal("completion timestamp not set")
			}
			p := pendingPayment()
			p.Status = upd.Status
			p.ReceiptNumber = upd.ReceiptNumber
			return p, nil
		})
	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, ev interfaces.LifecycleEvent) {
			if ev.Name != "payment.reconciled" {
				t.Fatalf("expected payment.reconciled event, got %q", ev.Name)
			}
			if ev.PreviousStatus != "PENDING" || ev.Status != "SUCCESS" {
				t.Fatalf("unexpected transition %s -> %s", ev.PreviousStatus, ev.Status)
			}
		})

	got, err := uc.HandleCallback(context.Background(), successCallback(), json.RawMessage(`{"response":{}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ReceiptNumber != "XYZ123" {
		t.Fatalf("expected receipt XYZ123, got %q", got.ReceiptNumber)
	}
}

func TestReconcileUseCase_HandleCallback_FallsBackToExternalReference(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIPaymentRepository(ctrl)
	uc := NewReconcileUseCase(repo, nil)

	repo.EXPECT().GetByCheckoutRequestID(gomock.Any(), "C1").Return(entities.Payment{}, nil)
	repo.EXPECT().GetByExternalReference(gomock.Any(), "ext-1").Return(pendingPayment(), nil)
	repo.EXPECT().ApplyReconciliation(gomock.Any(), "pay-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, id string, upd entities.ReconciliationUpdate) (entities.Payment, error) {
			p := pendingPayment()
			p.Status = upd.Status
			return p, nil
		})

	if _, err := uc.HandleCallback(context.Background(), successCallback(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReconcileUseCase_HandleCallback_UnknownReferencesCreateNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIPaymentRepository(ctrl)
	uc := NewReconcileUseCase(repo, nil)

	repo.EXPECT().GetByCheckoutRequestID(gomock.Any(), "C1").Return(entities.Payment{}, nil)
	repo.EXPECT().GetByExternalReference(gomock.Any(), "ext-1").Return(entities.Payment{}, nil)
	// No Create, no ApplyReconciliation.

	_, err := uc.HandleCallback(context.Background(), successCallback(), nil)
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestReconcileUseCase_HandleCallback_DuplicateTerminalIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIPaymentRepository(ctrl)
	events := mock_interfaces.NewMockIEventPublisher(ctrl)
	uc := NewReconcileUseCase(repo, events)

	done := pendingPayment()
	done.Status = entities.PaymentStatusSuccess
	done.ReceiptNumber = "XYZ123"
	done.Metadata = map[string]interface{}{"callback_data": map[string]interface{}{"ResultCode": float64(0)}}

	// No ApplyReconciliation and no events.Publish: a redelivery of the same
	// terminal outcome must not touch the store at all. In particular a poll
	// result with no body must not blank the stored callback payload or
	// receipt.
	repo.EXPECT().GetByCheckoutRequestID(gomock.Any(), "C1").Return(done, nil)

	got, err := uc.HandleCallback(context.Background(), successCallback(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != entities.PaymentStatusSuccess || got.ReceiptNumber != "XYZ123" {
		t.Fatalf("duplicate delivery corrupted record: %+v", got)
	}
	if got.Metadata["callback_data"] == nil {
		t.Fatalf("duplicate delivery dropped stored callback payload: %+v", got.Metadata)
	}
}

func TestReconcileUseCase_HandleCallback_MergesCallbackIntoMetadata(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIPaymentRepository(ctrl)
	uc := NewReconcileUseCase(repo, nil)

	pending := pendingPayment()
	pending.Metadata = map[string]interface{}{"provider_response": map[string]interface{}{"reference": "R1"}}

	raw := json.RawMessage(`{"response":{"ResultCode":0,"MpesaReceiptNumber":"XYZ123"}}`)

	repo.EXPECT().GetByCheckoutRequestID(gomock.Any(), "C1").Return(pending, nil)
	repo.EXPECT().ApplyReconciliation(gomock.Any(), "pay-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, id string, upd entities.ReconciliationUpdate) (entities.Payment, error) {
			if upd.Metadata == nil {
				t.Fatal("callback body was not merged into metadata")
			}
			if upd.Metadata["provider_response"] == nil {
				t.Fatalf("existing metadata keys dropped by the merge: %+v", upd.Metadata)
			}
			if upd.Metadata["callback_data"] == nil {
				t.Fatalf("callback body missing from merged metadata: %+v", upd.Metadata)
			}
			p := pending
			p.Status = upd.Status
			p.Metadata = upd.Metadata
			return p, nil
		})

	if _, err := uc.HandleCallback(context.Background(), successCallback(), raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReconcileUseCase_HandleCallback_PollResultLeavesMetadataAlone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIPaymentRepository(ctrl)
	uc := NewReconcileUseCase(repo, nil)

	pending := pendingPayment()
	pending.Metadata = map[string]interface{}{"provider_response": map[string]interface{}{"reference": "R1"}}

	repo.EXPECT().GetByCheckoutRequestID(gomock.Any(), "C1").Return(pending, nil)
	repo.EXPECT().ApplyReconciliation(gomock.Any(), "pay-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, id string, upd entities.ReconciliationUpdate) (entities.Payment, error) {
			if upd.Metadata != nil {
				t.Fatalf("a bodyless poll result must not rewrite metadata, got %+v", upd.Metadata)
			}
			p := pending
			p.Status = upd.Status
			return p, nil
		})

	if _, err := uc.HandleCallback(context.Background(), successCallback(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReconcileUseCase_HandleCallback_ConflictingTerminalIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIPaymentRepository(ctrl)
	uc := NewReconcileUseCase(repo, nil)

	done := pendingPayment()
	done.Status = entities.PaymentStatusSuccess
	done.ReceiptNumber = "XYZ123"

	cb := successCallback()
	cb.ResultCode = 1 // would classify as FAILED

	repo.EXPECT().GetByCheckoutRequestID(gomock.Any(), "C1").Return(done, nil)
	// No write at all for a conflicting outcome.

	got, err := uc.HandleCallback(context.Background(), cb, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != entities.PaymentStatusSuccess {
		t.Fatalf("terminal record resurrected: %+v", got)
	}
}

func TestReconcileUseCase_HandleCallback_LostRaceReturnsStoredOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIPaymentRepository(ctrl)
	uc := NewReconcileUseCase(repo, nil)

	repo.EXPECT().GetByCheckoutRequestID(gomock.Any(), "C1").Return(pendingPayment(), nil)
	repo.EXPECT().ApplyReconciliation(gomock.Any(), "pay-1", gomock.Any()).Return(entities.Payment{}, interfaces.ErrTerminalConflict)
	winner := pendingPayment()
	winner.Status = entities.PaymentStatusCancelled
	repo.EXPECT().GetByID(gomock.Any(), "pay-1").Return(winner, nil)

	got, err := uc.HandleCallback(context.Background(), successCallback(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != entities.PaymentStatusCancelled {
		t.Fatalf("expected the winning CANCELLED outcome, got %s", got.Status)
	}
}
