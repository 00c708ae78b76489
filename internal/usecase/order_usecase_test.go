package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"rescuebite/internal/domain/entities"
	"rescuebite/internal/usecase/interfaces"
	mock_interfaces "rescuebite/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

func checkoutInput() CreateCheckoutInput {
	return CreateCheckoutInput{
		BuyerID:     "buyer-1",
		BuyerName:   "Jane Wanjiku",
		BuyerEmail:  "jane@example.com",
		ListingID:   "listing-1",
		Quantity:    2,
		TotalAmount: 450,
	}
}

func pendingOrder() entities.Order {
	return entities.Order{
		ID:                    "order-1",
		BuyerID:               "buyer-1",
		PaymentReference:      "ORDER-1700000000000",
		ProviderTransactionID: "txn-1",
		Status:                entities.OrderStatusPending,
		PaymentStatus:         entities.OrderPaymentPending,
	}
}

func TestOrderUseCase_CreateCheckout_Validations(t *testing.T) {
	uc := NewOrderUseCase(nil, nil, nil, "")

	t.Run("missing buyer", func(t *testing.T) {
		in := checkoutInput()
		in.BuyerID = ""
		if _, err := uc.CreateCheckout(context.Background(), in); !errors.Is(err, ErrMissingIdentity) {
			t.Fatalf("expected ErrMissingIdentity, got %v", err)
		}
	})

	t.Run("missing email", func(t *testing.T) {
		in := checkoutInput()
		in.BuyerEmail = " "
		if _, err := uc.CreateCheckout(context.Background(), in); !errors.Is(err, ErrInvalidBuyerEmail) {
			t.Fatalf("expected ErrInvalidBuyerEmail, got %v", err)
		}
	})

	t.Run("zero amount", func(t *testing.T) {
		in := checkoutInput()
		in.TotalAmount = 0
		if _, err := uc.CreateCheckout(context.Background(), in); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})
}

func TestOrderUseCase_CreateCheckout_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIOrderRepository(ctrl)
	gateway := mock_interfaces.NewMockIProviderGateway(ctrl)
	events := mock_interfaces.NewMockIEventPublisher(ctrl)
	uc := NewOrderUseCase(repo, gateway, events, "https://api.example.com/orders/webhook")

	var sentRef string
	gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req interfaces.ChargeRequest) (interfaces.ChargeAck, error) {
			if !strings.HasPrefix(req.ExternalReference, "ORDER-") {
				t.Fatalf("payment reference not generated: %q", req.ExternalReference)
			}
			if req.Currency != "KES" {
				t.Fatalf("expected default currency KES, got %q", req.Currency)
			}
			if req.CallbackURL != "https://api.example.com/orders/webhook" {
				t.Fatalf("unexpected webhook url %q", req.CallbackURL)
			}
			sentRef = req.ExternalReference
			return interfaces.ChargeAck{
				Success:           true,
				CheckoutRequestID: "txn-1",
				PaymentURL:        "https://pay.example.com/txn-1",
			}, nil
		})
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, o entities.Order) (entities.Order, error) {
			if o.PaymentReference != sentRef {
				t.Fatalf("stored reference %q does not match sent reference %q", o.PaymentReference, sentRef)
			}
			if o.ProviderTransactionID != "txn-1" {
				t.Fatalf("transaction id not captured: %+v", o)
			}
			if o.Status != entities.OrderStatusPending || o.PaymentStatus != entities.OrderPaymentPending {
				t.Fatalf("new order must start pending/pending: %+v", o)
			}
			return o, nil
		})
	events.EXPECT().Publish(gomock.Any(), gomock.Any())

	res, err := uc.CreateCheckout(context.Background(), checkoutInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PaymentURL != "https://pay.example.com/txn-1" || res.TransactionID != "txn-1" {
		t.Fatalf("unexpected checkout result: %+v", res)
	}
}

func TestOrderUseCase_CreateCheckout_ProviderFailurePersistsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIOrderRepository(ctrl)
	gateway := mock_interfaces.NewMockIProviderGateway(ctrl)
	uc := NewOrderUseCase(repo, gateway, nil, "")

	gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).Return(interfaces.ChargeAck{}, interfaces.ErrProviderUnreachable)
	// repo.Create must never be called.

	_, err := uc.CreateCheckout(context.Background(), checkoutInput())
	if !errors.Is(err, interfaces.ErrProviderUnreachable) {
		t.Fatalf("expected ErrProviderUnreachable, got %v", err)
	}
}

func TestOrderUseCase_HandleWebhook(t *testing.T) {
	t.Run("complete confirms order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIOrderRepository(ctrl)
		events := mock_interfaces.NewMockIEventPublisher(ctrl)
		uc := NewOrderUseCase(repo, nil, events, "")

		repo.EXPECT().GetByPaymentReference(gomock.Any(), "ORDER-1700000000000").Return(pendingOrder(), nil)
		repo.EXPECT().ApplyCheckoutUpdate(gomock.Any(), "order-1", gomock.Any()).DoAndReturn(
			func(_ context.Context, id string, upd entities.OrderCheckoutUpdate) (entities.Order, error) {
				if upd.PaymentStatus != entities.OrderPaymentCompleted || upd.Status != entities.OrderStatusConfirmed {
					t.Fatalf("unexpected update: %+v", upd)
				}
				if upd.ReceiptNumber != "SFK123" {
					t.Fatalf("receipt not captured: %q", upd.ReceiptNumber)
				}
				o := pendingOrder()
				o.PaymentStatus = upd.PaymentStatus
				o.Status = upd.Status
				return o, nil
			})
		events.EXPECT().Publish(gomock.Any(), gomock.Any())

		ev := CheckoutWebhookEvent{InvoiceID: "inv-1", State: "COMPLETE", APIRef: "ORDER-1700000000000", MpesaReference: "SFK123"}
		got, err := uc.HandleWebhook(context.Background(), ev, json.RawMessage(`{}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != entities.OrderStatusConfirmed {
			t.Fatalf("expected confirmed, got %s", got.Status)
		}
	})

	t.Run("failed cancels order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIOrderRepository(ctrl)
		uc := NewOrderUseCase(repo, nil, nil, "")

		repo.EXPECT().GetByPaymentReference(gomock.Any(), "ORDER-1700000000000").Return(pendingOrder(), nil)
		repo.EXPECT().ApplyCheckoutUpdate(gomock.Any(), "order-1", gomock.Any()).DoAndReturn(
			func(_ context.Context, id string, upd entities.OrderCheckoutUpdate) (entities.Order, error) {
				if upd.PaymentStatus != entities.OrderPaymentFailed || upd.Status != entities.OrderStatusCancelled {
					t.Fatalf("unexpected update: %+v", upd)
				}
				o := pendingOrder()
				o.PaymentStatus = upd.PaymentStatus
				o.Status = upd.Status
				return o, nil
			})

		ev := CheckoutWebhookEvent{State: "FAILED", APIRef: "ORDER-1700000000000"}
		if _, err := uc.HandleWebhook(context.Background(), ev, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unknown reference creates nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIOrderRepository(ctrl)
		uc := NewOrderUseCase(repo, nil, nil, "")

		repo.EXPECT().GetByPaymentReference(gomock.Any(), "ORDER-nope").Return(entities.Order{}, nil)

		_, err := uc.HandleWebhook(context.Background(), CheckoutWebhookEvent{State: "COMPLETE", APIRef: "ORDER-nope"}, nil)
		if !errors.Is(err, ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("non-terminal state changes nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIOrderRepository(ctrl)
		uc := NewOrderUseCase(repo, nil, nil, "")

		repo.EXPECT().GetByPaymentReference(gomock.Any(), "ORDER-1700000000000").Return(pendingOrder(), nil)

		got, err := uc.HandleWebhook(context.Background(), CheckoutWebhookEvent{State: "PROCESSING", APIRef: "ORDER-1700000000000"}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.PaymentStatus != entities.OrderPaymentPending {
			t.Fatalf("pending order mutated: %+v", got)
		}
	})

	t.Run("missing transaction id backfilled from invoice id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIOrderRepository(ctrl)
		uc := NewOrderUseCase(repo, nil, nil, "")

		bare := pendingOrder()
		bare.ProviderTransactionID = ""
		repo.EXPECT().GetByPaymentReference(gomock.Any(), "ORDER-1700000000000").Return(bare, nil)
		repo.EXPECT().SetProviderTransactionID(gomock.Any(), "order-1", "inv-9").Return(nil)

		ev := CheckoutWebhookEvent{InvoiceID: "inv-9", State: "PROCESSING", APIRef: "ORDER-1700000000000"}
		got, err := uc.HandleWebhook(context.Background(), ev, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ProviderTransactionID != "inv-9" {
			t.Fatalf("transaction id not backfilled: %+v", got)
		}
	})

	t.Run("stored transaction id is never replaced", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIOrderRepository(ctrl)
		uc := NewOrderUseCase(repo, nil, nil, "")

		// No SetProviderTransactionID: the order already carries txn-1.
		repo.EXPECT().GetByPaymentReference(gomock.Any(), "ORDER-1700000000000").Return(pendingOrder(), nil)

		ev := CheckoutWebhookEvent{InvoiceID: "inv-9", State: "PROCESSING", APIRef: "ORDER-1700000000000"}
		got, err := uc.HandleWebhook(context.Background(), ev, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ProviderTransactionID != "txn-1" {
			t.Fatalf("stored transaction id replaced: %+v", got)
		}
	})

	t.Run("terminal replay is idempotent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIOrderRepository(ctrl)
		uc := NewOrderUseCase(repo, nil, nil, "")

		done := pendingOrder()
		done.PaymentStatus = entities.OrderPaymentCompleted
		done.Status = entities.OrderStatusConfirmed
		repo.EXPECT().GetByPaymentReference(gomock.Any(), "ORDER-1700000000000").Return(done, nil)
		// No write for a replay.

		got, err := uc.HandleWebhook(context.Background(), CheckoutWebhookEvent{State: "COMPLETE", APIRef: "ORDER-1700000000000"}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.PaymentStatus != entities.OrderPaymentCompleted {
			t.Fatalf("replay corrupted record: %+v", got)
		}
	})
}
