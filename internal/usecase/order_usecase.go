package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rescuebite/internal/domain/entities"
	"rescuebite/internal/metrics"
	"rescuebite/internal/telemetry"
	"rescuebite/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidBuyerEmail = errors.New("invalid buyer email")
	ErrInvalidListingID  = errors.New("invalid listing id")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrOrderNotFound     = errors.New("order not found")
)

type CreateCheckoutInput struct {
	BuyerID     string
	BuyerName   string
	BuyerEmail  string
	PhoneNumber string
	ListingID   string
	Quantity    int
	TotalAmount int
	Currency    string
}

// CheckoutResult is what the buyer needs to complete a hosted checkout.
type CheckoutResult struct {
	Order         entities.Order
	PaymentURL    string
	TransactionID string
}

// CheckoutWebhookEvent is the provider's asynchronous notification for a
// hosted checkout. APIRef echoes the order's payment reference and is the
// only join key available at webhook time.
type CheckoutWebhookEvent struct {
	InvoiceID      string  `json:"invoice_id"`
	State          string  `json:"state"`
	APIRef         string  `json:"api_ref"`
	Value          float64 `json:"value"`
	MpesaReference string  `json:"mpesa_reference"`
	Account        string  `json:"account"`
}

// IOrderUseCase is the marketplace checkout vertical: hosted-checkout
// initiation and webhook reconciliation for orders.

type IOrderUseCase interface {
	CreateCheckout(ctx context.Context, in CreateCheckoutInput) (CheckoutResult, error)
	HandleWebhook(ctx context.Context, ev CheckoutWebhookEvent, raw json.RawMessage) (entities.Order, error)
	VerifyCheckout(ctx context.Context, transactionID string) (*interfaces.StatusResult, error)
	GetByID(ctx context.Context, id, buyerID string) (entities.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]entities.Order, error)
}

type OrderUseCase struct {
	repo       interfaces.IOrderRepository
	gateway    interfaces.IProviderGateway
	events     interfaces.IEventPublisher
	webhookURL string
}

var _ IOrderUseCase = (*OrderUseCase)(nil)

func NewOrderUseCase(
	repo interfaces.IOrderRepository,
	gateway interfaces.IProviderGateway,
	events interfaces.IEventPublisher,
	webhookURL string,
) *OrderUseCase {
	return &OrderUseCase{repo: repo, gateway: gateway, events: events, webhookURL: webhookURL}
}

// CreateCheckout opens a hosted checkout for the order total and persists the
// order only after the provider accepted it; a rejected checkout leaves no
// record behind. The generated payment reference is the webhook join key.
func (u *OrderUseCase) CreateCheckout(ctx context.Context, in CreateCheckoutInput) (CheckoutResult, error) {
	in.BuyerID = strings.TrimSpace(in.BuyerID)
	if in.BuyerID == "" {
		return CheckoutResult{}, ErrMissingIdentity
	}
	in.BuyerEmail = strings.TrimSpace(in.BuyerEmail)
	if in.BuyerEmail == "" {
		return CheckoutResult{}, ErrInvalidBuyerEmail
	}
	in.ListingID = strings.TrimSpace(in.ListingID)
	if in.ListingID == "" {
		return CheckoutResult{}, ErrInvalidListingID
	}
	if in.Quantity <= 0 {
		return CheckoutResult{}, ErrInvalidQuantity
	}
	if in.TotalAmount <= 0 {
		return CheckoutResult{}, ErrInvalidAmount
	}
	currency := strings.TrimSpace(in.Currency)
	if currency == "" {
		currency = "KES"
	}

	paymentReference := fmt.Sprintf("ORDER-%d", time.Now().UnixMilli())

	ack, err := u.gateway.Charge(ctx, interfaces.ChargeRequest{
		Amount:            in.TotalAmount,
		Currency:          currency,
		Email:             in.BuyerEmail,
		PhoneNumber:       in.PhoneNumber,
		CustomerName:      in.BuyerName,
		ExternalReference: paymentReference,
		CallbackURL:       u.webhookURL,
	})
	if err != nil {
		telemetry.Logger.Warn("order.checkout_failed",
			zap.String("buyer_id", in.BuyerID),
			zap.String("payment_reference", paymentReference),
			zap.Error(err),
		)
		return CheckoutResult{}, err
	}

	now := time.Now().UTC()
	o := entities.Order{
		ID:                    uuid.NewString(),
		BuyerID:               in.BuyerID,
		BuyerName:             in.BuyerName,
		BuyerEmail:            in.BuyerEmail,
		ListingID:             in.ListingID,
		Quantity:              in.Quantity,
		TotalAmount:           in.TotalAmount,
		Currency:              currency,
		Status:                entities.OrderStatusPending,
		PaymentStatus:         entities.OrderPaymentPending,
		PaymentReference:      paymentReference,
		ProviderTransactionID: ack.CheckoutRequestID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	created, err := u.repo.Create(ctx, o)
	if err != nil {
		telemetry.Logger.Error("order.record_persist_failed",
			zap.String("buyer_id", in.BuyerID),
			zap.String("payment_reference", paymentReference),
			zap.String("transaction_id", ack.CheckoutRequestID),
			zap.Error(err),
		)
		return CheckoutResult{}, errors.Join(ErrRecordAfterCharge, err)
	}

	telemetry.Logger.Info("order.checkout_created",
		zap.String("order_id", created.ID),
		zap.String("buyer_id", in.BuyerID),
		zap.String("payment_reference", paymentReference),
		zap.String("transaction_id", ack.CheckoutRequestID),
		zap.Int("amount", in.TotalAmount),
	)
	if u.events != nil {
		u.events.Publish(ctx, interfaces.LifecycleEvent{
			Name:              "order.checkout_created",
			OrderID:           created.ID,
			ExternalReference: paymentReference,
			CheckoutRequestID: ack.CheckoutRequestID,
			Status:            string(created.PaymentStatus),
			Timestamp:         now,
		})
	}
	return CheckoutResult{Order: created, PaymentURL: ack.PaymentURL, TransactionID: ack.CheckoutRequestID}, nil
}

// HandleWebhook reconciles a checkout notification against the stored order,
// idempotently: replays of a terminal state are accepted without side
// effects, and a non-terminal state (PENDING/PROCESSING) changes nothing.
func (u *OrderUseCase) HandleWebhook(ctx context.Context, ev CheckoutWebhookEvent, raw json.RawMessage) (entities.Order, error) {
	telemetry.Logger.Info("order.webhook_received",
		zap.String("invoice_id", ev.InvoiceID),
		zap.String("api_ref", ev.APIRef),
		zap.String("state", ev.State),
	)

	if strings.TrimSpace(ev.APIRef) == "" {
		return entities.Order{}, ErrOrderNotFound
	}
	o, err := u.repo.GetByPaymentReference(ctx, ev.APIRef)
	if err != nil {
		return entities.Order{}, err
	}
	if o.ID == "" {
		telemetry.Logger.Warn("order.webhook_unmatched", zap.String("api_ref", ev.APIRef))
		return entities.Order{}, ErrOrderNotFound
	}

	// Some checkout acks arrive without a transaction id; the webhook's
	// invoice id is the next chance to capture it for later verification.
	if o.ProviderTransactionID == "" && ev.InvoiceID != "" {
		if err := u.repo.SetProviderTransactionID(ctx, o.ID, ev.InvoiceID); err != nil {
			telemetry.Logger.Warn("order.transaction_id_backfill_failed",
				zap.String("order_id", o.ID),
				zap.String("invoice_id", ev.InvoiceID),
				zap.Error(err),
			)
		} else {
			o.ProviderTransactionID = ev.InvoiceID
		}
	}

	paymentStatus, orderStatus, terminal := classifyCheckoutState(ev.State)
	if !terminal {
		return o, nil
	}

	if o.PaymentStatus.IsTerminal() {
		if o.PaymentStatus != paymentStatus {
			telemetry.Logger.Warn("order.webhook_conflict",
				zap.String("order_id", o.ID),
				zap.String("stored_status", string(o.PaymentStatus)),
				zap.String("webhook_status", string(paymentStatus)),
			)
		}
		return o, nil
	}

	updated, err := u.repo.ApplyCheckoutUpdate(ctx, o.ID, entities.OrderCheckoutUpdate{
		PaymentStatus: paymentStatus,
		Status:        orderStatus,
		ReceiptNumber: ev.MpesaReference,
		CompletedAt:   time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrTerminalConflict) {
			current, getErr := u.repo.GetByID(ctx, o.ID)
			if getErr != nil || current.ID == "" {
				return o, nil
			}
			return current, nil
		}
		return entities.Order{}, err
	}

	metrics.OrderReconciliations.WithLabelValues(string(paymentStatus)).Inc()
	telemetry.Logger.Info("order.reconciled",
		zap.String("order_id", updated.ID),
		zap.String("payment_reference", updated.PaymentReference),
		zap.String("payment_status", string(paymentStatus)),
		zap.String("order_status", string(orderStatus)),
	)
	if u.events != nil {
		u.events.Publish(ctx, interfaces.LifecycleEvent{
			Name:              "order.reconciled",
			OrderID:           updated.ID,
			ExternalReference: updated.PaymentReference,
			PreviousStatus:    string(o.PaymentStatus),
			Status:            string(paymentStatus),
			Timestamp:         time.Now().UTC(),
		})
	}
	return updated, nil
}

// VerifyCheckout proxies the provider's state query for a checkout session.
func (u *OrderUseCase) VerifyCheckout(ctx context.Context, transactionID string) (*interfaces.StatusResult, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, ErrOrderNotFound
	}
	return u.gateway.QueryStatus(ctx, transactionID)
}

func (u *OrderUseCase) GetByID(ctx context.Context, id, buyerID string) (entities.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Order{}, ErrOrderNotFound
	}
	o, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Order{}, err
	}
	if o.ID == "" || o.BuyerID != buyerID {
		return entities.Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (u *OrderUseCase) ListByBuyer(ctx context.Context, buyerID string) ([]entities.Order, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return nil, ErrMissingIdentity
	}
	return u.repo.ListByBuyerID(ctx, buyerID)
}

func classifyCheckoutState(state string) (entities.OrderPaymentStatus, entities.OrderStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(state)) {
	case "COMPLETE", "COMPLETED", "PAID":
		return entities.OrderPaymentCompleted, entities.OrderStatusConfirmed, true
	case "FAILED", "CANCELLED":
		return entities.OrderPaymentFailed, entities.OrderStatusCancelled, true
	default:
		return entities.OrderPaymentPending, entities.OrderStatusPending, false
	}
}
