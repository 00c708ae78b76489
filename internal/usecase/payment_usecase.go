package usecase

import (
	"context"
	"encoding/json"
	"errors"
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
	ErrMissingIdentity    = errors.New("missing caller identity")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidPhoneNumber = errors.New("invalid phone_number")
	ErrInvalidChannelID   = errors.New("invalid channel_id")
	ErrChannelNotFound    = errors.New("payment channel not found or inactive")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrRecordAfterCharge  = errors.New("charge accepted but payment record not persisted")
)

// InitiatePaymentInput is the validated initiation request. ExternalReference
// is optional; a UUID is generated when absent and becomes the idempotency /
// correlation key for the whole downstream flow.
type InitiatePaymentInput struct {
	UserID            string
	Amount            int
	PhoneNumber       string
	ChannelID         string
	CustomerName      string
	ExternalReference string
}

// IPaymentUseCase exposes the STK-push payment operations.

type IPaymentUseCase interface {
	Initiate(ctx context.Context, in InitiatePaymentInput) (entities.Payment, error)
	GetByID(ctx context.Context, id, userID string) (entities.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]entities.Payment, error)
	QueryProviderStatus(ctx context.Context, checkoutRequestID string) (*interfaces.StatusResult, error)
}

type PaymentUseCase struct {
	repo        interfaces.IPaymentRepository
	channels    interfaces.IChannelRepository
	gateway     interfaces.IProviderGateway
	events      interfaces.IEventPublisher
	callbackURL string

	poller     *StatusPoller
	reconciler IReconcileUseCase
}

var _ IPaymentUseCase = (*PaymentUseCase)(nil)

func NewPaymentUseCase(
	repo interfaces.IPaymentRepository,
	channels interfaces.IChannelRepository,
	gateway interfaces.IProviderGateway,
	events interfaces.IEventPublisher,
	callbackURL string,
) *PaymentUseCase {
	return &PaymentUseCase{
		repo:        repo,
		channels:    channels,
		gateway:     gateway,
		events:      events,
		callbackURL: callbackURL,
	}
}

// Fallback polling covers callbacks that never arrive. The budget bounds the
// whole poll loop for one charge.
const fallbackPollBudget = 15 * time.Minute

// EnableFallbackPolling attaches a status poller that reconciles initiated
// charges through r when the provider callback is lost. Reconciliation stays
// exactly-once either way; the poller and the callback path race toward the
// same conditional write.
func (u *PaymentUseCase) EnableFallbackPolling(p *StatusPoller, r IReconcileUseCase) {
	u.poller = p
	u.reconciler = r
}

// Initiate validates the request, resolves the caller's channel, charges the
// provider and persists exactly one PENDING record. On any provider failure
// nothing is persisted; the caller resubmits with a fresh external reference.
func (u *PaymentUseCase) Initiate(ctx context.Context, in InitiatePaymentInput) (entities.Payment, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	if in.UserID == "" {
		return entities.Payment{}, ErrMissingIdentity
	}
	if in.Amount <= 0 {
		return entities.Payment{}, ErrInvalidAmount
	}
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if in.PhoneNumber == "" {
		return entities.Payment{}, ErrInvalidPhoneNumber
	}
	in.ChannelID = strings.TrimSpace(in.ChannelID)
	if in.ChannelID == "" {
		return entities.Payment{}, ErrInvalidChannelID
	}

	channel, err := u.channels.GetByIDForUser(ctx, in.ChannelID, in.UserID)
	if err != nil {
		return entities.Payment{}, err
	}
	if channel.ID == "" || !channel.IsActive {
		return entities.Payment{}, ErrChannelNotFound
	}

	externalReference := strings.TrimSpace(in.ExternalReference)
	if externalReference == "" {
		externalReference = uuid.NewString()
	}

	charge := interfaces.ChargeRequest{
		Amount:            in.Amount,
		PhoneNumber:       in.PhoneNumber,
		CustomerName:      in.CustomerName,
		ChannelID:         channel.ProviderChannelID,
		Provider:          string(channel.Provider),
		ExternalReference: externalReference,
		CallbackURL:       u.callbackURL,
	}
	if channel.IsWallet {
		charge.NetworkCode = channel.NetworkCode
	}

	ack, err := u.gateway.Charge(ctx, charge)
	if err != nil {
		telemetry.Logger.Warn("payment.initiation_failed",
			zap.String("user_id", in.UserID),
			zap.String("external_reference", externalReference),
			zap.Error(err),
		)
		return entities.Payment{}, err
	}

	now := time.Now().UTC()
	p := entities.Payment{
		ID:                uuid.NewString(),
		UserID:            in.UserID,
		ChannelID:         channel.ID,
		Amount:            in.Amount,
		PhoneNumber:       in.PhoneNumber,
		CustomerName:      in.CustomerName,
		ExternalReference: externalReference,
		ProviderReference: ack.Reference,
		CheckoutRequestID: ack.CheckoutRequestID,
		Status:            normalizeAckStatus(ack.Status),
		Metadata:          map[string]interface{}{"provider_response": rawToMetadata(ack.Raw)},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := u.repo.Create(ctx, p)
	if err != nil {
		// The provider already accepted the charge; losing the record means
		// money may move with no local trace. Log loudly for the operator.
		telemetry.Logger.Error("payment.record_persist_failed",
			zap.String("user_id", in.UserID),
			zap.String("external_reference", externalReference),
			zap.String("checkout_request_id", ack.CheckoutRequestID),
			zap.String("provider_reference", ack.Reference),
			zap.Error(err),
		)
		return entities.Payment{}, errors.Join(ErrRecordAfterCharge, err)
	}

	metrics.PaymentsInitiated.WithLabelValues(string(channel.Provider)).Inc()
	telemetry.Logger.Info("payment.initiated",
		zap.String("payment_id", created.ID),
		zap.String("user_id", in.UserID),
		zap.String("external_reference", externalReference),
		zap.String("checkout_request_id", created.CheckoutRequestID),
		zap.Int("amount", in.Amount),
		zap.String("provider", string(channel.Provider)),
	)
	if u.events != nil {
		u.events.Publish(ctx, interfaces.LifecycleEvent{
			Name:              "payment.initiated",
			PaymentID:         created.ID,
			ExternalReference: externalReference,
			CheckoutRequestID: created.CheckoutRequestID,
			Status:            string(created.Status),
			Timestamp:         now,
		})
	}
	if u.poller != nil && u.reconciler != nil && created.CheckoutRequestID != "" {
		go u.pollAndReconcile(created.CheckoutRequestID)
	}
	return created, nil
}

func (u *PaymentUseCase) pollAndReconcile(checkoutRequestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), fallbackPollBudget)
	defer cancel()

	status, err := u.poller.Poll(ctx, checkoutRequestID)
	if err != nil || status == nil {
		return
	}
	if _, err := u.reconciler.HandleCallback(ctx, *status, nil); err != nil {
		telemetry.Logger.Warn("payment.poll_reconcile_failed",
			zap.String("checkout_request_id", checkoutRequestID),
			zap.Error(err),
		)
	}
}

func (u *PaymentUseCase) GetByID(ctx context.Context, id, userID string) (entities.Payment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}
	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Payment{}, err
	}
	if p.ID == "" || p.UserID != userID {
		return entities.Payment{}, ErrPaymentNotFound
	}
	return p, nil
}

func (u *PaymentUseCase) ListByUser(ctx context.Context, userID string) ([]entities.Payment, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingIdentity
	}
	return u.repo.ListByUserID(ctx, userID)
}

// QueryProviderStatus is the one-shot status lookup behind the UI poller.
func (u *PaymentUseCase) QueryProviderStatus(ctx context.Context, checkoutRequestID string) (*interfaces.StatusResult, error) {
	checkoutRequestID = strings.TrimSpace(checkoutRequestID)
	if checkoutRequestID == "" {
		return nil, ErrPaymentNotFound
	}
	return u.gateway.QueryStatus(ctx, checkoutRequestID)
}

// The provider acknowledges with QUEUED; the stored record starts its life
// as PENDING (QUEUED exists only inside the ack).
func normalizeAckStatus(s string) entities.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(entities.PaymentStatusQueued), string(entities.PaymentStatusPending):
		return entities.PaymentStatusPending
	default:
		return entities.PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	}
}

func rawToMetadata(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return string(raw)
	}
	return parsed
}
