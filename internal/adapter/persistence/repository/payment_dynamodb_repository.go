package repository

import (
	"context"
	"errors"
	"time"

	"rescuebite/internal/domain/entities"
	"rescuebite/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	defaultPaymentsTableName = "payments"
	paymentsCheckoutIndex    = "checkout_request_id-index"
	paymentsExternalRefIndex = "external_reference-index"
	paymentsUserIndex        = "user_id-index"
)

type paymentItem struct {
	ID                string                 `dynamodbav:"id"`
	UserID            string                 `dynamodbav:"user_id"`
	ChannelID         string                 `dynamodbav:"channel_id"`
	Amount            int                    `dynamodbav:"amount"`
	PhoneNumber       string                 `dynamodbav:"phone_number"`
	CustomerName      string                 `dynamodbav:"customer_name,omitempty"`
	ExternalReference string                 `dynamodbav:"external_reference"`
	ProviderReference string                 `dynamodbav:"provider_reference,omitempty"`
	CheckoutRequestID string                 `dynamodbav:"checkout_request_id,omitempty"`
	Status            string                 `dynamodbav:"status"`
	ResultCode        *int                   `dynamodbav:"result_code,omitempty"`
	ResultDescription string                 `dynamodbav:"result_description,omitempty"`
	ReceiptNumber     string                 `dynamodbav:"receipt_number,omitempty"`
	Metadata          map[string]interface{} `dynamodbav:"metadata,omitempty"`
	CreatedAt         string                 `dynamodbav:"created_at"`
	UpdatedAt         string                 `dynamodbav:"updated_at"`
	CompletedAt       string                 `dynamodbav:"completed_at,omitempty"`
}

// PaymentDynamoRepository persists Payment entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: checkout_request_id-index (PK: checkout_request_id)
//   - GSI: external_reference-index (PK: external_reference)
//   - GSI: user_id-index (PK: user_id)

type PaymentDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IPaymentRepository = (*PaymentDynamoRepository)(nil)

func NewPaymentDynamoRepository(ddb *dynamodb.Client) *PaymentDynamoRepository {
	return &PaymentDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("PAYMENTS_TABLE", defaultPaymentsTableName),
	}
}

func (r *PaymentDynamoRepository) Create(ctx context.Context, p entities.Payment) (entities.Payment, error) {
	av, err := attributevalue.MarshalMap(toPaymentItem(p))
	if err != nil {
		return entities.Payment{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.Payment{}, err
	}
	return p, nil
}

func (r *PaymentDynamoRepository) GetByID(ctx context.Context, id string) (entities.Payment, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if len(out.Item) == 0 {
		return entities.Payment{}, nil
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it), nil
}

func (r *PaymentDynamoRepository) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (entities.Payment, error) {
	return r.queryOne(ctx, paymentsCheckoutIndex, "checkout_request_id", checkoutRequestID)
}

func (r *PaymentDynamoRepository) GetByExternalReference(ctx context.Context, externalReference string) (entities.Payment, error) {
	return r.queryOne(ctx, paymentsExternalRefIndex, "external_reference", externalReference)
}

func (r *PaymentDynamoRepository) queryOne(ctx context.Context, index, attr, value string) (entities.Payment, error) {
	if value == "" {
		return entities.Payment{}, nil
	}
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String("#k = :v"),
		ExpressionAttributeNames: map[string]string{
			"#k": attr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if len(out.Items) == 0 {
		return entities.Payment{}, nil
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it), nil
}

func (r *PaymentDynamoRepository) ListByUserID(ctx context.Context, userID string) ([]entities.Payment, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(paymentsUserIndex),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}

	items := make([]entities.Payment, 0, len(out.Items))
	for _, raw := range out.Items {
		var it paymentItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, fromPaymentItem(it))
	}
	return items, nil
}

// ApplyReconciliation writes the terminal outcome exactly once. The condition
// lets the write through when the record is still non-terminal or already
// carries the same terminal status (an idempotent overwrite); a record in a
// different terminal state rejects the write and surfaces ErrTerminalConflict.
func (r *PaymentDynamoRepository) ApplyReconciliation(ctx context.Context, id string, upd entities.ReconciliationUpdate) (entities.Payment, error) {
	now := time.Now().UTC()

	updateExpr := "SET #status = :status, #rc = :rc, #rd = :rd, #receipt = :receipt, #updated = :updated, #completed = :completed"
	names := map[string]string{
		"#id":        "id",
		"#status":    "status",
		"#rc":        "result_code",
		"#rd":        "result_description",
		"#receipt":   "receipt_number",
		"#updated":   "updated_at",
		"#completed": "completed_at",
	}
	values := map[string]types.AttributeValue{
		":status":    &types.AttributeValueMemberS{Value: string(upd.Status)},
		":rc":        &types.AttributeValueMemberN{Value: itoa(upd.ResultCode)},
		":rd":        &types.AttributeValueMemberS{Value: upd.ResultDescription},
		":receipt":   &types.AttributeValueMemberS{Value: upd.ReceiptNumber},
		":updated":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		":completed": &types.AttributeValueMemberS{Value: upd.CompletedAt.UTC().Format(time.RFC3339Nano)},
		":success":   &types.AttributeValueMemberS{Value: string(entities.PaymentStatusSuccess)},
		":failed":    &types.AttributeValueMemberS{Value: string(entities.PaymentStatusFailed)},
		":cancelled": &types.AttributeValueMemberS{Value: string(entities.PaymentStatusCancelled)},
	}

	// A nil metadata map means "leave the stored metadata alone"; reconciled
	// callbacks hand over the full merged map, poll results hand over nil.
	if upd.Metadata != nil {
		metaAttr, err := attributevalue.Marshal(upd.Metadata)
		if err != nil {
			return entities.Payment{}, err
		}
		updateExpr += ", #meta = :meta"
		names["#meta"] = "metadata"
		values[":meta"] = metaAttr
	}

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression: aws.String(updateExpr),
		ConditionExpression: aws.String(
			"attribute_exists(#id) AND (NOT (#status IN (:success, :failed, :cancelled)) OR #status = :status)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return entities.Payment{}, interfaces.ErrTerminalConflict
		}
		return entities.Payment{}, err
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it), nil
}

func toPaymentItem(p entities.Payment) paymentItem {
	it := paymentItem{
		ID:                p.ID,
		UserID:            p.UserID,
		ChannelID:         p.ChannelID,
		Amount:            p.Amount,
		PhoneNumber:       p.PhoneNumber,
		CustomerName:      p.CustomerName,
		ExternalReference: p.ExternalReference,
		ProviderReference: p.ProviderReference,
		CheckoutRequestID: p.CheckoutRequestID,
		Status:            string(p.Status),
		ResultCode:        p.ResultCode,
		ResultDescription: p.ResultDescription,
		ReceiptNumber:     p.ReceiptNumber,
		Metadata:          p.Metadata,
		CreatedAt:         p.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:         p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if p.CompletedAt != nil {
		it.CompletedAt = p.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	return it
}

func fromPaymentItem(it paymentItem) entities.Payment {
	created, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	updated, _ := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	p := entities.Payment{
		ID:                it.ID,
		UserID:            it.UserID,
		ChannelID:         it.ChannelID,
		Amount:            it.Amount,
		PhoneNumber:       it.PhoneNumber,
		CustomerName:      it.CustomerName,
		ExternalReference: it.ExternalReference,
		ProviderReference: it.ProviderReference,
		CheckoutRequestID: it.CheckoutRequestID,
		Status:            entities.PaymentStatus(it.Status),
		ResultCode:        it.ResultCode,
		ResultDescription: it.ResultDescription,
		ReceiptNumber:     it.ReceiptNumber,
		Metadata:          it.Metadata,
		CreatedAt:         created,
		UpdatedAt:         updated,
	}
	if it.CompletedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, it.CompletedAt); err == nil {
			p.CompletedAt = &t
		}
	}
	return p
}
