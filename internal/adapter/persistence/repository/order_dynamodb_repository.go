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
	defaultOrdersTableName = "orders"
	ordersPaymentRefIndex  = "payment_reference-index"
	ordersBuyerIndex       = "buyer_id-index"
)

type orderItem struct {
	ID                    string `dynamodbav:"id"`
	BuyerID               string `dynamodbav:"buyer_id"`
	BuyerName             string `dynamodbav:"buyer_name,omitempty"`
	BuyerEmail            string `dynamodbav:"buyer_email"`
	ListingID             string `dynamodbav:"listing_id"`
	Quantity              int    `dynamodbav:"quantity"`
	TotalAmount           int    `dynamodbav:"total_amount"`
	Currency              string `dynamodbav:"currency"`
	Status                string `dynamodbav:"status"`
	PaymentStatus         string `dynamodbav:"payment_status"`
	PaymentReference      string `dynamodbav:"payment_reference"`
	ProviderTransactionID string `dynamodbav:"provider_transaction_id,omitempty"`
	ReceiptNumber         string `dynamodbav:"receipt_number,omitempty"`
	PaymentCompletedAt    string `dynamodbav:"payment_completed_at,omitempty"`
	CreatedAt             string `dynamodbav:"created_at"`
	UpdatedAt             string `dynamodbav:"updated_at"`
}

// OrderDynamoRepository persists Order entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: payment_reference-index (PK: payment_reference)
//   - GSI: buyer_id-index (PK: buyer_id)

type OrderDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IOrderRepository = (*OrderDynamoRepository)(nil)

func NewOrderDynamoRepository(ddb *dynamodb.Client) *OrderDynamoRepository {
	return &OrderDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("ORDERS_TABLE", defaultOrdersTableName),
	}
}

func (r *OrderDynamoRepository) Create(ctx context.Context, o entities.Order) (entities.Order, error) {
	av, err := attributevalue.MarshalMap(toOrderItem(o))
	if err != nil {
		return entities.Order{}, err
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
		return entities.Order{}, err
	}
	return o, nil
}

func (r *OrderDynamoRepository) GetByID(ctx context.Context, id string) (entities.Order, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Order{}, err
	}
	if len(out.Item) == 0 {
		return entities.Order{}, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func (r *OrderDynamoRepository) GetByPaymentReference(ctx context.Context, paymentReference string) (entities.Order, error) {
	if paymentReference == "" {
		return entities.Order{}, nil
	}
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(ordersPaymentRefIndex),
		KeyConditionExpression: aws.String("payment_reference = :ref"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ref": &types.AttributeValueMemberS{Value: paymentReference},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.Order{}, err
	}
	if len(out.Items) == 0 {
		return entities.Order{}, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func (r *OrderDynamoRepository) ListByBuyerID(ctx context.Context, buyerID string) ([]entities.Order, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(ordersBuyerIndex),
		KeyConditionExpression: aws.String("buyer_id = :bid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bid": &types.AttributeValueMemberS{Value: buyerID},
		},
	})
	if err != nil {
		return nil, err
	}

	items := make([]entities.Order, 0, len(out.Items))
	for _, raw := range out.Items {
		var it orderItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, fromOrderItem(it))
	}
	return items, nil
}

// ApplyCheckoutUpdate has the same exactly-once contract as the payment
// reconciliation write: non-terminal records and same-status overwrites pass,
// a different terminal status is rejected with ErrTerminalConflict.
func (r *OrderDynamoRepository) ApplyCheckoutUpdate(ctx context.Context, id string, upd entities.OrderCheckoutUpdate) (entities.Order, error) {
	now := time.Now().UTC()
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression: aws.String("SET #ps = :ps, #st = :st, #receipt = :receipt, #completed = :completed, #updated = :updated"),
		ConditionExpression: aws.String(
			"attribute_exists(#id) AND (NOT (#ps IN (:done, :failed)) OR #ps = :ps)"),
		ExpressionAttributeNames: map[string]string{
			"#id":        "id",
			"#ps":        "payment_status",
			"#st":        "status",
			"#receipt":   "receipt_number",
			"#completed": "payment_completed_at",
			"#updated":   "updated_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ps":        &types.AttributeValueMemberS{Value: string(upd.PaymentStatus)},
			":st":        &types.AttributeValueMemberS{Value: string(upd.Status)},
			":receipt":   &types.AttributeValueMemberS{Value: upd.ReceiptNumber},
			":completed": &types.AttributeValueMemberS{Value: upd.CompletedAt.UTC().Format(time.RFC3339Nano)},
			":updated":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
			":done":      &types.AttributeValueMemberS{Value: string(entities.OrderPaymentCompleted)},
			":failed":    &types.AttributeValueMemberS{Value: string(entities.OrderPaymentFailed)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return entities.Order{}, interfaces.ErrTerminalConflict
		}
		return entities.Order{}, err
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func (r *OrderDynamoRepository) SetProviderTransactionID(ctx context.Context, id, transactionID string) error {
	_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET #txn = :txn, #updated = :updated"),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id":      "id",
			"#txn":     "provider_transaction_id",
			"#updated": "updated_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":txn":     &types.AttributeValueMemberS{Value: transactionID},
			":updated": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	return err
}

func toOrderItem(o entities.Order) orderItem {
	it := orderItem{
		ID:                    o.ID,
		BuyerID:               o.BuyerID,
		BuyerName:             o.BuyerName,
		BuyerEmail:            o.BuyerEmail,
		ListingID:             o.ListingID,
		Quantity:              o.Quantity,
		TotalAmount:           o.TotalAmount,
		Currency:              o.Currency,
		Status:                string(o.Status),
		PaymentStatus:         string(o.PaymentStatus),
		PaymentReference:      o.PaymentReference,
		ProviderTransactionID: o.ProviderTransactionID,
		ReceiptNumber:         o.ReceiptNumber,
		CreatedAt:             o.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:             o.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if o.PaymentCompletedAt != nil {
		it.PaymentCompletedAt = o.PaymentCompletedAt.UTC().Format(time.RFC3339Nano)
	}
	return it
}

func fromOrderItem(it orderItem) entities.Order {
	created, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	updated, _ := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	o := entities.Order{
		ID:                    it.ID,
		BuyerID:               it.BuyerID,
		BuyerName:             it.BuyerName,
		BuyerEmail:            it.BuyerEmail,
		ListingID:             it.ListingID,
		Quantity:              it.Quantity,
		TotalAmount:           it.TotalAmount,
		Currency:              it.Currency,
		Status:                entities.OrderStatus(it.Status),
		PaymentStatus:         entities.OrderPaymentStatus(it.PaymentStatus),
		PaymentReference:      it.PaymentReference,
		ProviderTransactionID: it.ProviderTransactionID,
		ReceiptNumber:         it.ReceiptNumber,
		CreatedAt:             created,
		UpdatedAt:             updated,
	}
	if it.PaymentCompletedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, it.PaymentCompletedAt); err == nil {
			o.PaymentCompletedAt = &t
		}
	}
	return o
}
