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
	defaultChannelsTableName = "payment_channels"
	channelsUserIndex        = "user_id-index"
)

type channelItem struct {
	ID                string `dynamodbav:"id"`
	UserID            string `dynamodbav:"user_id"`
	Name              string `dynamodbav:"name"`
	ProviderChannelID int    `dynamodbav:"provider_channel_id"`
	Provider          string `dynamodbav:"provider"`
	IsWallet          bool   `dynamodbav:"is_wallet"`
	NetworkCode       string `dynamodbav:"network_code,omitempty"`
	IsActive          bool   `dynamodbav:"is_active"`
	CreatedAt         string `dynamodbav:"created_at"`
}

// ChannelDynamoRepository persists PaymentChannel entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: user_id-index (PK: user_id)

type ChannelDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IChannelRepository = (*ChannelDynamoRepository)(nil)

func NewChannelDynamoRepository(ddb *dynamodb.Client) *ChannelDynamoRepository {
	return &ChannelDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("CHANNELS_TABLE", defaultChannelsTableName),
	}
}

func (r *ChannelDynamoRepository) Create(ctx context.Context, ch entities.PaymentChannel) (entities.PaymentChannel, error) {
	av, err := attributevalue.MarshalMap(toChannelItem(ch))
	if err != nil {
		return entities.PaymentChannel{}, err
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
		return entities.PaymentChannel{}, err
	}
	return ch, nil
}

// GetByIDForUser returns the zero value when the channel does not exist or
// belongs to a different user; callers cannot tell the two apart.
func (r *ChannelDynamoRepository) GetByIDForUser(ctx context.Context, id, userID string) (entities.PaymentChannel, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.PaymentChannel{}, err
	}
	if len(out.Item) == 0 {
		return entities.PaymentChannel{}, nil
	}

	var it channelItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.PaymentChannel{}, err
	}
	if it.UserID != userID {
		return entities.PaymentChannel{}, nil
	}
	return fromChannelItem(it), nil
}

func (r *ChannelDynamoRepository) ListByUserID(ctx context.Context, userID string) ([]entities.PaymentChannel, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(channelsUserIndex),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}

	items := make([]entities.PaymentChannel, 0, len(out.Items))
	for _, raw := range out.Items {
		var it channelItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, fromChannelItem(it))
	}
	return items, nil
}

// SetActive flips the flag only when the channel belongs to the caller; the
// condition doubles as the existence check.
func (r *ChannelDynamoRepository) SetActive(ctx context.Context, id, userID string, active bool) (entities.PaymentChannel, error) {
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET #active = :active"),
		ConditionExpression: aws.String("attribute_exists(#id) AND #uid = :uid"),
		ExpressionAttributeNames: map[string]string{
			"#id":     "id",
			"#uid":    "user_id",
			"#active": "is_active",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":active": &types.AttributeValueMemberBOOL{Value: active},
			":uid":    &types.AttributeValueMemberS{Value: userID},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return entities.PaymentChannel{}, nil
		}
		return entities.PaymentChannel{}, err
	}

	var it channelItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.PaymentChannel{}, err
	}
	return fromChannelItem(it), nil
}

func toChannelItem(ch entities.PaymentChannel) channelItem {
	return channelItem{
		ID:                ch.ID,
		UserID:            ch.UserID,
		Name:              ch.Name,
		ProviderChannelID: ch.ProviderChannelID,
		Provider:          string(ch.Provider),
		IsWallet:          ch.IsWallet,
		NetworkCode:       ch.NetworkCode,
		IsActive:          ch.IsActive,
		CreatedAt:         ch.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromChannelItem(it channelItem) entities.PaymentChannel {
	created, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	return entities.PaymentChannel{
		ID:                it.ID,
		UserID:            it.UserID,
		Name:              it.Name,
		ProviderChannelID: it.ProviderChannelID,
		Provider:          entities.PaymentProvider(it.Provider),
		IsWallet:          it.IsWallet,
		NetworkCode:       it.NetworkCode,
		IsActive:          it.IsActive,
		CreatedAt:         created,
	}
}
