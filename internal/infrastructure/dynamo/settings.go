package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/vetgate/internal/domain"
)

// SettingRepo is the durable key/value store for admin-configured state:
// the spreadsheet id and the two tier role ids. PK: key.
// It must survive restarts and be readable by concurrent handlers, so it is
// never cached in process memory.
type SettingRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSettingRepo(client *dynamodb.Client, tableName string) *SettingRepo {
	return &SettingRepo{client: client, tableName: tableName}
}

func (r *SettingRepo) Put(ctx context.Context, key, value string) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"key":   &types.AttributeValueMemberS{Value: key},
			"value": &types.AttributeValueMemberS{Value: value},
		},
	})
	if err != nil {
		return fmt.Errorf("put setting %q: %w", key, err)
	}
	return nil
}

func (r *SettingRepo) Get(ctx context.Context, key string) (string, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("key", key),
	})
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	if out.Item == nil {
		return "", fmt.Errorf("setting %q: %w", key, domain.ErrNotFound)
	}
	v, ok := out.Item["value"].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("setting %q: %w", key, domain.ErrNotFound)
	}
	return v.Value, nil
}
