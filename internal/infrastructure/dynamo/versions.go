package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/analytics-dashboard-api/internal/domain"
)

// VersionKey is the single row the deployment metadata lives under.
const VersionKey = "app"

// VersionRepo provides typed DynamoDB operations for the app_versions table.
type VersionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVersionRepo(client *dynamodb.Client, tableName string) *VersionRepo {
	return &VersionRepo{client: client, tableName: tableName}
}

func (r *VersionRepo) Get(ctx context.Context) (*domain.AppVersion, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("version_key", VersionKey),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("app version not found: %w", domain.ErrNotFound)
	}
	var v domain.AppVersion
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VersionRepo) Put(ctx context.Context, v *domain.AppVersion) error {
	v.VersionKey = VersionKey
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal app version: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Bump atomically increments the build counter and refreshes the deployment
// stamp. Called by the deploy tooling, never by request handlers.
func (r *VersionRepo) Bump(ctx context.Context, now time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("version_key", VersionKey),
		UpdateExpression: aws.String("ADD build :one SET #s = :stamp"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldStamp,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":stamp": &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
		},
	})
	return err
}
