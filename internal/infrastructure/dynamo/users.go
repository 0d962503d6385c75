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

// UserRepo provides typed DynamoDB operations for the user directory table.
// Rows are provisioned administratively; this repo only reads them and
// mutates the auth-code columns.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

// GetByEmail returns the directory row for a normalized (lowercase, trimmed) email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotRegistered)
	}
	var u domain.UserRecord
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetAuthCode writes the freshly issued code, its timestamp, and a zeroed
// attempt counter in a single update, so a partially-issued code can never
// be observed.
func (r *UserRepo) SetAuthCode(ctx context.Context, email, code string, issuedAt time.Time) error {
	return r.update(ctx, email, map[string]interface{}{
		fieldAuthCode:     code,
		fieldCodeIssuedAt: issuedAt.UTC().Format(time.RFC3339),
		fieldAttemptCount: 0,
	})
}

// IncrementAttempts bumps the wrong-code counter atomically via ADD, so
// concurrent verify calls can't both observe the same stale count.
func (r *UserRepo) IncrementAttempts(ctx context.Context, email string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("email", email),
		UpdateExpression: aws.String("ADD #a :one"),
		ExpressionAttributeNames: map[string]string{
			"#a": fieldAttemptCount,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	return err
}

// ClearAuthCode records the successful login and wipes the code triplet in
// one batched write.
func (r *UserRepo) ClearAuthCode(ctx context.Context, email string, lastLogin time.Time) error {
	return r.update(ctx, email, map[string]interface{}{
		fieldLastLogin:    lastLogin.UTC().Format(time.RFC3339),
		fieldAuthCode:     "",
		fieldCodeIssuedAt: nil,
		fieldAttemptCount: 0,
	})
}

func (r *UserRepo) update(ctx context.Context, email string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("email", email),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
