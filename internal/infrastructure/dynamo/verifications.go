package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/voxlink/server/internal/domain"
)

// VerificationRepo manages one-time email verification codes.
// PK: email, SK: code_id (ULID). Multiple outstanding codes per email are
// allowed; lookups consult most-recent-first.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

// recentCodeWindow bounds how many of the newest codes per email are consulted
// when matching. Anything older has long expired anyway.
const recentCodeWindow = 20

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

func (r *VerificationRepo) Put(ctx context.Context, v *domain.VerificationCode) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// FindLatest returns the most recently created, unused code row matching
// (email, code). Expiry is deliberately not filtered here — the caller decides
// how to treat an expired match. Absence maps to domain.ErrNotFound.
func (r *VerificationRepo) FindLatest(ctx context.Context, email, code string) (*domain.VerificationCode, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("email = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		},
		ScanIndexForward: aws.Bool(false), // ULID sort key: newest first
		Limit:            aws.Int32(recentCodeWindow),
	})
	if err != nil {
		return nil, err
	}
	var codes []domain.VerificationCode
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &codes); err != nil {
		return nil, err
	}
	for i := range codes {
		if !codes[i].Used && codes[i].Code == code {
			return &codes[i], nil
		}
	}
	return nil, fmt.Errorf("verification code not found: %w", domain.ErrNotFound)
}

// MarkUsed consumes a code exactly once.
func (r *VerificationRepo) MarkUsed(ctx context.Context, email, codeID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{"used": true})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("email", email, "code_id", codeID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
