package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/voxlink/server/internal/domain"
)

// PairingRepo provides typed DynamoDB operations for the pairings table.
// PK: gateway_token, which guarantees at most one row per gateway token —
// registration is an idempotent overwrite. GSIs: pairing_id-index (delete
// path) and account_id-index (list path).
type PairingRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPairingRepo(client *dynamodb.Client, tableName string) *PairingRepo {
	return &PairingRepo{client: client, tableName: tableName}
}

func (r *PairingRepo) Put(ctx context.Context, p *domain.Pairing) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal pairing: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PairingRepo) GetByToken(ctx context.Context, gatewayToken string) (*domain.Pairing, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("gateway_token", gatewayToken),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("pairing not found: %w", domain.ErrNotFound)
	}
	var p domain.Pairing
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PairingRepo) GetByPairingID(ctx context.Context, pairingID string) (*domain.Pairing, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("pairing_id-index"),
		KeyConditionExpression: aws.String("pairing_id = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: pairingID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("pairing not found: %w", domain.ErrNotFound)
	}
	var p domain.Pairing
	if err := attributevalue.UnmarshalMap(out.Items[0], &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByAccount returns all pairings owned by the account, most recent first.
func (r *PairingRepo) ListByAccount(ctx context.Context, accountID string) ([]domain.Pairing, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("account_id-index"),
		KeyConditionExpression: aws.String("account_id = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: accountID},
		},
	})
	if err != nil {
		return nil, err
	}
	var pairings []domain.Pairing
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &pairings); err != nil {
		return nil, err
	}
	sort.Slice(pairings, func(i, j int) bool {
		return pairings[i].CreatedAt.After(pairings[j].CreatedAt)
	})
	return pairings, nil
}

func (r *PairingRepo) Delete(ctx context.Context, gatewayToken string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("gateway_token", gatewayToken),
	})
	return err
}
