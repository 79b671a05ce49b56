package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/matchday-app/notify-api/internal/domain"
	"github.com/matchday-app/notify-api/internal/pkg/chunk"
)

// idLookupLimit caps the number of user ids per bulk token lookup. The store
// contract allows at most 10 ids per "member of id set" query.
const idLookupLimit = 10

// TokenRepo provides typed DynamoDB operations for the user_tokens table.
// The tokens attribute is a string set, so add/remove are single-value
// set-union and set-difference writes with no client-side read-modify-write.
type TokenRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTokenRepo(client *dynamodb.Client, tableName string) *TokenRepo {
	return &TokenRepo{client: client, tableName: tableName}
}

// AddToken unions token into the user's token set. Idempotent: adding a
// token already in the set leaves the set unchanged.
func (r *TokenRepo) AddToken(ctx context.Context, userID, token string) error {
	return r.mutateSet(ctx, userID, token, "ADD")
}

// RemoveToken removes exactly token from the user's set, leaving tokens of
// the user's other devices untouched.
func (r *TokenRepo) RemoveToken(ctx context.Context, userID, token string) error {
	return r.mutateSet(ctx, userID, token, "DELETE")
}

func (r *TokenRepo) mutateSet(ctx context.Context, userID, token, verb string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("user_id", userID),
		UpdateExpression: aws.String(verb + " #t :tok SET #u = :now"),
		ExpressionAttributeNames: map[string]string{
			"#t": fieldTokens,
			"#u": fieldUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tok": &types.AttributeValueMemberSS{Value: []string{token}},
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("%s token for user %s: %w", verb, userID, err)
	}
	return nil
}

// GetMany bulk-fetches token sets for the given users, issuing one
// BatchGetItem per id chunk of at most idLookupLimit keys. Users without a
// token document are simply absent from the result.
func (r *TokenRepo) GetMany(ctx context.Context, userIDs []string) ([]domain.TokenSet, error) {
	var sets []domain.TokenSet
	for _, part := range chunk.Split(userIDs, idLookupLimit) {
		keys := make([]map[string]types.AttributeValue, 0, len(part))
		for _, uid := range part {
			keys = append(keys, strKey("user_id", uid))
		}
		out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				r.tableName: {Keys: keys},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("batch get token sets: %w", err)
		}
		var page []domain.TokenSet
		if err := attributevalue.UnmarshalListOfMaps(out.Responses[r.tableName], &page); err != nil {
			return nil, err
		}
		sets = append(sets, page...)
	}
	return sets, nil
}

// RemoveLegacyField drops the deprecated flat token-array attribute from the
// user's token document. Best-effort at call sites: callers log failures and
// move on.
func (r *TokenRepo) RemoveLegacyField(ctx context.Context, userID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("user_id", userID),
		UpdateExpression: aws.String("REMOVE #legacy"),
		ExpressionAttributeNames: map[string]string{
			"#legacy": fieldPushTokensLegacy,
		},
	})
	return err
}
