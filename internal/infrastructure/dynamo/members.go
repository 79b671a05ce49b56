package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/matchday-app/notify-api/internal/domain"
)

// GroupMemberRepo provides typed DynamoDB operations for the group_members
// table (PK group_id, SK user_id).
type GroupMemberRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewGroupMemberRepo(client *dynamodb.Client, tableName string) *GroupMemberRepo {
	return &GroupMemberRepo{client: client, tableName: tableName}
}

// ListByGroup returns every membership record under the group, in user-id
// order (the table's sort key).
func (r *GroupMemberRepo) ListByGroup(ctx context.Context, groupID string) ([]domain.GroupMember, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("group_id = :gid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":gid": &types.AttributeValueMemberS{Value: groupID},
		},
	})
	if err != nil {
		return nil, err
	}
	var members []domain.GroupMember
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &members); err != nil {
		return nil, err
	}
	return members, nil
}
