package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/matchday-app/notify-api/internal/domain"
	"github.com/matchday-app/notify-api/internal/pkg/chunk"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

// BatchCreate writes one writer-level chunk (up to 400 records), split into
// sequential TransactWriteItems calls of up to 100 items. Each 100-item
// transaction is atomic; a failed transaction aborts the remaining ones and
// propagates, which can leave earlier transactions of the chunk committed.
func (r *NotificationRepo) BatchCreate(ctx context.Context, records []domain.Notification) error {
	for _, part := range chunk.Split(records, transactLimit) {
		items := make([]types.TransactWriteItem, 0, len(part))
		for i := range part {
			item, err := attributevalue.MarshalMap(&part[i])
			if err != nil {
				return fmt.Errorf("marshal notification: %w", err)
			}
			items = append(items, types.TransactWriteItem{
				Put: &types.Put{
					TableName: aws.String(r.tableName),
					Item:      item,
				},
			})
		}
		if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		}); err != nil {
			return fmt.Errorf("batch create notifications: %w", err)
		}
	}
	return nil
}

// ListByUser returns up to limit records for the user's inbox, newest first.
// Ordering by created_at is stable because creation time is assigned
// server-side at write time.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit int32) ([]domain.Notification, error) {
	return r.queryByUser(ctx, userID, limit, false, nil)
}

// ListOldest returns up to limit records for the user, oldest first. Used by
// the paged full-delete loop.
func (r *NotificationRepo) ListOldest(ctx context.Context, userID string, limit int32) ([]domain.Notification, error) {
	return r.queryByUser(ctx, userID, limit, true, nil)
}

// ListUnread returns up to limit unread records for the user.
func (r *NotificationRepo) ListUnread(ctx context.Context, userID string, limit int32) ([]domain.Notification, error) {
	filter := aws.String("#r = :false")
	return r.queryByUser(ctx, userID, limit, true, filter)
}

// queryByUser pages through the user's GSI partition until limit matching
// records are collected or the partition is exhausted. Query's Limit caps
// items *evaluated* per page, not items matching, so a filtered query can
// return empty pages with more data behind LastEvaluatedKey; stopping after
// one page would under-report whenever filtered-out records precede the
// matches in index order.
func (r *NotificationRepo) queryByUser(ctx context.Context, userID string, limit int32, ascending bool, filter *string) ([]domain.Notification, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-created_at-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(ascending),
		Limit:            aws.Int32(limit),
	}
	if filter != nil {
		in.FilterExpression = filter
		in.ExpressionAttributeNames = map[string]string{"#r": fieldRead}
		in.ExpressionAttributeValues[":false"] = &types.AttributeValueMemberBOOL{Value: false}
	}
	var notifications []domain.Notification
	for {
		out, err := r.client.Query(ctx, in)
		if err != nil {
			return nil, err
		}
		var page []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		notifications = append(notifications, page...)
		if len(notifications) >= int(limit) || out.LastEvaluatedKey == nil {
			break
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
	if len(notifications) > int(limit) {
		notifications = notifications[:limit]
	}
	return notifications, nil
}

// BatchDelete removes the given records atomically, split into sequential
// transactions like BatchCreate.
func (r *NotificationRepo) BatchDelete(ctx context.Context, notificationIDs []string) error {
	for _, part := range chunk.Split(notificationIDs, transactLimit) {
		items := make([]types.TransactWriteItem, 0, len(part))
		for _, id := range part {
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName: aws.String(r.tableName),
					Key:       strKey("notification_id", id),
				},
			})
		}
		if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		}); err != nil {
			return fmt.Errorf("batch delete notifications: %w", err)
		}
	}
	return nil
}

// MarkRead flips read=true on each given record in one atomic batch.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationIDs []string) error {
	for _, part := range chunk.Split(notificationIDs, transactLimit) {
		items := make([]types.TransactWriteItem, 0, len(part))
		for _, id := range part {
			ue, err := buildUpdateExpr(map[string]interface{}{fieldRead: true})
			if err != nil {
				return err
			}
			items = append(items, types.TransactWriteItem{
				Update: &types.Update{
					TableName:                 aws.String(r.tableName),
					Key:                       strKey("notification_id", id),
					UpdateExpression:          aws.String(ue.Expr),
					ExpressionAttributeNames:  ue.Names,
					ExpressionAttributeValues: ue.Values,
				},
			})
		}
		if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		}); err != nil {
			return fmt.Errorf("mark notifications read: %w", err)
		}
	}
	return nil
}
