package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/matchday-app/notify-api/internal/cache"
	"github.com/matchday-app/notify-api/internal/domain"
	"github.com/matchday-app/notify-api/internal/pkg/besteffort"
	"github.com/matchday-app/notify-api/internal/pkg/chunk"
	"github.com/matchday-app/notify-api/internal/pkg/id"
)

const (
	// batchLimit is the store's transactional-batch recipient limit.
	batchLimit = 400
	// markReadLimit caps one MarkAllRead invocation. Clearing a larger
	// backlog takes repeated calls; kept as-is from the original contract.
	markReadLimit = 50
)

type Service interface {
	Write(ctx context.Context, recipients []string, payload domain.Payload) error
	Notify(ctx context.Context, recipients []string, payload domain.Payload) error
	NotifyGroupMembers(ctx context.Context, groupID string, payload domain.Payload, excludeUserIDs []string) error
	List(ctx context.Context, userID string, limit int32) ([]domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	DeleteAll(ctx context.Context, userID string) error
}

type notificationStore interface {
	BatchCreate(ctx context.Context, records []domain.Notification) error
	ListByUser(ctx context.Context, userID string, limit int32) ([]domain.Notification, error)
	ListOldest(ctx context.Context, userID string, limit int32) ([]domain.Notification, error)
	ListUnread(ctx context.Context, userID string, limit int32) ([]domain.Notification, error)
	BatchDelete(ctx context.Context, notificationIDs []string) error
	MarkRead(ctx context.Context, notificationIDs []string) error
}

type memberResolver interface {
	GroupMembers(ctx context.Context, groupID string) ([]string, error)
}

type pushStrategy interface {
	ResolveAndSend(ctx context.Context, payload domain.Payload, recipients []string) error
}

type service struct {
	repo     notificationStore
	resolver memberResolver
	push     pushStrategy
	inbox    *cache.Cache[[]domain.Notification]
	logger   *slog.Logger
}

type ServiceDeps struct {
	Repo       notificationStore
	Resolver   memberResolver
	Push       pushStrategy
	InboxCache *cache.Cache[[]domain.Notification]
	Logger     *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.Repo,
		resolver: deps.Resolver,
		push:     deps.Push,
		inbox:    deps.InboxCache,
		logger:   deps.Logger,
	}
}

// Write fans payload out as one durable record per recipient. Recipients are
// split into store-sized batches written strictly in order, each batch
// all-or-nothing: a failure on batch K aborts before K+1 starts and
// propagates to the caller.
func (s *service) Write(ctx context.Context, recipients []string, payload domain.Payload) error {
	now := time.Now().UTC()
	for _, part := range chunk.Split(recipients, batchLimit) {
		records := make([]domain.Notification, 0, len(part))
		for _, uid := range part {
			records = append(records, domain.Notification{
				NotificationID: id.New(),
				UserID:         uid,
				Type:           payload.Type,
				GroupID:        payload.GroupID,
				EventID:        payload.EventID,
				Title:          payload.Title,
				Body:           payload.Body,
				Link:           payload.Link,
				ActorID:        payload.ActorID,
				ActorName:      payload.ActorName,
				ActorPhoto:     payload.ActorPhoto,
				Read:           false,
				CreatedAt:      now,
			})
		}
		if err := s.repo.BatchCreate(ctx, records); err != nil {
			return fmt.Errorf("fan-out batch: %w", err)
		}
	}
	return nil
}

// Notify persists the fan-out and then hands the same recipient set to the
// push strategy as a detached best-effort task. Push failures can never roll
// back or block the committed records; they are only logged.
func (s *service) Notify(ctx context.Context, recipients []string, payload domain.Payload) error {
	if len(recipients) == 0 {
		return nil
	}
	if err := s.Write(ctx, recipients, payload); err != nil {
		return err
	}
	s.dispatchDetached(ctx, recipients, payload)
	return nil
}

// dispatchDetached fires the push strategy on its own goroutine with a
// context that outlives the request. The writer never awaits the result
// beyond logging it.
func (s *service) dispatchDetached(ctx context.Context, recipients []string, payload domain.Payload) {
	dispatchCtx := context.WithoutCancel(ctx)
	go func() {
		besteffort.Log(s.logger, "push dispatch", s.push.ResolveAndSend(dispatchCtx, payload, recipients))
	}()
}

// NotifyGroupMembers resolves the group's members, drops the excluded users,
// and runs Notify over the remainder.
func (s *service) NotifyGroupMembers(ctx context.Context, groupID string, payload domain.Payload, excludeUserIDs []string) error {
	members, err := s.resolver.GroupMembers(ctx, groupID)
	if err != nil {
		return fmt.Errorf("resolve group members: %w", err)
	}
	excluded := make(map[string]struct{}, len(excludeUserIDs))
	for _, uid := range excludeUserIDs {
		excluded[uid] = struct{}{}
	}
	recipients := make([]string, 0, len(members))
	for _, uid := range members {
		if _, skip := excluded[uid]; skip {
			continue
		}
		recipients = append(recipients, uid)
	}
	return s.Notify(ctx, recipients, payload)
}

// List reads the user's inbox newest-first, cache-first with a short TTL.
func (s *service) List(ctx context.Context, userID string, limit int32) ([]domain.Notification, error) {
	if notifications, ok := s.inbox.Get(userID); ok {
		return notifications, nil
	}
	notifications, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	s.inbox.Set(userID, notifications)
	return notifications, nil
}

// MarkAllRead flips up to markReadLimit unread records to read and returns
// how many it touched. Callers with more unread than the cap invoke again.
func (s *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	unread, err := s.repo.ListUnread(ctx, userID, markReadLimit)
	if err != nil {
		return 0, err
	}
	if len(unread) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(unread))
	for _, n := range unread {
		ids = append(ids, n.NotificationID)
	}
	if err := s.repo.MarkRead(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// DeleteAll empties the user's inbox with a paged delete loop, batchLimit
// records at a time, so no single store call exceeds the batch size cap.
func (s *service) DeleteAll(ctx context.Context, userID string) error {
	for {
		page, err := s.repo.ListOldest(ctx, userID, batchLimit)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		ids := make([]string, 0, len(page))
		for _, n := range page {
			ids = append(ids, n.NotificationID)
		}
		if err := s.repo.BatchDelete(ctx, ids); err != nil {
			return err
		}
	}
}
