package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matchday-app/notify-api/internal/cache"
	"github.com/matchday-app/notify-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) BatchCreate(ctx context.Context, records []domain.Notification) error {
	return m.Called(ctx, records).Error(0)
}
func (m *mockStore) ListByUser(ctx context.Context, userID string, limit int32) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if n, _ := args.Get(0).([]domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) ListOldest(ctx context.Context, userID string, limit int32) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if n, _ := args.Get(0).([]domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) ListUnread(ctx context.Context, userID string, limit int32) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if n, _ := args.Get(0).([]domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) BatchDelete(ctx context.Context, ids []string) error {
	return m.Called(ctx, ids).Error(0)
}
func (m *mockStore) MarkRead(ctx context.Context, ids []string) error {
	return m.Called(ctx, ids).Error(0)
}

type mockResolver struct{ mock.Mock }

func (m *mockResolver) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	args := m.Called(ctx, groupID)
	if ids, _ := args.Get(0).([]string); ids != nil {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeStrategy records dispatched recipients and signals completion, since
// the writer spawns dispatch as a detached task.
type fakeStrategy struct {
	mu         sync.Mutex
	recipients [][]string
	err        error
	done       chan struct{}
}

func newFakeStrategy(err error) *fakeStrategy {
	return &fakeStrategy{err: err, done: make(chan struct{}, 8)}
}

func (f *fakeStrategy) ResolveAndSend(_ context.Context, _ domain.Payload, recipients []string) error {
	f.mu.Lock()
	f.recipients = append(f.recipients, recipients)
	f.mu.Unlock()
	f.done <- struct{}{}
	return f.err
}

func (f *fakeStrategy) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch was never invoked")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recipients[len(f.recipients)-1]
}

type fakeKV struct{ data map[string]string }

func (s *fakeKV) Get(key string) (string, bool) { v, ok := s.data[key]; return v, ok }
func (s *fakeKV) Set(key, value string) error   { s.data[key] = value; return nil }
func (s *fakeKV) Delete(key string)             { delete(s.data, key) }
func (s *fakeKV) Keys(prefix string) []string {
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

func newSvc(repo *mockStore, resolver *mockResolver, push pushStrategy) Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(ServiceDeps{
		Repo:       repo,
		Resolver:   resolver,
		Push:       push,
		InboxCache: cache.New[[]domain.Notification](&fakeKV{data: map[string]string{}}, "notifications:", time.Minute, 100, logger),
		Logger:     logger,
	})
}

func payload() domain.Payload {
	return domain.Payload{
		Type:    domain.TypeGroupJoin,
		GroupID: "g1",
		Title:   "New member",
		Body:    "Sam joined your group",
	}
}

func userIDs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("u%d", i)
	}
	return out
}

// --- tests ---

func TestWrite_OneRecordPerRecipient(t *testing.T) {
	repo := new(mockStore)
	svc := newSvc(repo, new(mockResolver), newFakeStrategy(nil))

	var got []domain.Notification
	repo.On("BatchCreate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).([]domain.Notification)
	}).Return(nil).Once()

	require.NoError(t, svc.Write(context.Background(), []string{"u1", "u2", "u3"}, payload()))

	require.Len(t, got, 3)
	seenUsers := map[string]bool{}
	seenIDs := map[string]bool{}
	for _, n := range got {
		seenUsers[n.UserID] = true
		seenIDs[n.NotificationID] = true
		assert.False(t, n.Read)
		assert.Equal(t, "g1", n.GroupID)
		assert.Equal(t, domain.TypeGroupJoin, n.Type)
		assert.False(t, n.CreatedAt.IsZero())
	}
	assert.Len(t, seenUsers, 3)
	assert.Len(t, seenIDs, 3, "every record gets its own id")
	repo.AssertExpectations(t)
}

func TestWrite_ChunksAt400(t *testing.T) {
	repo := new(mockStore)
	svc := newSvc(repo, new(mockResolver), newFakeStrategy(nil))

	var sizes []int
	repo.On("BatchCreate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sizes = append(sizes, len(args.Get(1).([]domain.Notification)))
	}).Return(nil).Times(3)

	require.NoError(t, svc.Write(context.Background(), userIDs(850), payload()))
	assert.Equal(t, []int{400, 400, 50}, sizes)
	repo.AssertExpectations(t)
}

func TestWrite_FailedBatchAbortsBeforeNext(t *testing.T) {
	repo := new(mockStore)
	svc := newSvc(repo, new(mockResolver), newFakeStrategy(nil))

	calls := 0
	repo.On("BatchCreate", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		calls++
	}).Return(nil).Once()
	repo.On("BatchCreate", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		calls++
	}).Return(errors.New("transaction cancelled")).Once()

	err := svc.Write(context.Background(), userIDs(850), payload())
	require.ErrorContains(t, err, "transaction cancelled")
	assert.Equal(t, 2, calls, "third batch must never start after the second fails")
}

func TestNotify_DirectTargetsWriteThenDispatch(t *testing.T) {
	repo := new(mockStore)
	push := newFakeStrategy(nil)
	svc := newSvc(repo, new(mockResolver), push)

	repo.On("BatchCreate", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, svc.Notify(context.Background(), []string{"u1", "u2"}, payload()))
	assert.Equal(t, []string{"u1", "u2"}, push.wait(t))
	repo.AssertExpectations(t)
}

func TestNotify_EmptyRecipientsIsNoOp(t *testing.T) {
	repo := new(mockStore)
	push := newFakeStrategy(nil)
	svc := newSvc(repo, new(mockResolver), push)

	require.NoError(t, svc.Notify(context.Background(), nil, payload()))
	repo.AssertNotCalled(t, "BatchCreate", mock.Anything, mock.Anything)
}

func TestNotifyGroupMembers_ExcludesUsersFromWriteAndDispatch(t *testing.T) {
	repo := new(mockStore)
	res := new(mockResolver)
	push := newFakeStrategy(nil)
	svc := newSvc(repo, res, push)

	res.On("GroupMembers", mock.Anything, "g1").Return([]string{"u1", "u2", "u3"}, nil)
	var written []domain.Notification
	repo.On("BatchCreate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		written = args.Get(1).([]domain.Notification)
	}).Return(nil).Once()

	require.NoError(t, svc.NotifyGroupMembers(context.Background(), "g1", payload(), []string{"u2"}))

	require.Len(t, written, 2)
	assert.Equal(t, "u1", written[0].UserID)
	assert.Equal(t, "u3", written[1].UserID)
	assert.Equal(t, []string{"u1", "u3"}, push.wait(t))
}

func TestNotifyGroupMembers_ResolverFailureAbortsFanOut(t *testing.T) {
	repo := new(mockStore)
	res := new(mockResolver)
	svc := newSvc(repo, res, newFakeStrategy(nil))

	res.On("GroupMembers", mock.Anything, "g1").Return(nil, errors.New("query failed"))

	err := svc.NotifyGroupMembers(context.Background(), "g1", payload(), nil)
	assert.ErrorContains(t, err, "query failed")
	repo.AssertNotCalled(t, "BatchCreate", mock.Anything, mock.Anything)
}

func TestNotifyGroupMembers_AllMembersExcludedIsNoOp(t *testing.T) {
	repo := new(mockStore)
	res := new(mockResolver)
	svc := newSvc(repo, res, newFakeStrategy(nil))

	res.On("GroupMembers", mock.Anything, "g1").Return([]string{"u1"}, nil)

	require.NoError(t, svc.NotifyGroupMembers(context.Background(), "g1", payload(), []string{"u1"}))
	repo.AssertNotCalled(t, "BatchCreate", mock.Anything, mock.Anything)
}

func TestNotifyGroupMembers_DispatchFailureDoesNotSurface(t *testing.T) {
	repo := new(mockStore)
	res := new(mockResolver)
	push := newFakeStrategy(errors.New("gateway down"))
	svc := newSvc(repo, res, push)

	res.On("GroupMembers", mock.Anything, "g1").Return([]string{"u1"}, nil)
	repo.On("BatchCreate", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.NotifyGroupMembers(context.Background(), "g1", payload(), nil))
	push.wait(t)
}

func TestMarkAllRead_CapsAtFifty(t *testing.T) {
	repo := new(mockStore)
	svc := newSvc(repo, new(mockResolver), newFakeStrategy(nil))

	unread := make([]domain.Notification, 50)
	for i := range unread {
		unread[i] = domain.Notification{NotificationID: fmt.Sprintf("n%d", i)}
	}
	repo.On("ListUnread", mock.Anything, "u1", int32(50)).Return(unread, nil)
	repo.On("MarkRead", mock.Anything, mock.MatchedBy(func(ids []string) bool {
		return len(ids) == 50
	})).Return(nil)

	n, err := svc.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 50, n)
	repo.AssertExpectations(t)
}

func TestMarkAllRead_NoUnreadSkipsUpdate(t *testing.T) {
	repo := new(mockStore)
	svc := newSvc(repo, new(mockResolver), newFakeStrategy(nil))

	repo.On("ListUnread", mock.Anything, "u1", int32(50)).Return([]domain.Notification{}, nil)

	n, err := svc.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
	repo.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
}

func TestDeleteAll_PagedLoopUntilEmpty(t *testing.T) {
	repo := new(mockStore)
	svc := newSvc(repo, new(mockResolver), newFakeStrategy(nil))

	first := make([]domain.Notification, 400)
	for i := range first {
		first[i] = domain.Notification{NotificationID: fmt.Sprintf("a%d", i)}
	}
	second := []domain.Notification{{NotificationID: "b0"}, {NotificationID: "b1"}}

	repo.On("ListOldest", mock.Anything, "u1", int32(400)).Return(first, nil).Once()
	repo.On("ListOldest", mock.Anything, "u1", int32(400)).Return(second, nil).Once()
	repo.On("ListOldest", mock.Anything, "u1", int32(400)).Return([]domain.Notification{}, nil).Once()
	repo.On("BatchDelete", mock.Anything, mock.MatchedBy(func(ids []string) bool { return len(ids) == 400 })).Return(nil).Once()
	repo.On("BatchDelete", mock.Anything, []string{"b0", "b1"}).Return(nil).Once()

	require.NoError(t, svc.DeleteAll(context.Background(), "u1"))
	repo.AssertExpectations(t)
}

func TestList_SecondCallServedFromCache(t *testing.T) {
	repo := new(mockStore)
	svc := newSvc(repo, new(mockResolver), newFakeStrategy(nil))

	inbox := []domain.Notification{{NotificationID: "n1", UserID: "u1"}}
	repo.On("ListByUser", mock.Anything, "u1", int32(20)).Return(inbox, nil).Once()

	got, err := svc.List(context.Background(), "u1", 20)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.List(context.Background(), "u1", 20)
	require.NoError(t, err)
	assert.Equal(t, "n1", got[0].NotificationID)
	repo.AssertExpectations(t)
}
