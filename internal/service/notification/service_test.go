package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu      sync.Mutex
	rows    []notification.Notification
	batches int
	lastReq notification.ListNotificationsRequest
}

func (m *memoryRepo) Create(ctx context.Context, n notification.Notification) error {
	return m.CreateBatch(ctx, []notification.Notification{n})
}

func (m *memoryRepo) CreateBatch(ctx context.Context, ns []notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	m.rows = append(m.rows, ns...)
	return nil
}

func (m *memoryRepo) ListByRecipient(ctx context.Context, req notification.ListNotificationsRequest) ([]notification.Notification, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastReq = req
	var out []notification.Notification
	for _, n := range m.rows {
		if n.RecipientID == req.EmployeeID && (!req.UnreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) CountUnread(ctx context.Context, recipientID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.rows {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memoryRepo) MarkAsRead(ctx context.Context, id, recipientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.rows {
		if n.ID == id && n.RecipientID == recipientID {
			m.rows[i].IsRead = true
			return nil
		}
	}
	return notification.ErrNotificationNotFound
}

func (m *memoryRepo) MarkAllAsRead(ctx context.Context, recipientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.rows {
		if n.RecipientID == recipientID {
			m.rows[i].IsRead = true
		}
	}
	return nil
}

func (m *memoryRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func request(recipient string) notification.CreateNotificationRequest {
	return notification.CreateNotificationRequest{
		RecipientID: recipient,
		Type:        notification.TypeLeaveRequest,
		Title:       "New Leave Request",
		Message:     "Dana requested 1 day(s) of annual leave",
	}
}

func TestNotificationService_StopFlushesQueue(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewNotificationService(repo, sse.NewHub(10), Config{WorkerCount: 1, BatchSize: 10, FlushInterval: time.Hour})
	ctx := context.Background()

	require.NoError(t, svc.QueueBulkNotification(ctx, []notification.CreateNotificationRequest{
		request("adm-1"), request("adm-2"), request("adm-1"),
	}))
	svc.Stop()
	svc.Stop()

	assert.Equal(t, 3, repo.count())
	for _, n := range repo.rows {
		assert.NotEmpty(t, n.ID)
		assert.False(t, n.CreatedAt.IsZero())
	}

	err := svc.QueueNotification(ctx, request("adm-1"))
	assert.ErrorIs(t, err, notification.ErrServiceStopped)
}

func TestNotificationService_BatchSizeTriggersFlush(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewNotificationService(repo, sse.NewHub(10), Config{WorkerCount: 1, BatchSize: 2, FlushInterval: time.Hour})
	defer svc.Stop()

	ctx := context.Background()
	require.NoError(t, svc.QueueNotification(ctx, request("adm-1")))
	require.NoError(t, svc.QueueNotification(ctx, request("adm-1")))

	assert.Eventually(t, func() bool { return repo.count() == 2 }, time.Second, 10*time.Millisecond)
}

func TestNotificationService_SubscribeReceivesPersisted(t *testing.T) {
	repo := &memoryRepo{}
	hub := sse.NewHub(10)
	svc := NewNotificationService(repo, hub, Config{WorkerCount: 1, BatchSize: 1, FlushInterval: time.Hour})
	defer svc.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, cleanup := svc.Subscribe(ctx, "adm-1")
	defer cleanup()

	require.NoError(t, svc.QueueNotification(context.Background(), request("adm-1")))

	select {
	case ev := <-stream:
		assert.Equal(t, "notification", ev.Event)
		assert.Equal(t, notification.TypeLeaveRequest, ev.Data.Type)
		assert.Equal(t, "New Leave Request", ev.Data.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestNotificationService_ListAndRead(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewNotificationService(repo, sse.NewHub(10), Config{WorkerCount: 1, BatchSize: 1, FlushInterval: time.Hour})
	ctx := context.Background()

	require.NoError(t, svc.QueueBulkNotification(ctx, []notification.CreateNotificationRequest{request("emp-1"), request("emp-1")}))
	svc.Stop()

	list, err := svc.List(ctx, notification.ListNotificationsRequest{EmployeeID: "emp-1", PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.PageSize)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 2, list.UnreadCount)

	require.NoError(t, svc.MarkAsRead(ctx, "emp-1", list.Notifications[0].ID))
	unread, err := svc.UnreadCount(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	assert.ErrorIs(t, svc.MarkAsRead(ctx, "emp-2", list.Notifications[1].ID), notification.ErrNotificationNotFound)
	assert.ErrorIs(t, svc.MarkAsRead(ctx, "emp-1", "not-a-uuid"), notification.ErrNotificationNotFound)

	require.NoError(t, svc.MarkAllAsRead(ctx, "emp-1"))
	unread, err = svc.UnreadCount(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}
