package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/google/uuid"
)

// Config holds notification service configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

const streamEvent = "notification"

type service struct {
	repo   notification.Repository
	hub    *sse.Hub
	config Config
	now    func() time.Time

	queue  chan notification.CreateNotificationRequest
	wg     sync.WaitGroup
	stopMu sync.RWMutex
	stopCh chan struct{}
	done   bool
}

// NewNotificationService creates a new notification service with background workers
func NewNotificationService(repo notification.Repository, hub *sse.Hub, cfg Config) notification.Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}

	s := &service{
		repo:   repo,
		hub:    hub,
		config: cfg,
		now:    time.Now,
		queue:  make(chan notification.CreateNotificationRequest, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("notification service started",
		"workers", cfg.WorkerCount,
		"batch_size", cfg.BatchSize,
		"flush_interval", cfg.FlushInterval,
	)
	return s
}

func (s *service) newNotification(req notification.CreateNotificationRequest) notification.Notification {
	return notification.Notification{
		ID:          uuid.New().String(),
		RecipientID: req.RecipientID,
		SenderID:    req.SenderID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		Data:        req.Data,
		CreatedAt:   s.now(),
	}
}

func (s *service) push(notifications []notification.Notification) {
	if s.hub == nil {
		return
	}
	for _, n := range notifications {
		s.hub.Publish(n.RecipientID, sse.Event{
			Event: streamEvent,
			Data:  notification.NewNotificationResponse(n),
		})
	}
}

// worker drains the queue in batches, flushing on size, on the ticker and on stop.
func (s *service) worker(id int) {
	defer s.wg.Done()

	batch := make([]notification.CreateNotificationRequest, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		notifications := make([]notification.Notification, len(batch))
		for i, req := range batch {
			notifications[i] = s.newNotification(req)
		}

		if err := s.repo.CreateBatch(ctx, notifications); err != nil {
			slog.Error("failed to persist notification batch", "worker", id, "count", len(notifications), "error", err)
		} else {
			slog.Debug("persisted notification batch", "worker", id, "count", len(notifications))
			s.push(notifications)
		}

		batch = batch[:0]
	}

	for {
		select {
		case req := <-s.queue:
			batch = append(batch, req)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			for {
				select {
				case req := <-s.queue:
					batch = append(batch, req)
					if len(batch) >= s.config.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// QueueNotification queues a notification for async processing
func (s *service) QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error {
	s.stopMu.RLock()
	defer s.stopMu.RUnlock()
	if s.done {
		return notification.ErrServiceStopped
	}

	select {
	case s.queue <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Queue full, insert directly
		return s.directInsert(ctx, req)
	}
}

// QueueBulkNotification queues multiple notifications for async processing
func (s *service) QueueBulkNotification(ctx context.Context, reqs []notification.CreateNotificationRequest) error {
	for _, req := range reqs {
		if err := s.QueueNotification(ctx, req); err != nil {
			slog.Warn("failed to queue notification", "recipient_id", req.RecipientID, "type", req.Type, "error", err)
		}
	}
	return nil
}

func (s *service) directInsert(ctx context.Context, req notification.CreateNotificationRequest) error {
	n := s.newNotification(req)
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.push([]notification.Notification{n})
	return nil
}

// List returns one page of the employee's notifications
func (s *service) List(ctx context.Context, req notification.ListNotificationsRequest) (notification.NotificationListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	notifications, total, err := s.repo.ListByRecipient(ctx, req)
	if err != nil {
		return notification.NotificationListResponse{}, err
	}

	unread, err := s.repo.CountUnread(ctx, req.EmployeeID)
	if err != nil {
		return notification.NotificationListResponse{}, err
	}

	responses := make([]notification.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = notification.NewNotificationResponse(n)
	}

	return notification.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		UnreadCount:   unread,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}, nil
}

func (s *service) UnreadCount(ctx context.Context, employeeID string) (int, error) {
	return s.repo.CountUnread(ctx, employeeID)
}

func (s *service) MarkAsRead(ctx context.Context, employeeID, notificationID string) error {
	if _, err := uuid.Parse(notificationID); err != nil {
		return notification.ErrNotificationNotFound
	}
	return s.repo.MarkAsRead(ctx, notificationID, employeeID)
}

func (s *service) MarkAllAsRead(ctx context.Context, employeeID string) error {
	return s.repo.MarkAllAsRead(ctx, employeeID)
}

// Subscribe creates an SSE subscription for an employee
func (s *service) Subscribe(ctx context.Context, employeeID string) (<-chan notification.SSEEvent, func()) {
	ch, cleanup := s.hub.Subscribe(employeeID)

	out := make(chan notification.SSEEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				resp, ok := event.Data.(notification.NotificationResponse)
				if !ok {
					continue
				}
				select {
				case out <- notification.SSEEvent{Event: event.Event, Data: resp}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

// Stop flushes queued notifications and waits for the workers to exit.
func (s *service) Stop() {
	s.stopMu.Lock()
	if s.done {
		s.stopMu.Unlock()
		return
	}
	s.done = true
	close(s.stopCh)
	s.stopMu.Unlock()

	s.wg.Wait()
	slog.Info("notification service stopped")
}
