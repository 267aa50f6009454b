package notification

import (
	"context"
)

// Service defines the notification service interface
type Service interface {
	// Queue notification (async processing via background workers)
	QueueNotification(ctx context.Context, req CreateNotificationRequest) error
	QueueBulkNotification(ctx context.Context, reqs []CreateNotificationRequest) error

	List(ctx context.Context, req ListNotificationsRequest) (NotificationListResponse, error)
	UnreadCount(ctx context.Context, employeeID string) (int, error)
	MarkAsRead(ctx context.Context, employeeID, notificationID string) error
	MarkAllAsRead(ctx context.Context, employeeID string) error

	// SSE subscription
	Subscribe(ctx context.Context, employeeID string) (<-chan SSEEvent, func())

	// Lifecycle
	Stop()
}
