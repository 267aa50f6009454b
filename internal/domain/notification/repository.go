package notification

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, notification Notification) error
	CreateBatch(ctx context.Context, notifications []Notification) error
	ListByRecipient(ctx context.Context, req ListNotificationsRequest) ([]Notification, int, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	// MarkAsRead fails with ErrNotificationNotFound when id does not belong to recipientID.
	MarkAsRead(ctx context.Context, id, recipientID string) error
	MarkAllAsRead(ctx context.Context, recipientID string) error
}
