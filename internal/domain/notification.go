package domain

import "context"

// NotificationService defines the interface for notification services
type NotificationService interface {
	// SendSuccess sends a notification with title index statistics
	SendSuccess(ctx context.Context, stats TitleIndexStats) error

	// SendError sends an error notification with error details
	SendError(ctx context.Context, err error) error
}
