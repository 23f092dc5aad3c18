package engine

import (
	"context"
	"time"

	"northstar/internal/domain"
	"northstar/internal/events"
)

// NotificationPageSize caps the in-app notification feed.
const NotificationPageSize = 50

// ListNotifications returns the actor's newest non-deleted notifications.
func (e Engine) ListNotifications(ctx context.Context, actorID string) ([]domain.Notification, error) {
	return e.Repo.ListNotifications(ctx, actorID, NotificationPageSize)
}

// UnreadCount returns how many of the actor's notifications are unread.
func (e Engine) UnreadCount(ctx context.Context, actorID string) (int, error) {
	return e.Repo.CountUnreadNotifications(ctx, actorID)
}

// MarkNotificationsRead marks the given notifications read for the actor; an
// empty id list marks all unread ones. Ids belonging to other recipients are
// silently skipped.
func (e Engine) MarkNotificationsRead(ctx context.Context, actorID string, ids []string) (int64, error) {
	readAt := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	n, err := e.Repo.MarkNotificationsRead(ctx, tx, actorID, ids, readAt)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := e.Events.Append(ctx, tx, "notification.read", "notification", actorID, actorID, events.EventPayload{
			"count": n,
		}); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}
