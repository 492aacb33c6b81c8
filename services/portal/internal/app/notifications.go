package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"campusportal/internal/util"
	"campusportal/pkg/domain"
	"campusportal/pkg/store"
)

// outbox collects notifications written inside one Update so they can be
// published once the change is committed.
type outbox struct {
	items []domain.Notification
}

func (a *App) push(tx *store.Tx, out *outbox, userID, message string, typ domain.NotificationType, meta *domain.NotificationMetadata) error {
	n := domain.Notification{
		ID:        util.NewID(),
		UserID:    userID,
		Message:   message,
		Type:      typ,
		CreatedAt: a.now(),
		Metadata:  meta,
	}
	if err := tx.InsertNotification(n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	out.items = append(out.items, n)
	return nil
}

// flush publishes committed notifications. Failures are logged only; the
// inbox entry is already durable.
func (a *App) flush(ctx context.Context, out *outbox) {
	for _, n := range out.items {
		if err := a.publisher.PublishNotification(ctx, n); err != nil {
			util.LoggerFromContext(ctx).Warn("publish notification failed",
				"notification_id", n.ID, "user_id", n.UserID, "err", err)
		}
	}
	out.items = nil
}

// Notify appends one entry to a user's inbox.
func (a *App) Notify(ctx context.Context, userID, message string, typ domain.NotificationType) (domain.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Notification{}, invalidf("userId required")
	}
	if strings.TrimSpace(message) == "" {
		return domain.Notification{}, invalidf("message required")
	}
	switch typ {
	case domain.NotificationSuccess, domain.NotificationError, domain.NotificationInfo:
	case "":
		typ = domain.NotificationInfo
	default:
		return domain.Notification{}, invalidf("unknown notification type %q", typ)
	}
	var out outbox
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		return a.push(tx, &out, userID, message, typ, nil)
	})
	if err != nil {
		return domain.Notification{}, err
	}
	n := out.items[0]
	a.flush(ctx, &out)
	return n, nil
}

// ListNotifications returns a user's inbox newest first. Entries created in
// the same instant keep reverse insertion order.
func (a *App) ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	var res []domain.Notification
	err := a.store.View(ctx, func(tx *store.Tx) error {
		res = tx.NotificationsForUser(userID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

// MarkNotificationRead flags one of the user's notifications as read.
func (a *App) MarkNotificationRead(ctx context.Context, userID, notificationID string) (domain.Notification, error) {
	var res domain.Notification
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		n, ok := tx.Notification(notificationID)
		if !ok || n.UserID != userID {
			return ErrNotificationNotFound
		}
		if n.Read {
			res = n
			return nil
		}
		n.Read = true
		res = n
		return tx.PutNotification(n)
	})
	return res, err
}

// MarkAllNotificationsRead flags every unread notification of the user and
// returns how many changed.
func (a *App) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	count := 0
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		for _, n := range tx.NotificationsForUser(userID) {
			if n.Read {
				continue
			}
			n.Read = true
			if err := tx.PutNotification(n); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
