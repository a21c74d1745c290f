package services

import (
	"context"
	"fmt"

	"github.com/CryOutNow/initializers"
	"github.com/CryOutNow/models"
	"github.com/doug-martin/goqu/v9"
)

// Notification writes are best effort. Callers log failures and never unwind
// the action that triggered them.

// NotifyPrayerSupport tells a request owner that someone is praying for
// their request. Self-notifications are skipped.
func NotifyPrayerSupport(ctx context.Context, ownerID, actorID, actorUsername, requestID string) error {
	return insertNotification(ctx, ownerID, actorID, models.NotificationTypePrayer,
		fmt.Sprintf("%s is praying for your request", displayName(actorUsername)), requestID)
}

// NotifyNewComment tells a request owner that someone commented on their
// request. Self-notifications are skipped.
func NotifyNewComment(ctx context.Context, ownerID, actorID, actorUsername, requestID string) error {
	return insertNotification(ctx, ownerID, actorID, models.NotificationTypeComment,
		fmt.Sprintf("%s commented on your prayer request", displayName(actorUsername)), requestID)
}

func insertNotification(ctx context.Context, ownerID, actorID, notifType, content, relatedID string) error {
	if ownerID == "" || ownerID == actorID {
		return nil
	}

	insert := initializers.DB.Insert("notifications").
		Rows(goqu.Record{
			"user_id":    ownerID,
			"type":       notifType,
			"content":    content,
			"related_id": relatedID,
			"is_read":    false,
		}).
		Executor()
	_, err := insert.ExecContext(ctx)
	return err
}

func displayName(username string) string {
	if username == "" {
		return "Someone"
	}
	return username
}
