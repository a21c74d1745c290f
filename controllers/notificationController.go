package controllers

import (
	"context"
	"net/http"

	"github.com/CryOutNow/initializers"
	"github.com/CryOutNow/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

func fetchNotifications(ctx context.Context, userID string, out *[]models.Notification) error {
	return initializers.DB.From("notifications").
		Select("id",
			"user_id",
			"type",
			"content",
			"related_id",
			"is_read",
			"created_at").
		Where(goqu.C("user_id").Eq(userID)).
		Order(goqu.C("created_at").Desc()).
		ScanStructsContext(ctx, out)
}

// GetNotifications lists the caller's notifications, newest first.
func GetNotifications(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)

	var notifications []models.Notification
	if err := fetchNotifications(c, profile.ID, &notifications); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)
	notificationID := c.Param("notification_id")

	update := initializers.DB.Update("notifications").
		Set(goqu.Record{"is_read": true}).
		Where(goqu.Ex{"id": notificationID, "user_id": profile.ID})

	result, err := update.Executor().ExecContext(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification", "details": err.Error()})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead marks every unread notification of the caller as
// read.
func MarkAllNotificationsRead(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)

	update := initializers.DB.Update("notifications").
		Set(goqu.Record{"is_read": true}).
		Where(goqu.Ex{"user_id": profile.ID, "is_read": false})

	result, err := update.Executor().ExecContext(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications", "details": err.Error()})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	c.JSON(http.StatusOK, gin.H{
		"message": "All notifications marked as read",
		"updated": rowsAffected,
	})
}
