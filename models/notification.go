package models

import "time"

// Notification type constants
const (
	NotificationTypePrayer  = "prayer"
	NotificationTypeComment = "comment"
)

type Notification struct {
	ID         string    `json:"id" goqu:"skipinsert"`
	User_ID    string    `json:"userId"`
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	Related_ID *string   `json:"relatedId"`
	Is_Read    bool      `json:"isRead"`
	Created_At time.Time `json:"createdAt" goqu:"skipinsert"`
}
