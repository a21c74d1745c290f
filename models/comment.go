package models

import "time"

type Comment struct {
	ID                string    `json:"id" db:"id" goqu:"skipinsert"`
	Prayer_Request_ID string    `json:"prayerRequestId" db:"prayer_request_id"`
	Profile_ID        string    `json:"profileId" db:"profile_id"`
	Content           string    `json:"content" db:"content"`
	Created_At        time.Time `json:"createdAt" db:"created_at" goqu:"skipinsert"`
}

// CommentCreate is the request body for posting a comment.
type CommentCreate struct {
	Content string `json:"content"`
}

// CommentWithProfile includes commenter information for display.
type CommentWithProfile struct {
	Comment
	Username   *string `json:"username" db:"username"`
	Avatar_URL *string `json:"avatarUrl" db:"avatar_url"`
}
