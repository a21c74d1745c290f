package models

import "time"

// DeletedContent is the sentinel written over a request's content when hard
// deletion is refused by the backend.
const DeletedContent = "This prayer request has been deleted"

type PrayerRequest struct {
	ID         string    `json:"id" goqu:"skipinsert"`
	User_ID    string    `json:"userId"`
	Content    string    `json:"content"`
	Image_URL  *string   `json:"imageUrl"`
	Is_Public  bool      `json:"isPublic"`
	Created_At time.Time `json:"createdAt" goqu:"skipinsert"`
}

type PrayerRequestCreate struct {
	Content   string  `json:"content"`
	Image_URL *string `json:"imageUrl"`
	Is_Public *bool   `json:"isPublic"`
}

// FeedItem is a prayer request as rendered on a screen: the row joined with
// its author's profile and the counts derived from related tables.
type FeedItem struct {
	ID            string    `json:"id" db:"id"`
	User_ID       string    `json:"userId" db:"user_id"`
	Content       string    `json:"content" db:"content"`
	Image_URL     *string   `json:"imageUrl" db:"image_url"`
	Is_Public     bool      `json:"isPublic" db:"is_public"`
	Created_At    time.Time `json:"createdAt" db:"created_at"`
	Username      *string   `json:"username" db:"username"`
	Avatar_URL    *string   `json:"avatarUrl" db:"avatar_url"`
	Prayer_Count  int       `json:"prayerCount" db:"prayer_count"`
	Comment_Count int       `json:"commentCount" db:"comment_count"`
	Has_Prayed    bool      `json:"hasPrayed" db:"-"`
}
