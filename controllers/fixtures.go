package controllers

import (
	"time"

	"github.com/CryOutNow/models"
)

// Test fixture data for use in tests

// MockProfile creates a sample profile for testing
func MockProfile() models.Profile {
	avatar := "https://cdn.example.com/avatars/tester.png"
	return models.Profile{
		ID:         "11111111-1111-1111-1111-111111111111",
		Username:   "tester",
		Full_Name:  "Test User",
		Avatar_URL: &avatar,
		Created_At: time.Now(),
		Updated_At: time.Now(),
	}
}

// MockOtherProfile creates a second profile, used as the request owner in
// interaction tests
func MockOtherProfile() models.Profile {
	return models.Profile{
		ID:         "22222222-2222-2222-2222-222222222222",
		Username:   "owner",
		Full_Name:  "Request Owner",
		Created_At: time.Now(),
		Updated_At: time.Now(),
	}
}

// MockFeedItem creates a sample feed row authored by MockOtherProfile
func MockFeedItem(id string, prayerCount, commentCount int) models.FeedItem {
	owner := MockOtherProfile()
	username := owner.Username
	return models.FeedItem{
		ID:            id,
		User_ID:       owner.ID,
		Content:       "Please pray for my family",
		Is_Public:     true,
		Created_At:    time.Now(),
		Username:      &username,
		Prayer_Count:  prayerCount,
		Comment_Count: commentCount,
	}
}
