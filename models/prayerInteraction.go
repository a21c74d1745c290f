package models

// PrayerInteraction records that a user is praying for a request. Presence or
// absence of the row is the whole state; counts are derived at query time.
// The backend enforces at most one row per (user, request) pair.
type PrayerInteraction struct {
	User_ID           string `json:"userId"`
	Prayer_Request_ID string `json:"prayerRequestId"`
}
