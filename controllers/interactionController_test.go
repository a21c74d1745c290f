package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/CryOutNow/models"
	"github.com/CryOutNow/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func togglePrayerContext(requestID string) (*gin.Context, *httptest.ResponseRecorder) {
	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockProfile())
	c.Request = httptest.NewRequest(http.MethodPost, "/requests/"+requestID+"/pray", nil)
	c.Params = []gin.Param{{Key: "request_id", Value: requestID}}
	return c, w
}

type toggleResponse struct {
	Message     string `json:"message"`
	HasPrayed   bool   `json:"hasPrayed"`
	PrayerCount int    `json:"prayerCount"`
}

func TestTogglePrayerOnSeededItem(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	requestID := "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	profile := MockProfile()
	store := services.GetInteractionService().StoreFor(profile.ID)
	store.Seed([]models.FeedItem{MockFeedItem(requestID, 2, 0)}, nil)

	mock.ExpectExec(`INSERT INTO "prayer_interactions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "notifications"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, w := togglePrayerContext(requestID)
	TogglePrayer(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp toggleResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Prayer recorded.", resp.Message)
	assert.True(t, resp.HasPrayed)
	assert.Equal(t, 3, resp.PrayerCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTogglePrayerRollsBackOnWriteFailure(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	requestID := "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	profile := MockProfile()
	store := services.GetInteractionService().StoreFor(profile.ID)
	store.Seed([]models.FeedItem{MockFeedItem(requestID, 2, 0)}, nil)

	mock.ExpectExec(`INSERT INTO "prayer_interactions"`).
		WillReturnError(errors.New("permission denied"))

	c, w := togglePrayerContext(requestID)
	TogglePrayer(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp toggleResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.HasPrayed)
	assert.Equal(t, 2, resp.PrayerCount)
	assert.False(t, store.HasPrayed(requestID))
	assert.Equal(t, 2, store.PrayerCount(requestID))
}

func TestTogglePrayerRemovesExistingInteraction(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	requestID := "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	profile := MockProfile()
	store := services.GetInteractionService().StoreFor(profile.ID)
	store.Seed([]models.FeedItem{MockFeedItem(requestID, 3, 0)}, []string{requestID})

	mock.ExpectExec(`DELETE FROM "prayer_interactions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, w := togglePrayerContext(requestID)
	TogglePrayer(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp toggleResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Prayer removed.", resp.Message)
	assert.False(t, resp.HasPrayed)
	assert.Equal(t, 2, resp.PrayerCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTogglePrayerOnUnseededItem(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	requestID := "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	owner := MockOtherProfile()

	mock.ExpectQuery(`SELECT "user_id" FROM "prayer_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(owner.ID))
	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO "prayer_interactions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "notifications"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, w := togglePrayerContext(requestID)
	TogglePrayer(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp toggleResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.HasPrayed)
	assert.Equal(t, 6, resp.PrayerCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTogglePrayerUnknownRequest(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT "user_id" FROM "prayer_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	c, w := togglePrayerContext("missing-id")
	TogglePrayer(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
