package controllers

import (
	"database/sql"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/CryOutNow/initializers"
	"github.com/CryOutNow/models"
	"github.com/CryOutNow/services"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

// SetupTestDB creates a mock database and sets it as the global DB for
// testing. Per-user interaction stores and caches are reset alongside it so
// state never leaks between tests.
func SetupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}

	goquDB := goqu.New("postgres", db)

	originalDB := initializers.DB
	initializers.DB = goquDB

	services.InitInteractionService()
	services.InitImageCache()
	services.InitProfileBootstrapper()
	services.InitRealtimeHub()

	cleanup := func() {
		// Small delay to allow background work (notification writes,
		// preloads) to complete
		time.Sleep(10 * time.Millisecond)
		db.Close()
		initializers.DB = originalDB
	}

	return db, mock, cleanup
}

// SetupTestContext creates a test Gin context with a response recorder
func SetupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

// SetAuthenticatedUser sets the currentUser and session values in the Gin
// context. This simulates what the CheckAuth middleware does.
func SetAuthenticatedUser(c *gin.Context, profile models.Profile) {
	c.Set("currentUser", profile)
	c.Set("session", models.Session{
		User_ID: profile.ID,
		Email:   profile.Username + "@example.com",
	})
}
