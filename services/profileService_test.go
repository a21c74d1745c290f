package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/CryOutNow/models"
	"github.com/stretchr/testify/assert"
)

func bootstrapSession() models.Session {
	return models.Session{
		User_ID: testUserID,
		Email:   "grace.lee@example.com",
		Metadata: map[string]interface{}{
			"full_name":  "Grace Lee",
			"avatar_url": "https://lh3.example.com/grace.png",
		},
	}
}

// A second bootstrap for the same user id within one session performs no
// second write.
func TestEnsureProfileWritesOnce(t *testing.T) {
	_, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO "profiles"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	b := NewProfileBootstrapper()
	session := bootstrapSession()

	assert.NoError(t, b.EnsureProfile(context.Background(), session))
	assert.NoError(t, b.EnsureProfile(context.Background(), session))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureProfileRetriesAfterFailure(t *testing.T) {
	_, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO "profiles"`).
		WillReturnError(assert.AnError)
	mock.ExpectExec(`INSERT INTO "profiles"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	b := NewProfileBootstrapper()
	session := bootstrapSession()

	assert.Error(t, b.EnsureProfile(context.Background(), session))
	assert.NoError(t, b.EnsureProfile(context.Background(), session))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureProfileResetForgetsIDs(t *testing.T) {
	_, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO "profiles"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "profiles"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	b := NewProfileBootstrapper()
	session := bootstrapSession()

	assert.NoError(t, b.EnsureProfile(context.Background(), session))
	b.Reset()
	assert.NoError(t, b.EnsureProfile(context.Background(), session))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureProfileSkipsEmptyUserID(t *testing.T) {
	_, mock, cleanup := setupTestDB(t)
	defer cleanup()

	b := NewProfileBootstrapper()

	assert.NoError(t, b.EnsureProfile(context.Background(), models.Session{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeriveUsername(t *testing.T) {
	tests := []struct {
		name     string
		session  models.Session
		expected string
	}{
		{
			name:     "email local part wins",
			session:  models.Session{Email: "grace.lee@example.com", Metadata: map[string]interface{}{"preferred_username": "glee"}},
			expected: "grace.lee",
		},
		{
			name:     "preferred username without email",
			session:  models.Session{Metadata: map[string]interface{}{"preferred_username": "glee"}},
			expected: "glee",
		},
		{
			name:     "name with spaces stripped",
			session:  models.Session{Metadata: map[string]interface{}{"name": "Grace Lee"}},
			expected: "GraceLee",
		},
		{
			name:     "nothing available",
			session:  models.Session{},
			expected: "user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveUsername(tt.session))
		})
	}
}

func TestDeriveFullName(t *testing.T) {
	tests := []struct {
		name     string
		session  models.Session
		expected string
	}{
		{
			name:     "full_name preferred",
			session:  models.Session{Metadata: map[string]interface{}{"full_name": "Grace Lee", "name": "G"}},
			expected: "Grace Lee",
		},
		{
			name:     "name as fallback",
			session:  models.Session{Metadata: map[string]interface{}{"name": "Grace"}},
			expected: "Grace",
		},
		{
			name:     "anonymous default",
			session:  models.Session{},
			expected: "Anonymous",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveFullName(tt.session))
		})
	}
}
