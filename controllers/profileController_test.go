package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/CryOutNow/services"
	"github.com/stretchr/testify/assert"
)

func TestGetMyProfile(t *testing.T) {
	t.Run("prefers cached avatar", func(t *testing.T) {
		_, _, cleanup := SetupTestDB(t)
		defer cleanup()

		profile := MockProfile()
		services.GetImageCache().Set(profile.ID, "https://cdn.example.com/avatars/fresh.png?t=1")

		c, w := SetupTestContext()
		SetAuthenticatedUser(c, profile)
		c.Request = httptest.NewRequest(http.MethodGet, "/users/me", nil)

		GetMyProfile(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			AvatarURL string `json:"avatarUrl"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "https://cdn.example.com/avatars/fresh.png?t=1", response.AvatarURL)
	})

	t.Run("falls back to placeholder when no avatar exists", func(t *testing.T) {
		_, _, cleanup := SetupTestDB(t)
		defer cleanup()

		profile := MockProfile()
		profile.Avatar_URL = nil

		c, w := SetupTestContext()
		SetAuthenticatedUser(c, profile)
		c.Request = httptest.NewRequest(http.MethodGet, "/users/me", nil)

		GetMyProfile(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			AvatarURL string `json:"avatarUrl"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, services.FallbackAvatarURL(profile.Username), response.AvatarURL)
	})
}

func TestUpdateMyProfile(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]interface{}
		setupMock      func(sqlmock.Sqlmock)
		expectedStatus int
	}{
		{
			name: "updates username and name",
			body: map[string]interface{}{"username": "newname", "fullName": "New Name"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE "profiles"`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty username rejected",
			body:           map[string]interface{}{"username": "   "},
			setupMock:      func(sqlmock.Sqlmock) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty body rejected",
			body:           map[string]interface{}{},
			setupMock:      func(sqlmock.Sqlmock) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, cleanup := SetupTestDB(t)
			defer cleanup()
			tt.setupMock(mock)

			payload, _ := json.Marshal(tt.body)
			c, w := SetupTestContext()
			SetAuthenticatedUser(c, MockProfile())
			c.Request = httptest.NewRequest(http.MethodPut, "/users/me", bytes.NewBuffer(payload))
			c.Request.Header.Set("Content-Type", "application/json")

			UpdateMyProfile(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	assert.NoError(t, err)
	_, err = part.Write(content)
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadAvatar(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer storage.Close()
	t.Setenv("STORAGE_URL", storage.URL)
	t.Setenv("SERVICE_KEY", "service-key")
	services.InitStorageClient()

	mock.ExpectExec(`UPDATE "profiles"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	profile := MockProfile()
	body, contentType := multipartUpload(t, "me.png", []byte("fake-image-bytes"))

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, profile)
	c.Request = httptest.NewRequest(http.MethodPost, "/users/me/avatar", body)
	c.Request.Header.Set("Content-Type", contentType)

	UploadAvatar(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		URL string `json:"url"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.URL, "t=")
	assert.Equal(t, response.URL, services.GetImageCache().Get(profile.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadAvatarRequiresFile(t *testing.T) {
	_, _, cleanup := SetupTestDB(t)
	defer cleanup()

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockProfile())
	c.Request = httptest.NewRequest(http.MethodPost, "/users/me/avatar", nil)

	UploadAvatar(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadAvatarRejectsOversizedFile(t *testing.T) {
	_, _, cleanup := SetupTestDB(t)
	defer cleanup()

	body, contentType := multipartUpload(t, "big.png", make([]byte, maxImageBytes+1))

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockProfile())
	c.Request = httptest.NewRequest(http.MethodPost, "/users/me/avatar", body)
	c.Request.Header.Set("Content-Type", contentType)

	UploadAvatar(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
