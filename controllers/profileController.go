package controllers

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/CryOutNow/initializers"
	"github.com/CryOutNow/models"
	"github.com/CryOutNow/services"
	"github.com/doug-martin/goqu/v9"
)

const (
	profileBucket = "profiles"
	maxImageBytes = 5 << 20
)

// GetMyProfile returns the caller's profile. The avatar URL prefers the
// image cache's last-known value so a fresh upload shows before storage
// propagation settles; a placeholder keyed by username covers missing
// avatars.
func GetMyProfile(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)

	avatarURL := ""
	if cached := services.GetImageCache().Get(profile.ID); cached != "" {
		avatarURL = cached
	} else if profile.Avatar_URL != nil {
		avatarURL = *profile.Avatar_URL
	}
	if avatarURL == "" {
		avatarURL = services.FallbackAvatarURL(profile.Username)
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":   profile,
		"avatarUrl": avatarURL,
	})
}

// UpdateMyProfile changes the caller's username and/or display name.
func UpdateMyProfile(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)

	var body models.ProfileUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	record := goqu.Record{}
	if body.Username != nil {
		username := strings.TrimSpace(*body.Username)
		if username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username cannot be empty"})
			return
		}
		record["username"] = username
	}
	if body.Full_Name != nil {
		record["full_name"] = strings.TrimSpace(*body.Full_Name)
	}
	if len(record) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	update := initializers.DB.Update("profiles").
		Set(record).
		Where(goqu.C("id").Eq(profile.ID))
	if _, err := update.Executor().ExecContext(c); err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully."})
}

// UploadAvatar stores a new profile picture and points the caller's profile
// at it. The response carries a cache-busted URL and a background preload
// warms it, so the new image renders without waiting for propagation.
func UploadAvatar(c *gin.Context) {
	uploadProfileImage(c, "avatar", "avatar_url", "Failed to upload profile picture")
}

// UploadCover stores a new cover image for the caller's profile.
func UploadCover(c *gin.Context) {
	uploadProfileImage(c, "cover", "cover_url", "Failed to upload cover image")
}

func uploadProfileImage(c *gin.Context, prefix, column, failureMessage string) {
	profile := c.MustGet("currentUser").(models.Profile)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	if fileHeader.Size > maxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image must be smaller than 5MB"})
		return
	}

	data, contentType, err := readUpload(fileHeader)
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}

	ext := strings.ToLower(path.Ext(fileHeader.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	objectPath := fmt.Sprintf("%s/%s-%s%s", profile.ID, prefix, uuid.NewString(), ext)

	publicURL, err := services.GetStorageClient().Upload(c, profileBucket, objectPath, data, contentType, true)
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage})
		return
	}

	update := initializers.DB.Update("profiles").
		Set(goqu.Record{column: publicURL}).
		Where(goqu.C("id").Eq(profile.ID))
	if _, err := update.Executor().ExecContext(c); err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage})
		return
	}

	cache := services.GetImageCache()
	busted := cache.NoCacheURL(publicURL)
	if prefix == "avatar" {
		cache.Set(profile.ID, busted)
	}
	go cache.Preload(context.Background(), busted)

	c.JSON(http.StatusOK, gin.H{
		"message": "Image uploaded successfully.",
		"url":     busted,
	})
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nil, "", err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
