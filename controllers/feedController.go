package controllers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/CryOutNow/initializers"
	"github.com/CryOutNow/models"
	"github.com/CryOutNow/services"
	"github.com/doug-martin/goqu/v9"
)

// feedQuery builds the base select for prayer requests joined with authors
// and the counts derived from related tables.
func feedQuery() *goqu.SelectDataset {
	return initializers.DB.From("prayer_requests").
		Select(
			goqu.I("prayer_requests.id"),
			goqu.I("prayer_requests.user_id"),
			goqu.I("prayer_requests.content"),
			goqu.I("prayer_requests.image_url"),
			goqu.I("prayer_requests.is_public"),
			goqu.I("prayer_requests.created_at"),
			goqu.I("profiles.username"),
			goqu.I("profiles.avatar_url"),
			goqu.L("(SELECT COUNT(*) FROM prayer_interactions WHERE prayer_interactions.prayer_request_id = prayer_requests.id)").As("prayer_count"),
			goqu.L("(SELECT COUNT(*) FROM comments WHERE comments.prayer_request_id = prayer_requests.id)").As("comment_count"),
		).
		LeftJoin(goqu.T("profiles"), goqu.On(goqu.Ex{"prayer_requests.user_id": goqu.I("profiles.id")})).
		Order(goqu.I("prayer_requests.created_at").Desc())
}

func fetchPublicFeed(ctx context.Context) ([]models.FeedItem, error) {
	var items []models.FeedItem
	err := feedQuery().
		Where(goqu.Ex{"prayer_requests.is_public": true}).
		ScanStructsContext(ctx, &items)
	return items, err
}

func fetchUserRequests(ctx context.Context, userID string) ([]models.FeedItem, error) {
	var items []models.FeedItem
	err := feedQuery().
		Where(goqu.Ex{"prayer_requests.user_id": userID}).
		ScanStructsContext(ctx, &items)
	return items, err
}

func fetchPrayedIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := initializers.DB.From("prayer_interactions").
		Select("prayer_request_id").
		Where(goqu.C("user_id").Eq(userID)).
		ScanValsContext(ctx, &ids)
	return ids, err
}

// loadFeedIntoStore refetches the public feed plus the caller's prayed set
// and seeds the caller's interaction store, returning the rendered list.
func loadFeedIntoStore(ctx context.Context, profileID string) ([]models.FeedItem, error) {
	items, err := fetchPublicFeed(ctx)
	if err != nil {
		return nil, err
	}

	prayed, err := fetchPrayedIDs(ctx, profileID)
	if err != nil {
		return nil, err
	}

	store := services.GetInteractionService().StoreFor(profileID)
	store.Seed(items, prayed)
	return store.Items(), nil
}

// GetFeed returns the public feed with derived counts and the caller's
// praying state, seeding the interaction store later toggles reconcile
// against.
func GetFeed(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)

	items, err := loadFeedIntoStore(c, profile.ID)
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load prayer requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": items})
}

// GetMyPrayerRequests lists the caller's own requests regardless of
// visibility, for the profile screen.
func GetMyPrayerRequests(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)

	items, err := fetchUserRequests(c, profile.ID)
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load your prayer requests"})
		return
	}

	prayed, err := fetchPrayedIDs(c, profile.ID)
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load your prayer requests"})
		return
	}

	store := services.GetInteractionService().StoreFor(profile.ID)
	store.Seed(items, prayed)

	c.JSON(http.StatusOK, gin.H{"requests": store.Items()})
}

// CreatePrayerRequest validates and inserts a new request. Empty content is
// rejected before any backend call.
func CreatePrayerRequest(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)

	var body models.PrayerRequestCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	content := strings.TrimSpace(body.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prayer request content cannot be empty"})
		return
	}

	isPublic := true
	if body.Is_Public != nil {
		isPublic = *body.Is_Public
	}

	insert := initializers.DB.Insert("prayer_requests").
		Rows(goqu.Record{
			"user_id":   profile.ID,
			"content":   content,
			"image_url": body.Image_URL,
			"is_public": isPublic,
		}).
		Returning(goqu.C("id")).
		Executor()

	var id string
	if _, err := insert.ScanValContext(c, &id); err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create prayer request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Prayer request created successfully.",
		"id":      id,
	})
}

// GetPrayerRequest returns a single request for the detail screen. Private
// requests are visible to their owner only.
func GetPrayerRequest(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)
	requestID := c.Param("request_id")

	var item models.FeedItem
	found, err := feedQuery().
		Where(goqu.Ex{"prayer_requests.id": requestID}).
		ScanStructContext(c, &item)
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch prayer request"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Prayer request not found"})
		return
	}

	if !item.Is_Public && item.User_ID != profile.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to view this prayer request"})
		return
	}

	store := services.GetInteractionService().StoreFor(profile.ID)
	if _, ok := store.OwnerOf(requestID); !ok {
		hasPrayed, err := userHasPrayed(c, profile.ID, requestID)
		if err != nil {
			log.Println(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch prayer request"})
			return
		}
		store.EnsureItem(requestID, item.User_ID, item.Prayer_Count, hasPrayed)
	}

	item.Prayer_Count = store.PrayerCount(requestID)
	item.Has_Prayed = store.HasPrayed(requestID)

	c.JSON(http.StatusOK, item)
}

func userHasPrayed(ctx context.Context, userID, requestID string) (bool, error) {
	count, err := initializers.DB.From("prayer_interactions").
		Where(goqu.Ex{"user_id": userID, "prayer_request_id": requestID}).
		CountContext(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeletePrayerRequest deletes one of the caller's own requests. The local
// list drops the id immediately; the backend delete then runs its fallback
// chain, and the next refetch reconciles whatever it settled on.
func DeletePrayerRequest(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)
	requestID := c.Param("request_id")

	// The backend enforces ownership too; checking here keeps the error
	// message honest for the common case.
	var ownerID string
	found, err := initializers.DB.From("prayer_requests").
		Select("user_id").
		Where(goqu.C("id").Eq(requestID)).
		ScanValContext(c, &ownerID)
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete prayer request"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Prayer request not found"})
		return
	}
	if ownerID != profile.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own prayer requests"})
		return
	}

	store := services.GetInteractionService().StoreFor(profile.ID)
	store.RemoveItem(requestID)

	step, err := services.DeletePrayerRequest(c, profile.ID, requestID)
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete prayer request"})
		return
	}
	log.Printf("request %s deleted via %s step", requestID, step)

	c.JSON(http.StatusOK, gin.H{"message": "Prayer request deleted."})
}
