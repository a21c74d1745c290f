package controllers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/CryOutNow/initializers"
	"github.com/CryOutNow/models"
	"github.com/CryOutNow/services"
	"github.com/doug-martin/goqu/v9"
)

// GetComments lists a request's comments, oldest first, with commenter info.
func GetComments(c *gin.Context) {
	requestID := c.Param("request_id")

	var comments []models.CommentWithProfile
	err := initializers.DB.From("comments").
		Select(
			goqu.I("comments.id"),
			goqu.I("comments.prayer_request_id"),
			goqu.I("comments.profile_id"),
			goqu.I("comments.content"),
			goqu.I("comments.created_at"),
			goqu.I("profiles.username"),
			goqu.I("profiles.avatar_url"),
		).
		LeftJoin(goqu.T("profiles"), goqu.On(goqu.Ex{"comments.profile_id": goqu.I("profiles.id")})).
		Where(goqu.Ex{"comments.prayer_request_id": requestID}).
		Order(goqu.I("comments.created_at").Asc()).
		ScanStructsContext(c, &comments)
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// CreateComment adds a comment to a request. Whitespace-only content is
// rejected before any backend call. A successful write bumps the caller's
// rendered comment count and sends a best-effort notification to the request
// owner.
func CreateComment(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)
	requestID := c.Param("request_id")

	var body models.CommentCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	content := strings.TrimSpace(body.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment cannot be empty"})
		return
	}

	insert := initializers.DB.Insert("comments").
		Rows(goqu.Record{
			"prayer_request_id": requestID,
			"profile_id":        profile.ID,
			"content":           content,
		}).
		Returning(goqu.C("id")).
		Executor()

	var commentID string
	if _, err := insert.ScanValContext(c, &commentID); err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post comment"})
		return
	}

	store := services.GetInteractionService().StoreFor(profile.ID)
	store.BumpCommentCount(requestID)

	var ownerID string
	if found, err := initializers.DB.From("prayer_requests").
		Select("user_id").
		Where(goqu.C("id").Eq(requestID)).
		ScanValContext(c, &ownerID); err != nil || !found {
		if err != nil {
			log.Println(err)
		}
	} else if nErr := services.NotifyNewComment(c, ownerID, profile.ID, profile.Username, requestID); nErr != nil {
		log.Printf("comment notification for request %s: %v", requestID, nErr)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment posted successfully.",
		"id":      commentID,
	})
}
