package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CryOutNow/initializers"
	"github.com/CryOutNow/models"
	"github.com/CryOutNow/services"
	"github.com/doug-martin/goqu/v9"
)

// TogglePrayer flips the caller's "praying" state for a request. The local
// flip and count change are applied before the backend write and rolled back
// if it fails; the response always reflects the reconciled state.
func TogglePrayer(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)
	requestID := c.Param("request_id")

	store := services.GetInteractionService().StoreFor(profile.ID)

	ownerID, ok := store.OwnerOf(requestID)
	if !ok {
		// Detail links can land here before any feed fetch; pull enough
		// state from the backend to reconcile against.
		found, err := initializers.DB.From("prayer_requests").
			Select("user_id").
			Where(goqu.C("id").Eq(requestID)).
			ScanValContext(c, &ownerID)
		if err != nil {
			log.Println(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update prayer status. Please try again."})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Prayer request not found"})
			return
		}

		count, err := initializers.DB.From("prayer_interactions").
			Where(goqu.C("prayer_request_id").Eq(requestID)).
			CountContext(c)
		if err != nil {
			log.Println(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update prayer status. Please try again."})
			return
		}

		hasPrayed, err := userHasPrayed(c, profile.ID, requestID)
		if err != nil {
			log.Println(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update prayer status. Please try again."})
			return
		}

		store.EnsureItem(requestID, ownerID, int(count), hasPrayed)
	}

	hasPrayed, count, err := store.Toggle(c, requestID, ownerID, profile.Username)
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":       "Failed to update prayer status. Please try again.",
			"hasPrayed":   hasPrayed,
			"prayerCount": count,
		})
		return
	}

	message := "Prayer removed."
	if hasPrayed {
		message = "Prayer recorded."
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     message,
		"hasPrayed":   hasPrayed,
		"prayerCount": count,
	})
}
