package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/CryOutNow/models"
	"github.com/CryOutNow/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const streamWriteWait = 10 * time.Second

// FeedStream pushes a freshly fetched feed whenever any prayer request row
// changes. No incremental patching: one change event means one full refetch.
// The subscription lives exactly as long as the socket.
func FeedStream(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)

	streamChanges(c, "prayer_requests", "", func(ctx context.Context) (interface{}, error) {
		items, err := loadFeedIntoStore(ctx, profile.ID)
		if err != nil {
			return nil, err
		}
		return gin.H{"requests": items}, nil
	})
}

// NotificationsStream pushes the caller's refetched notification list when a
// notification addressed to them changes.
func NotificationsStream(c *gin.Context) {
	profile := c.MustGet("currentUser").(models.Profile)

	streamChanges(c, "notifications", profile.ID, func(ctx context.Context) (interface{}, error) {
		var notifications []models.Notification
		err := fetchNotifications(ctx, profile.ID, &notifications)
		if err != nil {
			return nil, err
		}
		return gin.H{"notifications": notifications}, nil
	})
}

// streamChanges owns one websocket: it subscribes to the change feed for a
// table, refetches through the supplied function per event, and writes the
// result to the client. Refetches are rate limited so event bursts collapse
// into one.
func streamChanges(c *gin.Context, table, userFilter string, refetch func(context.Context) (interface{}, error)) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println(err)
		return
	}
	defer conn.Close()

	hub := services.GetRealtimeHub()
	sub := hub.Subscribe(table, userFilter)
	defer hub.Unsubscribe(sub)

	// Detect client disconnect; the subscription is torn down with the
	// socket.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	limiter := rate.NewLimiter(rate.Every(500*time.Millisecond), 1)

	for {
		select {
		case <-done:
			return
		case _, ok := <-sub.Events:
			if !ok {
				return
			}
			if err := limiter.Wait(c.Request.Context()); err != nil {
				return
			}

			payload, err := refetch(c.Request.Context())
			if err != nil {
				log.Printf("refetch for %s stream: %v", table, err)
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(payload); err != nil {
				return
			}
		}
	}
}
