package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/CryOutNow/controllers"
	"github.com/CryOutNow/initializers"
	"github.com/CryOutNow/middlewares"
	"github.com/CryOutNow/services"
)

func init() {
	initializers.LoadEnv()
	initializers.ConnectDB()
	services.InitAuthClient()
	services.InitStorageClient()
	services.InitImageCache()
	services.InitProfileBootstrapper()
	services.InitInteractionService()
	services.InitRealtimeHub()
}

func main() {
	router := gin.Default()

	getKey := func(c *gin.Context) string {
		if gin.Mode() == gin.DebugMode {
			return c.FullPath()
		}
		return c.ClientIP()
	}

	// Change feed from the managed backend drives screen refreshes.
	listener := initializers.ConnectListener()
	go services.GetRealtimeHub().Run(listener)

	router.POST("/auth/login", middlewares.RateLimitMiddleware(2, 2, getKey), controllers.Login)
	router.POST("/auth/signup", middlewares.RateLimitMiddleware(2, 2, getKey), controllers.Signup)
	router.GET("/auth/oauth/:provider", middlewares.RateLimitMiddleware(5, 5, getKey), controllers.OAuthRedirect)
	router.GET("/ping", middlewares.RateLimitMiddleware(2, 2, getKey), controllers.Ping)

	auth := router.Group("/")
	auth.Use(middlewares.CheckAuth)
	auth.Use(middlewares.RateLimitMiddleware(10, 10, getKey))
	{
		auth.POST("/auth/logout", controllers.Logout)

		// feed and prayer request routes
		auth.GET("/feed", controllers.GetFeed)
		auth.POST("/requests", controllers.CreatePrayerRequest)
		auth.GET("/requests/:request_id", controllers.GetPrayerRequest)
		auth.DELETE("/requests/:request_id", controllers.DeletePrayerRequest)
		auth.POST("/requests/:request_id/pray", controllers.TogglePrayer)

		// comment routes
		auth.GET("/requests/:request_id/comments", controllers.GetComments)
		auth.POST("/requests/:request_id/comments", controllers.CreateComment)

		// profile routes
		auth.GET("/users/me", controllers.GetMyProfile)
		auth.PATCH("/users/me", controllers.UpdateMyProfile)
		auth.GET("/users/me/requests", controllers.GetMyPrayerRequests)
		auth.POST("/users/me/avatar", controllers.UploadAvatar)
		auth.POST("/users/me/cover", controllers.UploadCover)

		// notification routes
		auth.GET("/notifications", controllers.GetNotifications)
		auth.PATCH("/notifications/mark-all-read", controllers.MarkAllNotificationsRead)
		auth.PATCH("/notifications/:notification_id/read", controllers.MarkNotificationRead)

		// realtime refresh streams
		auth.GET("/ws/feed", controllers.FeedStream)
		auth.GET("/ws/notifications", controllers.NotificationsStream)
	}

	if err := router.Run(); err != nil {
		log.Fatal(err)
	}
}
