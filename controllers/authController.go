package controllers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/CryOutNow/models"
	"github.com/CryOutNow/services"
)

// Login forwards password credentials to the managed auth service and hands
// back the session it issues.
func Login(c *gin.Context) {
	var creds models.Login

	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := services.GetAuthClient().SignIn(c, creds.Email, creds.Password)
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Signed in successfully.",
		"token":   session.Access_Token,
		"user": gin.H{
			"id":    session.User_ID,
			"email": session.Email,
		},
	})
}

// Signup registers a new account with the managed auth service.
func Signup(c *gin.Context) {
	var signup models.Signup

	if err := c.ShouldBindJSON(&signup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := services.GetAuthClient().SignUp(c, signup.Email, signup.Password, signup.Name)
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account created successfully.",
		"token":   session.Access_Token,
		"user": gin.H{
			"id":    session.User_ID,
			"email": session.Email,
		},
	})
}

// Logout revokes the caller's session token.
func Logout(c *gin.Context) {
	session := c.MustGet("session").(models.Session)

	if err := services.GetAuthClient().SignOut(c, session.Access_Token); err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully."})
}

// OAuthRedirect returns the URL that starts a delegated sign-in with the
// named provider. The browser follows it; the backend handles the rest.
func OAuthRedirect(c *gin.Context) {
	provider := strings.ToLower(c.Param("provider"))
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provider is required"})
		return
	}

	redirectTo := c.Query("redirect_to")
	c.JSON(http.StatusOK, gin.H{"url": services.GetAuthClient().OAuthURL(provider, redirectTo)})
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
