package routes

import (
	"driveuploader/controllers"
	"driveuploader/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterAuthRoutes(router *gin.Engine, authController *controllers.AuthController, sessions *middleware.SessionManager) {
	router.GET("/google_login", authController.GoogleLogin)
	router.GET("/google_login/callback", authController.GoogleCallback)

	protected := router.Group("")
	protected.Use(middleware.RequireLogin(sessions))
	{
		protected.GET("/logout", authController.Logout)
	}
}
