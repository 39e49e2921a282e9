package routes

import (
	"github.com/Kariqs/pizzaking-api/controllers"
	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/gin-gonic/gin"
)

func AuthRoutes(server *gin.Engine) {
	auth := server.Group("/auth")
	{
		auth.POST("/signup", controllers.Signup)
		auth.POST("/login", controllers.Login)
		auth.POST("/forgot-password", controllers.ForgotPassword)
		auth.POST("/reset-password/:resetToken", controllers.ResetPassword)
	}

	me := server.Group("/users/me", middlewares.RequireAuth())
	{
		me.GET("", controllers.GetMe)
		me.PUT("", controllers.UpdateMe)
	}
}
