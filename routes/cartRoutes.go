package routes

import (
	"github.com/Kariqs/pizzaking-api/controllers"
	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/gin-gonic/gin"
)

func CartRoutes(server *gin.Engine) {
	server.POST("/cart/quote", middlewares.RequireAuth(), controllers.QuoteCart)
}
