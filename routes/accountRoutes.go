package routes

import (
	"github.com/Kariqs/pizzaking-api/controllers"
	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/gin-gonic/gin"
)

func AccountRoutes(server *gin.Engine) {
	account := server.Group("", middlewares.RequireAuth())
	{
		account.GET("/addresses", controllers.GetAddresses)
		account.POST("/addresses", controllers.CreateAddress)
		account.PUT("/addresses/:id", controllers.UpdateAddress)
		account.DELETE("/addresses/:id", controllers.DeleteAddress)
		account.POST("/addresses/:id/default", controllers.SetDefaultAddress)

		account.POST("/promotions/validate", controllers.ValidatePromotion)

		account.GET("/notifications", controllers.GetNotifications)
		account.POST("/notifications/read-all", controllers.MarkAllNotificationsRead)
		account.POST("/notifications/:id/read", controllers.MarkNotificationRead)

		account.GET("/loyalty", controllers.GetLoyalty)
	}

	server.PATCH("/deliverer/availability",
		middlewares.RequireAuth(), middlewares.RequireRole(models.RoleDeliverer), controllers.SetAvailability)
}
