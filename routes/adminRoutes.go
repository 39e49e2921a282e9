package routes

import (
	"github.com/Kariqs/pizzaking-api/controllers"
	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/gin-gonic/gin"
)

func AdminRoutes(server *gin.Engine) {
	admin := server.Group("/admin", middlewares.RequireAuth(), middlewares.RequireRole(models.RoleAdmin))
	{
		admin.GET("/dashboard", controllers.GetDashboard)

		admin.GET("/orders", controllers.GetOrders)
		admin.POST("/orders/:id/assign", controllers.AssignDeliverer)

		admin.GET("/promotions", controllers.GetPromotions)
		admin.POST("/promotions", controllers.CreatePromotion)
		admin.PUT("/promotions/:id", controllers.UpdatePromotion)
		admin.DELETE("/promotions/:id", controllers.DeletePromotion)

		admin.GET("/users", controllers.GetUsers)
		admin.PATCH("/users/:id/role", controllers.UpdateUserRole)
		admin.GET("/deliverers", controllers.GetDeliverers)

		admin.GET("/analytics", controllers.GetAnalytics)
		admin.POST("/jobs/:name/run", controllers.RunJob)
	}
}
