package routes

import (
	"github.com/Kariqs/pizzaking-api/controllers"
	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/gin-gonic/gin"
)

func OrderRoutes(server *gin.Engine) {
	orders := server.Group("/orders", middlewares.RequireAuth())
	{
		orders.POST("", controllers.CreateOrder)
		orders.GET("", controllers.GetMyOrders)
		orders.GET("/:id", controllers.GetOrderById)
		orders.GET("/:id/history", controllers.GetOrderHistory)
		orders.PATCH("/:id/status", controllers.UpdateOrderStatus)
		orders.POST("/:id/cancel", controllers.CancelOrder)
		orders.POST("/:id/rate", controllers.RateOrder)
		orders.PATCH("/:id/notes", controllers.UpdateOrderNotes)
	}
}
