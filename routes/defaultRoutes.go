package routes

import (
	"github.com/Kariqs/pizzaking-api/controllers"
	"github.com/Kariqs/pizzaking-api/metrics"
	"github.com/gin-gonic/gin"
)

func DefaultRoutes(server *gin.Engine) {
	server.GET("/", controllers.GetHome)
	server.GET("/metrics", metrics.Handler())
	server.GET("/ws/orders", controllers.OrderUpdatesSocket)
}
