package routes

import (
	"time"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/metrics"
	"github.com/Kariqs/pizzaking-api/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers middleware and every route group on server.
func SetupRoutes(server *gin.Engine, cfg *initializers.AppConfig) {
	utils.RegisterValidators()

	server.Use(metrics.Middleware())
	server.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	DefaultRoutes(server)
	AuthRoutes(server)
	PizzaRoutes(server)
	CartRoutes(server)
	OrderRoutes(server)
	PaymentRoutes(server)
	AccountRoutes(server)
	AdminRoutes(server)
}
