package routes

import (
	"github.com/Kariqs/pizzaking-api/controllers"
	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/gin-gonic/gin"
)

func PaymentRoutes(server *gin.Engine) {
	payments := server.Group("/payments", middlewares.RequireAuth())
	{
		payments.POST("/stripe/intent", controllers.CreateStripeIntent)
		payments.POST("/paypal/create", controllers.CreatePayPalOrder)
		payments.POST("/paypal/capture", controllers.CapturePayPalOrder)
		payments.POST("/mobile-money/initiate", controllers.InitiateMobileMoney)
	}

	// Provider callbacks authenticate by signature or by re-querying the provider.
	webhooks := server.Group("/webhooks")
	{
		webhooks.POST("/stripe", controllers.HandleStripeWebhook)
		webhooks.POST("/mobile-money", controllers.HandleMobileMoneyCallback)
	}
}
