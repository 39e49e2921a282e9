package controllers

import (
	"log"
	"net/http"

	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/Kariqs/pizzaking-api/realtime"
	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to Pizza King API 🍕.

The following are the main endpoints for this API:

AUTH
- POST "/auth/signup" - Create user account
- POST "/auth/login" - Access user account
- POST "/auth/forgot-password" - Request a password reset link
- POST "/auth/reset-password/:resetToken" - Choose a new password
- GET, PUT "/users/me" - Read or edit your profile

MENU
- GET "/pizzas" - List pizzas
- GET "/pizzas/:id" - Get pizza by ID
- GET "/toppings" - List toppings
- POST "/cart/quote" - Price a cart

ORDER
- POST "/orders" - Create a new order
- GET "/orders" - Your orders
- GET "/orders/:id" - Get order by ID
- PATCH "/orders/:id/status" - Update order status
- POST "/orders/:id/cancel" - Cancel an order
- POST "/orders/:id/rate" - Rate a delivered order

PAYMENT
- POST "/payments/stripe/intent" - Pay by card
- POST "/payments/paypal/create", "/payments/paypal/capture" - Pay with PayPal
- POST "/payments/mobile-money/initiate" - Pay with Orange, Moov or Coris money

REALTIME
- GET "/ws/orders?token=" - Live order updates`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}

// OrderUpdatesSocket upgrades to a websocket. Browsers cannot set headers on
// the handshake, so the token comes from the query string.
func OrderUpdatesSocket(ctx *gin.Context) {
	userID, role, err := middlewares.Authenticate(ctx.Query("token"))
	if err != nil {
		respondWithError(ctx, err)
		return
	}

	if err := realtime.Default.ServeWS(ctx.Writer, ctx.Request, userID, role); err != nil {
		log.Println("Websocket upgrade failed:", err)
	}
}
