package controllers

import (
	"io"
	"log"
	"net/http"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/metrics"
	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/payments"
	"github.com/Kariqs/pizzaking-api/services"
	"github.com/Kariqs/pizzaking-api/utils"
	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type orderPaymentRequest struct {
	OrderID uint `json:"orderId" binding:"required"`
}

func CreateStripeIntent(ctx *gin.Context) {
	var req orderPaymentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	result, err := services.CreateStripeIntent(ctx.Request.Context(), middlewares.UserID(ctx), req.OrderID)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"clientSecret":    result.ClientSecret,
		"paymentIntentId": result.PaymentIntentID,
	})
}

func CreatePayPalOrder(ctx *gin.Context) {
	var req orderPaymentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	result, err := services.CreatePayPalOrder(ctx.Request.Context(), middlewares.UserID(ctx), req.OrderID)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"paypalOrderId": result.PayPalOrderID,
		"approveUrl":    result.ApproveURL,
	})
}

func CapturePayPalOrder(ctx *gin.Context) {
	var req struct {
		OrderID       uint   `json:"orderId" binding:"required"`
		PayPalOrderID string `json:"paypalOrderId" binding:"required"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	result, err := services.CapturePayPalOrder(ctx.Request.Context(), middlewares.UserID(ctx), req.OrderID, req.PayPalOrderID)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"status":    result.Status,
		"captureId": result.CaptureID,
	})
}

func InitiateMobileMoney(ctx *gin.Context) {
	var req services.MobileMoneyRequest
	if !bindJSON(ctx, &req) {
		return
	}
	result, err := services.InitiateMobileMoney(ctx.Request.Context(), middlewares.UserID(ctx), req)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"paymentUrl":    result.PaymentURL,
		"transactionId": result.TransactionID,
	})
}

func recordWebhook(provider string, duplicate bool, err error) {
	result := metrics.ResultOK
	switch {
	case utils.HasCode(err, utils.CodeInvalidArgument):
		result = metrics.ResultRejected
	case err != nil:
		result = metrics.ResultError
	case duplicate:
		result = metrics.ResultDuplicate
	}
	metrics.Webhooks.WithLabelValues(provider, result).Inc()
}

// HandleStripeWebhook verifies the signature over the raw body before decoding
// anything.
func HandleStripeWebhook(ctx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxWebhookBody))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, utils.CodeInvalidArgument, "Unable to read request body")
		return
	}

	event, err := payments.VerifyStripeSignature(payload, ctx.GetHeader("Stripe-Signature"), initializers.Config.Stripe.WebhookSecret)
	if err != nil {
		log.Println("Stripe webhook signature verification failed:", err)
		metrics.Webhooks.WithLabelValues(models.ProviderStripe, metrics.ResultRejected).Inc()
		sendErrorResponse(ctx, http.StatusBadRequest, utils.CodeInvalidArgument, "Invalid signature")
		return
	}

	duplicate, err := services.HandleStripeEvent(ctx.Request.Context(), event)
	recordWebhook(models.ProviderStripe, duplicate, err)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"received": true, "duplicate": duplicate})
}

// HandleMobileMoneyCallback receives Cinetpay's form notification. The status
// is re-read from Cinetpay, the body only names the transaction.
func HandleMobileMoneyCallback(ctx *gin.Context) {
	transactionID := ctx.PostForm("cpm_trans_id")
	siteID := ctx.PostForm("cpm_site_id")

	duplicate, err := services.HandleMobileMoneyCallback(ctx.Request.Context(), transactionID, siteID)
	recordWebhook(models.ProviderCinetPay, duplicate, err)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"received": true, "duplicate": duplicate})
}
