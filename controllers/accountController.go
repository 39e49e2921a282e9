package controllers

import (
	"net/http"

	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/Kariqs/pizzaking-api/services"
	"github.com/Kariqs/pizzaking-api/utils"
	"github.com/gin-gonic/gin"
)

func GetAddresses(ctx *gin.Context) {
	addresses, err := services.ListAddresses(ctx.Request.Context(), middlewares.UserID(ctx))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"addresses": addresses})
}

func CreateAddress(ctx *gin.Context) {
	var input services.AddressInput
	if !bindJSON(ctx, &input) {
		return
	}
	address, err := services.CreateAddress(ctx.Request.Context(), middlewares.UserID(ctx), input)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"address": address})
}

func UpdateAddress(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var input services.AddressInput
	if !bindJSON(ctx, &input) {
		return
	}
	address, err := services.UpdateAddress(ctx.Request.Context(), middlewares.UserID(ctx), id, input)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"address": address})
}

func DeleteAddress(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := services.DeleteAddress(ctx.Request.Context(), middlewares.UserID(ctx), id); err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Address deleted successfully."})
}

func SetDefaultAddress(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	address, err := services.SetDefaultAddress(ctx.Request.Context(), middlewares.UserID(ctx), id)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"address": address})
}

// ValidatePromotion reports an unusable code as valid=false rather than as an
// error.
func ValidatePromotion(ctx *gin.Context) {
	var req struct {
		Code     string `json:"code" binding:"required"`
		Subtotal int64  `json:"subtotal" binding:"gte=0"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	discount, err := services.ValidatePromotion(ctx.Request.Context(), req.Code, req.Subtotal)
	if err != nil {
		appErr := utils.AsAppError(err)
		if appErr.Code == utils.CodeInternal {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, gin.H{"valid": false, "discount": 0, "message": appErr.Message})
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"valid": true, "discount": discount, "message": "Promo code applied"})
}

func GetNotifications(ctx *gin.Context) {
	notifications, err := services.ListNotifications(ctx.Request.Context(), middlewares.UserID(ctx), ctx.Query("unread") == "true")
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"notifications": notifications})
}

func MarkNotificationRead(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := services.MarkNotificationRead(ctx.Request.Context(), middlewares.UserID(ctx), id); err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Notification marked as read."})
}

func MarkAllNotificationsRead(ctx *gin.Context) {
	count, err := services.MarkAllNotificationsRead(ctx.Request.Context(), middlewares.UserID(ctx))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"updated": count})
}

func GetLoyalty(ctx *gin.Context) {
	summary, err := services.GetLoyalty(ctx.Request.Context(), middlewares.UserID(ctx))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"points":       summary.Points,
		"pointValue":   summary.PointValue,
		"transactions": summary.Transactions,
	})
}

func SetAvailability(ctx *gin.Context) {
	var req struct {
		IsAvailable *bool `json:"isAvailable" binding:"required"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	user, err := services.SetAvailability(ctx.Request.Context(), middlewares.UserID(ctx), *req.IsAvailable)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"user": user})
}
