package controllers

import (
	"net/http"
	"time"

	"github.com/Kariqs/pizzaking-api/jobs"
	"github.com/Kariqs/pizzaking-api/services"
	"github.com/Kariqs/pizzaking-api/utils"
	"github.com/gin-gonic/gin"
)

func GetDashboard(ctx *gin.Context) {
	dashboard, err := services.GetDashboard(ctx.Request.Context(), time.Now())
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"dashboard": dashboard})
}

func GetPromotions(ctx *gin.Context) {
	promos, err := services.ListPromotions(ctx.Request.Context(), ctx.Query("active") == "true")
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"promotions": promos})
}

func CreatePromotion(ctx *gin.Context) {
	var input services.PromotionInput
	if !bindJSON(ctx, &input) {
		return
	}
	promo, err := services.CreatePromotion(ctx.Request.Context(), input)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"promotion": promo})
}

func UpdatePromotion(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var input services.PromotionInput
	if !bindJSON(ctx, &input) {
		return
	}
	promo, err := services.UpdatePromotion(ctx.Request.Context(), id, input)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"promotion": promo})
}

func DeletePromotion(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := services.DeletePromotion(ctx.Request.Context(), id); err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Promotion deleted successfully."})
}

func GetUsers(ctx *gin.Context) {
	users, err := services.ListUsers(ctx.Request.Context(), ctx.Query("role"))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"users": users})
}

func UpdateUserRole(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role" binding:"required,oneof=customer admin deliverer"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	user, err := services.UpdateUserRole(ctx.Request.Context(), currentActor(ctx), id, req.Role)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"user": user})
}

func GetDeliverers(ctx *gin.Context) {
	deliverers, err := services.ListDeliverers(ctx.Request.Context(), ctx.Query("available") == "true")
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"deliverers": deliverers})
}

func GetAnalytics(ctx *gin.Context) {
	from, to := ctx.Query("from"), ctx.Query("to")
	for _, value := range []string{from, to} {
		if value == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, value); err != nil {
			sendErrorResponse(ctx, http.StatusBadRequest, utils.CodeInvalidArgument, "Dates must use the YYYY-MM-DD format")
			return
		}
	}

	days, err := services.ListAnalytics(ctx.Request.Context(), from, to)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"analytics": days})
}

// RunJob runs a scheduled job immediately. daily-analytics accepts ?date= and
// defaults to yesterday.
func RunJob(ctx *gin.Context) {
	name := ctx.Param("name")
	fn, ok := jobs.Lookup(name)
	if !ok {
		respondWithError(ctx, utils.NotFound("Unknown job %q", name))
		return
	}

	if date := ctx.Query("date"); date != "" && name == jobs.DailyAnalyticsJob {
		day, err := time.ParseInLocation(time.DateOnly, date, time.Local)
		if err != nil {
			sendErrorResponse(ctx, http.StatusBadRequest, utils.CodeInvalidArgument, "Dates must use the YYYY-MM-DD format")
			return
		}
		fn = jobs.DailyAnalyticsFor(day)
	}

	if err := jobs.Run(ctx.Request.Context(), name, fn); err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Job " + name + " completed."})
}
