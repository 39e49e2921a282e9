package controllers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/Kariqs/pizzaking-api/services"
	"github.com/gin-gonic/gin"
)

func paginationMetadata(total int64, page services.Page) gin.H {
	previousPage := page.Page - 1
	nextPage := page.Page + 1
	totalPages := math.Ceil(float64(total) / float64(page.Limit))

	return gin.H{
		"total":        total,
		"currentPage":  page.Page,
		"limit":        page.Limit,
		"hasPrevPage":  previousPage > 0,
		"hasNextPage":  int(totalPages) > page.Page,
		"previousPage": previousPage,
		"nextPage":     nextPage,
	}
}

func CreateOrder(ctx *gin.Context) {
	var req services.CreateOrderRequest
	if !bindJSON(ctx, &req) {
		return
	}

	order, err := services.CreateOrder(ctx.Request.Context(), middlewares.UserID(ctx), req)
	if err != nil {
		respondWithError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusCreated, gin.H{
		"orderId":       order.ID,
		"orderNumber":   order.OrderNumber,
		"total":         order.Total,
		"paymentMethod": order.Payment.Method,
	})
}

func GetMyOrders(ctx *gin.Context) {
	orders, err := services.ListOrders(ctx.Request.Context(), middlewares.UserID(ctx), ctx.Query("status"))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"orders": orders})
}

func GetOrders(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "15"))
	filter := services.OrderFilter{
		Page:   services.Page{Page: page, Limit: limit}.Normalize(),
		Status: ctx.Query("status"),
		Sort:   ctx.DefaultQuery("sort", "newest"),
	}

	orders, total, err := services.ListAllOrders(ctx.Request.Context(), filter)
	if err != nil {
		respondWithError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"orders":   orders,
		"metadata": paginationMetadata(total, filter.Page),
	})
}

func GetOrderById(ctx *gin.Context) {
	orderID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	order, err := services.GetOrder(ctx.Request.Context(), currentActor(ctx), orderID)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order})
}

func GetOrderHistory(ctx *gin.Context) {
	orderID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	history, err := services.OrderHistory(ctx.Request.Context(), currentActor(ctx), orderID)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"history": history})
}

func UpdateOrderStatus(ctx *gin.Context) {
	orderID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req services.UpdateStatusRequest
	if !bindJSON(ctx, &req) {
		return
	}

	order, err := services.UpdateOrderStatus(ctx.Request.Context(), currentActor(ctx), orderID, req)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message": "Order status updated successfully.",
		"order":   order,
	})
}

func CancelOrder(ctx *gin.Context) {
	orderID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason" binding:"max=300"`
	}
	if ctx.Request.ContentLength != 0 && !bindJSON(ctx, &body) {
		return
	}

	order, err := services.CancelOrder(ctx.Request.Context(), currentActor(ctx), orderID, body.Reason)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order})
}

func RateOrder(ctx *gin.Context) {
	orderID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var body struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment" binding:"max=500"`
	}
	if !bindJSON(ctx, &body) {
		return
	}

	order, err := services.RateOrder(ctx.Request.Context(), middlewares.UserID(ctx), orderID, body.Rating, body.Comment)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order})
}

func UpdateOrderNotes(ctx *gin.Context) {
	orderID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var body struct {
		Notes string `json:"notes" binding:"max=500"`
	}
	if !bindJSON(ctx, &body) {
		return
	}

	order, err := services.UpdateOrderNotes(ctx.Request.Context(), middlewares.UserID(ctx), orderID, body.Notes)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order})
}

func AssignDeliverer(ctx *gin.Context) {
	orderID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var body struct {
		DelivererID uint `json:"delivererId" binding:"required"`
	}
	if !bindJSON(ctx, &body) {
		return
	}

	order, err := services.AssignDeliverer(ctx.Request.Context(), currentActor(ctx), orderID, body.DelivererID)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order})
}
