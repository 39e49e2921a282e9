package controllers

import (
	"net/http"

	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/Kariqs/pizzaking-api/services"
	"github.com/gin-gonic/gin"
)

// QuoteCart prices the client-side cart without creating anything.
func QuoteCart(ctx *gin.Context) {
	var req services.QuoteRequest
	if !bindJSON(ctx, &req) {
		return
	}

	quote, err := services.QuoteCart(ctx.Request.Context(), middlewares.UserID(ctx), req)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"quote": quote})
}
