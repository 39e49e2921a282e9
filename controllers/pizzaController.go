package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/services"
	"github.com/Kariqs/pizzaking-api/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type pizzaInput struct {
	Name        string             `json:"name" binding:"required,max=100"`
	Description string             `json:"description" binding:"max=500"`
	Category    string             `json:"category" binding:"required,oneof=classic speciale vegetarian dessert drink"`
	ImageURL    string             `json:"imageUrl" binding:"omitempty,url"`
	IsAvailable *bool              `json:"isAvailable"`
	Sizes       []models.PizzaSize `json:"sizes" binding:"required,min=1,dive"`
}

func (in pizzaInput) validateSizes() error {
	seen := map[string]bool{}
	for _, size := range in.Sizes {
		if seen[size.Size] {
			return utils.InvalidArgument("Size %s is listed twice", size.Size)
		}
		seen[size.Size] = true
	}
	return nil
}

func (in pizzaInput) sizes() []models.PizzaSize {
	sizes := make([]models.PizzaSize, 0, len(in.Sizes))
	for _, size := range in.Sizes {
		sizes = append(sizes, models.PizzaSize{Size: size.Size, Price: size.Price})
	}
	return sizes
}

type toppingInput struct {
	Name        string `json:"name" binding:"required,max=100"`
	Price       int64  `json:"price" binding:"gte=0"`
	IsAvailable *bool  `json:"isAvailable"`
}

// newImageUploader is replaced in tests.
var newImageUploader = func(ctx context.Context) (utils.ImageUploader, error) {
	return utils.NewS3Uploader(ctx, initializers.Config.S3.Bucket)
}

func findPizza(id uint) (*models.Pizza, error) {
	var pizza models.Pizza
	if err := initializers.DB.Preload("Sizes").First(&pizza, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("Pizza not found")
		}
		return nil, utils.Internal("Unable to retrieve pizza", err)
	}
	return &pizza, nil
}

func GetPizzas(ctx *gin.Context) {
	var pizzas []models.Pizza

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	pagination := services.Page{Page: page, Limit: limit}.Normalize()

	query := initializers.DB.Model(&models.Pizza{})
	if middlewares.Role(ctx) != models.RoleAdmin {
		query = query.Where("is_available = ?", true)
	}
	if category := ctx.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := ctx.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		respondWithError(ctx, utils.Internal("Unable to fetch pizzas", err))
		return
	}

	result := query.Preload("Sizes").Order("name asc").
		Limit(pagination.Limit).Offset(pagination.Offset()).Find(&pizzas)
	if result.Error != nil {
		respondWithError(ctx, utils.Internal("Unable to fetch pizzas", result.Error))
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"pizzas":   pizzas,
		"metadata": paginationMetadata(count, pagination),
	})
}

func GetPizza(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	pizza, err := findPizza(id)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	if !pizza.IsAvailable && middlewares.Role(ctx) != models.RoleAdmin {
		respondWithError(ctx, utils.NotFound("Pizza not found"))
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"pizza": pizza})
}

func CreatePizza(ctx *gin.Context) {
	var input pizzaInput
	if !bindJSON(ctx, &input) {
		return
	}
	if err := input.validateSizes(); err != nil {
		respondWithError(ctx, err)
		return
	}

	pizza := models.Pizza{
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		ImageURL:    input.ImageURL,
		IsAvailable: true,
		Sizes:       input.sizes(),
	}
	err := initializers.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&pizza).Error; err != nil {
			return err
		}
		// gorm skips zero values on insert, so false needs its own update.
		if input.IsAvailable != nil && !*input.IsAvailable {
			return tx.Model(&pizza).Update("is_available", false).Error
		}
		return nil
	})
	if err != nil {
		respondWithError(ctx, utils.Internal("Failed to create pizza", err))
		return
	}

	created, err := findPizza(pizza.ID)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"pizza": created})
}

func UpdatePizza(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var input pizzaInput
	if !bindJSON(ctx, &input) {
		return
	}
	if err := input.validateSizes(); err != nil {
		respondWithError(ctx, err)
		return
	}

	pizza, err := findPizza(id)
	if err != nil {
		respondWithError(ctx, err)
		return
	}

	updates := map[string]any{
		"name":        input.Name,
		"description": input.Description,
		"category":    input.Category,
		"image_url":   input.ImageURL,
	}
	if input.IsAvailable != nil {
		updates["is_available"] = *input.IsAvailable
	}

	err = initializers.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Pizza{}).Where("id = ?", pizza.ID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("pizza_id = ?", pizza.ID).Delete(&models.PizzaSize{}).Error; err != nil {
			return err
		}
		sizes := input.sizes()
		for i := range sizes {
			sizes[i].PizzaID = pizza.ID
		}
		return tx.Create(&sizes).Error
	})
	if err != nil {
		respondWithError(ctx, utils.Internal("Failed to update pizza", err))
		return
	}

	updated, err := findPizza(id)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"pizza": updated})
}

func DeletePizza(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	result := initializers.DB.Delete(&models.Pizza{}, id)
	if result.Error != nil {
		respondWithError(ctx, utils.Internal("Failed to delete pizza", result.Error))
		return
	}
	if result.RowsAffected == 0 {
		respondWithError(ctx, utils.NotFound("Pizza not found"))
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Pizza deleted successfully."})
}

func UploadPizzaImage(ctx *gin.Context) {
	file, err := ctx.FormFile("image")
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, utils.CodeInvalidArgument, "No image uploaded")
		return
	}

	pizzaID, err := strconv.ParseUint(ctx.PostForm("pizzaId"), 10, 64)
	if err != nil || pizzaID == 0 {
		sendErrorResponse(ctx, http.StatusBadRequest, utils.CodeInvalidArgument, "Invalid pizzaId")
		return
	}

	pizza, err := findPizza(uint(pizzaID))
	if err != nil {
		respondWithError(ctx, err)
		return
	}

	uploader, err := newImageUploader(ctx.Request.Context())
	if err != nil {
		respondWithError(ctx, utils.Unavailable("Image storage is not configured", err))
		return
	}

	f, err := file.Open()
	if err != nil {
		respondWithError(ctx, utils.InvalidArgument("Unable to read uploaded image"))
		return
	}
	defer f.Close()

	// Generate a unique key to prevent overwrites
	key := fmt.Sprintf("pizzas/%d-%s-%s", pizza.ID, time.Now().Format("20060102150405"), file.Filename)
	url, err := uploader.Upload(ctx.Request.Context(), key, f, file.Header.Get("Content-Type"))
	if err != nil {
		log.Printf("Error uploading file %s: %v", file.Filename, err)
		respondWithError(ctx, utils.Unavailable("Failed to upload image", err))
		return
	}

	if err := initializers.DB.Model(&models.Pizza{}).Where("id = ?", pizza.ID).Update("image_url", url).Error; err != nil {
		respondWithError(ctx, utils.Internal("Failed to save image URL", err))
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Image uploaded", "url": url})
}

func GetToppings(ctx *gin.Context) {
	var toppings []models.Topping
	query := initializers.DB.Order("name asc")
	if middlewares.Role(ctx) != models.RoleAdmin {
		query = query.Where("is_available = ?", true)
	}
	if err := query.Find(&toppings).Error; err != nil {
		respondWithError(ctx, utils.Internal("Unable to fetch toppings", err))
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"toppings": toppings})
}

func CreateTopping(ctx *gin.Context) {
	var input toppingInput
	if !bindJSON(ctx, &input) {
		return
	}

	var existing int64
	if err := initializers.DB.Unscoped().Model(&models.Topping{}).Where("name = ?", input.Name).Count(&existing).Error; err != nil {
		respondWithError(ctx, utils.Internal("Failed to create topping", err))
		return
	}
	if existing > 0 {
		respondWithError(ctx, utils.AlreadyExists("Topping %s already exists", input.Name))
		return
	}

	topping := models.Topping{Name: input.Name, Price: input.Price, IsAvailable: true}
	err := initializers.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&topping).Error; err != nil {
			return err
		}
		if input.IsAvailable != nil && !*input.IsAvailable {
			topping.IsAvailable = false
			return tx.Model(&topping).Update("is_available", false).Error
		}
		return nil
	})
	if err != nil {
		respondWithError(ctx, utils.Internal("Failed to create topping", err))
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"topping": topping})
}
