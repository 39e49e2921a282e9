package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type MenuSeed struct {
	Toppings []struct {
		Name        string `yaml:"name"`
		Price       int64  `yaml:"price"`
		IsAvailable *bool  `yaml:"isAvailable"`
	} `yaml:"toppings"`
	Pizzas []struct {
		Name        string           `yaml:"name"`
		Description string           `yaml:"description"`
		Category    string           `yaml:"category"`
		ImageURL    string           `yaml:"imageUrl"`
		IsAvailable *bool            `yaml:"isAvailable"`
		Sizes       map[string]int64 `yaml:"sizes"`
	} `yaml:"pizzas"`
	Promotions []struct {
		Code           string    `yaml:"code"`
		Description    string    `yaml:"description"`
		DiscountType   string    `yaml:"discountType"`
		DiscountValue  int64     `yaml:"discountValue"`
		MinOrderAmount int64     `yaml:"minOrderAmount"`
		MaxDiscount    int64     `yaml:"maxDiscount"`
		UsageLimit     int       `yaml:"usageLimit"`
		ValidFrom      time.Time `yaml:"validFrom"`
		ValidUntil     time.Time `yaml:"validUntil"`
	} `yaml:"promotions"`
}

type SeedResult struct {
	Toppings   int
	Pizzas     int
	Promotions int
}

func ParseMenuSeed(data []byte) (*MenuSeed, error) {
	var seed MenuSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("invalid menu file: %w", err)
	}
	return &seed, nil
}

func availability(flag *bool) bool {
	return flag == nil || *flag
}

// SeedMenu upserts toppings and pizzas by name and creates missing promotions.
// Existing promotions are left untouched so usage counters survive a re-seed.
func SeedMenu(ctx context.Context, seed *MenuSeed) (*SeedResult, error) {
	result := &SeedResult{}
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range seed.Toppings {
			if t.Name == "" || t.Price < 0 {
				return utils.InvalidArgument("Topping %q needs a name and a price", t.Name)
			}
			var topping models.Topping
			err := tx.Where("name = ?", t.Name).First(&topping).Error
			switch {
			case err == nil:
				if err := tx.Model(&topping).Updates(map[string]any{
					"price":        t.Price,
					"is_available": availability(t.IsAvailable),
				}).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				topping = models.Topping{Name: t.Name, Price: t.Price, IsAvailable: true}
				if err := tx.Create(&topping).Error; err != nil {
					return err
				}
				if !availability(t.IsAvailable) {
					if err := tx.Model(&topping).Update("is_available", false).Error; err != nil {
						return err
					}
				}
			default:
				return err
			}
			result.Toppings++
		}

		for _, p := range seed.Pizzas {
			if p.Name == "" || len(p.Sizes) == 0 {
				return utils.InvalidArgument("Pizza %q needs a name and at least one size", p.Name)
			}
			var pizza models.Pizza
			err := tx.Where("name = ?", p.Name).First(&pizza).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				pizza = models.Pizza{Name: p.Name, IsAvailable: true}
				if err := tx.Create(&pizza).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			}

			if err := tx.Model(&models.Pizza{}).Where("id = ?", pizza.ID).Updates(map[string]any{
				"description":  p.Description,
				"category":     p.Category,
				"image_url":    p.ImageURL,
				"is_available": availability(p.IsAvailable),
			}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("pizza_id = ?", pizza.ID).Delete(&models.PizzaSize{}).Error; err != nil {
				return err
			}
			added := 0
			for _, size := range []string{models.SizeSmall, models.SizeMedium, models.SizeLarge} {
				price, ok := p.Sizes[size]
				if !ok || price <= 0 {
					continue
				}
				if err := tx.Create(&models.PizzaSize{PizzaID: pizza.ID, Size: size, Price: price}).Error; err != nil {
					return err
				}
				added++
			}
			if added != len(p.Sizes) {
				return utils.InvalidArgument("Pizza %q has an unknown size or a non-positive price", p.Name)
			}
			result.Pizzas++
		}

		for _, p := range seed.Promotions {
			code := normalizeCode(p.Code)
			if code == "" || p.DiscountValue <= 0 || !p.ValidUntil.After(p.ValidFrom) ||
				(p.DiscountType != models.DiscountPercentage && p.DiscountType != models.DiscountFixed) {
				return utils.InvalidArgument("Promotion %q is incomplete", p.Code)
			}
			if err := validatePromotionInput(PromotionInput{DiscountType: p.DiscountType, DiscountValue: p.DiscountValue}); err != nil {
				return err
			}
			var existing int64
			if err := tx.Unscoped().Model(&models.Promotion{}).Where("code = ?", code).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			if err := tx.Create(&models.Promotion{
				Code:           code,
				Description:    p.Description,
				DiscountType:   p.DiscountType,
				DiscountValue:  p.DiscountValue,
				MinOrderAmount: p.MinOrderAmount,
				MaxDiscount:    p.MaxDiscount,
				UsageLimit:     p.UsageLimit,
				ValidFrom:      p.ValidFrom,
				ValidUntil:     p.ValidUntil,
				IsActive:       true,
			}).Error; err != nil {
				return err
			}
			result.Promotions++
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxError(err, "Failed to seed menu")
	}
	return result, nil
}
