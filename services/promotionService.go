package services

import (
	"context"
	"errors"
	"time"

	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PromotionInput struct {
	Code           string    `json:"code" binding:"required,max=50"`
	Description    string    `json:"description"`
	DiscountType   string    `json:"discountType" binding:"required,oneof=percentage fixed"`
	DiscountValue  int64     `json:"discountValue" binding:"required,gt=0"`
	MinOrderAmount int64     `json:"minOrderAmount" binding:"gte=0"`
	MaxDiscount    int64     `json:"maxDiscount" binding:"gte=0"`
	UsageLimit     int       `json:"usageLimit" binding:"gte=0"`
	ValidFrom      time.Time `json:"validFrom" binding:"required"`
	ValidUntil     time.Time `json:"validUntil" binding:"required,gtfield=ValidFrom"`
	IsActive       *bool     `json:"isActive"`
}

func checkPromotion(promo *models.Promotion, subtotal int64, at time.Time) error {
	switch {
	case !promo.IsActive:
		return utils.FailedPrecondition("Promo code %s is not active", promo.Code)
	case at.Before(promo.ValidFrom):
		return utils.FailedPrecondition("Promo code %s is not valid yet", promo.Code)
	case at.After(promo.ValidUntil):
		return utils.FailedPrecondition("Promo code %s has expired", promo.Code)
	case promo.UsageLimit > 0 && promo.UsageCount >= promo.UsageLimit:
		return utils.ResourceExhausted("Promo code %s has reached its usage limit", promo.Code)
	case subtotal < promo.MinOrderAmount:
		return utils.FailedPrecondition("Minimum order for %s is %d FCFA", promo.Code, promo.MinOrderAmount)
	}
	return nil
}

func promotionDiscount(promo *models.Promotion, subtotal int64) int64 {
	var discount int64
	switch promo.DiscountType {
	case models.DiscountPercentage:
		discount = roundFCFA(decimal.NewFromInt(subtotal).Mul(decimal.NewFromInt(promo.DiscountValue)).Div(decimal.NewFromInt(100)))
		if promo.MaxDiscount > 0 && discount > promo.MaxDiscount {
			discount = promo.MaxDiscount
		}
	case models.DiscountFixed:
		discount = promo.DiscountValue
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}

// ValidatePromotion returns the discount the code grants on subtotal.
func ValidatePromotion(ctx context.Context, code string, subtotal int64) (int64, error) {
	code = normalizeCode(code)
	if code == "" {
		return 0, utils.InvalidArgument("Promo code is required")
	}
	var promo models.Promotion
	if err := db(ctx).Where("code = ?", code).First(&promo).Error; err != nil {
		return 0, notFoundOr(err, "Promo code")
	}
	if err := checkPromotion(&promo, subtotal, now()); err != nil {
		return 0, err
	}
	return promotionDiscount(&promo, subtotal), nil
}

func ListPromotions(ctx context.Context, activeOnly bool) ([]models.Promotion, error) {
	var promos []models.Promotion
	query := db(ctx).Order("created_at desc")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&promos).Error; err != nil {
		return nil, utils.Internal("Failed to fetch promotions", err)
	}
	return promos, nil
}

func validatePromotionInput(input PromotionInput) error {
	if input.DiscountType == models.DiscountPercentage && input.DiscountValue > 100 {
		return utils.InvalidArgument("Percentage discount cannot exceed 100")
	}
	return nil
}

func CreatePromotion(ctx context.Context, input PromotionInput) (*models.Promotion, error) {
	if err := validatePromotionInput(input); err != nil {
		return nil, err
	}
	promo := models.Promotion{
		Code:           normalizeCode(input.Code),
		Description:    input.Description,
		DiscountType:   input.DiscountType,
		DiscountValue:  input.DiscountValue,
		MinOrderAmount: input.MinOrderAmount,
		MaxDiscount:    input.MaxDiscount,
		UsageLimit:     input.UsageLimit,
		ValidFrom:      input.ValidFrom,
		ValidUntil:     input.ValidUntil,
		IsActive:       input.IsActive == nil || *input.IsActive,
	}

	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Unscoped().Model(&models.Promotion{}).Where("code = ?", promo.Code).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return utils.AlreadyExists("Promo code %s already exists", promo.Code)
		}
		return tx.Create(&promo).Error
	})
	if err != nil {
		return nil, wrapTxError(err, "Failed to create promotion")
	}
	return &promo, nil
}

func UpdatePromotion(ctx context.Context, id uint, input PromotionInput) (*models.Promotion, error) {
	if err := validatePromotionInput(input); err != nil {
		return nil, err
	}
	var promo models.Promotion
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&promo, id).Error; err != nil {
			return notFoundOr(err, "Promotion")
		}
		code := normalizeCode(input.Code)
		if code != promo.Code {
			var clash int64
			if err := tx.Unscoped().Model(&models.Promotion{}).Where("code = ? AND id <> ?", code, id).Count(&clash).Error; err != nil {
				return err
			}
			if clash > 0 {
				return utils.AlreadyExists("Promo code %s already exists", code)
			}
		}

		updates := map[string]any{
			"code":             code,
			"description":      input.Description,
			"discount_type":    input.DiscountType,
			"discount_value":   input.DiscountValue,
			"min_order_amount": input.MinOrderAmount,
			"max_discount":     input.MaxDiscount,
			"usage_limit":      input.UsageLimit,
			"valid_from":       input.ValidFrom,
			"valid_until":      input.ValidUntil,
		}
		if input.IsActive != nil {
			updates["is_active"] = *input.IsActive
		}
		if err := tx.Model(&promo).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&promo, id).Error
	})
	if err != nil {
		return nil, wrapTxError(err, "Failed to update promotion")
	}
	return &promo, nil
}

func DeletePromotion(ctx context.Context, id uint) error {
	result := db(ctx).Delete(&models.Promotion{}, id)
	if result.Error != nil {
		return utils.Internal("Failed to delete promotion", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.NotFound("Promotion not found")
	}
	return nil
}

// ExpirePromotions deactivates every active promotion whose window closed before at.
func ExpirePromotions(ctx context.Context, at time.Time) (int64, error) {
	result := db(ctx).Model(&models.Promotion{}).
		Where("is_active = ? AND valid_until < ?", true, at).
		Update("is_active", false)
	if result.Error != nil {
		return 0, utils.Internal("Failed to expire promotions", result.Error)
	}
	return result.RowsAffected, nil
}

func releasePromotion(tx *gorm.DB, code string) error {
	if code == "" {
		return nil
	}
	err := tx.Model(&models.Promotion{}).
		Where("code = ? AND usage_count > 0", code).
		UpdateColumn("usage_count", gorm.Expr("usage_count - 1")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
