package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Promotion struct {
	gorm.Model
	Code           string    `json:"code" binding:"required" gorm:"uniqueIndex;size:50"`
	Description    string    `json:"description"`
	DiscountType   string    `json:"discountType" binding:"required,oneof=percentage fixed" gorm:"size:20"`
	DiscountValue  int64     `json:"discountValue" binding:"required,gt=0"`
	MinOrderAmount int64     `json:"minOrderAmount" binding:"gte=0"`
	MaxDiscount    int64     `json:"maxDiscount" binding:"gte=0"`
	UsageLimit     int       `json:"usageLimit" binding:"gte=0"`
	UsageCount     int       `json:"usageCount"`
	ValidFrom      time.Time `json:"validFrom"`
	ValidUntil     time.Time `json:"validUntil" gorm:"index"`
	IsActive       bool      `json:"isActive" gorm:"index"`
}
