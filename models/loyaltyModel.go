package models

import "gorm.io/gorm"

const (
	LoyaltyEarned   = "earned"
	LoyaltyRedeemed = "redeemed"
	LoyaltyBonus    = "bonus"
	LoyaltyRefunded = "refunded"
)

type LoyaltyTransaction struct {
	gorm.Model
	UserID       uint   `json:"userId" gorm:"index"`
	OrderID      *uint  `json:"orderId,omitempty" gorm:"index"`
	Type         string `json:"type" gorm:"size:20"`
	Points       int64  `json:"points"`
	BalanceAfter int64  `json:"balanceAfter"`
	Description  string `json:"description"`
}
