package services

import (
	"context"
	"fmt"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
	"gorm.io/gorm"
)

type LoyaltySummary struct {
	Points       int64                       `json:"points"`
	PointValue   int64                       `json:"pointValue"`
	Transactions []models.LoyaltyTransaction `json:"transactions"`
}

func GetLoyalty(ctx context.Context, userID uint) (*LoyaltySummary, error) {
	var user models.User
	if err := db(ctx).First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "User")
	}

	summary := &LoyaltySummary{Points: user.LoyaltyPoints, PointValue: initializers.Config.Loyalty.PointValue}
	if err := db(ctx).Where("user_id = ?", userID).
		Order("created_at desc").Order("id desc").Limit(50).
		Find(&summary.Transactions).Error; err != nil {
		return nil, utils.Internal("Failed to fetch loyalty history", err)
	}
	return summary, nil
}

// adjustPoints moves a user's balance by delta and appends the matching
// transaction. The caller must hold the user row lock.
func adjustPoints(tx *gorm.DB, user *models.User, orderID *uint, kind string, delta int64, description string) error {
	balance := user.LoyaltyPoints + delta
	if balance < 0 {
		return utils.FailedPrecondition("Insufficient loyalty points: %d available", user.LoyaltyPoints)
	}
	if err := tx.Model(user).UpdateColumn("loyalty_points", balance).Error; err != nil {
		return err
	}
	user.LoyaltyPoints = balance
	return tx.Create(&models.LoyaltyTransaction{
		UserID:       user.ID,
		OrderID:      orderID,
		Type:         kind,
		Points:       delta,
		BalanceAfter: balance,
		Description:  description,
	}).Error
}

func pointsFor(total int64) int64 {
	perPoint := initializers.Config.Loyalty.FrancPerPoint
	if perPoint <= 0 || total <= 0 {
		return 0
	}
	return total / perPoint
}

func orderDescription(prefix string, order *models.Order) string {
	return fmt.Sprintf("%s %s", prefix, order.OrderNumber)
}
