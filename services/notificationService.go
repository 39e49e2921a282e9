package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func createNotification(tx *gorm.DB, userID uint, kind, title, body string, orderID *uint, data map[string]any) error {
	notification := models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Body:    body,
		OrderID: orderID,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		notification.Data = datatypes.JSON(raw)
	}
	return tx.Create(&notification).Error
}

// notify stores a notification outside any transaction and only logs failures.
func notify(ctx context.Context, userID uint, kind, title, body string, orderID *uint, data map[string]any) {
	if err := createNotification(db(ctx), userID, kind, title, body, orderID, data); err != nil {
		log.Printf("Failed to create %s notification for user %d: %v", kind, userID, err)
	}
}

func ListNotifications(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := db(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if err := query.Order("created_at desc").Order("id desc").Limit(100).Find(&notifications).Error; err != nil {
		return nil, utils.Internal("Failed to fetch notifications", err)
	}
	return notifications, nil
}

func MarkNotificationRead(ctx context.Context, userID, id uint) error {
	result := db(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return utils.Internal("Failed to update notification", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		db(ctx).Model(&models.Notification{}).Where("id = ? AND user_id = ?", id, userID).Count(&count)
		if count == 0 {
			return utils.NotFound("Notification not found")
		}
	}
	return nil
}

func MarkAllNotificationsRead(ctx context.Context, userID uint) (int64, error) {
	result := db(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, utils.Internal("Failed to update notifications", result.Error)
	}
	return result.RowsAffected, nil
}
