package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	NotificationWelcome     = "welcome"
	NotificationOrderStatus = "order_status"
	NotificationPayment     = "payment"
	NotificationLoyalty     = "loyalty"
	NotificationPromotion   = "promotion"
)

type Notification struct {
	gorm.Model
	UserID  uint           `json:"userId" gorm:"index"`
	Type    string         `json:"type" gorm:"size:20"`
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	OrderID *uint          `json:"orderId,omitempty"`
	Data    datatypes.JSON `json:"data"`
	Read    bool           `json:"read" gorm:"column:is_read;index"`
}
