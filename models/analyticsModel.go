package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DailyAnalytics struct {
	gorm.Model
	Date              string         `json:"date" gorm:"uniqueIndex;size:10"`
	TotalOrders       int            `json:"totalOrders"`
	DeliveredOrders   int            `json:"deliveredOrders"`
	CancelledOrders   int            `json:"cancelledOrders"`
	Revenue           int64          `json:"revenue"`
	AverageOrderValue int64          `json:"averageOrderValue"`
	NewUsers          int            `json:"newUsers"`
	ByPaymentMethod   datatypes.JSON `json:"byPaymentMethod"`
	TopPizzas         datatypes.JSON `json:"topPizzas"`
}

type PizzaSales struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
