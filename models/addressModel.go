package models

import "gorm.io/gorm"

type Address struct {
	gorm.Model
	UserID       uint    `json:"userId" gorm:"index"`
	Label        string  `json:"label"`
	Street       string  `json:"street" binding:"required"`
	City         string  `json:"city" binding:"required"`
	District     string  `json:"district"`
	Phone        string  `json:"phone" binding:"omitempty,phone"`
	Instructions string  `json:"instructions"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	IsDefault    bool    `json:"isDefault"`
}

func (a Address) Snapshot() DeliveryAddress {
	return DeliveryAddress{
		Label:        a.Label,
		Street:       a.Street,
		City:         a.City,
		District:     a.District,
		Phone:        a.Phone,
		Instructions: a.Instructions,
		Latitude:     a.Latitude,
		Longitude:    a.Longitude,
	}
}
