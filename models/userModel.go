package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Fullname            string         `json:"fullname"`
	Email               string         `json:"email" gorm:"uniqueIndex;size:191"`
	Phone               string         `json:"phone"`
	Password            string         `json:"-"`
	Role                string         `json:"role" gorm:"size:20;index;default:customer"`
	LoyaltyPoints       int64          `json:"loyaltyPoints"`
	Preferences         datatypes.JSON `json:"preferences"`
	IsAvailable         bool           `json:"isAvailable"`
	DeliveriesCompleted int            `json:"deliveriesCompleted"`
	TotalOrders         int            `json:"totalOrders"`
	TotalSpent          int64          `json:"totalSpent"`

	PasswordResetToken     string     `json:"-" gorm:"index;size:64"`
	PasswordResetExpiresAt *time.Time `json:"-"`
}

type SignupData struct {
	Fullname string `json:"fullname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginData struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordData struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordData struct {
	Password string `json:"password" binding:"required,min=8"`
}
