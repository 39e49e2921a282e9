package services

import (
	"context"
	"encoding/json"

	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProfileUpdate struct {
	Fullname    *string         `json:"fullname" binding:"omitempty,min=2"`
	Phone       *string         `json:"phone" binding:"omitempty,phone"`
	Preferences json.RawMessage `json:"preferences"`
}

func GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := db(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User")
	}
	return &user, nil
}

func UpdateProfile(ctx context.Context, id uint, update ProfileUpdate) (*models.User, error) {
	updates := map[string]any{}
	if update.Fullname != nil {
		updates["fullname"] = *update.Fullname
	}
	if update.Phone != nil {
		updates["phone"] = *update.Phone
	}
	if len(update.Preferences) > 0 {
		if !json.Valid(update.Preferences) {
			return nil, utils.InvalidArgument("Preferences must be valid JSON")
		}
		updates["preferences"] = datatypes.JSON(update.Preferences)
	}

	user, err := GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := db(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, utils.Internal("Failed to update profile", err)
	}
	return GetUser(ctx, id)
}

func ListUsers(ctx context.Context, role string) ([]models.User, error) {
	var users []models.User
	query := db(ctx).Order("created_at desc")
	if role != "" {
		if !models.IsValidRole(role) {
			return nil, utils.InvalidArgument("Unknown role %q", role)
		}
		query = query.Where("role = ?", role)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, utils.Internal("Failed to fetch users", err)
	}
	return users, nil
}

func UpdateUserRole(ctx context.Context, actor Actor, id uint, role string) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, utils.InvalidArgument("Unknown role %q", role)
	}
	if actor.UserID == id && role != models.RoleAdmin {
		return nil, utils.FailedPrecondition("You cannot remove your own admin role")
	}
	user, err := GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{"role": role}
	if role == models.RoleDeliverer {
		updates["is_available"] = true
	} else {
		updates["is_available"] = false
	}
	if err := db(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, utils.Internal("Failed to update role", err)
	}
	return GetUser(ctx, id)
}

func ListDeliverers(ctx context.Context, availableOnly bool) ([]models.User, error) {
	var deliverers []models.User
	query := db(ctx).Where("role = ?", models.RoleDeliverer)
	if availableOnly {
		query = query.Where("is_available = ?", true)
	}
	if err := query.Order("fullname asc").Find(&deliverers).Error; err != nil {
		return nil, utils.Internal("Failed to fetch deliverers", err)
	}
	return deliverers, nil
}

func hasDeliveryOnRoute(tx *gorm.DB, delivererID uint) (bool, error) {
	var onRoute int64
	if err := tx.Model(&models.Order{}).
		Where("deliverer_id = ? AND status = ?", delivererID, models.OrderStatusOnRoute).
		Count(&onRoute).Error; err != nil {
		return false, err
	}
	return onRoute > 0, nil
}

// SetAvailability lets a deliverer go on or off duty. A deliverer with an order
// on the road cannot go back on duty until it is delivered.
func SetAvailability(ctx context.Context, delivererID uint, available bool) (*models.User, error) {
	user, err := GetUser(ctx, delivererID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleDeliverer {
		return nil, utils.PermissionDenied("Only deliverers can change availability")
	}
	if available {
		busy, err := hasDeliveryOnRoute(db(ctx), delivererID)
		if err != nil {
			return nil, utils.Internal("Failed to check deliveries", err)
		}
		if busy {
			return nil, utils.FailedPrecondition("Finish your current delivery first")
		}
	}
	if err := db(ctx).Model(user).Update("is_available", available).Error; err != nil {
		return nil, utils.Internal("Failed to update availability", err)
	}
	user.IsAvailable = available
	return user, nil
}
