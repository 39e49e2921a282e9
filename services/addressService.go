package services

import (
	"context"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
	"gorm.io/gorm"
)

type AddressInput struct {
	Label        string  `json:"label" binding:"max=50"`
	Street       string  `json:"street" binding:"required"`
	City         string  `json:"city" binding:"required"`
	District     string  `json:"district"`
	Phone        string  `json:"phone" binding:"omitempty,phone"`
	Instructions string  `json:"instructions" binding:"max=300"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	IsDefault    bool    `json:"isDefault"`
}

func ListAddresses(ctx context.Context, userID uint) ([]models.Address, error) {
	var addresses []models.Address
	if err := db(ctx).Where("user_id = ?", userID).
		Order("is_default desc").Order("created_at desc").Order("id desc").
		Find(&addresses).Error; err != nil {
		return nil, utils.Internal("Failed to fetch addresses", err)
	}
	return addresses, nil
}

// lockAddresses reads all of the user's addresses FOR UPDATE, newest first.
func lockAddresses(tx *gorm.DB, userID uint) ([]models.Address, error) {
	var addresses []models.Address
	err := forUpdate(tx).Where("user_id = ?", userID).Order("created_at desc").Order("id desc").Find(&addresses).Error
	return addresses, err
}

func findOwned(addresses []models.Address, id uint) *models.Address {
	for i := range addresses {
		if addresses[i].ID == id {
			return &addresses[i]
		}
	}
	return nil
}

func clearDefault(tx *gorm.DB, userID, keepID uint) error {
	return tx.Model(&models.Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, keepID, true).
		Update("is_default", false).Error
}

func CreateAddress(ctx context.Context, userID uint, input AddressInput) (*models.Address, error) {
	var address models.Address
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockAddresses(tx, userID)
		if err != nil {
			return err
		}
		if limit := initializers.Config.Addresses.MaxPerUser; len(existing) >= limit {
			return utils.ResourceExhausted("You can save at most %d addresses", limit)
		}

		address = models.Address{
			UserID:       userID,
			Label:        input.Label,
			Street:       input.Street,
			City:         input.City,
			District:     input.District,
			Phone:        input.Phone,
			Instructions: input.Instructions,
			Latitude:     input.Latitude,
			Longitude:    input.Longitude,
			IsDefault:    input.IsDefault || len(existing) == 0,
		}
		if err := tx.Create(&address).Error; err != nil {
			return err
		}
		if address.IsDefault {
			return clearDefault(tx, userID, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxError(err, "Failed to save address")
	}
	return &address, nil
}

func UpdateAddress(ctx context.Context, userID, id uint, input AddressInput) (*models.Address, error) {
	var address models.Address
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockAddresses(tx, userID)
		if err != nil {
			return err
		}
		current := findOwned(existing, id)
		if current == nil {
			return utils.NotFound("Address not found")
		}

		// The only address stays the default.
		isDefault := input.IsDefault || current.IsDefault || len(existing) == 1
		if err := tx.Model(current).Updates(map[string]any{
			"label":        input.Label,
			"street":       input.Street,
			"city":         input.City,
			"district":     input.District,
			"phone":        input.Phone,
			"instructions": input.Instructions,
			"latitude":     input.Latitude,
			"longitude":    input.Longitude,
			"is_default":   isDefault,
		}).Error; err != nil {
			return err
		}
		if isDefault {
			if err := clearDefault(tx, userID, id); err != nil {
				return err
			}
		}
		return tx.First(&address, id).Error
	})
	if err != nil {
		return nil, wrapTxError(err, "Failed to update address")
	}
	return &address, nil
}

// DeleteAddress removes an address. When it was the default, the most recent
// remaining address takes over.
func DeleteAddress(ctx context.Context, userID, id uint) error {
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockAddresses(tx, userID)
		if err != nil {
			return err
		}
		current := findOwned(existing, id)
		if current == nil {
			return utils.NotFound("Address not found")
		}
		if err := tx.Delete(current).Error; err != nil {
			return err
		}
		if !current.IsDefault {
			return nil
		}
		for _, candidate := range existing {
			if candidate.ID != id {
				return tx.Model(&candidate).Update("is_default", true).Error
			}
		}
		return nil
	})
	return wrapTxError(err, "Failed to delete address")
}

func SetDefaultAddress(ctx context.Context, userID, id uint) (*models.Address, error) {
	var address models.Address
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockAddresses(tx, userID)
		if err != nil {
			return err
		}
		current := findOwned(existing, id)
		if current == nil {
			return utils.NotFound("Address not found")
		}
		if err := tx.Model(current).Update("is_default", true).Error; err != nil {
			return err
		}
		if err := clearDefault(tx, userID, id); err != nil {
			return err
		}
		return tx.First(&address, id).Error
	})
	if err != nil {
		return nil, wrapTxError(err, "Failed to update default address")
	}
	return &address, nil
}

func ownedAddress(tx *gorm.DB, userID, id uint) (*models.Address, error) {
	var address models.Address
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		return nil, notFoundOr(err, "Address")
	}
	return &address, nil
}
