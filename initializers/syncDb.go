package initializers

import (
	"log"

	"github.com/Kariqs/pizzaking-api/models"
)

func SyncDatabase() error {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Pizza{},
		&models.PizzaSize{},
		&models.Topping{},
		&models.Address{},
		&models.Promotion{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.Notification{},
		&models.LoyaltyTransaction{},
		&models.DailyAnalytics{},
		&models.WebhookEvent{},
	)
	if err != nil {
		return err
	}
	log.Println("Database synced successfully.")
	return nil
}
