package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/realtime"
	"github.com/Kariqs/pizzaking-api/utils"
	"gorm.io/gorm"
)

type statusMessage struct {
	title string
	body  string
}

var statusMessages = map[models.OrderStatus]statusMessage{
	models.OrderStatusConfirmed: {"Order confirmed", "Your order %s has been confirmed."},
	models.OrderStatusPreparing: {"In the oven", "Your order %s is being prepared."},
	models.OrderStatusOnRoute:   {"On the way", "Your order %s is on its way."},
	models.OrderStatusDelivered: {"Delivered", "Your order %s has been delivered. Enjoy!"},
	models.OrderStatusCancelled: {"Order cancelled", "Your order %s has been cancelled."},
}

// sendMail is replaced in tests.
var sendMail = utils.SendEmail

func mailSettings() utils.MailSettings {
	cfg := initializers.Config.Mail
	return utils.MailSettings{From: cfg.From, Password: cfg.Password, SMTPHost: cfg.SMTPHost, SMTPAddress: cfg.SMTPAddress}
}

// OnUserCreate welcomes a new user and credits the configured welcome bonus.
func OnUserCreate(ctx context.Context, user *models.User) {
	notify(ctx, user.ID, models.NotificationWelcome, "Welcome to Pizza King",
		fmt.Sprintf("Hi %s, your account is ready. Your first pizza is one tap away.", user.Fullname), nil, nil)

	bonus := initializers.Config.Loyalty.WelcomeBonus
	if bonus <= 0 {
		return
	}
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.User
		if err := forUpdate(tx).First(&locked, user.ID).Error; err != nil {
			return err
		}
		if err := adjustPoints(tx, &locked, nil, models.LoyaltyBonus, bonus, "Welcome bonus"); err != nil {
			return err
		}
		user.LoyaltyPoints = locked.LoyaltyPoints
		return createNotification(tx, user.ID, models.NotificationLoyalty, "Welcome bonus",
			fmt.Sprintf("%d loyalty points have been added to your account.", bonus), nil, map[string]any{"points": bonus})
	})
	if err != nil {
		log.Printf("Failed to credit welcome bonus to user %d: %v", user.ID, err)
	}
}

// OnOrderUpdate runs the side effects of an order write. before is nil when the
// order was just created. Failures are logged and never undo the order write.
func OnOrderUpdate(ctx context.Context, before, after *models.Order) {
	if after == nil {
		return
	}
	if before == nil {
		onOrderCreated(ctx, after)
		return
	}

	statusChanged := before.Status != after.Status
	if statusChanged {
		switch after.Status {
		case models.OrderStatusOnRoute:
			setDelivererAvailability(ctx, after.DelivererID, false)
		case models.OrderStatusDelivered:
			onOrderDelivered(ctx, after)
		case models.OrderStatusCancelled:
			onOrderCancelled(ctx, after)
		}
	}

	current := reloadOrder(ctx, after)
	if statusChanged {
		notifyStatusChange(ctx, current)
		sendStatusEmail(ctx, current)
	}
	if before.Payment.Status != current.Payment.Status {
		notifyPaymentChange(ctx, current)
	}
	Broadcaster.BroadcastOrder(realtime.EventOrderUpdated, current)
}

func onOrderCreated(ctx context.Context, order *models.Order) {
	notify(ctx, order.UserID, models.NotificationOrderStatus, "Order received",
		fmt.Sprintf("We received your order %s of %d FCFA.", order.OrderNumber, order.Total),
		&order.ID, map[string]any{"orderNumber": order.OrderNumber, "status": order.Status})

	if err := db(ctx).Model(&models.User{}).Where("id = ?", order.UserID).
		UpdateColumn("total_orders", gorm.Expr("total_orders + 1")).Error; err != nil {
		log.Printf("Failed to update order count for user %d: %v", order.UserID, err)
	}
	Broadcaster.BroadcastOrder(realtime.EventOrderCreated, order)
}

func onOrderDelivered(ctx context.Context, order *models.Order) {
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Order
		if err := forUpdate(tx).First(&locked, order.ID).Error; err != nil {
			return err
		}
		points := pointsFor(locked.Total)
		if locked.LoyaltyPointsAwarded != 0 || points == 0 {
			return nil
		}
		if err := tx.Model(&locked).UpdateColumn("loyalty_points_awarded", points).Error; err != nil {
			return err
		}
		var user models.User
		if err := forUpdate(tx).First(&user, locked.UserID).Error; err != nil {
			return err
		}
		if err := adjustPoints(tx, &user, &locked.ID, models.LoyaltyEarned, points, orderDescription("Points earned on order", &locked)); err != nil {
			return err
		}
		return createNotification(tx, user.ID, models.NotificationLoyalty, "Points earned",
			fmt.Sprintf("You earned %d points on order %s.", points, locked.OrderNumber),
			&locked.ID, map[string]any{"points": points, "balance": user.LoyaltyPoints})
	})
	if err != nil {
		log.Printf("Failed to award loyalty points for order %s: %v", order.OrderNumber, err)
	}

	err = db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", order.UserID).
			UpdateColumn("total_spent", gorm.Expr("total_spent + ?", order.Total)).Error; err != nil {
			return err
		}
		if order.Payment.Method != models.PaymentMethodCash {
			return nil
		}
		return tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", order.ID, models.PaymentStatusPending).
			Updates(map[string]any{"payment_status": models.PaymentStatusPaid, "payment_paid_at": now()}).Error
	})
	if err != nil {
		log.Printf("Failed to settle delivered order %s: %v", order.OrderNumber, err)
	}

	if order.DelivererID != nil {
		if err := db(ctx).Model(&models.User{}).Where("id = ?", *order.DelivererID).
			UpdateColumns(map[string]any{
				"is_available":         true,
				"deliveries_completed": gorm.Expr("deliveries_completed + 1"),
			}).Error; err != nil {
			log.Printf("Failed to release deliverer %d: %v", *order.DelivererID, err)
		}
	}
}

func onOrderCancelled(ctx context.Context, order *models.Order) {
	if order.LoyaltyPointsUsed > 0 {
		err := db(ctx).Transaction(func(tx *gorm.DB) error {
			var user models.User
			if err := forUpdate(tx).First(&user, order.UserID).Error; err != nil {
				return err
			}
			return adjustPoints(tx, &user, &order.ID, models.LoyaltyRefunded, order.LoyaltyPointsUsed, orderDescription("Points refunded for cancelled order", order))
		})
		if err != nil {
			log.Printf("Failed to refund loyalty points for order %s: %v", order.OrderNumber, err)
		}
	}

	if order.PromoCode != "" {
		if err := releasePromotion(db(ctx), order.PromoCode); err != nil {
			log.Printf("Failed to release promo code %s: %v", order.PromoCode, err)
		}
	}

	releaseDeliverer(ctx, order.DelivererID)

	if err := db(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", order.ID, models.PaymentStatusPaid).
		Update("payment_status", models.PaymentStatusRefunded).Error; err != nil {
		log.Printf("Failed to mark payment refunded for order %s: %v", order.OrderNumber, err)
	}
}

func setDelivererAvailability(ctx context.Context, delivererID *uint, available bool) {
	if delivererID == nil {
		return
	}
	if err := db(ctx).Model(&models.User{}).Where("id = ?", *delivererID).
		Update("is_available", available).Error; err != nil {
		log.Printf("Failed to update availability of deliverer %d: %v", *delivererID, err)
	}
}

// releaseDeliverer puts a deliverer back on duty unless another of their
// orders is still on the road.
func releaseDeliverer(ctx context.Context, delivererID *uint) {
	if delivererID == nil {
		return
	}
	busy, err := hasDeliveryOnRoute(db(ctx), *delivererID)
	if err != nil {
		log.Printf("Failed to check deliveries of deliverer %d: %v", *delivererID, err)
		return
	}
	if busy {
		return
	}
	setDelivererAvailability(ctx, delivererID, true)
}

func reloadOrder(ctx context.Context, order *models.Order) *models.Order {
	var fresh models.Order
	if err := db(ctx).Preload("Items").First(&fresh, order.ID).Error; err != nil {
		log.Printf("Failed to reload order %d: %v", order.ID, err)
		return order
	}
	return &fresh
}

func notifyStatusChange(ctx context.Context, order *models.Order) {
	message, ok := statusMessages[order.Status]
	if !ok {
		return
	}
	body := fmt.Sprintf(message.body, order.OrderNumber)
	if order.Status == models.OrderStatusCancelled && order.CancelReason != "" {
		body += " Reason: " + order.CancelReason
	}
	notify(ctx, order.UserID, models.NotificationOrderStatus, message.title, body,
		&order.ID, map[string]any{"orderNumber": order.OrderNumber, "status": order.Status})
}

func notifyPaymentChange(ctx context.Context, order *models.Order) {
	var title, body string
	switch order.Payment.Status {
	case models.PaymentStatusPaid:
		title, body = "Payment received", fmt.Sprintf("We received %d FCFA for order %s.", order.Total, order.OrderNumber)
	case models.PaymentStatusFailed:
		title, body = "Payment failed", fmt.Sprintf("The payment for order %s did not go through.", order.OrderNumber)
	case models.PaymentStatusRefunded:
		title, body = "Payment refunded", fmt.Sprintf("The payment for order %s will be refunded.", order.OrderNumber)
	default:
		return
	}
	notify(ctx, order.UserID, models.NotificationPayment, title, body,
		&order.ID, map[string]any{"orderNumber": order.OrderNumber, "paymentStatus": order.Payment.Status})
}

func sendStatusEmail(ctx context.Context, order *models.Order) {
	settings := mailSettings()
	if !settings.Configured() {
		return
	}
	message, ok := statusMessages[order.Status]
	if !ok {
		return
	}

	var user models.User
	if err := db(ctx).First(&user, order.UserID).Error; err != nil {
		log.Printf("Failed to load user %d for status email: %v", order.UserID, err)
		return
	}

	data := utils.EmailData{
		Name:        user.Fullname,
		Message:     fmt.Sprintf(message.body, order.OrderNumber),
		OrderNumber: order.OrderNumber,
		Status:      message.title,
		Total:       order.Total,
	}
	templatePath := filepath.Join(initializers.Config.Mail.Templates, "order_status.html")
	go func() {
		if err := sendMail(settings, user.Email, "Pizza King - "+message.title, data, templatePath); err != nil {
			log.Printf("Failed to send status email for order %s: %v", order.OrderNumber, err)
		}
	}()
}
