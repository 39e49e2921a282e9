package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/metrics"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/payments"
	"github.com/Kariqs/pizzaking-api/utils"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentProviders struct {
	Stripe   *payments.StripeClient
	PayPal   *payments.PayPalClient
	CinetPay *payments.CinetPayClient
}

func NewPaymentProviders(cfg *initializers.AppConfig) *PaymentProviders {
	return &PaymentProviders{
		Stripe:   payments.NewStripeClient(cfg.Stripe),
		PayPal:   payments.NewPayPalClient(cfg.PayPal),
		CinetPay: payments.NewCinetPayClient(cfg.CinetPay),
	}
}

// Providers is rebuilt from the loaded configuration at startup.
var Providers = NewPaymentProviders(initializers.Config)

type StripeIntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type PayPalOrderResult struct {
	PayPalOrderID string `json:"paypalOrderId"`
	ApproveURL    string `json:"approveUrl"`
}

type PayPalCaptureResult struct {
	Status    string `json:"status"`
	CaptureID string `json:"captureId"`
}

type MobileMoneyResult struct {
	PaymentURL    string `json:"paymentUrl"`
	TransactionID string `json:"transactionId"`
}

type MobileMoneyRequest struct {
	OrderID  uint   `json:"orderId" binding:"required"`
	Operator string `json:"operator" binding:"omitempty,oneof=orange moov coris"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
}

func ensurePayable(order *models.Order, userID uint) error {
	if order.UserID != userID {
		return utils.PermissionDenied("You do not have access to this order")
	}
	if order.Status == models.OrderStatusCancelled {
		return utils.FailedPrecondition("Order %s is cancelled", order.OrderNumber)
	}
	switch order.Payment.Status {
	case models.PaymentStatusPending, models.PaymentStatusProcessing, models.PaymentStatusFailed:
		return nil
	}
	return utils.FailedPrecondition("Order already paid")
}

func loadPayableOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := db(ctx).First(&order, orderID).Error; err != nil {
		return nil, notFoundOr(err, "Order")
	}
	if err := ensurePayable(&order, userID); err != nil {
		return nil, err
	}
	return &order, nil
}

func providerUnavailable(provider string, err error) error {
	metrics.Payments.WithLabelValues(provider, metrics.ResultError).Inc()
	log.Printf("%s payment request failed: %v", provider, err)
	return utils.Unavailable("Payment provider is unavailable, please try again", err)
}

// storePaymentAttempt records the provider reference once the provider accepted
// the attempt. The order is re-checked under lock since the provider call ran
// without one.
func storePaymentAttempt(ctx context.Context, userID, orderID uint, payment models.Payment) error {
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := forUpdate(tx).First(&order, orderID).Error; err != nil {
			return notFoundOr(err, "Order")
		}
		if err := ensurePayable(&order, userID); err != nil {
			return err
		}
		updates := map[string]any{
			"payment_method":         payment.Method,
			"payment_provider":       payment.Provider,
			"payment_status":         models.PaymentStatusProcessing,
			"payment_reference":      payment.Reference,
			"payment_failure_reason": "",
		}
		if payment.Operator != "" {
			updates["payment_operator"] = payment.Operator
		}
		if payment.Phone != "" {
			updates["payment_phone"] = payment.Phone
		}
		return tx.Model(&order).Updates(updates).Error
	})
	if err != nil {
		return wrapTxError(err, "Failed to save payment")
	}
	metrics.Payments.WithLabelValues(payment.Provider, string(models.PaymentStatusProcessing)).Inc()
	return nil
}

func CreateStripeIntent(ctx context.Context, userID, orderID uint) (*StripeIntentResult, error) {
	order, err := loadPayableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	intent, err := Providers.Stripe.CreatePaymentIntent(ctx, order.Total, initializers.Config.Pricing.Currency, map[string]string{
		"orderId":     strconv.FormatUint(uint64(order.ID), 10),
		"orderNumber": order.OrderNumber,
	})
	if err != nil {
		return nil, providerUnavailable(models.ProviderStripe, err)
	}

	if err := storePaymentAttempt(ctx, userID, order.ID, models.Payment{
		Method:    models.PaymentMethodCard,
		Provider:  models.ProviderStripe,
		Reference: intent.ID,
	}); err != nil {
		return nil, err
	}
	return &StripeIntentResult{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

func CreatePayPalOrder(ctx context.Context, userID, orderID uint) (*PayPalOrderResult, error) {
	order, err := loadPayableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	paypalOrder, err := Providers.PayPal.CreateOrder(ctx, order.OrderNumber, order.Total)
	if err != nil {
		return nil, providerUnavailable(models.ProviderPayPal, err)
	}

	if err := storePaymentAttempt(ctx, userID, order.ID, models.Payment{
		Method:    models.PaymentMethodPayPal,
		Provider:  models.ProviderPayPal,
		Reference: paypalOrder.ID,
	}); err != nil {
		return nil, err
	}
	return &PayPalOrderResult{PayPalOrderID: paypalOrder.ID, ApproveURL: paypalOrder.ApproveURL()}, nil
}

func CapturePayPalOrder(ctx context.Context, userID, orderID uint, paypalOrderID string) (*PayPalCaptureResult, error) {
	order, err := loadPayableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Payment.Provider != models.ProviderPayPal || order.Payment.Reference != paypalOrderID {
		return nil, utils.InvalidArgument("PayPal order does not match this order")
	}

	capture, err := Providers.PayPal.CaptureOrder(ctx, paypalOrderID)
	if err != nil {
		return nil, providerUnavailable(models.ProviderPayPal, err)
	}

	outcome := paymentOutcome{paid: capture.Status == payments.PayPalStatusCompleted}
	if !outcome.paid {
		outcome.failureReason = "PayPal capture status " + capture.Status
	}
	if _, err := settlePayment(ctx, models.ProviderPayPal, "", "", byReference(models.ProviderPayPal, paypalOrderID), outcome); err != nil {
		return nil, err
	}
	return &PayPalCaptureResult{Status: capture.Status, CaptureID: capture.CaptureID()}, nil
}

func InitiateMobileMoney(ctx context.Context, userID uint, req MobileMoneyRequest) (*MobileMoneyResult, error) {
	order, err := loadPayableOrder(ctx, userID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !utils.ValidMobileMoneyAmount(order.Total) {
		return nil, utils.FailedPrecondition("Mobile money amounts must be a multiple of 5 FCFA and at least 100 FCFA")
	}

	operator := req.Operator
	if operator == "" {
		operator = order.Payment.Operator
	}
	phone := req.Phone
	if phone == "" {
		phone = order.Payment.Phone
	}
	if phone == "" {
		return nil, utils.InvalidArgument("A phone number is required for mobile money")
	}

	var user models.User
	if err := db(ctx).First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "User")
	}

	code, err := utils.GenerateCode(6)
	if err != nil {
		return nil, utils.Internal("Failed to create transaction id", err)
	}
	transactionID := fmt.Sprintf("PK%d%s", order.ID, strings.ToUpper(code))
	payment, err := Providers.CinetPay.Initiate(ctx, payments.MobileMoneyRequest{
		TransactionID: transactionID,
		Amount:        order.Total,
		Currency:      initializers.Config.Pricing.Currency,
		Description:   "Pizza King order " + order.OrderNumber,
		CustomerName:  user.Fullname,
		CustomerPhone: phone,
	})
	if err != nil {
		return nil, providerUnavailable(models.ProviderCinetPay, err)
	}

	if err := storePaymentAttempt(ctx, userID, order.ID, models.Payment{
		Method:    models.PaymentMethodMobileMoney,
		Provider:  models.ProviderCinetPay,
		Reference: transactionID,
		Operator:  operator,
		Phone:     phone,
	}); err != nil {
		return nil, err
	}
	return &MobileMoneyResult{PaymentURL: payment.PaymentURL, TransactionID: transactionID}, nil
}

// HandleStripeEvent applies a verified Stripe event. It reports whether the
// event had already been processed.
func HandleStripeEvent(ctx context.Context, event *stripe.Event) (bool, error) {
	eventType := string(event.Type)
	if eventType != payments.StripeEventPaymentSucceeded && eventType != payments.StripeEventPaymentFailed {
		return false, nil
	}

	intent, err := payments.PaymentIntentFromEvent(event)
	if err != nil {
		return false, utils.InvalidArgument("Malformed payment intent: %v", err)
	}

	outcome := paymentOutcome{paid: eventType == payments.StripeEventPaymentSucceeded}
	if !outcome.paid {
		outcome.failureReason = "Card payment failed"
		if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
			outcome.failureReason = intent.LastPaymentError.Msg
		}
	}

	find := byReference(models.ProviderStripe, intent.ID)
	if orderID, err := strconv.ParseUint(intent.Metadata["orderId"], 10, 64); err == nil {
		find = byID(uint(orderID))
	}
	return settlePayment(ctx, models.ProviderStripe, event.ID, eventType, find, outcome)
}

// HandleMobileMoneyCallback confirms a Cinetpay notification against the check
// endpoint before touching the order.
func HandleMobileMoneyCallback(ctx context.Context, transactionID, siteID string) (bool, error) {
	if transactionID == "" {
		return false, utils.InvalidArgument("Missing transaction id")
	}
	if siteID != Providers.CinetPay.SiteID() {
		return false, utils.InvalidArgument("Unknown site id")
	}

	transaction, err := Providers.CinetPay.Check(ctx, transactionID)
	if err != nil {
		return false, providerUnavailable(models.ProviderCinetPay, err)
	}

	var outcome paymentOutcome
	switch transaction.Status {
	case payments.CinetPayStatusAccepted:
		outcome.paid = true
	case payments.CinetPayStatusRefused, payments.CinetPayStatusCanceled:
		outcome.failureReason = "Mobile money payment " + transaction.Status
	default:
		log.Printf("Mobile money transaction %s still %s", transactionID, transaction.Status)
		return false, nil
	}

	eventID := transactionID + ":" + transaction.Status
	return settlePayment(ctx, models.ProviderCinetPay, eventID, transaction.Status, byReference(models.ProviderCinetPay, transactionID), outcome)
}

type paymentOutcome struct {
	paid          bool
	failureReason string
}

type orderLookup func(tx *gorm.DB) *gorm.DB

func byID(id uint) orderLookup {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ?", id)
	}
}

func byReference(provider, reference string) orderLookup {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("payment_provider = ? AND payment_reference = ?", provider, reference)
	}
}

// recordWebhookEvent inserts the event marker and reports whether it already existed.
func recordWebhookEvent(tx *gorm.DB, provider, eventID, eventType string) (bool, error) {
	event := models.WebhookEvent{Provider: provider, EventID: eventID, EventType: eventType, ProcessedAt: now()}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 0, nil
}

// settlePayment marks the order's payment paid or failed. A paid pending order
// is confirmed by the system. Money captured for a cancelled order is flagged
// refunded. With an eventID, the update happens at most once.
func settlePayment(ctx context.Context, provider, eventID, eventType string, lookup orderLookup, outcome paymentOutcome) (bool, error) {
	var before, after models.Order
	duplicate, changed := false, false

	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		if eventID != "" {
			seen, err := recordWebhookEvent(tx, provider, eventID, eventType)
			if err != nil {
				return err
			}
			if seen {
				duplicate = true
				return nil
			}
		}

		var order models.Order
		if err := lookup(forUpdate(tx)).First(&order).Error; err != nil {
			return notFoundOr(err, "Order")
		}
		before = order

		switch order.Payment.Status {
		case models.PaymentStatusPaid, models.PaymentStatusRefunded:
			log.Printf("Ignoring %s update for already settled order %s", provider, order.OrderNumber)
			return nil
		}

		if outcome.paid && order.Status == models.OrderStatusCancelled {
			log.Printf("Payment for cancelled order %s captured via %s, refund it manually", order.OrderNumber, provider)
			if err := tx.Model(&order).Updates(map[string]any{
				"payment_status":         models.PaymentStatusRefunded,
				"payment_paid_at":        now(),
				"payment_failure_reason": "",
			}).Error; err != nil {
				return err
			}
		} else if outcome.paid {
			paidAt := now()
			if err := tx.Model(&order).Updates(map[string]any{
				"payment_status":         models.PaymentStatusPaid,
				"payment_paid_at":        paidAt,
				"payment_failure_reason": "",
			}).Error; err != nil {
				return err
			}
			if before.Status == models.OrderStatusPending {
				if err := transitionOrder(tx, &order, models.OrderStatusConfirmed, 0, fmt.Sprintf("Paid via %s", provider), nil); err != nil {
					return err
				}
			}
		} else {
			if err := tx.Model(&order).Updates(map[string]any{
				"payment_status":         models.PaymentStatusFailed,
				"payment_failure_reason": outcome.failureReason,
			}).Error; err != nil {
				return err
			}
		}
		changed = true
		return tx.Preload("Items").First(&after, before.ID).Error
	})
	if err != nil {
		metrics.Payments.WithLabelValues(provider, metrics.ResultError).Inc()
		return false, wrapTxError(err, "Failed to record payment")
	}
	if duplicate {
		return true, nil
	}
	if changed {
		metrics.Payments.WithLabelValues(provider, string(after.Payment.Status)).Inc()
		OnOrderUpdate(ctx, &before, &after)
	}
	return false, nil
}

// IsNotFound reports whether err is a not-found AppError.
func IsNotFound(err error) bool {
	return utils.HasCode(err, utils.CodeNotFound)
}
