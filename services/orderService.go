package services

import (
	"context"
	"time"

	"github.com/Kariqs/pizzaking-api/metrics"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
	"gorm.io/gorm"
)

type CreateOrderRequest struct {
	Items                 []CartItem              `json:"items" binding:"required,min=1,dive"`
	DeliveryType          string                  `json:"deliveryType" binding:"required,oneof=delivery pickup"`
	AddressID             *uint                   `json:"addressId"`
	Address               *models.DeliveryAddress `json:"address"`
	PaymentMethod         string                  `json:"paymentMethod" binding:"required,oneof=card paypal mobile_money cash"`
	MobileMoneyOperator   string                  `json:"mobileMoneyOperator" binding:"omitempty,oneof=orange moov coris"`
	PaymentPhone          string                  `json:"paymentPhone" binding:"omitempty,phone"`
	PromoCode             string                  `json:"promoCode"`
	LoyaltyPointsToRedeem int64                   `json:"loyaltyPointsToRedeem" binding:"gte=0"`
	Notes                 string                  `json:"notes" binding:"max=500"`
}

type UpdateStatusRequest struct {
	Status      models.OrderStatus `json:"status" binding:"required"`
	Note        string             `json:"note" binding:"max=300"`
	DelivererID *uint              `json:"delivererId"`
}

type OrderFilter struct {
	Page
	Status string
	Sort   string
}

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusOnRoute, models.OrderStatusCancelled},
	models.OrderStatusOnRoute:   {models.OrderStatusDelivered},
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func validateCreateOrder(req *CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return utils.InvalidArgument("Order must contain at least one item")
	}
	switch req.DeliveryType {
	case models.DeliveryTypeDelivery:
		if req.AddressID == nil && (req.Address == nil || req.Address.Street == "" || req.Address.City == "") {
			return utils.InvalidArgument("A delivery address is required")
		}
	case models.DeliveryTypePickup:
	default:
		return utils.InvalidArgument("Unknown delivery type %q", req.DeliveryType)
	}
	switch req.PaymentMethod {
	case models.PaymentMethodCard, models.PaymentMethodPayPal, models.PaymentMethodCash:
	case models.PaymentMethodMobileMoney:
		if req.MobileMoneyOperator == "" || req.PaymentPhone == "" {
			return utils.InvalidArgument("Mobile money requires an operator and a phone number")
		}
		if !utils.ValidPhone(req.PaymentPhone) {
			return utils.InvalidArgument("Invalid mobile money phone number")
		}
	default:
		return utils.InvalidArgument("Unknown payment method %q", req.PaymentMethod)
	}
	return nil
}

// CreateOrder prices the cart and stores a pending order. Promotion usage and
// loyalty redemption are committed in the same transaction as the order.
func CreateOrder(ctx context.Context, userID uint, req CreateOrderRequest) (*models.Order, error) {
	if userID == 0 {
		return nil, utils.Unauthenticated("Sign in to place an order")
	}
	if err := validateCreateOrder(&req); err != nil {
		return nil, err
	}

	createdAt := now()
	var order models.Order
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return utils.Unauthenticated("Unknown user")
		}

		var address models.DeliveryAddress
		if req.DeliveryType == models.DeliveryTypeDelivery {
			if req.AddressID != nil {
				saved, err := ownedAddress(tx, userID, *req.AddressID)
				if err != nil {
					return err
				}
				address = saved.Snapshot()
			} else {
				address = *req.Address
			}
		}

		quote, err := quoteCart(tx, userID, QuoteRequest{
			Items:                 req.Items,
			PromoCode:             req.PromoCode,
			LoyaltyPointsToRedeem: req.LoyaltyPointsToRedeem,
			DeliveryType:          req.DeliveryType,
		}, createdAt, true)
		if err != nil {
			return err
		}

		if quote.promotion != nil {
			if err := tx.Model(quote.promotion).
				UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
				return err
			}
		}

		order = models.Order{
			OrderNumber:       utils.GenerateOrderNumber(createdAt),
			UserID:            userID,
			Items:             quote.Items,
			DeliveryType:      req.DeliveryType,
			DeliveryAddress:   address,
			Subtotal:          quote.Subtotal,
			Discount:          quote.Discount,
			LoyaltyDiscount:   quote.LoyaltyDiscount,
			DeliveryFee:       quote.DeliveryFee,
			Tax:               quote.Tax,
			Total:             quote.Total,
			PromoCode:         quote.PromoCode,
			LoyaltyPointsUsed: quote.LoyaltyPointsUsed,
			Status:            models.OrderStatusPending,
			Notes:             req.Notes,
			Payment: models.Payment{
				Method:   req.PaymentMethod,
				Provider: models.ProviderForMethod(req.PaymentMethod),
				Status:   models.PaymentStatusPending,
				Operator: req.MobileMoneyOperator,
				Phone:    req.PaymentPhone,
			},
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if quote.LoyaltyPointsUsed > 0 {
			if err := adjustPoints(tx, quote.user, &order.ID, models.LoyaltyRedeemed, -quote.LoyaltyPointsUsed,
				orderDescription("Points redeemed on order", &order)); err != nil {
				return err
			}
		}

		return tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.OrderStatusPending,
			ChangedBy: userID,
			Note:      "Order placed",
		}).Error
	})
	if err != nil {
		return nil, wrapTxError(err, "Failed to create order")
	}

	OnOrderUpdate(ctx, nil, &order)
	metrics.OrdersCreated.WithLabelValues(order.Payment.Method).Inc()
	return &order, nil
}

func ListOrders(ctx context.Context, userID uint, status string) ([]models.Order, error) {
	var orders []models.Order
	query := db(ctx).Preload("Items").Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at desc").Order("id desc").Find(&orders).Error; err != nil {
		return nil, utils.Internal("Failed to fetch orders", err)
	}
	return orders, nil
}

// ListAllOrders returns one page of orders for the back office and the total count.
func ListAllOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	page := filter.Page.Normalize()
	query := db(ctx).Model(&models.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, utils.Internal("Failed to count orders", err)
	}

	switch filter.Sort {
	case "oldest":
		query = query.Order("created_at asc").Order("id asc")
	case "total":
		query = query.Order("total desc").Order("id desc")
	default:
		query = query.Order("created_at desc").Order("id desc")
	}

	var orders []models.Order
	if err := query.Preload("Items").Offset(page.Offset()).Limit(page.Limit).Find(&orders).Error; err != nil {
		return nil, 0, utils.Internal("Failed to fetch orders", err)
	}
	return orders, total, nil
}

func canView(actor Actor, order *models.Order) bool {
	if actor.IsAdmin() || order.UserID == actor.UserID {
		return true
	}
	return actor.Role == models.RoleDeliverer && order.DelivererID != nil && *order.DelivererID == actor.UserID
}

func GetOrder(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	var order models.Order
	if err := db(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, notFoundOr(err, "Order")
	}
	if !canView(actor, &order) {
		return nil, utils.PermissionDenied("You do not have access to this order")
	}
	return &order, nil
}

func OrderHistory(ctx context.Context, actor Actor, id uint) ([]models.OrderStatusHistory, error) {
	if _, err := GetOrder(ctx, actor, id); err != nil {
		return nil, err
	}
	var history []models.OrderStatusHistory
	if err := db(ctx).Where("order_id = ?", id).Order("id asc").Find(&history).Error; err != nil {
		return nil, utils.Internal("Failed to fetch order history", err)
	}
	return history, nil
}

func authorizeTransition(actor Actor, order *models.Order, to models.OrderStatus) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleDeliverer:
		if order.Status == models.OrderStatusOnRoute && to == models.OrderStatusDelivered &&
			order.DelivererID != nil && *order.DelivererID == actor.UserID {
			return nil
		}
	default:
		if order.Status == models.OrderStatusPending && to == models.OrderStatusCancelled && order.UserID == actor.UserID {
			return nil
		}
	}
	return utils.PermissionDenied("You cannot move this order to %s", to)
}

func stampStatus(updates map[string]any, status models.OrderStatus, at time.Time) {
	switch status {
	case models.OrderStatusConfirmed:
		updates["confirmed_at"] = at
	case models.OrderStatusPreparing:
		updates["preparing_at"] = at
	case models.OrderStatusOnRoute:
		updates["on_route_at"] = at
	case models.OrderStatusDelivered:
		updates["delivered_at"] = at
	case models.OrderStatusCancelled:
		updates["cancelled_at"] = at
	}
}

// transitionOrder applies a validated status change on a locked order row and
// records the history entry.
func transitionOrder(tx *gorm.DB, order *models.Order, to models.OrderStatus, changedBy uint, note string, extra map[string]any) error {
	at := now()
	from := order.Status
	updates := map[string]any{"status": to}
	stampStatus(updates, to, at)
	for key, value := range extra {
		updates[key] = value
	}
	if err := tx.Model(order).Updates(updates).Error; err != nil {
		return err
	}
	return tx.Create(&models.OrderStatusHistory{
		OrderID:    order.ID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  changedBy,
		Note:       note,
	}).Error
}

func assignableDeliverer(tx *gorm.DB, id uint, requireAvailable bool) (*models.User, error) {
	var deliverer models.User
	if err := forUpdate(tx).First(&deliverer, id).Error; err != nil {
		return nil, utils.FailedPrecondition("Deliverer %d not found", id)
	}
	if deliverer.Role != models.RoleDeliverer {
		return nil, utils.FailedPrecondition("User %d is not a deliverer", id)
	}
	if requireAvailable && !deliverer.IsAvailable {
		return nil, utils.FailedPrecondition("Deliverer %s is not available", deliverer.Fullname)
	}
	return &deliverer, nil
}

// UpdateOrderStatus moves an order along its lifecycle on behalf of actor.
func UpdateOrderStatus(ctx context.Context, actor Actor, id uint, req UpdateStatusRequest) (*models.Order, error) {
	if !req.Status.IsValid() {
		return nil, utils.InvalidArgument("Unknown status %q", req.Status)
	}

	var before, after models.Order
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := forUpdate(tx).First(&order, id).Error; err != nil {
			return notFoundOr(err, "Order")
		}
		before = order

		if !canView(actor, &order) {
			return utils.PermissionDenied("You do not have access to this order")
		}
		if !CanTransition(order.Status, req.Status) {
			return utils.FailedPrecondition("Cannot change order from %s to %s", order.Status, req.Status)
		}
		if err := authorizeTransition(actor, &order, req.Status); err != nil {
			return err
		}

		extra := map[string]any{}
		switch req.Status {
		case models.OrderStatusOnRoute:
			delivererID := req.DelivererID
			if delivererID == nil {
				delivererID = order.DelivererID
			}
			if delivererID == nil {
				return utils.FailedPrecondition("Assign a deliverer before sending the order out")
			}
			if _, err := assignableDeliverer(tx, *delivererID, true); err != nil {
				return err
			}
			extra["deliverer_id"] = *delivererID
		case models.OrderStatusCancelled:
			if req.Note != "" {
				extra["cancel_reason"] = req.Note
			}
		}

		if err := transitionOrder(tx, &order, req.Status, actor.UserID, req.Note, extra); err != nil {
			return err
		}
		return tx.Preload("Items").First(&after, id).Error
	})
	if err != nil {
		return nil, wrapTxError(err, "Failed to update order status")
	}

	OnOrderUpdate(ctx, &before, &after)
	return &after, nil
}

func CancelOrder(ctx context.Context, actor Actor, id uint, reason string) (*models.Order, error) {
	if reason == "" {
		reason = "Cancelled by customer"
	}
	return UpdateOrderStatus(ctx, actor, id, UpdateStatusRequest{Status: models.OrderStatusCancelled, Note: reason})
}

func RateOrder(ctx context.Context, userID, id uint, rating int, comment string) (*models.Order, error) {
	if rating < 1 || rating > 5 {
		return nil, utils.InvalidArgument("Rating must be between 1 and 5")
	}

	var order models.Order
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&order, id).Error; err != nil {
			return notFoundOr(err, "Order")
		}
		if order.UserID != userID {
			return utils.PermissionDenied("Only the customer can rate this order")
		}
		if order.Status != models.OrderStatusDelivered {
			return utils.FailedPrecondition("Only delivered orders can be rated")
		}
		if order.Rating != 0 {
			return utils.FailedPrecondition("This order has already been rated")
		}
		if err := tx.Model(&order).Updates(map[string]any{
			"rating":         rating,
			"rating_comment": comment,
			"rated_at":       now(),
		}).Error; err != nil {
			return err
		}
		return tx.Preload("Items").First(&order, id).Error
	})
	if err != nil {
		return nil, wrapTxError(err, "Failed to rate order")
	}
	return &order, nil
}

func UpdateOrderNotes(ctx context.Context, userID, id uint, notes string) (*models.Order, error) {
	var order models.Order
	if err := db(ctx).First(&order, id).Error; err != nil {
		return nil, notFoundOr(err, "Order")
	}
	if order.UserID != userID {
		return nil, utils.PermissionDenied("Only the customer can edit order notes")
	}
	if err := db(ctx).Model(&order).Update("notes", notes).Error; err != nil {
		return nil, utils.Internal("Failed to update notes", err)
	}
	order.Notes = notes
	return &order, nil
}

// AssignDeliverer attaches a deliverer to an order that is not yet on the road.
func AssignDeliverer(ctx context.Context, actor Actor, id, delivererID uint) (*models.Order, error) {
	var before, after models.Order
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&before, id).Error; err != nil {
			return notFoundOr(err, "Order")
		}
		if before.Status != models.OrderStatusConfirmed && before.Status != models.OrderStatusPreparing {
			return utils.FailedPrecondition("Deliverers can only be assigned to confirmed or preparing orders")
		}
		if _, err := assignableDeliverer(tx, delivererID, false); err != nil {
			return err
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", id).Update("deliverer_id", delivererID).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.OrderStatusHistory{
			OrderID:    id,
			FromStatus: before.Status,
			ToStatus:   before.Status,
			ChangedBy:  actor.UserID,
			Note:       "Deliverer assigned",
		}).Error; err != nil {
			return err
		}
		return tx.Preload("Items").First(&after, id).Error
	})
	if err != nil {
		return nil, wrapTxError(err, "Failed to assign deliverer")
	}

	OnOrderUpdate(ctx, &before, &after)
	return &after, nil
}
