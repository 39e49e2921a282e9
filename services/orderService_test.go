package services

import (
	"strings"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/realtime"
	"github.com/Kariqs/pizzaking-api/utils"
)

func (s *ServiceSuite) TestCreateOrderStoresPendingOrder() {
	order := s.pickupOrder(models.PaymentMethodCash)

	s.True(strings.HasPrefix(order.OrderNumber, "PK-"))
	s.Equal(models.OrderStatusPending, order.Status)
	s.Equal(models.PaymentStatusPending, order.Payment.Status)
	s.Equal(models.ProviderCash, order.Payment.Provider)
	s.Equal(int64(11000), order.Total)

	stored := s.reloadOrder(order.ID)
	s.Len(stored.Items, 1)
	s.Equal("Margherita", stored.Items[0].Name)

	var history []models.OrderStatusHistory
	s.Require().NoError(initializers.DB.Where("order_id = ?", order.ID).Find(&history).Error)
	s.Require().Len(history, 1)
	s.Equal(models.OrderStatusPending, history[0].ToStatus)

	var notifications []models.Notification
	s.Require().NoError(initializers.DB.Where("user_id = ?", s.customer.ID).Find(&notifications).Error)
	s.Require().Len(notifications, 1)
	s.Equal("Order received", notifications[0].Title)

	s.Equal(1, s.reloadUser(s.customer.ID).TotalOrders)
	event, broadcast := s.hub.last()
	s.Equal(realtime.EventOrderCreated, event)
	s.Equal(order.OrderNumber, broadcast.OrderNumber)
}

func (s *ServiceSuite) TestCreateOrderRedeemsPromotionAndPoints() {
	promo := s.createPromotion("PIZZA1000", models.DiscountFixed, 1000, func(p *models.Promotion) { p.UsageLimit = 10 })

	order, err := CreateOrder(s.ctx, s.customer.ID, CreateOrderRequest{
		Items:                 s.twoMediumsWithCheese(),
		DeliveryType:          models.DeliveryTypeDelivery,
		Address:               &models.DeliveryAddress{Street: "Rue des Jardins", City: "Abidjan", District: "Cocody"},
		PaymentMethod:         models.PaymentMethodCard,
		PromoCode:             "pizza1000",
		LoyaltyPointsToRedeem: 40,
	})
	s.Require().NoError(err)

	s.Equal(int64(1000), order.Discount)
	s.Equal(int64(200), order.LoyaltyDiscount)
	s.Equal(int64(1000), order.DeliveryFee)
	s.Equal(int64(11000-1000-200+1000), order.Total)
	s.Equal("Cocody", order.DeliveryAddress.District)
	s.Equal(models.ProviderStripe, order.Payment.Provider)

	var stored models.Promotion
	s.Require().NoError(initializers.DB.First(&stored, promo.ID).Error)
	s.Equal(1, stored.UsageCount)

	s.Equal(int64(60), s.reloadUser(s.customer.ID).LoyaltyPoints)
	var tx models.LoyaltyTransaction
	s.Require().NoError(initializers.DB.Where("user_id = ? AND type = ?", s.customer.ID, models.LoyaltyRedeemed).First(&tx).Error)
	s.Equal(int64(-40), tx.Points)
	s.Equal(int64(60), tx.BalanceAfter)
	s.Require().NotNil(tx.OrderID)
	s.Equal(order.ID, *tx.OrderID)
}

func (s *ServiceSuite) TestCreateOrderRejectsExhaustedPromotion() {
	s.createPromotion("ONCE", models.DiscountFixed, 500, func(p *models.Promotion) { p.UsageLimit = 1; p.UsageCount = 1 })

	_, err := CreateOrder(s.ctx, s.customer.ID, CreateOrderRequest{
		Items:         s.twoMediumsWithCheese(),
		DeliveryType:  models.DeliveryTypePickup,
		PaymentMethod: models.PaymentMethodCash,
		PromoCode:     "ONCE",
	})
	s.requireCode(err, utils.CodeResourceExhausted)

	var count int64
	initializers.DB.Model(&models.Order{}).Count(&count)
	s.Zero(count)
}

func (s *ServiceSuite) TestCreateOrderValidation() {
	address, err := CreateAddress(s.ctx, s.other.ID, AddressInput{Street: "Boulevard Latrille", City: "Abidjan"})
	s.Require().NoError(err)

	tests := []struct {
		name string
		req  CreateOrderRequest
		want string
	}{
		{"no items", CreateOrderRequest{DeliveryType: models.DeliveryTypePickup, PaymentMethod: models.PaymentMethodCash}, utils.CodeInvalidArgument},
		{"delivery without address", CreateOrderRequest{Items: s.twoMediumsWithCheese(), DeliveryType: models.DeliveryTypeDelivery, PaymentMethod: models.PaymentMethodCash}, utils.CodeInvalidArgument},
		{"someone else's address", CreateOrderRequest{Items: s.twoMediumsWithCheese(), DeliveryType: models.DeliveryTypeDelivery, AddressID: &address.ID, PaymentMethod: models.PaymentMethodCash}, utils.CodeNotFound},
		{"mobile money without operator", CreateOrderRequest{Items: s.twoMediumsWithCheese(), DeliveryType: models.DeliveryTypePickup, PaymentMethod: models.PaymentMethodMobileMoney, PaymentPhone: "0701020304"}, utils.CodeInvalidArgument},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := CreateOrder(s.ctx, s.customer.ID, tt.req)
			s.requireCode(err, tt.want)
		})
	}

	_, err = CreateOrder(s.ctx, 0, CreateOrderRequest{Items: s.twoMediumsWithCheese(), DeliveryType: models.DeliveryTypePickup, PaymentMethod: models.PaymentMethodCash})
	s.requireCode(err, utils.CodeUnauthenticated)
}

func (s *ServiceSuite) TestCreateOrderUsesSavedAddressSnapshot() {
	address, err := CreateAddress(s.ctx, s.customer.ID, AddressInput{Label: "Home", Street: "Rue 12", City: "Ouagadougou", Phone: "+22670000000"})
	s.Require().NoError(err)

	order, err := CreateOrder(s.ctx, s.customer.ID, CreateOrderRequest{
		Items:         s.twoMediumsWithCheese(),
		DeliveryType:  models.DeliveryTypeDelivery,
		AddressID:     &address.ID,
		PaymentMethod: models.PaymentMethodCash,
	})
	s.Require().NoError(err)
	s.Equal("Home", order.DeliveryAddress.Label)
	s.Equal("Ouagadougou", order.DeliveryAddress.City)
}

func (s *ServiceSuite) TestOrderLifecycleToDelivered() {
	order := s.pickupOrder(models.PaymentMethodCash)
	admin := s.adminActor()

	_, err := UpdateOrderStatus(s.ctx, admin, order.ID, UpdateStatusRequest{Status: models.OrderStatusConfirmed})
	s.Require().NoError(err)
	_, err = UpdateOrderStatus(s.ctx, admin, order.ID, UpdateStatusRequest{Status: models.OrderStatusPreparing})
	s.Require().NoError(err)

	onRoute, err := UpdateOrderStatus(s.ctx, admin, order.ID, UpdateStatusRequest{Status: models.OrderStatusOnRoute, DelivererID: &s.deliverer.ID})
	s.Require().NoError(err)
	s.Require().NotNil(onRoute.DelivererID)
	s.NotNil(onRoute.OnRouteAt)
	s.False(s.reloadUser(s.deliverer.ID).IsAvailable)

	delivered, err := UpdateOrderStatus(s.ctx, s.delivererActor(), order.ID, UpdateStatusRequest{Status: models.OrderStatusDelivered})
	s.Require().NoError(err)
	s.NotNil(delivered.DeliveredAt)

	stored := s.reloadOrder(order.ID)
	s.Equal(models.PaymentStatusPaid, stored.Payment.Status)
	s.Equal(int64(110), stored.LoyaltyPointsAwarded)

	customer := s.reloadUser(s.customer.ID)
	s.Equal(int64(100+110), customer.LoyaltyPoints)
	s.Equal(int64(11000), customer.TotalSpent)

	deliverer := s.reloadUser(s.deliverer.ID)
	s.True(deliverer.IsAvailable)
	s.Equal(1, deliverer.DeliveriesCompleted)

	var history []models.OrderStatusHistory
	s.Require().NoError(initializers.DB.Where("order_id = ?", order.ID).Order("id asc").Find(&history).Error)
	s.Require().Len(history, 5)
	s.Equal(models.OrderStatusOnRoute, history[4].FromStatus)
	s.Equal(models.OrderStatusDelivered, history[4].ToStatus)
	s.Equal(s.deliverer.ID, history[4].ChangedBy)

	event, broadcast := s.hub.last()
	s.Equal(realtime.EventOrderUpdated, event)
	s.Equal(models.OrderStatusDelivered, broadcast.Status)
}

func (s *ServiceSuite) TestLoyaltyPointsAwardedOnce() {
	order := s.pickupOrder(models.PaymentMethodCash)
	s.Require().NoError(initializers.DB.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", models.OrderStatusDelivered).Error)
	stored := s.reloadOrder(order.ID)

	onOrderDelivered(s.ctx, &stored)
	onOrderDelivered(s.ctx, &stored)

	s.Equal(int64(210), s.reloadUser(s.customer.ID).LoyaltyPoints)
	var earned int64
	initializers.DB.Model(&models.LoyaltyTransaction{}).Where("type = ?", models.LoyaltyEarned).Count(&earned)
	s.Equal(int64(1), earned)
}

func (s *ServiceSuite) TestUpdateOrderStatusRules() {
	order := s.pickupOrder(models.PaymentMethodCash)

	_, err := UpdateOrderStatus(s.ctx, s.adminActor(), order.ID, UpdateStatusRequest{Status: models.OrderStatusDelivered})
	s.requireCode(err, utils.CodeFailedPrecondition)

	_, err = UpdateOrderStatus(s.ctx, s.customerActor(), order.ID, UpdateStatusRequest{Status: models.OrderStatusConfirmed})
	s.requireCode(err, utils.CodePermissionDenied)

	_, err = UpdateOrderStatus(s.ctx, Actor{UserID: s.other.ID, Role: models.RoleCustomer}, order.ID, UpdateStatusRequest{Status: models.OrderStatusCancelled})
	s.requireCode(err, utils.CodePermissionDenied)

	_, err = UpdateOrderStatus(s.ctx, s.adminActor(), order.ID, UpdateStatusRequest{Status: "baked"})
	s.requireCode(err, utils.CodeInvalidArgument)

	_, err = UpdateOrderStatus(s.ctx, s.adminActor(), 999, UpdateStatusRequest{Status: models.OrderStatusConfirmed})
	s.requireCode(err, utils.CodeNotFound)
}

func (s *ServiceSuite) TestOnRouteRequiresAvailableDeliverer() {
	order := s.pickupOrder(models.PaymentMethodCash)
	admin := s.adminActor()
	for _, status := range []models.OrderStatus{models.OrderStatusConfirmed, models.OrderStatusPreparing} {
		_, err := UpdateOrderStatus(s.ctx, admin, order.ID, UpdateStatusRequest{Status: status})
		s.Require().NoError(err)
	}

	_, err := UpdateOrderStatus(s.ctx, admin, order.ID, UpdateStatusRequest{Status: models.OrderStatusOnRoute})
	s.requireCode(err, utils.CodeFailedPrecondition)

	_, err = UpdateOrderStatus(s.ctx, admin, order.ID, UpdateStatusRequest{Status: models.OrderStatusOnRoute, DelivererID: &s.other.ID})
	s.requireCode(err, utils.CodeFailedPrecondition)

	s.Require().NoError(initializers.DB.Model(&s.deliverer).Update("is_available", false).Error)
	_, err = UpdateOrderStatus(s.ctx, admin, order.ID, UpdateStatusRequest{Status: models.OrderStatusOnRoute, DelivererID: &s.deliverer.ID})
	s.requireCode(err, utils.CodeFailedPrecondition)
}

func (s *ServiceSuite) TestCancelOrderReleasesRedemptions() {
	promo := s.createPromotion("CANCELME", models.DiscountFixed, 500, nil)
	order, err := CreateOrder(s.ctx, s.customer.ID, CreateOrderRequest{
		Items:                 s.twoMediumsWithCheese(),
		DeliveryType:          models.DeliveryTypePickup,
		PaymentMethod:         models.PaymentMethodCash,
		PromoCode:             "CANCELME",
		LoyaltyPointsToRedeem: 100,
	})
	s.Require().NoError(err)
	s.Zero(s.reloadUser(s.customer.ID).LoyaltyPoints)

	cancelled, err := CancelOrder(s.ctx, s.customerActor(), order.ID, "Changed my mind")
	s.Require().NoError(err)
	s.Equal(models.OrderStatusCancelled, cancelled.Status)
	s.Equal("Changed my mind", cancelled.CancelReason)
	s.NotNil(cancelled.CancelledAt)

	s.Equal(int64(100), s.reloadUser(s.customer.ID).LoyaltyPoints)
	var stored models.Promotion
	s.Require().NoError(initializers.DB.First(&stored, promo.ID).Error)
	s.Zero(stored.UsageCount)

	_, err = CancelOrder(s.ctx, s.customerActor(), order.ID, "")
	s.requireCode(err, utils.CodeFailedPrecondition)
}

func (s *ServiceSuite) TestCancelPaidOrderMarksRefund() {
	order := s.pickupOrder(models.PaymentMethodCard)
	s.Require().NoError(initializers.DB.Model(&models.Order{}).Where("id = ?", order.ID).
		Updates(map[string]any{"status": models.OrderStatusConfirmed, "payment_status": models.PaymentStatusPaid}).Error)

	_, err := CancelOrder(s.ctx, s.adminActor(), order.ID, "Out of dough")
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusRefunded, s.reloadOrder(order.ID).Payment.Status)
}

func (s *ServiceSuite) TestCancelKeepsDelivererBusyWithAnotherOrder() {
	admin := s.adminActor()
	first := s.pickupOrder(models.PaymentMethodCash)
	second := s.pickupOrder(models.PaymentMethodCash)
	for _, id := range []uint{first.ID, second.ID} {
		_, err := UpdateOrderStatus(s.ctx, admin, id, UpdateStatusRequest{Status: models.OrderStatusConfirmed})
		s.Require().NoError(err)
	}

	_, err := UpdateOrderStatus(s.ctx, admin, first.ID, UpdateStatusRequest{Status: models.OrderStatusPreparing})
	s.Require().NoError(err)
	_, err = UpdateOrderStatus(s.ctx, admin, first.ID, UpdateStatusRequest{Status: models.OrderStatusOnRoute, DelivererID: &s.deliverer.ID})
	s.Require().NoError(err)
	s.False(s.reloadUser(s.deliverer.ID).IsAvailable)

	_, err = AssignDeliverer(s.ctx, admin, second.ID, s.deliverer.ID)
	s.Require().NoError(err)
	_, err = CancelOrder(s.ctx, admin, second.ID, "Customer unreachable")
	s.Require().NoError(err)
	s.False(s.reloadUser(s.deliverer.ID).IsAvailable)

	_, err = UpdateOrderStatus(s.ctx, s.delivererActor(), first.ID, UpdateStatusRequest{Status: models.OrderStatusDelivered})
	s.Require().NoError(err)
	s.True(s.reloadUser(s.deliverer.ID).IsAvailable)
}

func (s *ServiceSuite) TestCancelReleasesIdleDeliverer() {
	admin := s.adminActor()
	order := s.pickupOrder(models.PaymentMethodCash)
	_, err := UpdateOrderStatus(s.ctx, admin, order.ID, UpdateStatusRequest{Status: models.OrderStatusConfirmed})
	s.Require().NoError(err)
	s.Require().NoError(initializers.DB.Model(&s.deliverer).Update("is_available", false).Error)

	_, err = AssignDeliverer(s.ctx, admin, order.ID, s.deliverer.ID)
	s.Require().NoError(err)
	_, err = CancelOrder(s.ctx, admin, order.ID, "Out of dough")
	s.Require().NoError(err)
	s.True(s.reloadUser(s.deliverer.ID).IsAvailable)
}

func (s *ServiceSuite) TestRateOrder() {
	order := s.pickupOrder(models.PaymentMethodCash)

	_, err := RateOrder(s.ctx, s.customer.ID, order.ID, 5, "Great")
	s.requireCode(err, utils.CodeFailedPrecondition)

	s.Require().NoError(initializers.DB.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", models.OrderStatusDelivered).Error)

	_, err = RateOrder(s.ctx, s.other.ID, order.ID, 5, "")
	s.requireCode(err, utils.CodePermissionDenied)
	_, err = RateOrder(s.ctx, s.customer.ID, order.ID, 6, "")
	s.requireCode(err, utils.CodeInvalidArgument)

	rated, err := RateOrder(s.ctx, s.customer.ID, order.ID, 4, "Hot and crispy")
	s.Require().NoError(err)
	s.Equal(4, rated.Rating)
	s.NotNil(rated.RatedAt)

	_, err = RateOrder(s.ctx, s.customer.ID, order.ID, 5, "")
	s.requireCode(err, utils.CodeFailedPrecondition)
}

func (s *ServiceSuite) TestGetOrderAccess() {
	order := s.pickupOrder(models.PaymentMethodCash)

	_, err := GetOrder(s.ctx, s.customerActor(), order.ID)
	s.NoError(err)
	_, err = GetOrder(s.ctx, s.adminActor(), order.ID)
	s.NoError(err)
	_, err = GetOrder(s.ctx, Actor{UserID: s.other.ID, Role: models.RoleCustomer}, order.ID)
	s.requireCode(err, utils.CodePermissionDenied)
	_, err = GetOrder(s.ctx, s.delivererActor(), order.ID)
	s.requireCode(err, utils.CodePermissionDenied)

	s.Require().NoError(initializers.DB.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", models.OrderStatusConfirmed).Error)
	_, err = AssignDeliverer(s.ctx, s.adminActor(), order.ID, s.deliverer.ID)
	s.Require().NoError(err)
	_, err = GetOrder(s.ctx, s.delivererActor(), order.ID)
	s.NoError(err)
}

func (s *ServiceSuite) TestAssignDelivererRequiresConfirmedOrder() {
	order := s.pickupOrder(models.PaymentMethodCash)

	_, err := AssignDeliverer(s.ctx, s.adminActor(), order.ID, s.deliverer.ID)
	s.requireCode(err, utils.CodeFailedPrecondition)

	s.Require().NoError(initializers.DB.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", models.OrderStatusPreparing).Error)
	_, err = AssignDeliverer(s.ctx, s.adminActor(), order.ID, s.other.ID)
	s.requireCode(err, utils.CodeFailedPrecondition)

	assigned, err := AssignDeliverer(s.ctx, s.adminActor(), order.ID, s.deliverer.ID)
	s.Require().NoError(err)
	s.Require().NotNil(assigned.DelivererID)
	s.Equal(s.deliverer.ID, *assigned.DelivererID)

	onRoute, err := UpdateOrderStatus(s.ctx, s.adminActor(), order.ID, UpdateStatusRequest{Status: models.OrderStatusOnRoute})
	s.Require().NoError(err)
	s.Equal(models.OrderStatusOnRoute, onRoute.Status)
}

func (s *ServiceSuite) TestListOrders() {
	first := s.pickupOrder(models.PaymentMethodCash)
	second := s.pickupOrder(models.PaymentMethodCard)
	_, err := CancelOrder(s.ctx, s.customerActor(), first.ID, "")
	s.Require().NoError(err)

	orders, err := ListOrders(s.ctx, s.customer.ID, "")
	s.Require().NoError(err)
	s.Require().Len(orders, 2)
	s.Equal(second.ID, orders[0].ID)

	orders, err = ListOrders(s.ctx, s.customer.ID, string(models.OrderStatusCancelled))
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal(first.ID, orders[0].ID)

	page, total, err := ListAllOrders(s.ctx, OrderFilter{Page: Page{Page: 2, Limit: 1}})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(page, 1)
	s.Equal(first.ID, page[0].ID)
}

func (s *ServiceSuite) TestUpdateOrderNotes() {
	order := s.pickupOrder(models.PaymentMethodCash)

	updated, err := UpdateOrderNotes(s.ctx, s.customer.ID, order.ID, "Ring twice")
	s.Require().NoError(err)
	s.Equal("Ring twice", updated.Notes)

	_, err = UpdateOrderNotes(s.ctx, s.other.ID, order.ID, "hack")
	s.requireCode(err, utils.CodePermissionDenied)
}
