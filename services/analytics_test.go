package services

import (
	"encoding/json"
	"time"

	"github.com/Kariqs/pizzaking-api/models"
)

func (s *ServiceSuite) TestDailyAnalyticsAggregatesAndUpserts() {
	cash := s.pickupOrder(models.PaymentMethodCash)
	s.pickupOrder(models.PaymentMethodCard)
	cancelled := s.pickupOrder(models.PaymentMethodCash)
	_, err := CancelOrder(s.ctx, s.customerActor(), cancelled.ID, "")
	s.Require().NoError(err)
	_, err = CreateOrder(s.ctx, s.other.ID, CreateOrderRequest{
		Items:         []CartItem{{PizzaID: s.reine.ID, Size: models.SizeMedium, Quantity: 1}},
		DeliveryType:  models.DeliveryTypePickup,
		PaymentMethod: models.PaymentMethodCash,
	})
	s.Require().NoError(err)

	report, err := DailyAnalytics(s.ctx, time.Now())
	s.Require().NoError(err)
	s.Equal(time.Now().Format("2006-01-02"), report.Date)
	s.Equal(4, report.TotalOrders)
	s.Equal(1, report.CancelledOrders)
	s.Zero(report.DeliveredOrders)
	s.Equal(int64(11000+11000+6000), report.Revenue)
	s.Equal(int64(28000/3), report.AverageOrderValue)
	s.Equal(4, report.NewUsers)

	var byMethod map[string]int
	s.Require().NoError(json.Unmarshal(report.ByPaymentMethod, &byMethod))
	s.Equal(map[string]int{models.PaymentMethodCash: 3, models.PaymentMethodCard: 1}, byMethod)

	var top []models.PizzaSales
	s.Require().NoError(json.Unmarshal(report.TopPizzas, &top))
	s.Equal([]models.PizzaSales{{Name: "Margherita", Quantity: 4}, {Name: "Reine", Quantity: 1}}, top)

	_, err = UpdateOrderStatus(s.ctx, s.adminActor(), cash.ID, UpdateStatusRequest{Status: models.OrderStatusConfirmed})
	s.Require().NoError(err)
	again, err := DailyAnalytics(s.ctx, time.Now())
	s.Require().NoError(err)
	s.Equal(report.ID, again.ID)

	days, err := ListAnalytics(s.ctx, "", "")
	s.Require().NoError(err)
	s.Len(days, 1)
}

func (s *ServiceSuite) TestDailyAnalyticsEmptyDay() {
	report, err := DailyAnalytics(s.ctx, time.Now().AddDate(0, 0, -7))
	s.Require().NoError(err)
	s.Zero(report.TotalOrders)
	s.Zero(report.AverageOrderValue)
	s.JSONEq(`[]`, string(report.TopPizzas))
}

func (s *ServiceSuite) TestDashboard() {
	s.pickupOrder(models.PaymentMethodCash)
	order := s.pickupOrder(models.PaymentMethodCash)
	_, err := UpdateOrderStatus(s.ctx, s.adminActor(), order.ID, UpdateStatusRequest{Status: models.OrderStatusConfirmed})
	s.Require().NoError(err)

	dashboard, err := GetDashboard(s.ctx, time.Now())
	s.Require().NoError(err)
	s.Equal(int64(2), dashboard.TotalOrders)
	s.Equal(int64(1), dashboard.OrdersByStatus[models.OrderStatusPending])
	s.Equal(int64(1), dashboard.OrdersByStatus[models.OrderStatusConfirmed])
	s.Equal(int64(22000), dashboard.Revenue)
	s.Len(dashboard.PendingOrders, 1)
	s.Require().Len(dashboard.AvailableDeliverers, 1)
	s.Equal(s.deliverer.ID, dashboard.AvailableDeliverers[0].ID)
}
