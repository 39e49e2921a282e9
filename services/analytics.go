package services

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

// DailyAnalytics aggregates the orders created on day and upserts the row for
// that date.
func DailyAnalytics(ctx context.Context, day time.Time) (*models.DailyAnalytics, error) {
	start, end := dayBounds(day)

	var orders []models.Order
	if err := db(ctx).Preload("Items").
		Where("created_at >= ? AND created_at < ?", start, end).
		Find(&orders).Error; err != nil {
		return nil, utils.Internal("Failed to load orders", err)
	}

	report := models.DailyAnalytics{Date: start.Format(dateLayout)}
	byMethod := map[string]int{}
	pizzaQuantities := map[string]int{}
	var billable int64

	for _, order := range orders {
		report.TotalOrders++
		byMethod[order.Payment.Method]++
		switch order.Status {
		case models.OrderStatusCancelled:
			report.CancelledOrders++
			continue
		case models.OrderStatusDelivered:
			report.DeliveredOrders++
		}
		report.Revenue += order.Total
		billable++
		for _, item := range order.Items {
			pizzaQuantities[item.Name] += item.Quantity
		}
	}
	if billable > 0 {
		report.AverageOrderValue = report.Revenue / billable
	}

	var newUsers int64
	if err := db(ctx).Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&newUsers).Error; err != nil {
		return nil, utils.Internal("Failed to count new users", err)
	}
	report.NewUsers = int(newUsers)

	methodJSON, _ := json.Marshal(byMethod)
	topJSON, _ := json.Marshal(topPizzas(pizzaQuantities, 5))
	report.ByPaymentMethod = datatypes.JSON(methodJSON)
	report.TopPizzas = datatypes.JSON(topJSON)

	if err := db(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_orders", "delivered_orders", "cancelled_orders", "revenue",
			"average_order_value", "new_users", "by_payment_method", "top_pizzas", "updated_at",
		}),
	}).Create(&report).Error; err != nil {
		return nil, utils.Internal("Failed to store analytics", err)
	}

	var stored models.DailyAnalytics
	if err := db(ctx).Where("date = ?", report.Date).First(&stored).Error; err != nil {
		return nil, utils.Internal("Failed to reload analytics", err)
	}
	return &stored, nil
}

func topPizzas(quantities map[string]int, limit int) []models.PizzaSales {
	sales := make([]models.PizzaSales, 0, len(quantities))
	for name, quantity := range quantities {
		sales = append(sales, models.PizzaSales{Name: name, Quantity: quantity})
	}
	sort.Slice(sales, func(i, j int) bool {
		if sales[i].Quantity != sales[j].Quantity {
			return sales[i].Quantity > sales[j].Quantity
		}
		return sales[i].Name < sales[j].Name
	})
	if len(sales) > limit {
		sales = sales[:limit]
	}
	return sales
}

func ListAnalytics(ctx context.Context, from, to string) ([]models.DailyAnalytics, error) {
	var days []models.DailyAnalytics
	query := db(ctx).Order("date desc")
	if from != "" {
		query = query.Where("date >= ?", from)
	}
	if to != "" {
		query = query.Where("date <= ?", to)
	}
	if err := query.Limit(366).Find(&days).Error; err != nil {
		return nil, utils.Internal("Failed to fetch analytics", err)
	}
	return days, nil
}

type Dashboard struct {
	Date                string                       `json:"date"`
	OrdersByStatus      map[models.OrderStatus]int64 `json:"ordersByStatus"`
	TotalOrders         int64                        `json:"totalOrders"`
	Revenue             int64                        `json:"revenue"`
	PendingOrders       []models.Order               `json:"pendingOrders"`
	AvailableDeliverers []models.User                `json:"availableDeliverers"`
}

func GetDashboard(ctx context.Context, at time.Time) (*Dashboard, error) {
	start, end := dayBounds(at)
	dashboard := &Dashboard{Date: start.Format(dateLayout), OrdersByStatus: map[models.OrderStatus]int64{}}

	var rows []struct {
		Status models.OrderStatus
		Count  int64
		Total  int64
	}
	if err := db(ctx).Model(&models.Order{}).
		Select("status, count(*) as count, coalesce(sum(total), 0) as total").
		Where("created_at >= ? AND created_at < ?", start, end).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, utils.Internal("Failed to aggregate orders", err)
	}
	for _, row := range rows {
		dashboard.OrdersByStatus[row.Status] = row.Count
		dashboard.TotalOrders += row.Count
		if row.Status != models.OrderStatusCancelled {
			dashboard.Revenue += row.Total
		}
	}

	if err := db(ctx).Preload("Items").
		Where("status = ?", models.OrderStatusPending).
		Order("created_at asc").Limit(20).
		Find(&dashboard.PendingOrders).Error; err != nil {
		return nil, utils.Internal("Failed to fetch pending orders", err)
	}

	deliverers, err := ListDeliverers(ctx, true)
	if err != nil {
		return nil, err
	}
	dashboard.AvailableDeliverers = deliverers
	return dashboard, nil
}
