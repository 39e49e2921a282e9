package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusOnRoute   OrderStatus = "on_route"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusOnRoute, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

const (
	PaymentMethodCard        = "card"
	PaymentMethodPayPal      = "paypal"
	PaymentMethodMobileMoney = "mobile_money"
	PaymentMethodCash        = "cash"
)

const (
	ProviderStripe   = "stripe"
	ProviderPayPal   = "paypal"
	ProviderCinetPay = "cinetpay"
	ProviderCash     = "cash"
)

const (
	DeliveryTypeDelivery = "delivery"
	DeliveryTypePickup   = "pickup"
)

// ProviderForMethod returns the payment provider that settles a payment method.
func ProviderForMethod(method string) string {
	switch method {
	case PaymentMethodCard:
		return ProviderStripe
	case PaymentMethodPayPal:
		return ProviderPayPal
	case PaymentMethodMobileMoney:
		return ProviderCinetPay
	default:
		return ProviderCash
	}
}

type DeliveryAddress struct {
	Label        string  `json:"label"`
	Street       string  `json:"street"`
	City         string  `json:"city"`
	District     string  `json:"district"`
	Phone        string  `json:"phone"`
	Instructions string  `json:"instructions"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type Payment struct {
	Method        string        `json:"method" gorm:"size:20"`
	Provider      string        `json:"provider" gorm:"size:20"`
	Status        PaymentStatus `json:"status" gorm:"size:20;index"`
	Reference     string        `json:"reference" gorm:"size:191;index"`
	Operator      string        `json:"operator,omitempty" gorm:"size:20"`
	Phone         string        `json:"phone,omitempty"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
	FailureReason string        `json:"failureReason,omitempty"`
}

type Order struct {
	gorm.Model
	OrderNumber          string          `json:"orderNumber" gorm:"uniqueIndex;size:32"`
	UserID               uint            `json:"userId" gorm:"index"`
	Items                []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	DeliveryType         string          `json:"deliveryType" gorm:"size:20"`
	DeliveryAddress      DeliveryAddress `json:"deliveryAddress" gorm:"embedded;embeddedPrefix:address_"`
	Subtotal             int64           `json:"subtotal"`
	Discount             int64           `json:"discount"`
	LoyaltyDiscount      int64           `json:"loyaltyDiscount"`
	DeliveryFee          int64           `json:"deliveryFee"`
	Tax                  int64           `json:"tax"`
	Total                int64           `json:"total"`
	PromoCode            string          `json:"promoCode,omitempty" gorm:"size:50"`
	LoyaltyPointsUsed    int64           `json:"loyaltyPointsUsed"`
	Status               OrderStatus     `json:"status" gorm:"size:20;index;default:pending"`
	Payment              Payment         `json:"payment" gorm:"embedded;embeddedPrefix:payment_"`
	DelivererID          *uint           `json:"delivererId,omitempty" gorm:"index"`
	Notes                string          `json:"notes"`
	CancelReason         string          `json:"cancelReason,omitempty"`
	Rating               int             `json:"rating,omitempty"`
	RatingComment        string          `json:"ratingComment,omitempty"`
	RatedAt              *time.Time      `json:"ratedAt,omitempty"`
	LoyaltyPointsAwarded int64           `json:"loyaltyPointsAwarded"`
	ConfirmedAt          *time.Time      `json:"confirmedAt,omitempty"`
	PreparingAt          *time.Time      `json:"preparingAt,omitempty"`
	OnRouteAt            *time.Time      `json:"onRouteAt,omitempty"`
	DeliveredAt          *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt          *time.Time      `json:"cancelledAt,omitempty"`
}

type OrderItem struct {
	gorm.Model
	OrderID   uint           `json:"orderId" gorm:"index"`
	PizzaID   uint           `json:"pizzaId"`
	Name      string         `json:"name"`
	Size      string         `json:"size"`
	Quantity  int            `json:"quantity"`
	UnitPrice int64          `json:"unitPrice"`
	Toppings  datatypes.JSON `json:"toppings"`
	Notes     string         `json:"notes"`
	LineTotal int64          `json:"lineTotal"`
}

type OrderStatusHistory struct {
	gorm.Model
	OrderID    uint        `json:"orderId" gorm:"index"`
	FromStatus OrderStatus `json:"fromStatus" gorm:"size:20"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"size:20"`
	ChangedBy  uint        `json:"changedBy"`
	Note       string      `json:"note"`
}
