package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CartItem struct {
	PizzaID    uint   `json:"pizzaId" binding:"required"`
	Size       string `json:"size" binding:"required,oneof=small medium large"`
	Quantity   int    `json:"quantity" binding:"required"`
	ToppingIDs []uint `json:"toppingIds"`
	Notes      string `json:"notes" binding:"max=200"`
}

type QuoteRequest struct {
	Items                 []CartItem `json:"items" binding:"required,min=1,dive"`
	PromoCode             string     `json:"promoCode"`
	LoyaltyPointsToRedeem int64      `json:"loyaltyPointsToRedeem" binding:"gte=0"`
	DeliveryType          string     `json:"deliveryType" binding:"omitempty,oneof=delivery pickup"`
}

type Quote struct {
	Items             []models.OrderItem `json:"items"`
	Subtotal          int64              `json:"subtotal"`
	Discount          int64              `json:"discount"`
	LoyaltyDiscount   int64              `json:"loyaltyDiscount"`
	DeliveryFee       int64              `json:"deliveryFee"`
	Tax               int64              `json:"tax"`
	Total             int64              `json:"total"`
	PromoCode         string             `json:"promoCode,omitempty"`
	LoyaltyPointsUsed int64              `json:"loyaltyPointsUsed"`
	promotion         *models.Promotion
	user              *models.User
}

// QuoteCart prices a cart against the current menu, promotions and the caller's
// loyalty balance.
func QuoteCart(ctx context.Context, userID uint, req QuoteRequest) (*Quote, error) {
	return quoteCart(db(ctx), userID, req, now(), false)
}

// quoteCart prices the cart on tx. With lock set, the promotion and the user rows
// are read FOR UPDATE so the caller can redeem them.
func quoteCart(tx *gorm.DB, userID uint, req QuoteRequest, at time.Time, lock bool) (*Quote, error) {
	if len(req.Items) == 0 {
		return nil, utils.InvalidArgument("Cart is empty")
	}
	read := func() *gorm.DB {
		if lock {
			return forUpdate(tx)
		}
		return tx
	}

	pricing := initializers.Config.Pricing
	quote := &Quote{}

	for _, item := range req.Items {
		line, err := priceItem(tx, item, pricing.MaxItemQuantity)
		if err != nil {
			return nil, err
		}
		quote.Items = append(quote.Items, *line)
		quote.Subtotal += line.LineTotal
	}

	if code := normalizeCode(req.PromoCode); code != "" {
		var promo models.Promotion
		if err := read().Where("code = ?", code).First(&promo).Error; err != nil {
			return nil, notFoundOr(err, "Promo code")
		}
		if err := checkPromotion(&promo, quote.Subtotal, at); err != nil {
			return nil, err
		}
		quote.Discount = promotionDiscount(&promo, quote.Subtotal)
		quote.PromoCode = promo.Code
		quote.promotion = &promo
	}

	afterDiscount := quote.Subtotal - quote.Discount
	if req.DeliveryType != models.DeliveryTypePickup && afterDiscount < pricing.FreeDeliveryThreshold {
		quote.DeliveryFee = pricing.DeliveryFee
	}

	if req.LoyaltyPointsToRedeem > 0 {
		if userID == 0 {
			return nil, utils.Unauthenticated("Sign in to redeem loyalty points")
		}
		var user models.User
		if err := read().First(&user, userID).Error; err != nil {
			return nil, notFoundOr(err, "User")
		}
		if req.LoyaltyPointsToRedeem > user.LoyaltyPoints {
			return nil, utils.FailedPrecondition("Insufficient loyalty points: %d available", user.LoyaltyPoints)
		}
		points, discount := loyaltyRedemption(req.LoyaltyPointsToRedeem, initializers.Config.Loyalty.PointValue, afterDiscount)
		quote.LoyaltyPointsUsed = points
		quote.LoyaltyDiscount = discount
		quote.user = &user
	}

	taxable := afterDiscount - quote.LoyaltyDiscount
	quote.Tax = roundFCFA(decimal.NewFromInt(taxable).Mul(decimal.NewFromFloat(pricing.TaxRate)))
	quote.Total = taxable + quote.DeliveryFee + quote.Tax
	return quote, nil
}

func priceItem(tx *gorm.DB, item CartItem, maxQuantity int) (*models.OrderItem, error) {
	if item.Quantity < 1 || item.Quantity > maxQuantity {
		return nil, utils.InvalidArgument("Quantity must be between 1 and %d", maxQuantity)
	}

	var pizza models.Pizza
	if err := tx.Preload("Sizes").First(&pizza, item.PizzaID).Error; err != nil {
		return nil, notFoundOr(err, "Pizza")
	}
	if !pizza.IsAvailable {
		return nil, utils.FailedPrecondition("%s is not available", pizza.Name)
	}
	unitPrice, ok := pizza.PriceFor(item.Size)
	if !ok {
		return nil, utils.FailedPrecondition("%s is not offered in size %s", pizza.Name, item.Size)
	}

	names := []string{}
	if len(item.ToppingIDs) > 0 {
		var toppings []models.Topping
		if err := tx.Where("id IN ?", item.ToppingIDs).Find(&toppings).Error; err != nil {
			return nil, utils.Internal("Failed to load toppings", err)
		}
		byID := make(map[uint]models.Topping, len(toppings))
		for _, topping := range toppings {
			byID[topping.ID] = topping
		}
		for _, id := range item.ToppingIDs {
			topping, found := byID[id]
			if !found {
				return nil, utils.NotFound("Topping %d not found", id)
			}
			if !topping.IsAvailable {
				return nil, utils.FailedPrecondition("Topping %s is not available", topping.Name)
			}
			unitPrice += topping.Price
			names = append(names, topping.Name)
		}
	}
	toppingsJSON, _ := json.Marshal(names)

	return &models.OrderItem{
		PizzaID:   pizza.ID,
		Name:      pizza.Name,
		Size:      item.Size,
		Quantity:  item.Quantity,
		UnitPrice: unitPrice,
		Toppings:  datatypes.JSON(toppingsJSON),
		Notes:     item.Notes,
		LineTotal: unitPrice * int64(item.Quantity),
	}, nil
}

// loyaltyRedemption converts points into a discount no larger than limit. Points
// that would exceed the limit are not spent.
func loyaltyRedemption(points, pointValue, limit int64) (int64, int64) {
	if points <= 0 || pointValue <= 0 || limit <= 0 {
		return 0, 0
	}
	if points*pointValue > limit {
		points = limit / pointValue
	}
	return points, points * pointValue
}

func roundFCFA(amount decimal.Decimal) int64 {
	return amount.Round(0).IntPart()
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
