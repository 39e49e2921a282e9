package services

import (
	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
)

const menuYAML = `
toppings:
  - name: Extra cheese
    price: 600
  - name: Chorizo
    price: 800
    isAvailable: false
pizzas:
  - name: Margherita
    description: Tomate, mozzarella, basilic
    category: classic
    sizes:
      medium: 5500
      large: 7500
  - name: Attiéké Poulet
    category: speciale
    sizes:
      small: 4000
      medium: 6500
promotions:
  - code: bienvenue
    discountType: percentage
    discountValue: 10
    maxDiscount: 2000
    validFrom: 2026-01-01
    validUntil: 2026-12-31
`

func (s *ServiceSuite) TestSeedMenuUpserts() {
	seed, err := ParseMenuSeed([]byte(menuYAML))
	s.Require().NoError(err)

	result, err := SeedMenu(s.ctx, seed)
	s.Require().NoError(err)
	s.Equal(&SeedResult{Toppings: 2, Pizzas: 2, Promotions: 1}, result)

	var cheese models.Topping
	s.Require().NoError(initializers.DB.Where("name = ?", "Extra cheese").First(&cheese).Error)
	s.Equal(s.cheese.ID, cheese.ID)
	s.Equal(int64(600), cheese.Price)

	var chorizo models.Topping
	s.Require().NoError(initializers.DB.Where("name = ?", "Chorizo").First(&chorizo).Error)
	s.False(chorizo.IsAvailable)

	var margherita models.Pizza
	s.Require().NoError(initializers.DB.Preload("Sizes").First(&margherita, s.margherita.ID).Error)
	s.Len(margherita.Sizes, 2)
	_, hasSmall := margherita.PriceFor(models.SizeSmall)
	s.False(hasSmall)
	price, _ := margherita.PriceFor(models.SizeMedium)
	s.Equal(int64(5500), price)

	var promo models.Promotion
	s.Require().NoError(initializers.DB.Where("code = ?", "BIENVENUE").First(&promo).Error)
	s.True(promo.IsActive)
	s.Equal(2026, promo.ValidUntil.Year())
}

func (s *ServiceSuite) TestSeedMenuKeepsExistingPromotionUsage() {
	s.createPromotion("BIENVENUE", models.DiscountFixed, 500, func(p *models.Promotion) { p.UsageCount = 7 })

	seed, err := ParseMenuSeed([]byte(menuYAML))
	s.Require().NoError(err)
	result, err := SeedMenu(s.ctx, seed)
	s.Require().NoError(err)
	s.Equal(0, result.Promotions)

	var promo models.Promotion
	s.Require().NoError(initializers.DB.Where("code = ?", "BIENVENUE").First(&promo).Error)
	s.Equal(7, promo.UsageCount)
	s.Equal(models.DiscountFixed, promo.DiscountType)
}

func (s *ServiceSuite) TestSeedMenuRejectsUnknownSize() {
	seed, err := ParseMenuSeed([]byte(`
pizzas:
  - name: Calzone
    category: classic
    sizes:
      xl: 9000
`))
	s.Require().NoError(err)

	_, err = SeedMenu(s.ctx, seed)
	s.requireCode(err, utils.CodeInvalidArgument)

	var count int64
	s.Require().NoError(initializers.DB.Model(&models.Pizza{}).Where("name = ?", "Calzone").Count(&count).Error)
	s.Zero(count)
}
