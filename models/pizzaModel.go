package models

import "gorm.io/gorm"

const (
	CategoryClassic    = "classic"
	CategorySpeciale   = "speciale"
	CategoryVegetarian = "vegetarian"
	CategoryDessert    = "dessert"
	CategoryDrink      = "drink"
)

const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
)

type PizzaSize struct {
	gorm.Model
	PizzaID uint   `json:"pizzaId" gorm:"index"`
	Size    string `json:"size" binding:"required,oneof=small medium large"`
	Price   int64  `json:"price" binding:"required,gt=0"`
}

type Pizza struct {
	gorm.Model
	Name        string      `json:"name" binding:"required"`
	Description string      `json:"description"`
	Category    string      `json:"category" binding:"required,oneof=classic speciale vegetarian dessert drink" gorm:"index"`
	ImageURL    string      `json:"imageUrl"`
	IsAvailable bool        `json:"isAvailable" gorm:"default:true"`
	Sizes       []PizzaSize `json:"sizes" binding:"required,min=1,dive" gorm:"foreignKey:PizzaID;constraint:OnDelete:CASCADE"`
}

// PriceFor returns the price of the given size, if the pizza offers it.
func (p *Pizza) PriceFor(size string) (int64, bool) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Price, true
		}
	}
	return 0, false
}

type Topping struct {
	gorm.Model
	Name        string `json:"name" binding:"required" gorm:"uniqueIndex;size:100"`
	Price       int64  `json:"price" binding:"gte=0"`
	IsAvailable bool   `json:"isAvailable" gorm:"default:true"`
}
