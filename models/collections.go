package models

// Collections maps the document collection names used by clients to tables.
var Collections = map[string]string{
	"users":               "users",
	"pizzas":              "pizzas",
	"orders":              "orders",
	"addresses":           "addresses",
	"promotions":          "promotions",
	"notifications":       "notifications",
	"loyaltyTransactions": "loyalty_transactions",
}

const (
	RoleCustomer  = "customer"
	RoleAdmin     = "admin"
	RoleDeliverer = "deliverer"
)

func IsValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleAdmin, RoleDeliverer:
		return true
	}
	return false
}
