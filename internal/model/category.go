package model

import "strings"

// Category is one label of the fixed spending taxonomy.
type Category string

// Taxonomy, in declaration order. Earlier categories win when keywords overlap.
const (
	CategoryGroceries      Category = "Groceries"
	CategoryRestaurants    Category = "Restaurants"
	CategoryUtilities      Category = "Utilities"
	CategoryTransportation Category = "Transportation"
	CategoryShopping       Category = "Shopping"
	CategoryEntertainment  Category = "Entertainment"
	CategoryHealthcare     Category = "Healthcare"
	CategorySalary         Category = "Salary"
	CategoryTransfer       Category = "Transfer"
	CategoryInsurance      Category = "Insurance"
	CategorySubscription   Category = "Subscription"
	CategoryOther          Category = "Other"
)

var categoryOrder = []Category{
	CategoryGroceries,
	CategoryRestaurants,
	CategoryUtilities,
	CategoryTransportation,
	CategoryShopping,
	CategoryEntertainment,
	CategoryHealthcare,
	CategorySalary,
	CategoryTransfer,
	CategoryInsurance,
	CategorySubscription,
	CategoryOther,
}

// Categories returns the taxonomy in its fixed evaluation order, Other last.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// IsValid reports whether c belongs to the taxonomy.
func (c Category) IsValid() bool {
	for _, known := range categoryOrder {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, known := range categoryOrder {
		if strings.EqualFold(string(known), name) {
			return known, true
		}
	}
	return "", false
}
