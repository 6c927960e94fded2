package categorize

import "github.com/Veraticus/spice-insights/internal/model"

// DefaultKeywords returns the seed keyword sets for each category.
// Other has no keywords; it is the fallback.
func DefaultKeywords() map[model.Category][]string {
	return map[model.Category][]string{
		model.CategoryGroceries: {
			"grocery", "supermarket", "whole foods", "trader joe", "safeway",
			"kroger", "walmart", "costco", "market",
		},
		model.CategoryRestaurants: {
			"restaurant", "cafe", "coffee", "pizza", "burger", "dining",
			"food delivery", "doordash", "ubereats", "grubhub",
		},
		model.CategoryUtilities: {
			"electric", "water", "gas", "internet", "phone", "utility",
			"verizon", "at&t", "comcast",
		},
		model.CategoryTransportation: {
			"uber", "lyft", "taxi", "gas station", "parking", "transit",
			"airline", "hotel", "airbnb",
		},
		model.CategoryShopping: {
			"amazon", "target", "mall", "store", "shop", "retail", "clothing",
			"apparel", "ebay", "etsy",
		},
		model.CategoryEntertainment: {
			"movie", "cinema", "netflix", "spotify", "gaming", "concert",
			"theater", "hulu", "disney", "youtube",
		},
		model.CategoryHealthcare: {
			"pharmacy", "doctor", "hospital", "clinic", "dental", "medical",
			"cvs", "walgreens", "health",
		},
		model.CategorySalary: {
			"payroll", "salary", "wage", "employer", "direct deposit",
		},
		model.CategoryTransfer: {
			"transfer", "payment", "wire", "atm", "cash withdrawal",
		},
		model.CategoryInsurance: {
			"insurance", "premium", "geico", "state farm", "allstate",
		},
		model.CategorySubscription: {
			"subscription", "membership", "recurring", "annual", "monthly",
		},
	}
}
