package model

import "strings"

// Category is the tax category a rule is reported under.
type Category string

const (
	CategoryVAT       Category = "VAT"
	CategoryGST       Category = "GST"
	CategoryService   Category = "service"
	CategoryLuxury    Category = "luxury"
	CategoryCity      Category = "city"
	CategoryTourism   Category = "tourism"
	CategoryOccupancy Category = "occupancy"
	CategoryResortFee Category = "resort-fee"
	CategoryFacility  Category = "facility"
	CategoryCustom    Category = "custom"
)

var categories = []Category{
	CategoryVAT,
	CategoryGST,
	CategoryService,
	CategoryLuxury,
	CategoryCity,
	CategoryTourism,
	CategoryOccupancy,
	CategoryResortFee,
	CategoryFacility,
	CategoryCustom,
}

// Categories returns the fixed category enumeration in declaration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory matches s against the enumeration, ignoring case.
func ParseCategory(s string) (Category, bool) {
	for _, c := range categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}
