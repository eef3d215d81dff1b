package engine

import (
	"github.com/shopspring/decimal"

	"github.com/anyulbade/stay-tax-engine/internal/model"
)

// Aggregate partitions line items by category. Items keep their evaluation
// order within a category.
func Aggregate(items []model.TaxLineItem) map[model.Category]model.CategoryTotal {
	totals := make(map[model.Category]model.CategoryTotal)

	for _, item := range items {
		ct, ok := totals[item.Category]
		if !ok {
			ct = model.CategoryTotal{Category: item.Category, TotalAmount: decimal.Zero}
		}
		ct.Items = append(ct.Items, item)
		ct.TotalAmount = ct.TotalAmount.Add(item.TaxAmount)
		totals[item.Category] = ct
	}

	return totals
}
