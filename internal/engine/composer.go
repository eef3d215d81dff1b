package engine

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/anyulbade/stay-tax-engine/internal/model"
)

// Compose assembles the result for ctx and verifies its totals.
func Compose(ctx model.CalculationContext, items []model.TaxLineItem, categories map[model.Category]model.CategoryTotal) (*model.CalculationResult, error) {
	totalTax := decimal.Zero
	for _, item := range items {
		totalTax = totalTax.Add(item.TaxAmount)
	}

	result := &model.CalculationResult{
		BaseAmount:        ctx.BaseAmount,
		Currency:          ctx.Currency,
		Precision:         ctx.Precision(),
		TaxBreakdown:      items,
		CategoryBreakdown: categories,
		TotalTaxAmount:    totalTax,
		TotalAmount:       ctx.BaseAmount.Add(totalTax),
	}

	if err := Verify(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Verify re-derives every total of r from its parts and compares them
// exactly. It never corrects a result.
func Verify(r *model.CalculationResult) error {
	lineSum := decimal.Zero
	for _, item := range r.TaxBreakdown {
		lineSum = lineSum.Add(item.TaxAmount)
	}
	if !r.TotalTaxAmount.Equal(lineSum) {
		return &ConsistencyError{Check: "totalTaxAmount equals sum of line items", Expected: lineSum.String(), Actual: r.TotalTaxAmount.String()}
	}

	expectedTotal := r.BaseAmount.Add(r.TotalTaxAmount)
	if !r.TotalAmount.Equal(expectedTotal) {
		return &ConsistencyError{Check: "totalAmount equals base plus tax", Expected: expectedTotal.String(), Actual: r.TotalAmount.String()}
	}

	categorySum := decimal.Zero
	categorized := 0
	for _, ct := range r.CategoryBreakdown {
		itemSum := decimal.Zero
		for _, item := range ct.Items {
			itemSum = itemSum.Add(item.TaxAmount)
		}
		if !ct.TotalAmount.Equal(itemSum) {
			return &ConsistencyError{Check: "category " + string(ct.Category) + " total equals its items", Expected: itemSum.String(), Actual: ct.TotalAmount.String()}
		}
		categorySum = categorySum.Add(ct.TotalAmount)
		categorized += len(ct.Items)
	}
	if categorized != len(r.TaxBreakdown) {
		return &ConsistencyError{Check: "every line item belongs to one category", Expected: strconv.Itoa(len(r.TaxBreakdown)), Actual: strconv.Itoa(categorized)}
	}
	if !categorySum.Equal(r.TotalTaxAmount) {
		return &ConsistencyError{Check: "category totals equal totalTaxAmount", Expected: r.TotalTaxAmount.String(), Actual: categorySum.String()}
	}

	return nil
}
