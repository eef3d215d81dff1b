package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/anyulbade/stay-tax-engine/internal/model"
)

// Plan is the evaluation order for a set of applicable rules.
type Plan struct {
	Simple   []model.TaxRule // rule store order
	Compound []model.TaxRule // ascending compound order, then rule id
}

// Sequence partitions applicable rules into simple and compound chains.
// The input slice is not modified.
func Sequence(applicable []model.TaxRule) Plan {
	var plan Plan
	for _, r := range applicable {
		if r.IsCompound {
			plan.Compound = append(plan.Compound, r)
		} else {
			plan.Simple = append(plan.Simple, r)
		}
	}

	sort.SliceStable(plan.Compound, func(i, j int) bool {
		a, b := plan.Compound[i], plan.Compound[j]
		if *a.CompoundOrder != *b.CompoundOrder {
			return *a.CompoundOrder < *b.CompoundOrder
		}
		return a.ID < b.ID
	})

	return plan
}

// Run evaluates the plan. Simple rules are charged on the original base.
// Compound rules are charged on the base plus every compound amount already
// charged; simple amounts never enter that running base, so adding or
// removing a simple rule leaves compound amounts unchanged.
func (p Plan) Run(ctx model.CalculationContext) ([]model.TaxLineItem, error) {
	items := make([]model.TaxLineItem, 0, len(p.Simple)+len(p.Compound))

	for _, rule := range p.Simple {
		amount, err := Calculate(rule, ctx.BaseAmount, ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, newLineItem(rule, ctx.BaseAmount, amount))
	}

	running := ctx.BaseAmount
	for _, rule := range p.Compound {
		amount, err := Calculate(rule, running, ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, newLineItem(rule, running, amount))
		running = running.Add(amount)
	}

	return items, nil
}

func newLineItem(rule model.TaxRule, base, amount decimal.Decimal) model.TaxLineItem {
	item := model.TaxLineItem{
		RuleID:         rule.ID,
		RuleName:       rule.Name,
		Category:       rule.Category,
		BaseAmountUsed: base,
		TaxAmount:      amount,
		IsCompound:     rule.IsCompound,
	}
	if rule.CompoundOrder != nil {
		order := *rule.CompoundOrder
		item.CompoundOrder = &order
	}

	switch c := rule.Charge.(type) {
	case model.PercentageCharge:
		rate := c.Rate
		item.IsPercentage = true
		item.Rate = &rate
	case model.FixedCharge:
		fixed := c.Amount
		item.FixedAmount = &fixed
		item.CalculationMethod = c.Method
	}
	return item
}
