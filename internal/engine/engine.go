// Package engine computes taxes and fees for a booking from an immutable rule
// snapshot. Everything in it is a pure function of its arguments, so any
// number of evaluations may run concurrently against the same rules.
package engine

import (
	"github.com/anyulbade/stay-tax-engine/internal/model"
)

// Evaluate runs the full pipeline: context validation, applicability
// resolution, compounding sequence, per-rule amounts, category aggregation
// and the closing totals check.
//
// Invalid rules are excluded and listed in the result's Rejected field. The
// returned error is one of ErrInvalidContext, ErrInvalidRuleDefinition (a rule
// that cannot be charged at all) or ErrInternalConsistency.
func Evaluate(rules []model.TaxRule, ctx model.CalculationContext) (*model.CalculationResult, error) {
	if err := ValidateContext(ctx); err != nil {
		return nil, err
	}

	applicable, rejected := Resolve(rules, ctx)

	items, err := Sequence(applicable).Run(ctx)
	if err != nil {
		return nil, err
	}

	result, err := Compose(ctx, items, Aggregate(items))
	if err != nil {
		return nil, err
	}

	for _, r := range rejected {
		result.Rejected = append(result.Rejected, model.RejectedRule{RuleID: r.RuleID, Reason: r.Reason})
	}
	return result, nil
}
