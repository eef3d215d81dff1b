package engine

import (
	"strings"

	"github.com/anyulbade/stay-tax-engine/internal/model"
)

// Resolve returns the rules whose every predicate holds for ctx, in input order.
// Rules that fail validation are excluded and reported separately so callers
// can tell "not applicable" from "rejected".
func Resolve(rules []model.TaxRule, ctx model.CalculationContext) ([]model.TaxRule, []*RuleError) {
	var (
		applicable []model.TaxRule
		rejected   []*RuleError
	)

	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			rejected = append(rejected, &RuleError{RuleID: rule.ID, Reason: err.Error()})
			continue
		}
		if Applies(rule.Applicability, ctx) {
			applicable = append(applicable, rule)
		}
	}

	return applicable, rejected
}

// Applies evaluates the predicate conjunction of a single rule.
func Applies(a model.Applicability, ctx model.CalculationContext) bool {
	if !allowed(a.RoomTypeIDs, ctx.RoomTypeID, strings.EqualFold) {
		return false
	}
	if !allowed(a.Channels, ctx.Channel, strings.EqualFold) {
		return false
	}
	if !allowed(a.GuestTypes, ctx.GuestType, strings.EqualFold) {
		return false
	}
	if !allowed(a.GuestCountries, ctx.GuestCountry, strings.EqualFold) {
		return false
	}

	// [EffectiveFrom, EffectiveTo)
	if a.EffectiveFrom != nil && ctx.CheckInDate.Before(*a.EffectiveFrom) {
		return false
	}
	if a.EffectiveTo != nil && !ctx.CheckInDate.Before(*a.EffectiveTo) {
		return false
	}

	if a.MinBaseAmount != nil && ctx.BaseAmount.LessThan(*a.MinBaseAmount) {
		return false
	}
	if a.MaxBaseAmount != nil && ctx.BaseAmount.GreaterThan(*a.MaxBaseAmount) {
		return false
	}
	return true
}

// allowed treats an empty list as unrestricted. An absent value only passes an
// unrestricted list.
func allowed(list []string, value string, eq func(a, b string) bool) bool {
	if len(list) == 0 {
		return true
	}
	if value == "" {
		return false
	}
	for _, v := range list {
		if eq(v, value) {
			return true
		}
	}
	return false
}
