package rulestore

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/anyulbade/stay-tax-engine/internal/engine"
	"github.com/anyulbade/stay-tax-engine/internal/model"
)

const dateLayout = "2006-01-02"

// Decode converts stored records into rules, in record order.
//
// Records whose values cannot be parsed at all (malformed decimals or dates,
// duplicate ids) are dropped. Records that parse but break a rule invariant
// are kept so the engine rejects them per evaluation, and are also reported
// here. Every problem is returned as a defect.
func Decode(records []model.TaxRuleRecord) ([]model.TaxRule, []*engine.RuleError) {
	var (
		rules   = make([]model.TaxRule, 0, len(records))
		defects []*engine.RuleError
		seen    = make(map[string]struct{}, len(records))
	)

	for _, rec := range records {
		id := strings.TrimSpace(rec.ID)
		if id != "" {
			if _, dup := seen[id]; dup {
				defects = append(defects, &engine.RuleError{RuleID: id, Reason: "duplicate rule id"})
				continue
			}
			seen[id] = struct{}{}
		}

		rule, err := decodeRecord(rec)
		if err != nil {
			defects = append(defects, &engine.RuleError{RuleID: id, Reason: err.Error()})
			continue
		}
		if err := rule.Validate(); err != nil {
			defects = append(defects, &engine.RuleError{RuleID: id, Reason: err.Error()})
		}
		rules = append(rules, rule)
	}

	return rules, defects
}

func decodeRecord(rec model.TaxRuleRecord) (model.TaxRule, error) {
	rule := model.TaxRule{
		ID:         strings.TrimSpace(rec.ID),
		Name:       strings.TrimSpace(rec.Name),
		IsCompound: rec.IsCompound,
	}

	if c, ok := model.ParseCategory(rec.Category); ok {
		rule.Category = c
	} else {
		rule.Category = model.Category(strings.TrimSpace(rec.Category))
	}

	if rec.CompoundOrder != nil {
		order := *rec.CompoundOrder
		rule.CompoundOrder = &order
	}

	charge, err := decodeCharge(rec)
	if err != nil {
		return model.TaxRule{}, err
	}
	rule.Charge = charge

	a := model.Applicability{
		RoomTypeIDs:    normalizeList(rec.RoomTypeIDs, nil),
		Channels:       normalizeList(rec.Channels, strings.ToLower),
		GuestTypes:     normalizeList(rec.GuestTypes, strings.ToLower),
		GuestCountries: normalizeList(rec.GuestCountries, strings.ToUpper),
	}
	if a.EffectiveFrom, err = parseDate("effectiveFrom", rec.EffectiveFrom); err != nil {
		return model.TaxRule{}, err
	}
	if a.EffectiveTo, err = parseDate("effectiveTo", rec.EffectiveTo); err != nil {
		return model.TaxRule{}, err
	}
	if a.MinBaseAmount, err = parseDecimal("minBaseAmount", rec.MinBaseAmount); err != nil {
		return model.TaxRule{}, err
	}
	if a.MaxBaseAmount, err = parseDecimal("maxBaseAmount", rec.MaxBaseAmount); err != nil {
		return model.TaxRule{}, err
	}
	rule.Applicability = a

	return rule, nil
}

// decodeCharge returns a nil charge when the record lacks the value its kind
// needs; Validate reports that as a missing charge definition.
func decodeCharge(rec model.TaxRuleRecord) (model.Charge, error) {
	if rec.IsPercentage {
		rate, err := parseDecimal("rate", rec.Rate)
		if err != nil || rate == nil {
			return nil, err
		}
		return model.PercentageCharge{Rate: *rate}, nil
	}

	amount, err := parseDecimal("fixedAmount", rec.FixedAmount)
	if err != nil || amount == nil {
		return nil, err
	}
	var method model.CalculationMethod
	if rec.CalculationMethod != nil {
		method = model.CalculationMethod(strings.ToLower(strings.TrimSpace(*rec.CalculationMethod)))
	}
	return model.FixedCharge{Amount: *amount, Method: method}, nil
}

func parseDecimal(field string, raw *string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, fmt.Errorf("%s %q is not a decimal", field, *raw)
	}
	return &d, nil
}

func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, fmt.Errorf("%s %q is not a YYYY-MM-DD date", field, *raw)
	}
	return &t, nil
}

func normalizeList(values []string, fold func(string) string) []string {
	out := lo.FilterMap(values, func(v string, _ int) (string, bool) {
		v = strings.TrimSpace(v)
		if fold != nil {
			v = fold(v)
		}
		return v, v != ""
	})
	if len(out) == 0 {
		return nil
	}
	return lo.Uniq(out)
}
