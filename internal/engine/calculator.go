package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/anyulbade/stay-tax-engine/internal/model"
)

// Calculate returns the amount a single rule charges against effectiveBase.
//
// Every amount is rounded half-to-even at the currency's minor unit before it
// is reported or fed into a compound running base. Rounding each line at the
// source keeps the published total equal to the sum of its lines.
func Calculate(rule model.TaxRule, effectiveBase decimal.Decimal, ctx model.CalculationContext) (decimal.Decimal, error) {
	precision := ctx.Precision()

	switch c := rule.Charge.(type) {
	case model.PercentageCharge:
		// rate/100 as a decimal shift keeps the product exact before rounding.
		return effectiveBase.Mul(c.Rate).Shift(-2).RoundBank(precision), nil

	case model.FixedCharge:
		multiplier, err := fixedMultiplier(rule.ID, c.Method, ctx)
		if err != nil {
			return decimal.Zero, err
		}
		return c.Amount.Mul(multiplier).RoundBank(precision), nil

	default:
		return decimal.Zero, &RuleError{RuleID: rule.ID, Reason: fmt.Sprintf("unsupported charge type %T", rule.Charge)}
	}
}

func fixedMultiplier(ruleID string, method model.CalculationMethod, ctx model.CalculationContext) (decimal.Decimal, error) {
	rooms := int64(ctx.RoomCount)
	guests := int64(ctx.GuestCount)
	nights := int64(ctx.StayNights)

	switch method {
	case model.PerBooking:
		return decimal.NewFromInt(1), nil
	case model.PerRoom:
		return decimal.NewFromInt(rooms), nil
	case model.PerRoomPerNight:
		return decimal.NewFromInt(rooms).Mul(decimal.NewFromInt(nights)), nil
	case model.PerGuest:
		return decimal.NewFromInt(guests), nil
	case model.PerGuestPerNight:
		return decimal.NewFromInt(guests).Mul(decimal.NewFromInt(nights)), nil
	case "":
		return decimal.Zero, &RuleError{RuleID: ruleID, Reason: "fixed rule has no calculation method"}
	default:
		return decimal.Zero, &RuleError{RuleID: ruleID, Reason: fmt.Sprintf("unknown calculation method %q", method)}
	}
}
