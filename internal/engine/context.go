package engine

import (
	"fmt"

	"github.com/anyulbade/stay-tax-engine/internal/model"
)

// ValidateContext rejects a context before any rule is evaluated.
func ValidateContext(ctx model.CalculationContext) error {
	errs := &ContextError{}

	if !ctx.BaseAmount.IsPositive() {
		errs.Add("baseAmount", "must be greater than zero")
	} else if p := ctx.Precision(); !ctx.BaseAmount.Equal(ctx.BaseAmount.Truncate(p)) {
		errs.Add("baseAmount", fmt.Sprintf("must have at most %d decimal places", p))
	}
	if ctx.RoomCount < 1 {
		errs.Add("roomCount", "must be at least 1")
	}
	if ctx.GuestCount < 1 {
		errs.Add("guestCount", "must be at least 1")
	}
	if ctx.StayNights < 1 {
		errs.Add("stayNights", "must be at least 1")
	}
	if ctx.Channel == "" {
		errs.Add("channel", "is required")
	}
	if ctx.CheckInDate.IsZero() {
		errs.Add("checkInDate", "is required")
	}
	if ctx.GuestCountry != "" && !isCountryCode(ctx.GuestCountry) {
		errs.Add("guestCountry", "must be a two-letter ISO 3166 code")
	}
	if ctx.Currency != "" && !model.ValidCurrencyCode(ctx.Currency) {
		errs.Add("currency", "must be a three-letter ISO 4217 code")
	}

	return errs.OrNil()
}

func isCountryCode(code string) bool {
	return len(code) == 2 &&
		code[0] >= 'A' && code[0] <= 'Z' &&
		code[1] >= 'A' && code[1] <= 'Z'
}
