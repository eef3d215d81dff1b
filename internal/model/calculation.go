package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalculationContext describes one booking to be taxed.
type CalculationContext struct {
	BaseAmount   decimal.Decimal
	RoomTypeID   string
	RoomCount    int
	GuestCount   int
	StayNights   int
	Channel      string
	GuestType    string
	GuestCountry string
	CheckInDate  time.Time
	Currency     string
}

func (c CalculationContext) Precision() int32 {
	return CurrencyPrecision(c.Currency)
}

type TaxLineItem struct {
	RuleID         string
	RuleName       string
	Category       Category
	BaseAmountUsed decimal.Decimal
	TaxAmount      decimal.Decimal

	IsPercentage      bool
	Rate              *decimal.Decimal
	FixedAmount       *decimal.Decimal
	CalculationMethod CalculationMethod
	IsCompound        bool
	CompoundOrder     *int
}

type CategoryTotal struct {
	Category    Category
	Items       []TaxLineItem
	TotalAmount decimal.Decimal
}

// CalculationResult is built fresh for every evaluation and never shared.
type CalculationResult struct {
	BaseAmount        decimal.Decimal
	Currency          string
	Precision         int32
	TaxBreakdown      []TaxLineItem
	CategoryBreakdown map[Category]CategoryTotal
	TotalTaxAmount    decimal.Decimal
	TotalAmount       decimal.Decimal
	RuleSetVersion    string

	// Rejected lists rule ids excluded as invalid during resolution. It is
	// for logging and must not reach end users.
	Rejected []RejectedRule
}

type RejectedRule struct {
	RuleID string
	Reason string
}
