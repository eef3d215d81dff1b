package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type CalculationMethod string

const (
	PerBooking       CalculationMethod = "per_booking"
	PerRoom          CalculationMethod = "per_room"
	PerRoomPerNight  CalculationMethod = "per_room_per_night"
	PerGuest         CalculationMethod = "per_guest"
	PerGuestPerNight CalculationMethod = "per_guest_per_night"
)

func (m CalculationMethod) Valid() bool {
	switch m {
	case PerBooking, PerRoom, PerRoomPerNight, PerGuest, PerGuestPerNight:
		return true
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// Charge is the closed set of ways a rule produces an amount:
// PercentageCharge or FixedCharge.
type Charge interface {
	isCharge()
}

// PercentageCharge charges Rate percent (0..100) of the effective base.
type PercentageCharge struct {
	Rate decimal.Decimal
}

// FixedCharge charges Amount multiplied according to Method.
type FixedCharge struct {
	Amount decimal.Decimal
	Method CalculationMethod
}

func (PercentageCharge) isCharge() {}
func (FixedCharge) isCharge()      {}

// Applicability is a conjunction of predicates. Empty allow-lists and nil bounds are unrestricted.
type Applicability struct {
	RoomTypeIDs    []string
	Channels       []string
	GuestTypes     []string
	GuestCountries []string
	EffectiveFrom  *time.Time
	EffectiveTo    *time.Time
	MinBaseAmount  *decimal.Decimal
	MaxBaseAmount  *decimal.Decimal
}

// TaxRule is a validated rule definition. Values are never mutated once they
// are part of a snapshot.
type TaxRule struct {
	ID            string
	Name          string
	Category      Category
	Charge        Charge
	IsCompound    bool
	CompoundOrder *int
	Applicability Applicability
}

func (r TaxRule) IsPercentage() bool {
	_, ok := r.Charge.(PercentageCharge)
	return ok
}

// Validate checks the structural invariants a rule must hold before it can be
// evaluated. It returns the first violation found.
func (r TaxRule) Validate() error {
	if r.ID == "" {
		return errors.New("rule id is empty")
	}
	if !r.Category.Valid() {
		return fmt.Errorf("unknown category %q", r.Category)
	}

	switch c := r.Charge.(type) {
	case PercentageCharge:
		if c.Rate.IsNegative() || c.Rate.GreaterThan(hundred) {
			return fmt.Errorf("rate %s outside [0, 100]", c.Rate)
		}
	case FixedCharge:
		if !c.Method.Valid() {
			if c.Method == "" {
				return errors.New("fixed rule has no calculation method")
			}
			return fmt.Errorf("unknown calculation method %q", c.Method)
		}
		if c.Amount.IsNegative() {
			return fmt.Errorf("fixed amount %s is negative", c.Amount)
		}
	case nil:
		return errors.New("rule has no charge definition")
	default:
		return fmt.Errorf("unsupported charge type %T", c)
	}

	if r.IsCompound && r.CompoundOrder == nil {
		return errors.New("compound rule has no compound order")
	}

	a := r.Applicability
	if a.EffectiveFrom != nil && a.EffectiveTo != nil && !a.EffectiveTo.After(*a.EffectiveFrom) {
		return errors.New("effective window is empty")
	}
	if a.MinBaseAmount != nil && a.MaxBaseAmount != nil && a.MinBaseAmount.GreaterThan(*a.MaxBaseAmount) {
		return errors.New("minimum base amount exceeds maximum")
	}
	return nil
}
