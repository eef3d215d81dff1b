package model

import "time"

// TaxRuleRecord is a rule as stored or supplied from outside the engine.
// Nothing in it is trusted until rulestore.Decode turns it into a TaxRule.
type TaxRuleRecord struct {
	ID                string   `json:"id"`
	PropertyID        string   `json:"propertyId,omitempty"`
	Name              string   `json:"name"`
	Category          string   `json:"category"`
	IsPercentage      bool     `json:"isPercentage"`
	Rate              *string  `json:"rate,omitempty"`
	FixedAmount       *string  `json:"fixedAmount,omitempty"`
	CalculationMethod *string  `json:"calculationMethod,omitempty"`
	IsCompound        bool     `json:"isCompound"`
	CompoundOrder     *int     `json:"compoundOrder,omitempty"`
	RoomTypeIDs       []string `json:"roomTypeIds,omitempty"`
	Channels          []string `json:"channels,omitempty"`
	GuestTypes        []string `json:"guestTypes,omitempty"`
	GuestCountries    []string `json:"guestCountries,omitempty"`
	EffectiveFrom     *string  `json:"effectiveFrom,omitempty"`
	EffectiveTo       *string  `json:"effectiveTo,omitempty"`
	MinBaseAmount     *string  `json:"minBaseAmount,omitempty"`
	MaxBaseAmount     *string  `json:"maxBaseAmount,omitempty"`
	Position          int      `json:"position"`

	UpdatedAt time.Time `json:"-"`
}
