package dto

import "github.com/shopspring/decimal"

// CalculateTaxRequest describes one booking. baseAmount accepts a JSON
// string or number literal and is decoded without passing through a float.
// Range checks happen in the engine so every field error is reported at once.
type CalculateTaxRequest struct {
	BaseAmount   decimal.NullDecimal `json:"baseAmount"`
	RoomTypeID   string              `json:"roomTypeId" binding:"max=64"`
	RoomCount    int                 `json:"roomCount"`
	GuestCount   int                 `json:"guestCount"`
	StayNights   int                 `json:"stayNights"`
	Channel      string              `json:"channel" binding:"max=32"`
	GuestType    string              `json:"guestType" binding:"max=32"`
	GuestCountry string              `json:"guestCountry"`
	CheckInDate  string              `json:"checkInDate"`
	Currency     string              `json:"currency"`
}

type BatchCalculateTaxRequest struct {
	Requests []CalculateTaxRequest `json:"requests" binding:"required,min=1,dive"`
}
