package model

import "strings"

const DefaultCurrencyPrecision int32 = 2

// ISO 4217 currencies whose minor unit is not two digits.
var currencyPrecision = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0, "KRW": 0,
	"PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// CurrencyPrecision returns the number of minor-unit digits for an ISO 4217 code.
func CurrencyPrecision(code string) int32 {
	if p, ok := currencyPrecision[strings.ToUpper(code)]; ok {
		return p
	}
	return DefaultCurrencyPrecision
}

// ValidCurrencyCode reports whether code looks like an ISO 4217 alphabetic code.
func ValidCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
