package seeddata

import _ "embed"

// TaxRulesJSON holds demo tax rules for two properties, keyed by property id.
//
//go:embed tax_rules.json
var TaxRulesJSON []byte
