package rulestore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/anyulbade/stay-tax-engine/internal/engine"
	"github.com/anyulbade/stay-tax-engine/internal/model"
)

// Snapshot is the complete rule set of one property at one point in time.
// It is never modified after NewSnapshot returns; a refresh builds a new one.
type Snapshot struct {
	PropertyID string
	Version    string
	LoadedAt   time.Time
	Rules      []model.TaxRule
	Defects    []*engine.RuleError
	Records    []model.TaxRuleRecord
}

func NewSnapshot(propertyID string, records []model.TaxRuleRecord) *Snapshot {
	rules, defects := Decode(records)
	return &Snapshot{
		PropertyID: propertyID,
		Version:    Version(records),
		LoadedAt:   time.Now().UTC(),
		Rules:      rules,
		Defects:    defects,
		Records:    records,
	}
}

// Version is a content hash of the records in store order. Identical rule
// sets always produce the same version.
func Version(records []model.TaxRuleRecord) string {
	if records == nil {
		records = []model.TaxRuleRecord{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		// TaxRuleRecord holds only strings, ints, bools and slices of them.
		panic(err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}
