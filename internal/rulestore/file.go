package rulestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/anyulbade/stay-tax-engine/internal/model"
)

// MemoryLoader serves rule records held in memory, keyed by property id.
type MemoryLoader struct {
	mu      sync.RWMutex
	records map[string][]model.TaxRuleRecord
}

func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{records: make(map[string][]model.TaxRuleRecord)}
}

func (m *MemoryLoader) Put(propertyID string, records []model.TaxRuleRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[propertyID] = append([]model.TaxRuleRecord(nil), records...)
}

func (m *MemoryLoader) LoadRules(_ context.Context, propertyID string) ([]model.TaxRuleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.TaxRuleRecord(nil), m.records[propertyID]...), nil
}

func (m *MemoryLoader) ListPropertyIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadFile reads a JSON array of rule records.
func ReadFile(path string) ([]model.TaxRuleRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []model.TaxRuleRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}
