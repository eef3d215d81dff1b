package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/anyulbade/stay-tax-engine/internal/model"
	"github.com/anyulbade/stay-tax-engine/seeddata"
)

// DemoRules returns the embedded demo rule records keyed by property id.
func DemoRules() (map[string][]model.TaxRuleRecord, error) {
	var byProperty map[string][]model.TaxRuleRecord
	if err := json.Unmarshal(seeddata.TaxRulesJSON, &byProperty); err != nil {
		return nil, fmt.Errorf("parse demo rules: %w", err)
	}
	return byProperty, nil
}

func SeedData(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM tax_rules").Scan(&count); err != nil {
		return fmt.Errorf("check existing data: %w", err)
	}
	if count > 0 {
		log.Info().Msg("seed data already exists, skipping")
		return nil
	}

	byProperty, err := DemoRules()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	properties := make([]string, 0, len(byProperty))
	for id := range byProperty {
		properties = append(properties, id)
	}
	sort.Strings(properties)

	total := 0
	for _, propertyID := range properties {
		for _, rec := range byProperty[propertyID] {
			if err := insertRule(ctx, tx, propertyID, rec); err != nil {
				return err
			}
			total++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed data: %w", err)
	}

	log.Info().Int("properties", len(properties)).Int("rules", total).Msg("seeded demo tax rules")
	return nil
}

func insertRule(ctx context.Context, tx pgx.Tx, propertyID string, rec model.TaxRuleRecord) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO tax_rules (id, property_id, name, category, is_percentage, rate, fixed_amount,
			calculation_method, is_compound, compound_order, room_type_ids, channels, guest_types,
			guest_countries, effective_from, effective_to, min_base_amount, max_base_amount, position)
		VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7::text::numeric, $8, $9, $10, $11, $12, $13,
			$14, $15::text::date, $16::text::date, $17::text::numeric, $18::text::numeric, $19)`,
		rec.ID, propertyID, rec.Name, rec.Category, rec.IsPercentage, rec.Rate, rec.FixedAmount,
		rec.CalculationMethod, rec.IsCompound, rec.CompoundOrder, nonNil(rec.RoomTypeIDs), nonNil(rec.Channels),
		nonNil(rec.GuestTypes), nonNil(rec.GuestCountries), rec.EffectiveFrom, rec.EffectiveTo,
		rec.MinBaseAmount, rec.MaxBaseAmount, rec.Position)
	if err != nil {
		return fmt.Errorf("insert rule %s for property %s: %w", rec.ID, propertyID, err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
