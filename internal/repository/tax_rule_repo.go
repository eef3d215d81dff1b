package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anyulbade/stay-tax-engine/internal/model"
)

type TaxRuleRepository struct {
	pool *pgxpool.Pool
}

func NewTaxRuleRepository(pool *pgxpool.Pool) *TaxRuleRepository {
	return &TaxRuleRepository{pool: pool}
}

// Money and date columns are read back as text so that no value passes
// through a float on its way to the decoder.
const selectRules = `SELECT id, property_id::text, name, category, is_percentage,
		rate::text, fixed_amount::text, calculation_method, is_compound, compound_order,
		room_type_ids, channels, guest_types, guest_countries,
		to_char(effective_from, 'YYYY-MM-DD'), to_char(effective_to, 'YYYY-MM-DD'),
		min_base_amount::text, max_base_amount::text, position, updated_at
	FROM tax_rules`

// LoadRules returns the rule records of a property in store order.
func (r *TaxRuleRepository) LoadRules(ctx context.Context, propertyID string) ([]model.TaxRuleRecord, error) {
	rows, err := r.pool.Query(ctx, selectRules+` WHERE property_id = $1 ORDER BY position, id`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("query tax rules: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanRule)
	if err != nil {
		return nil, fmt.Errorf("scan tax rules: %w", err)
	}
	return records, nil
}

func (r *TaxRuleRepository) ListPropertyIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT property_id::text FROM tax_rules ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *TaxRuleRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanRule(row pgx.CollectableRow) (model.TaxRuleRecord, error) {
	var rec model.TaxRuleRecord
	err := row.Scan(
		&rec.ID, &rec.PropertyID, &rec.Name, &rec.Category, &rec.IsPercentage,
		&rec.Rate, &rec.FixedAmount, &rec.CalculationMethod, &rec.IsCompound, &rec.CompoundOrder,
		&rec.RoomTypeIDs, &rec.Channels, &rec.GuestTypes, &rec.GuestCountries,
		&rec.EffectiveFrom, &rec.EffectiveTo,
		&rec.MinBaseAmount, &rec.MaxBaseAmount, &rec.Position, &rec.UpdatedAt,
	)
	return rec, err
}
