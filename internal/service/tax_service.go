package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/anyulbade/stay-tax-engine/internal/dto"
	"github.com/anyulbade/stay-tax-engine/internal/engine"
	"github.com/anyulbade/stay-tax-engine/internal/model"
	"github.com/anyulbade/stay-tax-engine/internal/rulestore"
)

const dateLayout = "2006-01-02"

type Options struct {
	DefaultCurrency  string
	MaxBatchSize     int
	BatchConcurrency int
}

type TaxService struct {
	store *rulestore.Store
	opts  Options
}

func NewTaxService(store *rulestore.Store, opts Options) *TaxService {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "USD"
	}
	if opts.MaxBatchSize < 1 {
		opts.MaxBatchSize = 100
	}
	if opts.BatchConcurrency < 1 {
		opts.BatchConcurrency = 1
	}
	return &TaxService{store: store, opts: opts}
}

// BatchValidationError carries the field errors of every invalid batch item.
type BatchValidationError struct {
	Errors []dto.ValidationError
}

func (e *BatchValidationError) Error() string {
	return fmt.Sprintf("%s: %d invalid batch fields", engine.ErrInvalidContext, len(e.Errors))
}

func (e *BatchValidationError) Unwrap() error { return engine.ErrInvalidContext }

func (s *TaxService) Calculate(ctx context.Context, propertyID string, req *dto.CalculateTaxRequest) (*model.CalculationResult, error) {
	cctx, err := s.toContext(req)
	if err != nil {
		return nil, err
	}

	snap, err := s.store.Snapshot(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	return s.evaluate(ctx, snap, cctx)
}

// CalculateBatch evaluates every request against one snapshot. Nothing is
// evaluated unless every request is valid.
func (s *TaxService) CalculateBatch(ctx context.Context, propertyID string, req *dto.BatchCalculateTaxRequest) ([]*model.CalculationResult, string, error) {
	if n := len(req.Requests); n > s.opts.MaxBatchSize {
		return nil, "", &BatchValidationError{Errors: []dto.ValidationError{{
			Field:   "requests",
			Message: fmt.Sprintf("batch has %d items, at most %d allowed", n, s.opts.MaxBatchSize),
		}}}
	}

	contexts := make([]model.CalculationContext, len(req.Requests))
	var invalid []dto.ValidationError
	for i := range req.Requests {
		cctx, err := s.toContext(&req.Requests[i])
		var ce *engine.ContextError
		if errors.As(err, &ce) {
			index := i
			for _, f := range ce.Fields {
				invalid = append(invalid, dto.ValidationError{Index: &index, Field: f.Field, Message: f.Message})
			}
			continue
		}
		contexts[i] = cctx
	}
	if len(invalid) > 0 {
		return nil, "", &BatchValidationError{Errors: invalid}
	}

	snap, err := s.store.Snapshot(ctx, propertyID)
	if err != nil {
		return nil, "", err
	}

	results := make([]*model.CalculationResult, len(contexts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.BatchConcurrency)
	for i := range contexts {
		i := i
		g.Go(func() error {
			res, err := s.evaluate(gctx, snap, contexts[i])
			if err != nil {
				return fmt.Errorf("batch item %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	return results, snap.Version, nil
}

func (s *TaxService) ListRules(ctx context.Context, propertyID string, page dto.PaginationParams) (*dto.TaxRuleListResponse, error) {
	snap, err := s.store.Snapshot(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	rules := make([]dto.TaxRuleResponse, len(snap.Records))
	seen := make(map[string]bool, len(snap.Records))
	for i, rec := range snap.Records {
		resp := dto.TaxRuleResponse{TaxRuleRecord: rec, Valid: true}
		id := strings.TrimSpace(rec.ID)
		if seen[id] {
			resp.Valid, resp.Defect = false, "duplicate rule id"
		} else if _, defects := rulestore.Decode([]model.TaxRuleRecord{rec}); len(defects) > 0 {
			resp.Valid, resp.Defect = false, defects[0].Reason
		}
		seen[id] = true
		rules[i] = resp
	}

	start, end := page.Bounds(len(rules))
	return &dto.TaxRuleListResponse{
		PropertyID:     propertyID,
		RuleSetVersion: snap.Version,
		LoadedAt:       snap.LoadedAt.Format(time.RFC3339),
		Rules:          rules[start:end],
		Pagination:     dto.NewPagination(page, len(rules)),
	}, nil
}

func (s *TaxService) RefreshRules(ctx context.Context, propertyID string) (*rulestore.Snapshot, error) {
	return s.store.Refresh(ctx, propertyID)
}

func (s *TaxService) evaluate(ctx context.Context, snap *rulestore.Snapshot, cctx model.CalculationContext) (*model.CalculationResult, error) {
	logger := log.Ctx(ctx).With().
		Str("property_id", snap.PropertyID).
		Str("rule_set_version", snap.Version).
		Logger()

	res, err := engine.Evaluate(snap.Rules, cctx)
	if err != nil {
		var re *engine.RuleError
		var ce *engine.ConsistencyError
		switch {
		case errors.As(err, &re):
			logger.Error().Str("rule_id", re.RuleID).Str("reason", re.Reason).Msg("rule could not be charged")
		case errors.As(err, &ce):
			logger.Error().Str("check", ce.Check).Str("expected", ce.Expected).Str("actual", ce.Actual).Msg("calculation failed consistency check")
		}
		return nil, err
	}

	for _, r := range res.Rejected {
		logger.Warn().Str("rule_id", r.RuleID).Str("reason", r.Reason).Msg("invalid rule definition excluded")
	}

	res.RuleSetVersion = snap.Version
	return res, nil
}

// toContext parses a request into a calculation context and reports every
// field problem at once.
func (s *TaxService) toContext(req *dto.CalculateTaxRequest) (model.CalculationContext, error) {
	cctx := model.CalculationContext{
		BaseAmount:   req.BaseAmount.Decimal,
		RoomTypeID:   strings.TrimSpace(req.RoomTypeID),
		RoomCount:    req.RoomCount,
		GuestCount:   req.GuestCount,
		StayNights:   req.StayNights,
		Channel:      strings.TrimSpace(req.Channel),
		GuestType:    strings.TrimSpace(req.GuestType),
		GuestCountry: strings.ToUpper(strings.TrimSpace(req.GuestCountry)),
		Currency:     strings.ToUpper(strings.TrimSpace(req.Currency)),
	}
	if cctx.Currency == "" {
		cctx.Currency = s.opts.DefaultCurrency
	}

	errs := &engine.ContextError{}
	reported := map[string]bool{}
	if !req.BaseAmount.Valid {
		errs.Add("baseAmount", "is required")
		reported["baseAmount"] = true
	}
	if raw := strings.TrimSpace(req.CheckInDate); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			errs.Add("checkInDate", "must be a YYYY-MM-DD date")
			reported["checkInDate"] = true
		}
		cctx.CheckInDate = d
	}

	var ce *engine.ContextError
	if errors.As(engine.ValidateContext(cctx), &ce) {
		for _, f := range ce.Fields {
			if !reported[f.Field] {
				errs.Add(f.Field, f.Message)
			}
		}
	}

	if err := errs.OrNil(); err != nil {
		return model.CalculationContext{}, err
	}
	return cctx, nil
}
