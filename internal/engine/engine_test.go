package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyulbade/stay-tax-engine/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(v int) *int { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "expected %s, got %s", want, got.String())
}

func percentRule(id string, category model.Category, rate string) model.TaxRule {
	return model.TaxRule{
		ID:       id,
		Name:     id,
		Category: category,
		Charge:   model.PercentageCharge{Rate: dec(rate)},
	}
}

func compoundRule(id string, order int, rate string) model.TaxRule {
	r := percentRule(id, model.CategoryVAT, rate)
	r.IsCompound = true
	r.CompoundOrder = intPtr(order)
	return r
}

func fixedRule(id string, category model.Category, amount string, method model.CalculationMethod) model.TaxRule {
	return model.TaxRule{
		ID:       id,
		Name:     id,
		Category: category,
		Charge:   model.FixedCharge{Amount: dec(amount), Method: method},
	}
}

func baseContext(base string) model.CalculationContext {
	return model.CalculationContext{
		BaseAmount:  dec(base),
		RoomCount:   1,
		GuestCount:  1,
		StayNights:  1,
		Channel:     "direct",
		CheckInDate: date(2026, 3, 14),
		Currency:    "USD",
	}
}

func TestEvaluate_ScenarioA_SinglePercentage(t *testing.T) {
	rules := []model.TaxRule{percentRule("gst", model.CategoryGST, "18")}

	res, err := Evaluate(rules, baseContext("100"))
	require.NoError(t, err)

	require.Len(t, res.TaxBreakdown, 1)
	assertMoney(t, "18.00", res.TaxBreakdown[0].TaxAmount)
	assertMoney(t, "100", res.TaxBreakdown[0].BaseAmountUsed)
	assertMoney(t, "18.00", res.TotalTaxAmount)
	assertMoney(t, "118.00", res.TotalAmount)
	assertMoney(t, "18.00", res.CategoryBreakdown[model.CategoryGST].TotalAmount)
	assert.Empty(t, res.Rejected)
}

func TestEvaluate_ScenarioB_CompoundChain(t *testing.T) {
	// Declared out of order to prove the sequencer sorts by compound order.
	rules := []model.TaxRule{
		compoundRule("second", 2, "5"),
		compoundRule("first", 1, "10"),
	}

	res, err := Evaluate(rules, baseContext("100"))
	require.NoError(t, err)
	require.Len(t, res.TaxBreakdown, 2)

	first, second := res.TaxBreakdown[0], res.TaxBreakdown[1]
	assert.Equal(t, "first", first.RuleID)
	assertMoney(t, "100", first.BaseAmountUsed)
	assertMoney(t, "10.00", first.TaxAmount)

	assert.Equal(t, "second", second.RuleID)
	assertMoney(t, "110", second.BaseAmountUsed)
	assertMoney(t, "5.50", second.TaxAmount)

	assertMoney(t, "15.50", res.TotalTaxAmount)
	assertMoney(t, "115.50", res.TotalAmount)
}

func TestEvaluate_ScenarioC_FixedPerRoomPerNight(t *testing.T) {
	rules := []model.TaxRule{fixedRule("city", model.CategoryCity, "50", model.PerRoomPerNight)}

	for _, base := range []string{"1", "100", "98765.43"} {
		t.Run("base "+base, func(t *testing.T) {
			ctx := baseContext(base)
			ctx.RoomCount = 2
			ctx.StayNights = 3

			res, err := Evaluate(rules, ctx)
			require.NoError(t, err)
			require.Len(t, res.TaxBreakdown, 1)
			assertMoney(t, "300.00", res.TaxBreakdown[0].TaxAmount)
		})
	}
}

func TestEvaluate_ScenarioD_CountryNotAllowed(t *testing.T) {
	tourism := percentRule("tourism", model.CategoryTourism, "3")
	tourism.Applicability.GuestCountries = []string{"FR", "DE"}
	rules := []model.TaxRule{percentRule("vat", model.CategoryVAT, "10"), tourism}

	ctx := baseContext("200")
	ctx.GuestCountry = "US"

	res, err := Evaluate(rules, ctx)
	require.NoError(t, err)

	for _, item := range res.TaxBreakdown {
		assert.NotEqual(t, "tourism", item.RuleID)
	}
	_, ok := res.CategoryBreakdown[model.CategoryTourism]
	assert.False(t, ok, "tourism category should be absent")
	assertMoney(t, "20.00", res.TotalTaxAmount)

	ctx.GuestCountry = "fr"
	res, err = Evaluate(rules, ctx)
	require.NoError(t, err)
	assertMoney(t, "6.00", res.CategoryBreakdown[model.CategoryTourism].TotalAmount)
}

func TestEvaluate_ScenarioE_CompoundWithoutOrderIsRejected(t *testing.T) {
	broken := percentRule("broken", model.CategoryLuxury, "7")
	broken.IsCompound = true

	rules := []model.TaxRule{percentRule("gst", model.CategoryGST, "18"), broken}

	res, err := Evaluate(rules, baseContext("100"))
	require.NoError(t, err, "an invalid rule must not fail the request")

	require.Len(t, res.TaxBreakdown, 1)
	assert.Equal(t, "gst", res.TaxBreakdown[0].RuleID)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "broken", res.Rejected[0].RuleID)
	assert.Contains(t, res.Rejected[0].Reason, "compound order")
}

func TestEvaluate_InvalidContext(t *testing.T) {
	ctx := model.CalculationContext{BaseAmount: dec("-5"), Currency: "usd", GuestCountry: "FRA"}

	res, err := Evaluate([]model.TaxRule{percentRule("gst", model.CategoryGST, "18")}, ctx)
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrInvalidContext)

	var ce *ContextError
	require.True(t, errors.As(err, &ce))
	fields := make([]string, 0, len(ce.Fields))
	for _, f := range ce.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"baseAmount", "roomCount", "guestCount", "stayNights", "channel", "checkInDate", "guestCountry", "currency"}, fields)
}

func TestEvaluate_BreakdownOrder(t *testing.T) {
	rules := []model.TaxRule{
		compoundRule("c2", 2, "2"),
		percentRule("s1", model.CategoryService, "10"),
		compoundRule("c1", 1, "1"),
		fixedRule("s2", model.CategoryResortFee, "25", model.PerBooking),
	}

	res, err := Evaluate(rules, baseContext("100"))
	require.NoError(t, err)

	ids := make([]string, len(res.TaxBreakdown))
	for i, item := range res.TaxBreakdown {
		ids[i] = item.RuleID
	}
	assert.Equal(t, []string{"s1", "s2", "c1", "c2"}, ids)
}

func TestEvaluate_SumInvariant(t *testing.T) {
	rules := []model.TaxRule{
		percentRule("vat", model.CategoryVAT, "8.875"),
		percentRule("svc", model.CategoryService, "12.5"),
		percentRule("svc2", model.CategoryService, "0.333"),
		compoundRule("lux", 1, "7.25"),
		compoundRule("city", 2, "3.3"),
		fixedRule("resort", model.CategoryResortFee, "12.345", model.PerGuestPerNight),
		fixedRule("fac", model.CategoryFacility, "1.5", model.PerRoom),
	}

	bases := []string{"0.01", "0.99", "1", "33.33", "99.99", "123.45", "1000", "98765.43", "1234567.89"}
	for _, base := range bases {
		ctx := baseContext(base)
		ctx.GuestCount = 3
		ctx.RoomCount = 2
		ctx.StayNights = 5

		res, err := Evaluate(rules, ctx)
		require.NoError(t, err, "base %s", base)

		sum := decimal.Zero
		for _, item := range res.TaxBreakdown {
			sum = sum.Add(item.TaxAmount)
			assert.True(t, item.TaxAmount.Equal(item.TaxAmount.Round(2)), "line %s not at minor unit", item.RuleID)
		}
		assert.True(t, res.TotalTaxAmount.Equal(sum))
		assert.True(t, res.TotalAmount.Equal(res.BaseAmount.Add(res.TotalTaxAmount)))

		catSum := decimal.Zero
		for _, ct := range res.CategoryBreakdown {
			catSum = catSum.Add(ct.TotalAmount)
		}
		assert.True(t, catSum.Equal(res.TotalTaxAmount))
	}
}

func TestEvaluate_CompoundIndependentOfSimpleRules(t *testing.T) {
	rules := []model.TaxRule{
		percentRule("s1", model.CategoryService, "10"),
		compoundRule("c1", 1, "5"),
		fixedRule("s2", model.CategoryCity, "4", model.PerGuest),
		compoundRule("c2", 2, "2.5"),
		percentRule("s3", model.CategoryOccupancy, "6"),
	}
	ctx := baseContext("250.75")
	ctx.GuestCount = 2

	full, err := Evaluate(rules, ctx)
	require.NoError(t, err)
	compound := compoundAmounts(full)
	require.Len(t, compound, 2)

	for i, r := range rules {
		if r.IsCompound {
			continue
		}
		reduced := append(append([]model.TaxRule{}, rules[:i]...), rules[i+1:]...)
		res, err := Evaluate(reduced, ctx)
		require.NoError(t, err)

		got := compoundAmounts(res)
		for id, amount := range compound {
			assert.True(t, amount.Equal(got[id]), "removing %s changed %s: %s -> %s", r.ID, id, amount, got[id])
		}
	}
}

func compoundAmounts(res *model.CalculationResult) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, item := range res.TaxBreakdown {
		if item.IsCompound {
			out[item.RuleID] = item.TaxAmount
		}
	}
	return out
}

func TestEvaluate_Deterministic(t *testing.T) {
	rules := []model.TaxRule{
		compoundRule("b", 1, "3"),
		compoundRule("a", 1, "4"),
		percentRule("s", model.CategoryService, "9.99"),
	}
	ctx := baseContext("512.37")

	first, err := Evaluate(rules, ctx)
	require.NoError(t, err)
	second, err := Evaluate(rules, ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Equal compound orders fall back to rule id.
	assert.Equal(t, "a", first.TaxBreakdown[1].RuleID)
	assert.Equal(t, "b", first.TaxBreakdown[2].RuleID)
}

func TestEvaluate_ConcurrentCallsShareSnapshot(t *testing.T) {
	rules := []model.TaxRule{
		percentRule("s", model.CategoryService, "10"),
		compoundRule("c1", 1, "5"),
		compoundRule("c2", 2, "5"),
	}
	ctx := baseContext("100")
	want, err := Evaluate(rules, ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*model.CalculationResult, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Evaluate(rules, ctx)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
	assert.Equal(t, "s", rules[0].ID, "input rules must not be reordered")
	assert.Equal(t, "c1", rules[1].ID)
}

func TestEvaluate_NoApplicableRules(t *testing.T) {
	res, err := Evaluate(nil, baseContext("80"))
	require.NoError(t, err)
	assert.Empty(t, res.TaxBreakdown)
	assert.Empty(t, res.CategoryBreakdown)
	assertMoney(t, "0", res.TotalTaxAmount)
	assertMoney(t, "80", res.TotalAmount)
}

func TestEvaluate_BaseAmountFinerThanMinorUnit(t *testing.T) {
	ctx := baseContext("100.005")

	_, err := Evaluate(nil, ctx)
	var ce *ContextError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Fields, 1)
	assert.Equal(t, "baseAmount", ce.Fields[0].Field)

	ctx.Currency = "KWD"
	_, err = Evaluate(nil, ctx)
	assert.NoError(t, err)

	ctx = baseContext("100.50")
	ctx.Currency = "JPY"
	_, err = Evaluate(nil, ctx)
	assert.ErrorIs(t, err, ErrInvalidContext)
}
