package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyulbade/stay-tax-engine/internal/model"
)

func TestSequence_Partition(t *testing.T) {
	rules := []model.TaxRule{
		compoundRule("c3", 3, "1"),
		percentRule("s1", model.CategoryService, "1"),
		compoundRule("c1b", 1, "1"),
		percentRule("s2", model.CategoryCity, "1"),
		compoundRule("c1a", 1, "1"),
	}

	plan := Sequence(rules)

	simple := make([]string, len(plan.Simple))
	for i, r := range plan.Simple {
		simple[i] = r.ID
	}
	compound := make([]string, len(plan.Compound))
	for i, r := range plan.Compound {
		compound[i] = r.ID
	}

	assert.Equal(t, []string{"s1", "s2"}, simple)
	assert.Equal(t, []string{"c1a", "c1b", "c3"}, compound)
	assert.Equal(t, "c3", rules[0].ID, "input must not be reordered")
}

func TestPlan_RunThreadsRunningBaseThroughCompoundOnly(t *testing.T) {
	plan := Sequence([]model.TaxRule{
		percentRule("svc", model.CategoryService, "10"),
		compoundRule("c1", 1, "10"),
		fixedRule("fee", model.CategoryResortFee, "20", model.PerBooking),
		compoundRule("c2", 2, "10"),
	})

	items, err := plan.Run(baseContext("100"))
	require.NoError(t, err)
	require.Len(t, items, 4)

	byID := map[string]model.TaxLineItem{}
	for _, item := range items {
		byID[item.RuleID] = item
	}

	assertMoney(t, "100", byID["svc"].BaseAmountUsed)
	assertMoney(t, "10.00", byID["svc"].TaxAmount)
	assertMoney(t, "100", byID["fee"].BaseAmountUsed)
	assertMoney(t, "20.00", byID["fee"].TaxAmount)
	assertMoney(t, "100", byID["c1"].BaseAmountUsed)
	assertMoney(t, "10.00", byID["c1"].TaxAmount)
	assertMoney(t, "110", byID["c2"].BaseAmountUsed)
	assertMoney(t, "11.00", byID["c2"].TaxAmount)

	assert.True(t, byID["c2"].IsCompound)
	require.NotNil(t, byID["c2"].CompoundOrder)
	assert.Equal(t, 2, *byID["c2"].CompoundOrder)
	assert.True(t, byID["svc"].IsPercentage)
	assertMoney(t, "10", *byID["svc"].Rate)
	assert.Nil(t, byID["svc"].FixedAmount)
	assert.Equal(t, model.PerBooking, byID["fee"].CalculationMethod)
	assertMoney(t, "20", *byID["fee"].FixedAmount)
}

func TestPlan_RunFailsOnUnchargeableRule(t *testing.T) {
	plan := Sequence([]model.TaxRule{
		percentRule("ok", model.CategoryVAT, "5"),
		fixedRule("no-method", model.CategoryCity, "2", ""),
	})

	items, err := plan.Run(baseContext("100"))
	assert.Nil(t, items)
	assert.ErrorIs(t, err, ErrInvalidRuleDefinition)
}
