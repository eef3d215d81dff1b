package dto

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/anyulbade/stay-tax-engine/internal/model"
)

const (
	TaxTypePercentage = "percentage"
	TaxTypeFixed      = "fixed"
)

// Money fields are decimal strings fixed to the currency's minor unit.
type CalculationResponse struct {
	TotalTaxAmount    string                           `json:"totalTaxAmount"`
	TotalAmount       string                           `json:"totalAmount"`
	TaxBreakdown      []TaxLineResponse                `json:"taxBreakdown"`
	CategoryBreakdown map[string]CategoryTotalResponse `json:"categoryBreakdown"`
	Calculation       CalculationSummary               `json:"calculation"`
}

type TaxLineResponse struct {
	TaxID             string  `json:"taxId"`
	TaxName           string  `json:"taxName"`
	TaxType           string  `json:"taxType"`
	TaxCategory       string  `json:"taxCategory"`
	TaxRate           *string `json:"taxRate"`
	IsPercentage      bool    `json:"isPercentage"`
	FixedAmount       *string `json:"fixedAmount"`
	CalculationMethod string  `json:"calculationMethod,omitempty"`
	BaseAmount        string  `json:"baseAmount"`
	TaxAmount         string  `json:"taxAmount"`
	IsCompound        bool    `json:"isCompound"`
	CompoundOrder     *int    `json:"compoundOrder,omitempty"`
}

type CategoryTotalResponse struct {
	Category    string            `json:"category"`
	Taxes       []TaxLineResponse `json:"taxes"`
	TotalAmount string            `json:"totalAmount"`
}

type CalculationSummary struct {
	BaseAmount     string `json:"baseAmount"`
	TotalTaxAmount string `json:"totalTaxAmount"`
	TotalAmount    string `json:"totalAmount"`
	Currency       string `json:"currency"`
	RuleSetVersion string `json:"ruleSetVersion"`
}

type BatchCalculationResponse struct {
	Count          int                   `json:"count"`
	RuleSetVersion string                `json:"ruleSetVersion"`
	Results        []CalculationResponse `json:"results"`
}

// NewCalculationResponse renders a result for end users. Rejected rules are
// never included.
func NewCalculationResponse(r *model.CalculationResult) CalculationResponse {
	money := func(d decimal.Decimal) string { return d.StringFixed(r.Precision) }
	line := func(item model.TaxLineItem, _ int) TaxLineResponse { return newTaxLine(item, money) }

	categories := make(map[string]CategoryTotalResponse, len(r.CategoryBreakdown))
	for cat, ct := range r.CategoryBreakdown {
		categories[string(cat)] = CategoryTotalResponse{
			Category:    string(ct.Category),
			Taxes:       lo.Map(ct.Items, line),
			TotalAmount: money(ct.TotalAmount),
		}
	}

	return CalculationResponse{
		TotalTaxAmount:    money(r.TotalTaxAmount),
		TotalAmount:       money(r.TotalAmount),
		TaxBreakdown:      lo.Map(r.TaxBreakdown, line),
		CategoryBreakdown: categories,
		Calculation: CalculationSummary{
			BaseAmount:     money(r.BaseAmount),
			TotalTaxAmount: money(r.TotalTaxAmount),
			TotalAmount:    money(r.TotalAmount),
			Currency:       r.Currency,
			RuleSetVersion: r.RuleSetVersion,
		},
	}
}

func newTaxLine(item model.TaxLineItem, money func(decimal.Decimal) string) TaxLineResponse {
	resp := TaxLineResponse{
		TaxID:             item.RuleID,
		TaxName:           item.RuleName,
		TaxType:           TaxTypeFixed,
		TaxCategory:       string(item.Category),
		IsPercentage:      item.IsPercentage,
		CalculationMethod: string(item.CalculationMethod),
		BaseAmount:        money(item.BaseAmountUsed),
		TaxAmount:         money(item.TaxAmount),
		IsCompound:        item.IsCompound,
		CompoundOrder:     item.CompoundOrder,
	}
	if item.IsPercentage {
		resp.TaxType = TaxTypePercentage
	}
	if item.Rate != nil {
		resp.TaxRate = lo.ToPtr(item.Rate.String())
	}
	if item.FixedAmount != nil {
		resp.FixedAmount = lo.ToPtr(item.FixedAmount.String())
	}
	return resp
}

// TaxRuleResponse is the read view of a stored rule, echoed as stored.
type TaxRuleResponse struct {
	model.TaxRuleRecord
	Valid  bool   `json:"valid"`
	Defect string `json:"defect,omitempty"`
}

type TaxRuleListResponse struct {
	PropertyID     string            `json:"propertyId"`
	RuleSetVersion string            `json:"ruleSetVersion"`
	LoadedAt       string            `json:"loadedAt"`
	Rules          []TaxRuleResponse `json:"rules"`
	Pagination     Pagination        `json:"pagination"`
}

type RefreshResponse struct {
	PropertyID     string `json:"propertyId"`
	RuleSetVersion string `json:"ruleSetVersion"`
	LoadedAt       string `json:"loadedAt"`
	Rules          int    `json:"rules"`
	Defects        int    `json:"defects"`
}

type ValidationError struct {
	Index   *int   `json:"index,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorListResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}
