package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/anyulbade/stay-tax-engine/internal/dto"
	"github.com/anyulbade/stay-tax-engine/internal/model"
	"github.com/anyulbade/stay-tax-engine/internal/service"
)

type TaxHandler struct {
	svc *service.TaxService
}

func NewTaxHandler(svc *service.TaxService) *TaxHandler {
	return &TaxHandler{svc: svc}
}

func (h *TaxHandler) Register(api *gin.RouterGroup) {
	property := api.Group("/properties/:propertyId")
	property.POST("/tax/calculate", h.Calculate)
	property.POST("/tax/calculate/batch", h.CalculateBatch)
	property.GET("/tax-rules", h.ListRules)
	property.POST("/tax-rules/refresh", h.RefreshRules)
}

func (h *TaxHandler) Calculate(c *gin.Context) {
	propertyID, ok := propertyParam(c)
	if !ok {
		return
	}

	var req dto.CalculateTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "validation failed: " + err.Error(),
		})
		return
	}

	res, err := h.svc.Calculate(c.Request.Context(), propertyID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCalculationResponse(res))
}

func (h *TaxHandler) CalculateBatch(c *gin.Context) {
	propertyID, ok := propertyParam(c)
	if !ok {
		return
	}

	var req dto.BatchCalculateTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "validation failed: " + err.Error(),
		})
		return
	}

	results, version, err := h.svc.CalculateBatch(c.Request.Context(), propertyID, &req)
	if err != nil {
		var be *service.BatchValidationError
		if errors.As(err, &be) {
			c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
				Error:  "batch validation failed",
				Errors: be.Errors,
			})
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.BatchCalculationResponse{
		Count:          len(results),
		RuleSetVersion: version,
		Results: lo.Map(results, func(r *model.CalculationResult, _ int) dto.CalculationResponse {
			return dto.NewCalculationResponse(r)
		}),
	})
}

func (h *TaxHandler) ListRules(c *gin.Context) {
	propertyID, ok := propertyParam(c)
	if !ok {
		return
	}

	resp, err := h.svc.ListRules(c.Request.Context(), propertyID, dto.ParsePagination(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *TaxHandler) RefreshRules(c *gin.Context) {
	propertyID, ok := propertyParam(c)
	if !ok {
		return
	}

	snap, err := h.svc.RefreshRules(c.Request.Context(), propertyID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.RefreshResponse{
		PropertyID:     snap.PropertyID,
		RuleSetVersion: snap.Version,
		LoadedAt:       snap.LoadedAt.Format(time.RFC3339),
		Rules:          len(snap.Rules),
		Defects:        len(snap.Defects),
	})
}

// propertyParam returns the canonical form of the :propertyId path parameter.
func propertyParam(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("propertyId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error:  "invalid property id",
			Errors: []dto.ValidationError{{Field: "propertyId", Message: "must be a UUID"}},
		})
		return "", false
	}
	return id.String(), true
}
