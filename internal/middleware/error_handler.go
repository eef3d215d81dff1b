package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/anyulbade/stay-tax-engine/internal/dto"
	"github.com/anyulbade/stay-tax-engine/internal/engine"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MapError classifies an error pushed by a handler. Rule defects and failed
// consistency checks surface only as a generic 500.
func MapError(err error) (int, any) {
	var ce *engine.ContextError
	switch {
	case errors.As(err, &ce):
		resp := dto.ErrorListResponse{Error: "invalid calculation context"}
		for _, f := range ce.Fields {
			resp.Errors = append(resp.Errors, dto.ValidationError{Field: f.Field, Message: f.Message})
		}
		return http.StatusBadRequest, resp
	case errors.Is(err, engine.ErrInvalidRuleDefinition), errors.Is(err, engine.ErrInternalConsistency):
		return http.StatusInternalServerError, ErrorResponse{Error: "calculation unavailable"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "rule store unavailable"}
	}
	return MapDBError(err)
}

func MapDBError(err error) (int, ErrorResponse) {
	if errors.Is(err, pgx.ErrNoRows) {
		return http.StatusNotFound, ErrorResponse{Error: "resource not found"}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22P02": // invalid_text_representation
			return http.StatusBadRequest, ErrorResponse{Error: "malformed identifier"}
		case "57014": // query_canceled
			return http.StatusServiceUnavailable, ErrorResponse{Error: "rule store unavailable"}
		}
		log.Error().Err(err).Str("code", pgErr.Code).Msg("unhandled database error")
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return http.StatusServiceUnavailable, ErrorResponse{Error: "rule store unavailable"}
	}

	log.Error().Err(err).Msg("unhandled error")
	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
}

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			status, resp := MapError(c.Errors.Last().Err)
			c.JSON(status, resp)
		}
	}
}
