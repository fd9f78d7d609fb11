package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"doc2db/internal/models"
	"doc2db/internal/responses"
)

// failFrom maps pipeline errors to HTTP statuses and error codes: missing
// resources are 404, payload problems 400, schemas that cannot be normalized
// 422, apply conflicts 409, everything else 500.
func failFrom(c *gin.Context, err error, message string) {
	var (
		validationErr    *models.ValidationError
		normalizationErr *models.NormalizationError
		applyErr         *models.ApplyError
	)
	switch {
	case errors.Is(err, models.ErrNotFound):
		responses.FailCode(c, http.StatusNotFound, models.ErrorCodeNotFound, err, message)
	case errors.As(err, &validationErr):
		responses.FailCode(c, http.StatusBadRequest, models.ErrorCodeValidation, err, message)
	case errors.As(err, &normalizationErr):
		responses.FailCode(c, http.StatusUnprocessableEntity, models.ErrorCodeNormalization, err, message)
	case errors.As(err, &applyErr):
		responses.FailCode(c, http.StatusConflict, models.ErrorCodeApply, err, message)
	default:
		responses.Fail(c, http.StatusInternalServerError, err, message)
	}
}

// parseUUIDParam reads a UUID path parameter, writing a 400 response itself
// when the value does not parse.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
