package http

import (
	"net/http"

	apierrors "mentedigital/internal/errors"
	"mentedigital/internal/services"
)

// ProblemMappings maps the service sentinels to problem types. They are
// registered on the error handler next to the package defaults.
func ProblemMappings() []apierrors.ProblemMapping {
	return []apierrors.ProblemMapping{
		{Target: services.ErrNoData, Status: http.StatusServiceUnavailable, Type: apierrors.TypeNoData, Title: "No Survey Data"},
		{Target: services.ErrInvalidInput, Status: http.StatusBadRequest, Type: apierrors.TypeValidation, Title: "Validation Failed"},
	}
}
