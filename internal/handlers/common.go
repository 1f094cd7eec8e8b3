package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/wanderlink/backend/internal/models"
	"github.com/wanderlink/backend/internal/services"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeServiceError maps the service sentinels onto HTTP statuses. The
// conflict messages stay user-readable so clients can tell "already
// requested" from a generic failure.
func writeServiceError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, services.ErrInvalidTravelStyle),
		errors.Is(err, services.ErrSelfRequest):
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse(err.Error()))
	case errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrMatchNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse(err.Error()))
	case errors.Is(err, services.ErrMatchExists),
		errors.Is(err, services.ErrMatchDecided):
		writeJSON(w, http.StatusConflict, models.NewErrorResponse(err.Error()))
	case errors.Is(err, services.ErrNotReceiver):
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse(err.Error()))
	default:
		return false
	}
	return true
}

func validationErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = fe.Tag()
		}
	}
	return out
}
