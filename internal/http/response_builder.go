package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"classroom/internal/core"
	"classroom/internal/log"
	"classroom/internal/services"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeServiceError maps a LedgerService error to its status code. Storage
// failures were already logged by the service and reach the client as a
// generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case services.IsValidation(err):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrInactiveDate):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrImageImportUnavailable):
		writeError(w, r, http.StatusNotImplemented, err.Error())
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
