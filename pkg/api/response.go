package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/intentswap/settler/pkg/models"
)

// dataResponse wraps every successful payload.
type dataResponse struct {
	Data  interface{} `json:"data"`
	Count *int        `json:"count,omitempty"`
}

// errorResponse is the standard error body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeData wraps payload in {"data": ...}.
func writeData(w http.ResponseWriter, status int, payload interface{}) {
	writeJSON(w, status, dataResponse{Data: payload})
}

// writeError writes {"error": msg} with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps the error taxonomy onto HTTP status codes:
// validation and quote rejection are client errors raised before any
// mutation, authorization and state conflicts carry their own codes,
// and adapter failures surface as a bad gateway.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	var adapterErr *models.AdapterError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, models.ErrQuoteRejected):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &adapterErr):
		writeError(w, http.StatusBadGateway, adapterErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
