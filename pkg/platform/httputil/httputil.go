// Package httputil centralizes JSON response writing so every handler emits
// the same envelope and the same domain-error translation.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "finaudit/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeInvalidInput:     http.StatusBadRequest,
	dErrors.CodeExtractionFailed: http.StatusBadRequest,
	dErrors.CodeDocumentRejected: http.StatusUnprocessableEntity,
	dErrors.CodeNotFound:         http.StatusNotFound,
	dErrors.CodeTimeout:          http.StatusGatewayTimeout,
	dErrors.CodeInternal:         http.StatusInternalServerError,
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
// Internal errors never leak their description to the caller.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
		code = dErrors.CodeInternal
	}

	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.MessageOf(err); msg != "" {
			body["error_description"] = msg
		}
	}
	WriteJSON(w, status, body)
}

// DecodeJSON decodes a request body into T, rejecting unknown fields. On
// failure it writes the error envelope and returns ok=false so handlers can
// return immediately.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed request body"))
		return req, false
	}
	return req, true
}
