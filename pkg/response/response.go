// Package response writes the storefront's JSON shapes: successful writes
// answer {"ok":true,...} and failures answer {"error":"..."}.
package response

import (
	"encoding/json"
	"net/http"
)

// Fields are extra keys merged into an {"ok":true} body.
type Fields map[string]any

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Success sends a 200 with data as the whole body.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// OK sends 200 {"ok":true} plus any extra fields.
func OK(w http.ResponseWriter, fields Fields) {
	JSON(w, http.StatusOK, okBody(fields))
}

// Created sends 201 {"ok":true} plus any extra fields.
func Created(w http.ResponseWriter, fields Fields) {
	JSON(w, http.StatusCreated, okBody(fields))
}

func okBody(fields Fields) map[string]any {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["ok"] = true
	return body
}

// Error sends {"error":message} with status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorBody{Error: message})
}

// ValidationError sends a 422 with a field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, errorBody{Error: "Validation failed", Fields: errs})
}

// BadRequest sends a 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "Unauthorized")
}

// Forbidden sends a 403.
func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "Forbidden")
}

// NotFound sends a 404 with message.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// ServerError sends the generic 500.
func ServerError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "Server error")
}
