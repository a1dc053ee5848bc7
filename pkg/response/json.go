package response

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the envelope every endpoint writes
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

// APIError carries a stable machine code next to a readable message
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta describes one page of a listing
type Meta struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

// NewMeta builds pagination metadata for a listing of total rows
func NewMeta(page, perPage, total int) *Meta {
	m := &Meta{Page: page, PerPage: perPage, Total: total}
	if perPage > 0 {
		m.TotalPages = (total + perPage - 1) / perPage
	}
	return m
}

func write(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// JSON sends data wrapped in the envelope
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, APIResponse{Success: status >= 200 && status < 300, Data: data})
}

// JSONWithMeta sends a page of data with its pagination metadata
func JSONWithMeta(w http.ResponseWriter, status int, data any, meta *Meta) {
	write(w, status, APIResponse{Success: status >= 200 && status < 300, Data: data, Meta: meta})
}

// Error sends an error envelope
func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, APIResponse{Error: &APIError{Code: code, Message: message}})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, "NOT_FOUND", message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, "CONFLICT", message)
}

func TooManyRequests(w http.ResponseWriter, message string) {
	Error(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", message)
}

func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

func ServiceUnavailable(w http.ResponseWriter, message string) {
	Error(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message)
}
