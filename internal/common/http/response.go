// Package http provides standardized HTTP utilities for the monzo programs
package http

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/baely/monzo/internal/common/errors"
)

// Response is a standardized API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// JSON writes a JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

// Success writes a successful JSON response
func Success(w http.ResponseWriter, data interface{}) {
	response := Response{
		Success: true,
		Data:    data,
	}
	JSON(w, http.StatusOK, response)
}

// Error writes an error JSON response
func Error(w http.ResponseWriter, err error, statusCode int) {
	response := Response{
		Success: false,
		Error:   err.Error(),
	}
	JSON(w, statusCode, response)
}

// HandleError determines the appropriate status code based on error type
func HandleError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError

	switch {
	case errors.Is(err, errors.ErrNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidInput):
		statusCode = http.StatusBadRequest
	case errors.Is(err, errors.ErrUnauthorized), errors.Is(err, errors.ErrInvalidSignature):
		statusCode = http.StatusUnauthorized
	case errors.Is(err, errors.ErrNotConfigured):
		statusCode = http.StatusServiceUnavailable
	}

	Error(w, err, statusCode)
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body><p>{{.Message}}</p></body>
</html>
`))

// HTML writes a minimal HTML page with the given title and message
func HTML(w http.ResponseWriter, statusCode int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)

	page := struct {
		Title   string
		Message string
	}{title, message}
	if err := pageTemplate.Execute(w, page); err != nil {
		slog.Error("Failed to render page", "error", err)
	}
}

// NewRouter creates a new Chi router with standard middleware
func NewRouter() *chi.Mux {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	return r
}

// NewQuietRouter creates a Chi router without request logging
func NewQuietRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	return r
}
