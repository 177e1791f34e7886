// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses.
// It provides a fluent API for building the X-Refresh header that tells
// clients which views to re-fetch after a mutation.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"dailymeow/internal/avatar"
	"dailymeow/internal/core"
	"dailymeow/internal/services"
)

// HeaderRefresh carries the views a client should re-fetch, as JSON.
const HeaderRefresh = "X-Refresh"

// RefreshScope tells a view which periods changed.
type RefreshScope struct {
	Months []string `json:"months,omitempty"`
	Days   []string `json:"days,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	refresh    map[services.View]RefreshScope
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		refresh:    make(map[services.View]RefreshScope),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Refresh adds every view of cs to the X-Refresh header.
func (b *JSONResponseBuilder) Refresh(cs services.ChangeSet) *JSONResponseBuilder {
	for _, v := range cs.Views {
		scope := b.refresh[v]
		scope.Months = appendUnique(scope.Months, cs.Months...)
		scope.Days = appendUnique(scope.Days, cs.Days...)
		b.refresh[v] = scope
	}
	return b
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.refresh) > 0 {
		if refreshJSON, err := json.Marshal(b.refresh); err == nil {
			w.Header().Set(HeaderRefresh, string(refreshJSON))
		}
	}

	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error string `json:"error"`
}

type batchErrorBody struct {
	Error      string `json:"error"`
	Requested  int    `json:"requested"`
	Created    int    `json:"created"`
	RolledBack int    `json:"rolledBack"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message).Header("WWW-Authenticate", "Bearer")
}

func ConflictError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "too many requests, slow down")
}

// errorStatus maps a service error to its status and client message.
// Messages for 5xx never include the cause.
func errorStatus(err error) (int, string) {
	switch {
	case core.IsValidation(err), errors.Is(err, avatar.ErrInvalidImage):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, core.ErrNotAuthenticated):
		return http.StatusUnauthorized, core.ErrNotAuthenticated.Error()
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized, core.ErrInvalidCredentials.Error()
	case errors.Is(err, core.ErrNameTaken):
		return http.StatusConflict, core.ErrNameTaken.Error()
	case errors.Is(err, core.ErrNotFound), errors.Is(err, avatar.ErrInvalidRef):
		return http.StatusNotFound, core.ErrNotFound.Error()
	default:
		return http.StatusInternalServerError, "something went wrong, please try again"
	}
}

// ServiceError builds the response for an error returned by a service.
func ServiceError(err error) *JSONResponseBuilder {
	var batch *services.BatchError
	if errors.As(err, &batch) {
		return NewJSONResponse().
			Status(http.StatusInternalServerError).
			Body(batchErrorBody{
				Error:      "some records could not be saved and were rolled back",
				Requested:  batch.Requested,
				Created:    batch.Created,
				RolledBack: batch.RolledBack,
			})
	}
	status, msg := errorStatus(err)
	b := ErrorResponse(status, msg)
	if status == http.StatusUnauthorized {
		b.Header("WWW-Authenticate", "Bearer")
	}
	return b
}
