package handler

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Handler is a http.Handler that renders the error it returns
type Handler func(w http.ResponseWriter, r *http.Request) *Error

// Error is an error that a handler can return to the client
type Error struct {
	Message string
	Code    int
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handlerError := h(w, r)
	if handlerError == nil {
		return
	}

	w.Header().Set("Cache-Control", "private, no-cache, no-store, must-revalidate")

	// Render the error as json if the client asks for it
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(handlerError.Code)
		_ = json.NewEncoder(w).Encode(struct {
			Error string `json:"error"`
		}{handlerError.Message})
		return
	}

	http.Error(w, handlerError.Message, handlerError.Code)
}

// InternalServerError returns a generic internal server error
func InternalServerError() *Error {
	return &Error{
		Message: "Something went wrong",
		Code:    http.StatusInternalServerError,
	}
}

// BadRequest returns a bad request error with the given message
func BadRequest(message string) *Error {
	return &Error{
		Message: message,
		Code:    http.StatusBadRequest,
	}
}

// NotFound returns a not found error with the given message
func NotFound(message string) *Error {
	return &Error{
		Message: message,
		Code:    http.StatusNotFound,
	}
}
