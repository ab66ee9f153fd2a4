// Package apperr defines the closed error taxonomy exposed to API clients.
// Every error that crosses the HTTP boundary is one of these kinds; the kind
// fixes the status code and the message is the only detail a caller sees.
package apperr

import "net/http"

// Kind classifies an error.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindAuth         Kind = "auth"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindBusinessRule Kind = "business_rule"
	KindUpstream     Kind = "upstream"
	KindInternal     Kind = "internal"
)

// Error carries a kind and a short client-safe message.
type Error struct {
	Kind    Kind
	Message string
}

// New builds an Error. Package-level sentinels built with New can be matched
// with errors.Is.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus maps the error kind onto its fixed status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindBusinessRule:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
