package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// ErrorDocument is the JSON envelope pullconfd returns for every error
// response. The agent decodes it and surfaces title and detail to the
// operator, so both strings are written for humans.
//
// The status code travels as a string to keep the document uniform with
// other JSON:API style error payloads.
type ErrorDocument struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// NewErrorDocument builds an envelope from a numeric status code.
func NewErrorDocument(code int, title, detail string) *ErrorDocument {
	return &ErrorDocument{
		Status: strconv.Itoa(code),
		Title:  title,
		Detail: detail,
	}
}

// Error implements the error interface.
func (e *ErrorDocument) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

// StatusCode returns the numeric HTTP status of the document. Documents
// with an unparsable status report 500.
func (e *ErrorDocument) StatusCode() int {
	code, err := strconv.Atoi(e.Status)
	if err != nil {
		return http.StatusInternalServerError
	}
	return code
}

// AsErrorDocument extracts an ErrorDocument from an error chain.
func AsErrorDocument(err error) (*ErrorDocument, bool) {
	var document *ErrorDocument
	if errors.As(err, &document) {
		return document, true
	}
	return nil, false
}

// NewMissingAuthorization is returned when a request carries no API key.
func NewMissingAuthorization() *ErrorDocument {
	return NewErrorDocument(
		http.StatusUnauthorized,
		"missing authorization",
		"requests must contain an <X-API-KEY> header with an API key",
	)
}

// NewFailedAuthorization is returned when the presented API key matches no
// client.
func NewFailedAuthorization() *ErrorDocument {
	return NewErrorDocument(
		http.StatusUnauthorized,
		"failed authorization",
		"the provided API key is not associated with any client",
	)
}

// NewForbidden is returned when an authenticated client requests data that
// belongs to another client.
func NewForbidden() *ErrorDocument {
	return NewErrorDocument(
		http.StatusForbidden,
		"access forbidden",
		"insufficient permissions to access the requested resource",
	)
}

// NewNotFound is returned when the requested document does not exist.
func NewNotFound(detail string) *ErrorDocument {
	return NewErrorDocument(http.StatusNotFound, "not found", detail)
}

// NewInternalServerError hides fault details from the client.
func NewInternalServerError() *ErrorDocument {
	return NewErrorDocument(
		http.StatusInternalServerError,
		"internal server error",
		"the server failed to process the request, consult the server log",
	)
}
