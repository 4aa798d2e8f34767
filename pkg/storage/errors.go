package storage

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound   = errors.New("archived blob not found")
	ErrEmptyKey   = errors.New("archive key is empty")
	ErrInvalidKey = errors.New("archive key contains a parent directory segment")
)

// MapHTTPStatus maps storage errors to HTTP status codes. Key errors are
// client mistakes; anything else is a backend failure.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
