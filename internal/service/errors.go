package service

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrValidation        = errors.New("validation error")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrUpstream          = errors.New("upstream service error")
	ErrConfig            = errors.New("configuration error")
	ErrUnprocessable     = errors.New("unprocessable entity")
)

// DetailError carries a client-safe message and an optional error code on
// top of one of the sentinel kinds above.
type DetailError struct {
	Kind    error
	Code    string
	Message string
}

func (e *DetailError) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *DetailError) Unwrap() error { return e.Kind }

func invalid(format string, args ...any) error {
	return &DetailError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func invalidCode(code, format string, args ...any) error {
	return &DetailError{Kind: ErrValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return &DetailError{Kind: ErrNotFound, Message: what + " not found"}
}

func upstream(format string, args ...any) error {
	return &DetailError{Kind: ErrUpstream, Message: fmt.Sprintf(format, args...)}
}

// mapNotFound turns sql.ErrNoRows into a not-found error naming what.
func mapNotFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(what)
	}
	return err
}

// messageOf returns the client-safe message of err.
func messageOf(err error) string {
	var de *DetailError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// normalizePage applies the default page size and clamps negative offsets.
func normalizePage(limit, offset, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListResult is the paginated envelope returned by list operations.
type ListResult[T any] struct {
	Items []T `json:"data"`
	Total int `json:"total"`
}
