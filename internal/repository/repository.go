// Package repository contains data access abstractions. Implementations live
// in subpackages (postgres) and return sql.ErrNoRows when a row is missing.
package repository

import "errors"

// ErrDuplicate is returned when an insert collides with a unique constraint.
var ErrDuplicate = errors.New("duplicate key")

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}

// Fields is a partial update keyed by column name. Callers restrict keys to
// an allow-list before handing it to a repository.
type Fields map[string]any
