// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// PageMeta carries pagination metadata for list responses.
type PageMeta struct {
	// Total is the number of rows across all pages.
	Total int64 `json:"total"`
	// Page is the 1-based page number the caller requested.
	Page int `json:"page"`
	// LastPage is ceil(total/limit); 0 when there are no rows.
	LastPage int `json:"lastPage"`
}

// Page wraps one page of results together with its metadata.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// Paginate builds the pagination envelope for a result slice. It performs no
// bounds-clamping of page or limit; callers must validate both (limit must be
// positive). A nil data slice is normalized to an empty one so list responses
// always serialize as a JSON array.
func Paginate[T any](data []T, total int64, page, limit int) Page[T] {
	if data == nil {
		data = []T{}
	}
	lastPage := int((total + int64(limit) - 1) / int64(limit))
	return Page[T]{
		Data: data,
		Meta: PageMeta{
			Total:    total,
			Page:     page,
			LastPage: lastPage,
		},
	}
}
