// Package page models the paged collection body returned by DataAPI list endpoints.
package page

import (
	"fmt"
)

// DefaultSize is the page size used when callers pass none
const DefaultSize = 20

// Result is one page of a collection. First, Last and Empty are derived from
// the other fields; Validate recomputes them and reports server values that
// disagreed.
type Result[T any] struct {
	Content       []T   `json:"content"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
	Empty         bool  `json:"empty"`

	warnings []string
}

// New builds a page and derives its flags.
func New[T any](content []T, pageNumber, pageSize int, totalElements int64) Result[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((totalElements + int64(pageSize) - 1) / int64(pageSize))
	}
	r := Result[T]{
		Content:       content,
		PageNumber:    pageNumber,
		PageSize:      pageSize,
		TotalElements: totalElements,
		TotalPages:    totalPages,
	}
	r.Validate()
	return r
}

// Validate recomputes the derived flags and returns one warning per flag the
// decoded value got wrong, plus warnings for impossible counters. It never fails.
func (r *Result[T]) Validate() []string {
	var warnings []string

	empty := len(r.Content) == 0
	first := r.PageNumber == 0
	last := r.TotalPages == 0 || r.PageNumber == r.TotalPages-1

	if r.Empty != empty {
		warnings = append(warnings, fmt.Sprintf("empty=%t but content has %d items", r.Empty, len(r.Content)))
	}
	if r.First != first {
		warnings = append(warnings, fmt.Sprintf("first=%t but pageNumber=%d", r.First, r.PageNumber))
	}
	if r.Last != last {
		warnings = append(warnings, fmt.Sprintf("last=%t but pageNumber=%d of totalPages=%d", r.Last, r.PageNumber, r.TotalPages))
	}
	if r.PageNumber < 0 {
		warnings = append(warnings, fmt.Sprintf("negative pageNumber %d", r.PageNumber))
	}
	if r.TotalPages > 0 && r.PageNumber >= r.TotalPages {
		warnings = append(warnings, fmt.Sprintf("pageNumber %d is beyond totalPages %d", r.PageNumber, r.TotalPages))
	}
	if r.PageSize > 0 && len(r.Content) > r.PageSize {
		warnings = append(warnings, fmt.Sprintf("content has %d items but pageSize is %d", len(r.Content), r.PageSize))
	}
	if int64(len(r.Content)) > r.TotalElements {
		warnings = append(warnings, fmt.Sprintf("content has %d items but totalElements is %d", len(r.Content), r.TotalElements))
	}

	r.Empty, r.First, r.Last = empty, first, last
	r.warnings = warnings
	return warnings
}

// Warnings returns the findings of the last Validate call.
func (r Result[T]) Warnings() []string {
	return append([]string(nil), r.warnings...)
}

// HasNext reports whether another page follows.
func (r Result[T]) HasNext() bool {
	return !r.Last
}

// Next returns the page number that follows, or -1 on the last page.
func (r Result[T]) Next() int {
	if r.Last {
		return -1
	}
	return r.PageNumber + 1
}

// Len returns the number of items on the page.
func (r Result[T]) Len() int {
	return len(r.Content)
}
