/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

package search

import (
	"errors"
	"fmt"
)

// ErrorKind classifies search failures
type ErrorKind int

const (
	// KindNoSearchableTables means no target table has a text column
	KindNoSearchableTables ErrorKind = iota

	// KindDimensionMismatch means the embedding model changed without
	// re-embedding the partition
	KindDimensionMismatch

	// KindProviderUnavailable means no embedding provider is configured or
	// reachable
	KindProviderUnavailable

	// KindProviderBatchFailed means a provider call failed for one table
	KindProviderBatchFailed

	// KindInvalidWeights means a fusion weight was negative
	KindInvalidWeights

	// KindEmptyQuery means the query was empty or whitespace
	KindEmptyQuery
)

// String returns the wire name of the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindNoSearchableTables:
		return "no_searchable_tables"
	case KindDimensionMismatch:
		return "dimension_mismatch"
	case KindProviderUnavailable:
		return "provider_unavailable"
	case KindProviderBatchFailed:
		return "provider_batch_failed"
	case KindInvalidWeights:
		return "invalid_weights"
	case KindEmptyQuery:
		return "empty_query"
	default:
		return "unknown"
	}
}

// Error is a typed search failure. DimensionMismatch and InvalidWeights are
// caller errors surfaced immediately; provider failures degrade the affected
// table instead of aborting the request.
type Error struct {
	Kind  ErrorKind
	Table string // affected table, when table-scoped
	Err   error  // wrapped cause, may be nil
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Table != "" {
		msg = fmt.Sprintf("%s (table %q)", msg, e.Table)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a typed search error
func NewError(kind ErrorKind, table string, err error) *Error {
	return &Error{Kind: kind, Table: table, Err: err}
}

// IsKind reports whether err is a search error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
