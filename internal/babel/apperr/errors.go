// Package apperr defines the structural error kinds the core surfaces.
//
// Only InvalidQuery, InvalidConfig, InvalidMode and a partial Deadline are
// ever returned to a caller; every other failure degrades to an empty or
// partial result with the cause logged (RemoteFetchFailed is one such
// cause and is never returned from the pipeline).
package apperr

import "errors"

var (
	// ErrInvalidQuery is returned when a query normalizes to the empty string.
	ErrInvalidQuery = errors.New("babel: invalid query")
	// ErrInvalidConfig is returned when an option is out of its documented bounds.
	ErrInvalidConfig = errors.New("babel: invalid config")
	// ErrInvalidMode is returned for a search mode outside {local, remote, hybrid}.
	ErrInvalidMode = errors.New("babel: invalid mode")
	// ErrDeadline marks a pipeline call that ran out of time before scoring anything.
	ErrDeadline = errors.New("babel: deadline exceeded")
	// ErrRemoteFetchFailed marks a single candidate's remote retrieval failure.
	// It is logged and swallowed by the pipeline; it never reaches a caller.
	ErrRemoteFetchFailed = errors.New("babel: remote fetch failed")
)

// Kind classifies an error into one of the caller-visible buckets, mirroring
// the way a request-tracing layer would tag a failure for metrics without
// string-matching on the message.
type Kind string

const (
	KindNone           Kind = ""
	KindInvalidQuery   Kind = "invalid_query"
	KindInvalidConfig  Kind = "invalid_config"
	KindInvalidMode    Kind = "invalid_mode"
	KindDeadline       Kind = "deadline"
	KindRemoteFetch    Kind = "remote_fetch_failed"
	KindUnknown        Kind = "unknown"
)

// Classify maps err to its Kind using errors.Is, never string comparison.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidQuery):
		return KindInvalidQuery
	case errors.Is(err, ErrInvalidConfig):
		return KindInvalidConfig
	case errors.Is(err, ErrInvalidMode):
		return KindInvalidMode
	case errors.Is(err, ErrDeadline):
		return KindDeadline
	case errors.Is(err, ErrRemoteFetchFailed):
		return KindRemoteFetch
	default:
		return KindUnknown
	}
}
