package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: compare-and-set lost against a concurrent writer
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrNoCandidates: directory holds no identity of the required role
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrNoCandidates = errors.New("no candidates")
	ErrUnavailable  = errors.New("unavailable")
)
