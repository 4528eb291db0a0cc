package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a tracked anime or remote resource does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidAID is returned when an add request carries no usable AniDB ID
	ErrInvalidAID = errors.New("anime id is required")
	// ErrInvalidDirection is returned for progress actions other than increment/decrement
	ErrInvalidDirection = errors.New("invalid progress direction")
	// ErrMissingCredentials is returned when the AniDB client name or version is not configured
	ErrMissingCredentials = errors.New("anidb client and client version must be configured")
	// ErrBlocked marks a 403 from the title dump host
	ErrBlocked = errors.New("403 Forbidden from AniDB (blocked)")
	// ErrDownloadExhausted is returned when the title dump could not be downloaded
	// and there is no previously downloaded artifact to fall back to
	ErrDownloadExhausted = errors.New("title dump download failed after all attempts and no local copy exists")
	// ErrRefreshInProgress is returned when another process holds the title refresh lock
	ErrRefreshInProgress = errors.New("title index refresh already in progress")
)

// TransportError covers network failures, timeouts and non-success status codes
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: unexpected status code %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamError is an error document returned by the AniDB HTTP API
type UpstreamError struct {
	Code    string
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("anidb error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("anidb error: %s", e.Message)
}

// DuplicateError is returned when an anime with the same AniDB ID is already tracked
type DuplicateError struct {
	AID int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("anime %d is already in your list", e.AID)
}

// ParseError wraps a failure to decode a title dump or metadata document
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsDuplicate reports whether err is or wraps a DuplicateError
func IsDuplicate(err error) bool {
	var dup *DuplicateError
	return errors.As(err, &dup)
}
