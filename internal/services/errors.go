// Package services implements the link/mapping lifecycle: publishing stored
// media behind a shortened link, re-shortening existing links under another
// user's key, resolving a mapping token back to stored media, and managing
// per-user API keys.
//
// This file centralizes the service-level errors. Sentinels are compared with
// errors.Is; the URL-carrying failures of the converter are typed so the
// offending link can be named in the reply (errors.As). Translation into
// user-facing texts happens in the bot layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAPIKey is returned when the user has not saved an API key yet.
	ErrNoAPIKey = errors.New("api key not set")

	// ErrEmptyAPIKey is returned when /set_api is called with a blank key.
	ErrEmptyAPIKey = errors.New("api key is empty")

	// ErrStoreUnavailable wraps every mapping-store failure other than
	// not-found. The operation for the current update is abandoned.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrMappingNotFound indicates that a token has no stored message.
	ErrMappingNotFound = errors.New("mapping not found")

	// ErrNoURLs is returned when a convert request carries no http(s) link.
	ErrNoURLs = errors.New("no urls to convert")

	// ErrRelayFailed is returned when the inbound media could not be copied
	// into the storage channel.
	ErrRelayFailed = errors.New("relay to storage failed")
)

// InvalidLinkError reports a URL whose host is not the short-link domain.
type InvalidLinkError struct {
	URL string
}

func (e *InvalidLinkError) Error() string {
	return fmt.Sprintf("not a short link: %s", e.URL)
}

// LinkNotFoundError reports a short URL with no recorded long URL.
type LinkNotFoundError struct {
	URL string
}

func (e *LinkNotFoundError) Error() string {
	return fmt.Sprintf("link not found: %s", e.URL)
}

// ShortenError reports a failed shortening call for URL. In the converter URL
// is the short link the user sent; in the publish path it is the long URL.
type ShortenError struct {
	URL string
	Err error
}

func (e *ShortenError) Error() string {
	return fmt.Sprintf("shorten %s: %v", e.URL, e.Err)
}

func (e *ShortenError) Unwrap() error { return e.Err }
