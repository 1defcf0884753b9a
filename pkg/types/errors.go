// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery means the query was empty or longer than MaxQueryLength.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrUnknownProvider means the provider is not in the allow-list.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrModeProviderMismatch means the research mode cannot run on the provider.
	ErrModeProviderMismatch = errors.New("research mode not supported by provider")

	// ErrProfileNotFound means no parameters are configured for a (mode, provider) pair.
	ErrProfileNotFound = errors.New("provider profile not found")

	// ErrNoCandidate means the generation provider returned no answer text.
	ErrNoCandidate = errors.New("response contains no candidate text")

	// ErrMalformedResponse means a 200 response could not be parsed.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrMissingAPIKey means no key is stored for the selected provider.
	ErrMissingAPIKey = errors.New("no API key configured")

	// ErrBusy means a conversation already has a request in flight.
	ErrBusy = errors.New("a request is already in progress for this conversation")
)

// MaxQueryLength is the longest query, in characters, sent to a provider.
const MaxQueryLength = 10000

// ProviderRequestFailed is returned when the network layer does not yield a
// successful response. Status is 0 when no HTTP response was received.
type ProviderRequestFailed struct {
	Provider ProviderID
	Status   int
	Body     string
	Err      error
}

func (e *ProviderRequestFailed) Error() string {
	if e.Status == 0 && e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s returned HTTP %d: %s", e.Provider, e.Status, e.Body)
	}
	return fmt.Sprintf("%s returned HTTP %d", e.Provider, e.Status)
}

func (e *ProviderRequestFailed) Unwrap() error {
	return e.Err
}
