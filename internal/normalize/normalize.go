// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts raw provider responses into a NormalizedResult
// and renders results as Markdown. Failures are turned into error results
// rather than returned, so callers always have text to show.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/logging"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Options carries request details that shape a result.
type Options struct {
	Query string
	Mode  types.ResearchMode

	// IncludeImages enables the images section when the response has images.
	IncludeImages bool

	// OmitCitations drops the sources a generation provider returns with its
	// answer. Search providers always list their results.
	OmitCitations bool

	// IncludeMetadata adds the provider, mode, usage, and timestamp footer.
	IncludeMetadata bool

	// Warnings are copied into the result, e.g. from request planning.
	Warnings []string
}

// Normalizer parses provider responses.
type Normalizer struct {
	now    func() time.Time
	logger *zap.Logger
}

// New returns a Normalizer. A nil clock means time.Now.
func New(now func() time.Time, logger *zap.Logger) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now, logger: logging.OrNop(logger).Named("normalize")}
}

// Normalize parses raw as a response from provider. It fails with
// types.ErrMalformedResponse when raw is not the expected shape and
// types.ErrNoCandidate when no answer text is present.
func (n *Normalizer) Normalize(provider types.ProviderID, raw []byte, opts Options) (*types.NormalizedResult, error) {
	res := n.newResult(provider, opts)

	var err error
	switch provider {
	case types.ProviderGemini:
		err = normalizeGemini(raw, res)
	case types.ProviderPerplexity:
		err = normalizePerplexity(raw, res, opts)
	case types.ProviderTavily:
		err = normalizeTavily(raw, res, opts)
	case types.ProviderExa:
		err = normalizeExa(raw, res, opts)
	default:
		err = fmt.Errorf("%w: %q", types.ErrUnknownProvider, provider)
	}
	if err != nil {
		n.logger.Warn("normalize failed", zap.String("provider", string(provider)), zap.Error(err))
		return nil, err
	}

	if opts.IncludeMetadata {
		res.Metadata = append([]types.MetadataLine{
			{Label: "Provider", Value: provider.DisplayName()},
			{Label: "Mode", Value: opts.Mode.DisplayName()},
		}, res.Metadata...)
		res.AddMetadata("Generated", res.Timestamp.Format("2006-01-02 15:04:05"))
	} else {
		res.Metadata = nil
	}
	return res, nil
}

// Fail converts err into an error result with a message specific to the
// failure. It never fails itself.
func (n *Normalizer) Fail(provider types.ProviderID, err error, opts Options) *types.NormalizedResult {
	res := n.newResult(provider, opts)
	res.IsError = true
	res.BodyText = Message(provider, err)
	n.logger.Debug("error result", zap.String("provider", string(provider)), zap.Error(err))
	return res
}

func (n *Normalizer) newResult(provider types.ProviderID, opts Options) *types.NormalizedResult {
	return &types.NormalizedResult{
		Provider:  provider,
		Mode:      opts.Mode,
		Query:     opts.Query,
		Title:     title(opts.Query),
		Warnings:  append([]string(nil), opts.Warnings...),
		Timestamp: n.now(),
	}
}

// Message returns the user-facing explanation of err.
func Message(provider types.ProviderID, err error) string {
	name := provider.DisplayName()
	if name == "" {
		name = "The provider"
	}

	var pf *types.ProviderRequestFailed
	switch {
	case err == nil:
		return "Unknown error."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("The request to %s timed out. Try again, or use a quicker research mode.", name)
	case errors.As(err, &pf):
		return requestFailedMessage(pf)
	case errors.Is(err, types.ErrInvalidQuery):
		return fmt.Sprintf("Invalid query: %s. Enter a non-empty query of at most %d characters.", detail(err, types.ErrInvalidQuery), types.MaxQueryLength)
	case errors.Is(err, types.ErrUnknownProvider):
		return fmt.Sprintf("Unknown provider: %s. Choose Gemini, Perplexity, Tavily, or Exa in settings.", detail(err, types.ErrUnknownProvider))
	case errors.Is(err, types.ErrModeProviderMismatch):
		return fmt.Sprintf("This research mode is not available for the selected provider: %s.", detail(err, types.ErrModeProviderMismatch))
	case errors.Is(err, types.ErrProfileNotFound):
		return fmt.Sprintf("No settings are configured for this provider and research mode (%s). Check the provider settings or enable profile fallback.", detail(err, types.ErrProfileNotFound))
	case errors.Is(err, types.ErrMissingAPIKey):
		return fmt.Sprintf("No API key is configured for %s. Add one in settings.", name)
	case errors.Is(err, types.ErrNoCandidate):
		return fmt.Sprintf("%s returned no answer. %s", name, detail(err, types.ErrNoCandidate))
	case errors.Is(err, types.ErrMalformedResponse):
		return fmt.Sprintf("%s returned a response that could not be read. %s", name, detail(err, types.ErrMalformedResponse))
	case errors.Is(err, types.ErrBusy):
		return "A request is already in progress for this conversation. Wait for it to finish and try again."
	}
	return fmt.Sprintf("Unexpected error: %v", err)
}

func requestFailedMessage(pf *types.ProviderRequestFailed) string {
	name := pf.Provider.DisplayName()
	switch {
	case pf.Status == 0:
		return fmt.Sprintf("Could not reach %s: %v. Check your network connection.", name, pf.Err)
	case pf.Status == http.StatusUnauthorized:
		return fmt.Sprintf("Authentication failed (HTTP 401). Check your %s API key in settings.", name)
	case pf.Status == http.StatusForbidden:
		return fmt.Sprintf("Access forbidden (HTTP 403). Your %s API key does not have permission for this request.", name)
	case pf.Status == http.StatusTooManyRequests:
		return fmt.Sprintf("Rate limited by %s (HTTP 429). Too many requests; wait a moment and try again.", name)
	case pf.Status >= 500:
		return fmt.Sprintf("%s server error (HTTP %d). The provider is having problems; try again later.", name, pf.Status)
	}
	msg := fmt.Sprintf("%s request failed with HTTP %d.", name, pf.Status)
	if pf.Body != "" {
		msg += " Response: " + clip(pf.Body, 300)
	}
	return msg
}

// detail strips the sentinel prefix from a wrapped error message.
func detail(err, sentinel error) string {
	s := err.Error()
	s = strings.TrimPrefix(s, sentinel.Error())
	s = strings.TrimLeft(s, ": ")
	if s == "" {
		return sentinel.Error()
	}
	return s
}

func title(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	if q == "" {
		return "Research"
	}
	return clip(q, 100)
}

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
