// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dispatch turns a query into a provider-specific request plan and
// sends it. Each provider has its own backend that knows the endpoint, the
// authentication scheme, and the body schema.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/logging"
	"github.com/pdiddy/research-assistant/internal/profile"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Transport sends a planned request. *httputil.Client implements it.
type Transport interface {
	PostJSON(ctx context.Context, provider types.ProviderID, url string, headers map[string]string, body []byte) ([]byte, error)
}

// Request is one query to plan.
type Request struct {
	Provider types.ProviderID
	Mode     types.ResearchMode
	Query    string

	// Context is prior conversation, already trimmed. It must not include
	// the current query.
	Context []types.ChatTurn

	// Video is the active video of the conversation, if any.
	Video *types.VideoContext
}

// RequestPlan is a fully built provider request.
type RequestPlan struct {
	Provider types.ProviderID
	Mode     types.ResearchMode
	Query    string
	URL      string
	Method   string
	Headers  map[string]string
	Body     json.RawMessage

	// Profile is the resolved parameter bundle the body was built from.
	Profile types.ProviderProfile

	// Warnings are user-visible notes about substitutions made while planning.
	Warnings []string
}

// Options configures a Dispatcher.
type Options struct {
	Profiles  *profile.Store
	Endpoints types.EndpointConfig
	Transport Transport
	Logger    *zap.Logger

	// Now is the clock used for relative date filters. Defaults to time.Now.
	Now func() time.Time
}

// Dispatcher builds and sends provider requests.
type Dispatcher struct {
	profiles  *profile.Store
	transport Transport
	logger    *zap.Logger
	now       func() time.Time
	backends  map[types.ProviderID]backend

	mu       sync.RWMutex
	settings types.Settings
}

// New returns a Dispatcher using DefaultSettings until Configure is called.
func New(opts Options) *Dispatcher {
	if opts.Profiles == nil {
		opts.Profiles = profile.NewStore(opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{
		profiles:  opts.Profiles,
		transport: opts.Transport,
		logger:    logging.OrNop(opts.Logger).Named("dispatch"),
		now:       opts.Now,
		backends: map[types.ProviderID]backend{
			types.ProviderGemini:     &geminiBackend{base: opts.Endpoints.Gemini},
			types.ProviderPerplexity: &perplexityBackend{base: opts.Endpoints.Perplexity},
			types.ProviderTavily:     &tavilyBackend{base: opts.Endpoints.Tavily},
			types.ProviderExa:        &exaBackend{base: opts.Endpoints.Exa},
		},
		settings: types.DefaultSettings(),
	}
}

// Configure replaces the settings used for API keys, templates, and the
// video policy.
func (d *Dispatcher) Configure(s types.Settings) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settings = s
}

// ValidateQuery trims q and checks it is non-empty and at most
// types.MaxQueryLength characters.
func ValidateQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", fmt.Errorf("%w: query is empty", types.ErrInvalidQuery)
	}
	if n := utf8.RuneCountInString(q); n > types.MaxQueryLength {
		return "", fmt.Errorf("%w: query is %d characters, limit is %d", types.ErrInvalidQuery, n, types.MaxQueryLength)
	}
	return q, nil
}

// Plan validates req, resolves its profile, and builds the provider request.
// Nothing is sent.
func (d *Dispatcher) Plan(req Request) (*RequestPlan, error) {
	query, err := ValidateQuery(req.Query)
	if err != nil {
		return nil, err
	}
	if !req.Provider.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownProvider, req.Provider)
	}
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown research mode %q", types.ErrProfileNotFound, req.Mode)
	}

	d.mu.RLock()
	settings := d.settings
	d.mu.RUnlock()

	plan := &RequestPlan{Provider: req.Provider, Mode: req.Mode, Query: query, Method: http.MethodPost}

	if !req.Mode.CompatibleWith(req.Provider) {
		if settings.VideoPolicy == types.VideoPolicyReject {
			return nil, fmt.Errorf("%w: %s is only available with %s, not %s",
				types.ErrModeProviderMismatch, req.Mode.DisplayName(), types.ProviderGemini.DisplayName(), req.Provider.DisplayName())
		}
		plan.Warnings = append(plan.Warnings, fmt.Sprintf("%s is only available with %s; switched from %s.",
			req.Mode.DisplayName(), types.ProviderGemini.DisplayName(), req.Provider.DisplayName()))
		d.logger.Info("provider switched for video analysis",
			zap.String("from", string(req.Provider)),
			zap.String("to", string(types.ProviderGemini)))
		plan.Provider = types.ProviderGemini
	}

	res, err := d.profiles.ResolveWithWarning(plan.Mode, plan.Provider)
	if err != nil {
		return nil, err
	}
	plan.Profile = res.Profile
	if res.Warning != "" {
		plan.Warnings = append(plan.Warnings, res.Warning)
	}

	key := strings.TrimSpace(settings.APIKeys[plan.Provider])
	if key == "" {
		return nil, fmt.Errorf("%w for %s", types.ErrMissingAPIKey, plan.Provider.DisplayName())
	}

	video := req.Video
	if plan.Mode == types.ModeVideo && video == nil {
		video = FindVideo(query)
	}
	if plan.Mode != types.ModeVideo {
		video = nil
	}

	in := buildInput{
		profile: res.Profile,
		query:   query,
		prompt:  Prompt(settings, plan.Mode, query, video),
		context: req.Context,
		video:   video,
		apiKey:  key,
		now:     d.now(),
	}
	b := d.backends[plan.Provider]
	url, headers, body, err := b.build(in)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", plan.Provider, err)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", plan.Provider, err)
	}
	plan.URL = url
	plan.Headers = headers
	plan.Body = raw

	d.logger.Debug("request planned",
		zap.String("provider", string(plan.Provider)),
		zap.String("mode", string(plan.Mode)),
		zap.String("model", plan.Profile.Model),
		zap.Int("context_turns", len(req.Context)),
		zap.Bool("video", video != nil))
	return plan, nil
}

// Send issues plan through the transport and returns the raw response body.
// Failures are returned as *types.ProviderRequestFailed and not retried.
func (d *Dispatcher) Send(ctx context.Context, plan *RequestPlan) ([]byte, error) {
	if d.transport == nil {
		return nil, fmt.Errorf("dispatcher has no transport")
	}
	start := d.now()
	data, err := d.transport.PostJSON(ctx, plan.Provider, plan.URL, plan.Headers, plan.Body)
	if err != nil {
		return nil, err
	}
	d.logger.Info("provider responded",
		zap.String("provider", string(plan.Provider)),
		zap.String("mode", string(plan.Mode)),
		zap.Duration("elapsed", d.now().Sub(start)))
	return data, nil
}

// Dispatch plans and sends req in one step.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*RequestPlan, []byte, error) {
	plan, err := d.Plan(req)
	if err != nil {
		return nil, nil, err
	}
	data, err := d.Send(ctx, plan)
	return plan, data, err
}

// backend builds the request for one provider.
type backend interface {
	build(in buildInput) (url string, headers map[string]string, body any, err error)
}

type buildInput struct {
	profile types.ProviderProfile
	query   string
	prompt  string
	context []types.ChatTurn
	video   *types.VideoContext
	apiKey  string
	now     time.Time
}
