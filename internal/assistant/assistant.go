// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assistant is the entry point used by the host: one-shot search,
// multi-turn chat sessions, and the glue that writes results into the
// editor and saves conversations into the vault. Every failure is turned
// into rendered error text, so callers always get a string to show.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/dispatch"
	"github.com/pdiddy/research-assistant/internal/history"
	"github.com/pdiddy/research-assistant/internal/logging"
	"github.com/pdiddy/research-assistant/internal/normalize"
	"github.com/pdiddy/research-assistant/internal/profile"
	"github.com/pdiddy/research-assistant/internal/vault"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Options configures an Assistant. Only Transport is needed to reach the
// providers; everything else has a default.
type Options struct {
	Logger    *zap.Logger
	Profiles  *profile.Store
	Transport dispatch.Transport
	Endpoints types.EndpointConfig

	// Now is the clock used for timestamps and relative dates.
	Now func() time.Time

	// Settings is used when SettingsStore is nil. A zero value means
	// types.DefaultSettings().
	Settings types.Settings

	SettingsStore SettingsStore

	// Conversations, when set, receives every chat session after each turn.
	Conversations ConversationStore
}

// Assistant runs research queries for the host.
type Assistant struct {
	logger        *zap.Logger
	profiles      *profile.Store
	dispatcher    *dispatch.Dispatcher
	normalizer    *normalize.Normalizer
	now           func() time.Time
	validate      *validator.Validate
	settingsStore SettingsStore
	conversations ConversationStore

	mu       sync.RWMutex
	settings types.Settings
}

// New builds an Assistant and applies the initial settings.
func New(opts Options) (*Assistant, error) {
	logger := logging.OrNop(opts.Logger)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Profiles == nil {
		opts.Profiles = profile.NewStore(logger)
	}
	if opts.Endpoints == (types.EndpointConfig{}) {
		opts.Endpoints = types.DefaultEndpoints()
	}

	a := &Assistant{
		logger:   logger.Named("assistant"),
		profiles: opts.Profiles,
		dispatcher: dispatch.New(dispatch.Options{
			Profiles:  opts.Profiles,
			Endpoints: opts.Endpoints,
			Transport: opts.Transport,
			Logger:    logger,
			Now:       opts.Now,
		}),
		normalizer:    normalize.New(opts.Now, logger),
		now:           opts.Now,
		validate:      validator.New(),
		settingsStore: opts.SettingsStore,
		conversations: opts.Conversations,
	}

	settings := opts.Settings
	if opts.SettingsStore != nil {
		loaded, err := opts.SettingsStore.Load()
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
		settings = loaded
	} else if settings.Provider == "" {
		settings = types.DefaultSettings()
	}
	if err := a.ApplySettings(settings); err != nil {
		return nil, err
	}
	return a, nil
}

// Settings returns the current settings, with the profile overrides taken
// from the profile store.
func (a *Assistant) Settings() types.Settings {
	a.mu.RLock()
	s := a.settings
	a.mu.RUnlock()
	s.Profiles = a.profiles.Snapshot()
	return s
}

// ApplySettings validates s and makes it current. Persisted profiles in s
// are installed into the profile store.
func (a *Assistant) ApplySettings(s types.Settings) error {
	var err error
	if s.Provider, err = types.ParseProviderID(string(s.Provider)); err != nil {
		return err
	}
	if s.Mode, err = types.ParseResearchMode(string(s.Mode)); err != nil {
		return err
	}
	if err := a.validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := a.profiles.Load(s.Profiles); err != nil {
		return err
	}
	a.profiles.SetFallback(s.ProfileFallback)
	a.dispatcher.Configure(s)

	a.mu.Lock()
	a.settings = s
	a.mu.Unlock()
	a.logger.Debug("settings applied",
		zap.String("provider", string(s.Provider)),
		zap.String("mode", string(s.Mode)),
		zap.String("context_strategy", string(s.ContextStrategy)),
		zap.Int("context_limit", s.ContextLimit))
	return nil
}

// SaveSettings writes the current settings through the settings store.
func (a *Assistant) SaveSettings() error {
	if a.settingsStore == nil {
		return errors.New("no settings store configured")
	}
	if err := a.settingsStore.Save(a.Settings()); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// UpdateProfile edits the (mode, provider) profile and persists the result
// when a settings store is configured.
func (a *Assistant) UpdateProfile(mode types.ResearchMode, provider types.ProviderID, patch types.ProfilePatch) error {
	if err := a.profiles.Update(mode, provider, patch); err != nil {
		return err
	}
	if a.settingsStore == nil {
		return nil
	}
	return a.SaveSettings()
}

// Profile returns the resolved profile for (mode, provider).
func (a *Assistant) Profile(mode types.ResearchMode, provider types.ProviderID) (types.ProviderProfile, error) {
	return a.profiles.Resolve(mode, provider)
}

// NewSession starts a conversation with the current provider and mode.
func (a *Assistant) NewSession() *Session {
	s := a.currentSettings()
	return NewSession(s.Provider, s.Mode, a.now())
}

// Search runs a one-shot query with the current provider and mode and
// returns the rendered result.
func (a *Assistant) Search(ctx context.Context, query string) string {
	s := a.currentSettings()
	return normalize.Render(a.run(ctx, dispatch.Request{Provider: s.Provider, Mode: s.Mode, Query: query}, s))
}

// Chat sends query as the next turn of sess and returns the rendered answer.
// Both turns are recorded, including error text, so the transcript never
// holds a placeholder. The assistant turn keeps the answer body; failed
// exchanges are left out of later context. A second call while one is in
// flight returns a busy error without touching the transcript.
func (a *Assistant) Chat(ctx context.Context, sess *Session, query string) string {
	settings := a.currentSettings()
	provider, mode := sess.Provider(), sess.Mode()

	if !sess.inflight.TryAcquire(1) {
		a.logger.Info("chat rejected, request in flight", zap.String("session", sess.ID()))
		return normalize.Render(a.normalizer.Fail(provider, types.ErrBusy, normalize.Options{
			Query: query, Mode: mode, IncludeMetadata: settings.IncludeMetadata,
		}))
	}
	defer sess.inflight.Release(1)

	req := dispatch.Request{Provider: provider, Mode: mode, Query: query}
	if settings.ChatEnabled(provider) {
		req.Context = history.Build(answered(sess.Transcript()), settings.ContextStrategy, settings.ContextLimit)
	}
	if mode == types.ModeVideo {
		if v := dispatch.FindVideo(query); v != nil {
			sess.setVideo(v)
		}
		req.Video = sess.Video()
	}

	sess.append(types.UserTurn(strings.TrimSpace(query)), a.now())
	res := a.run(ctx, req, settings)
	answer := normalize.Render(res)
	if res.IsError {
		sess.append(types.AssistantTurn(answer), a.now())
	} else {
		sess.append(types.AssistantTurn(strings.TrimSpace(res.BodyText)), a.now())
	}

	if a.conversations != nil {
		if err := a.conversations.SaveConversation(ctx, sess.Conversation()); err != nil {
			a.logger.Warn("saving conversation", zap.String("session", sess.ID()), zap.Error(err))
		}
	}
	return answer
}

// RunSearchCommand researches the editor's selection and replaces it with
// the result. With nothing selected an error note is inserted at the cursor.
func (a *Assistant) RunSearchCommand(ctx context.Context, editor Editor) error {
	query := strings.TrimSpace(editor.Selection())
	if query == "" {
		s := a.currentSettings()
		text := normalize.Render(a.normalizer.Fail(s.Provider,
			fmt.Errorf("%w: select text to research first", types.ErrInvalidQuery),
			normalize.Options{Mode: s.Mode}))
		return editor.InsertAtCursor(text)
	}
	result := a.Search(ctx, query)
	return editor.ReplaceSelection(result)
}

// SaveConversation writes sess into the vault's export folder and returns
// the vault-relative path of the new note.
func (a *Assistant) SaveConversation(sess *Session, v Vault) (string, error) {
	c := sess.Conversation()
	if len(c.Turns) == 0 {
		return "", errors.New("conversation is empty")
	}
	export := a.currentSettings().Export

	existing, err := v.ListFiles(export.Folder)
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", export.Folder, err)
	}
	path := vault.FileName(export.Folder, export.FileName, c, a.now(), existing)
	content, err := vault.FormatConversation(c, export.IncludeMetadata)
	if err != nil {
		return "", err
	}
	if err := v.CreateFile(path, content); err != nil {
		return "", fmt.Errorf("saving conversation: %w", err)
	}
	a.logger.Info("conversation saved", zap.String("path", path), zap.Int("turns", len(c.Turns)))
	return path, nil
}

// Now returns the current time from the assistant's clock.
func (a *Assistant) Now() time.Time {
	return a.now()
}

func (a *Assistant) currentSettings() types.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// answered drops failed exchanges: every error answer and the user turn
// that asked for it.
func answered(transcript []types.ChatTurn) []types.ChatTurn {
	out := make([]types.ChatTurn, 0, len(transcript))
	for _, t := range transcript {
		if t.Role == types.RoleAssistant && strings.HasPrefix(t.Content, normalize.ErrorPrefix) {
			if n := len(out); n > 0 && out[n-1].Role == types.RoleUser {
				out = out[:n-1]
			}
			continue
		}
		out = append(out, t)
	}
	return out
}

// run plans, sends, and normalizes one request.
func (a *Assistant) run(ctx context.Context, req dispatch.Request, s types.Settings) *types.NormalizedResult {
	opts := normalize.Options{
		Query:           strings.TrimSpace(req.Query),
		Mode:            req.Mode,
		IncludeMetadata: s.IncludeMetadata,
	}

	plan, err := a.dispatcher.Plan(req)
	if err != nil {
		return a.fail(req.Provider, err, opts)
	}
	opts.Mode = plan.Mode
	opts.Warnings = plan.Warnings
	if sp := plan.Profile.Search; sp != nil {
		opts.IncludeImages = sp.IncludeImages
		opts.OmitCitations = !sp.IncludeCitations
	}

	raw, err := a.dispatcher.Send(ctx, plan)
	if err != nil {
		return a.fail(plan.Provider, err, opts)
	}
	res, err := a.normalizer.Normalize(plan.Provider, raw, opts)
	if err != nil {
		return a.fail(plan.Provider, err, opts)
	}
	return res
}

func (a *Assistant) fail(provider types.ProviderID, err error, opts normalize.Options) *types.NormalizedResult {
	a.logger.Error("research request failed",
		zap.String("provider", string(provider)),
		zap.String("mode", string(opts.Mode)),
		zap.Error(err))
	return a.normalizer.Fail(provider, err, opts)
}
