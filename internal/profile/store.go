// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile stores the per-(research mode, provider) parameter bundles
// used to build provider requests.
package profile

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/logging"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// fallbackMode is the profile substituted when fallback is enabled and a
// lookup misses.
const fallbackMode = types.ModeComprehensive

type key struct {
	mode     types.ResearchMode
	provider types.ProviderID
}

// Resolution is the outcome of a lookup. Warning is non-empty when a
// substitute profile was returned.
type Resolution struct {
	Profile types.ProviderProfile
	Warning string
}

// Store holds provider profiles. It is safe for concurrent use; writes are
// last-writer-wins.
type Store struct {
	mu       sync.RWMutex
	profiles map[key]types.ProviderProfile
	fallback bool
	validate *validator.Validate
	logger   *zap.Logger
}

// NewStore returns a store seeded with every default profile.
func NewStore(logger *zap.Logger) *Store {
	s := &Store{
		profiles: make(map[key]types.ProviderProfile),
		validate: validator.New(),
		logger:   logging.OrNop(logger).Named("profile"),
	}
	for _, m := range types.AllModes() {
		for _, p := range types.AllProviders() {
			if prof, ok := Default(m, p); ok {
				s.profiles[key{m, p}] = prof
			}
		}
	}
	return s
}

// SetFallback enables substitution of the comprehensive profile when a
// lookup misses. Substitutions are logged and reported in Resolution.Warning.
func (s *Store) SetFallback(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = enabled
}

// Resolve returns a copy of the profile for (mode, provider).
func (s *Store) Resolve(mode types.ResearchMode, provider types.ProviderID) (types.ProviderProfile, error) {
	r, err := s.ResolveWithWarning(mode, provider)
	if err != nil {
		return types.ProviderProfile{}, err
	}
	return r.Profile, nil
}

// ResolveWithWarning is Resolve plus the substitution warning, if any.
// Video analysis on a search provider is always ErrModeProviderMismatch;
// fallback never hides it.
func (s *Store) ResolveWithWarning(mode types.ResearchMode, provider types.ProviderID) (Resolution, error) {
	if !provider.Valid() {
		return Resolution{}, fmt.Errorf("%w: %q", types.ErrUnknownProvider, provider)
	}
	if !mode.CompatibleWith(provider) {
		return Resolution{}, fmt.Errorf("%w: %s cannot run %s mode", types.ErrModeProviderMismatch, provider.DisplayName(), mode)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.profiles[key{mode, provider}]; ok {
		return Resolution{Profile: p.Clone()}, nil
	}
	if !s.fallback {
		return Resolution{}, fmt.Errorf("%w: mode %s, provider %s", types.ErrProfileNotFound, mode, provider)
	}
	p, ok := s.profiles[key{fallbackMode, provider}]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: mode %s, provider %s (no %s fallback)", types.ErrProfileNotFound, mode, provider, fallbackMode)
	}
	warning := fmt.Sprintf("No %s settings for %s; using %s settings.", mode.DisplayName(), provider.DisplayName(), fallbackMode.DisplayName())
	s.logger.Warn("profile fallback",
		zap.String("mode", string(mode)),
		zap.String("provider", string(provider)),
		zap.String("fallback", string(fallbackMode)))
	return Resolution{Profile: p.Clone(), Warning: warning}, nil
}

// Remove deletes the profile for (mode, provider). Later lookups fail with
// ErrProfileNotFound unless fallback is enabled.
func (s *Store) Remove(mode types.ResearchMode, provider types.ProviderID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, key{mode, provider})
}

// Update merges patch into the stored profiles of provider. Provider-wide
// settings (sampling, penalties, safety, domains, toggles) are written into
// every mode's copy; mode-scoped settings (model, token limit, recency,
// result count, search depth/type, date range) only into mode. Nothing is
// written if any merged profile fails validation.
func (s *Store) Update(mode types.ResearchMode, provider types.ProviderID, patch types.ProfilePatch) error {
	if !provider.Valid() {
		return fmt.Errorf("%w: %q", types.ErrUnknownProvider, provider)
	}
	if !mode.CompatibleWith(provider) {
		return fmt.Errorf("%w: %s cannot run %s mode", types.ErrModeProviderMismatch, provider.DisplayName(), mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[key{mode, provider}]; !ok {
		return fmt.Errorf("%w: mode %s, provider %s", types.ErrProfileNotFound, mode, provider)
	}

	staged := make(map[key]types.ProviderProfile)
	for _, m := range types.AllModes() {
		k := key{m, provider}
		p, ok := s.profiles[k]
		if !ok {
			continue
		}
		p = p.Clone()
		applyProviderWide(&p, patch)
		if m == mode {
			applyModeScoped(&p, patch)
		}
		if err := s.validate.Struct(p); err != nil {
			return fmt.Errorf("invalid %s/%s profile: %w", m, provider, err)
		}
		staged[k] = p
	}

	for k, p := range staged {
		s.profiles[k] = p
	}
	s.logger.Debug("profile updated",
		zap.String("mode", string(mode)),
		zap.String("provider", string(provider)),
		zap.Int("profiles_written", len(staged)))
	return nil
}

// Load replaces stored profiles with persisted ones. Entries for unsupported
// pairs or failing validation are rejected and nothing is written.
func (s *Store) Load(profiles map[types.ResearchMode]map[types.ProviderID]types.ProviderProfile) error {
	staged := make(map[key]types.ProviderProfile)
	for m, byProvider := range profiles {
		for p, prof := range byProvider {
			if !m.Valid() || !p.Valid() || !m.CompatibleWith(p) {
				return fmt.Errorf("%w: persisted profile for mode %q, provider %q", types.ErrModeProviderMismatch, m, p)
			}
			prof.Mode, prof.Provider = m, p
			if (prof.Generation != nil) != p.IsGeneration() || (prof.Search != nil) == p.IsGeneration() {
				return fmt.Errorf("persisted profile %s/%s has parameters for the wrong provider family", m, p)
			}
			if err := s.validate.Struct(prof); err != nil {
				return fmt.Errorf("invalid persisted profile %s/%s: %w", m, p, err)
			}
			staged[key{m, p}] = prof.Clone()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, p := range staged {
		s.profiles[k] = p
	}
	return nil
}

// Snapshot returns every stored profile that differs from its default, for
// persistence.
func (s *Store) Snapshot() map[types.ResearchMode]map[types.ProviderID]types.ProviderProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[types.ResearchMode]map[types.ProviderID]types.ProviderProfile)
	for k, p := range s.profiles {
		if def, ok := Default(k.mode, k.provider); ok && reflect.DeepEqual(normalizeForCompare(def), normalizeForCompare(p)) {
			continue
		}
		if out[k.mode] == nil {
			out[k.mode] = make(map[types.ProviderID]types.ProviderProfile)
		}
		out[k.mode][k.provider] = p.Clone()
	}
	return out
}

// normalizeForCompare maps empty slices to nil so that clones compare equal
// to the defaults they came from.
func normalizeForCompare(p types.ProviderProfile) types.ProviderProfile {
	p = p.Clone()
	if p.Generation != nil && len(p.Generation.StopSequences) == 0 {
		p.Generation.StopSequences = nil
	}
	if p.Search != nil {
		if len(p.Search.IncludeDomains) == 0 {
			p.Search.IncludeDomains = nil
		}
		if len(p.Search.ExcludeDomains) == 0 {
			p.Search.ExcludeDomains = nil
		}
	}
	return p
}

func applyProviderWide(p *types.ProviderProfile, patch types.ProfilePatch) {
	if g := p.Generation; g != nil {
		if patch.Temperature != nil {
			g.Temperature = *patch.Temperature
		}
		if patch.TopP != nil {
			g.TopP = *patch.TopP
		}
		if patch.TopK != nil {
			g.TopK = *patch.TopK
		}
		if patch.CandidateCount != nil {
			g.CandidateCount = *patch.CandidateCount
		}
		if patch.StopSequences != nil {
			g.StopSequences = append([]string(nil), patch.StopSequences...)
		}
		for c, th := range patch.Safety {
			if g.Safety == nil {
				g.Safety = make(map[types.HarmCategory]types.SafetyThreshold)
			}
			g.Safety[c] = th
		}
	}
	if s := p.Search; s != nil {
		if patch.Temperature != nil {
			s.Temperature = *patch.Temperature
		}
		if patch.TopP != nil {
			s.TopP = *patch.TopP
		}
		if patch.TopK != nil {
			s.TopK = *patch.TopK
		}
		if patch.FrequencyPenalty != nil {
			s.FrequencyPenalty = *patch.FrequencyPenalty
		}
		if patch.PresencePenalty != nil {
			s.PresencePenalty = *patch.PresencePenalty
		}
		if patch.IncludeDomains != nil {
			s.IncludeDomains = types.ParseDomainList(*patch.IncludeDomains)
		}
		if patch.ExcludeDomains != nil {
			s.ExcludeDomains = types.ParseDomainList(*patch.ExcludeDomains)
		}
		setBool(&s.IncludeCitations, patch.IncludeCitations)
		setBool(&s.IncludeImages, patch.IncludeImages)
		setBool(&s.IncludeRelatedQuestions, patch.IncludeRelatedQuestions)
		setBool(&s.IncludeAnswer, patch.IncludeAnswer)
		setBool(&s.IncludeRawContent, patch.IncludeRawContent)
		setBool(&s.IncludeText, patch.IncludeText)
		setBool(&s.IncludeHighlights, patch.IncludeHighlights)
	}
}

func applyModeScoped(p *types.ProviderProfile, patch types.ProfilePatch) {
	if patch.Model != nil {
		p.Model = *patch.Model
	}
	if g := p.Generation; g != nil {
		if patch.MaxTokens != nil {
			g.MaxOutputTokens = *patch.MaxTokens
		}
	}
	if s := p.Search; s != nil {
		if patch.MaxTokens != nil {
			s.MaxTokens = *patch.MaxTokens
		}
		if patch.Recency != nil {
			s.Recency = *patch.Recency
		}
		if patch.ResultCount != nil {
			s.ResultCount = *patch.ResultCount
		}
		if patch.SearchDepth != nil {
			s.SearchDepth = *patch.SearchDepth
		}
		if patch.SearchType != nil {
			s.SearchType = *patch.SearchType
		}
		if patch.StartPublishedDate != nil {
			s.StartPublishedDate = *patch.StartPublishedDate
		}
		if patch.EndPublishedDate != nil {
			s.EndPublishedDate = *patch.EndPublishedDate
		}
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
