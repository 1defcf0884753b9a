// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import "github.com/pdiddy/research-assistant/pkg/types"

// Default returns the built-in profile for a (mode, provider) pair. The
// second result is false for unsupported pairs: video analysis only exists
// for the generation provider.
func Default(mode types.ResearchMode, provider types.ProviderID) (types.ProviderProfile, bool) {
	p := types.ProviderProfile{Provider: provider, Mode: mode}
	switch provider {
	case types.ProviderGemini:
		g, model, ok := geminiDefaults(mode)
		if !ok {
			return types.ProviderProfile{}, false
		}
		p.Model = model
		p.Generation = g
	case types.ProviderPerplexity:
		s, model, ok := perplexityDefaults(mode)
		if !ok {
			return types.ProviderProfile{}, false
		}
		p.Model = model
		p.Search = s
	case types.ProviderTavily:
		s, ok := tavilyDefaults(mode)
		if !ok {
			return types.ProviderProfile{}, false
		}
		p.Search = s
	case types.ProviderExa:
		s, ok := exaDefaults(mode)
		if !ok {
			return types.ProviderProfile{}, false
		}
		p.Search = s
	default:
		return types.ProviderProfile{}, false
	}
	return p, true
}

func defaultSafety() map[types.HarmCategory]types.SafetyThreshold {
	m := make(map[types.HarmCategory]types.SafetyThreshold)
	for _, c := range types.HarmCategories() {
		m[c] = types.SafetyBlockMediumAbove
	}
	return m
}

func geminiDefaults(mode types.ResearchMode) (*types.GenerationParams, string, bool) {
	g := &types.GenerationParams{CandidateCount: 1, Safety: defaultSafety()}
	switch mode {
	case types.ModeQuick:
		g.Temperature, g.TopP, g.TopK, g.MaxOutputTokens = 0.3, 0.8, 20, 1024
		return g, "gemini-2.5-flash", true
	case types.ModeComprehensive:
		g.Temperature, g.TopP, g.TopK, g.MaxOutputTokens = 0.5, 0.9, 40, 4096
		return g, "gemini-2.5-flash", true
	case types.ModeDeep:
		g.Temperature, g.TopP, g.TopK, g.MaxOutputTokens = 0.4, 0.95, 40, 8192
		return g, "gemini-2.5-pro", true
	case types.ModeReasoning:
		g.Temperature, g.TopP, g.TopK, g.MaxOutputTokens = 0.2, 0.9, 32, 8192
		return g, "gemini-2.5-pro", true
	case types.ModeVideo:
		g.Temperature, g.TopP, g.TopK, g.MaxOutputTokens = 0.4, 0.9, 40, 4096
		return g, "gemini-2.5-flash", true
	}
	return nil, "", false
}

func perplexityDefaults(mode types.ResearchMode) (*types.SearchParams, string, bool) {
	s := &types.SearchParams{
		Temperature:             0.2,
		TopP:                    0.9,
		Recency:                 types.RecencyNone,
		IncludeCitations:        true,
		IncludeRelatedQuestions: true,
	}
	switch mode {
	case types.ModeQuick:
		s.MaxTokens = 1000
		s.Recency = types.RecencyMonth
		return s, "sonar", true
	case types.ModeComprehensive:
		s.MaxTokens = 2000
		return s, "sonar-pro", true
	case types.ModeDeep:
		s.MaxTokens = 4000
		return s, "sonar-deep-research", true
	case types.ModeReasoning:
		s.MaxTokens = 4000
		s.Temperature = 0.1
		return s, "sonar-reasoning-pro", true
	case types.ModeVideo:
	}
	return nil, "", false
}

func tavilyDefaults(mode types.ResearchMode) (*types.SearchParams, bool) {
	s := &types.SearchParams{
		Recency:       types.RecencyNone,
		IncludeAnswer: true,
	}
	switch mode {
	case types.ModeQuick:
		s.SearchDepth, s.ResultCount = "basic", 5
		return s, true
	case types.ModeComprehensive:
		s.SearchDepth, s.ResultCount = "advanced", 10
		return s, true
	case types.ModeDeep:
		s.SearchDepth, s.ResultCount = "advanced", 20
		s.IncludeRawContent = true
		return s, true
	case types.ModeReasoning:
		s.SearchDepth, s.ResultCount = "advanced", 10
		return s, true
	case types.ModeVideo:
	}
	return nil, false
}

func exaDefaults(mode types.ResearchMode) (*types.SearchParams, bool) {
	s := &types.SearchParams{
		Recency:     types.RecencyNone,
		IncludeText: true,
	}
	switch mode {
	case types.ModeQuick:
		s.SearchType, s.ResultCount = "fast", 5
		return s, true
	case types.ModeComprehensive:
		s.SearchType, s.ResultCount = "auto", 10
		return s, true
	case types.ModeDeep:
		s.SearchType, s.ResultCount = "neural", 10
		s.IncludeHighlights = true
		return s, true
	case types.ModeReasoning:
		s.SearchType, s.ResultCount = "auto", 10
		s.IncludeHighlights = true
		return s, true
	case types.ModeVideo:
	}
	return nil, false
}
