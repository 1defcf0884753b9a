// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// HarmCategory names a safety category understood by the generation provider.
type HarmCategory string

const (
	HarmHarassment       HarmCategory = "harassment"
	HarmHateSpeech       HarmCategory = "hate_speech"
	HarmSexuallyExplicit HarmCategory = "sexually_explicit"
	HarmDangerousContent HarmCategory = "dangerous_content"
)

// HarmCategories returns the safety categories in a stable order.
func HarmCategories() []HarmCategory {
	return []HarmCategory{HarmHarassment, HarmHateSpeech, HarmSexuallyExplicit, HarmDangerousContent}
}

// SafetyThreshold is the blocking level for one harm category.
type SafetyThreshold string

const (
	SafetyNone             SafetyThreshold = "none"
	SafetyBlockHighOnly    SafetyThreshold = "block_high_only"
	SafetyBlockMediumAbove SafetyThreshold = "block_medium_and_above"
	SafetyBlockLowAndAbove SafetyThreshold = "block_low_and_above"
)

// RecencyFilter restricts search results to a publication window.
type RecencyFilter string

const (
	RecencyHour  RecencyFilter = "hour"
	RecencyDay   RecencyFilter = "day"
	RecencyWeek  RecencyFilter = "week"
	RecencyMonth RecencyFilter = "month"
	RecencyYear  RecencyFilter = "year"
	RecencyNone  RecencyFilter = "none"
)

// IsSet reports whether the filter restricts results.
func (r RecencyFilter) IsSet() bool {
	return r != "" && r != RecencyNone
}

// GenerationParams holds sampling and safety parameters for the generation family.
type GenerationParams struct {
	Temperature     float64                          `json:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	TopP            float64                          `json:"top_p" yaml:"top_p" validate:"gte=0,lte=1"`
	TopK            int                              `json:"top_k" yaml:"top_k" validate:"gte=0,lte=100"`
	MaxOutputTokens int                              `json:"max_output_tokens" yaml:"max_output_tokens" validate:"gt=0"`
	CandidateCount  int                              `json:"candidate_count" yaml:"candidate_count" validate:"gte=1,lte=8"`
	StopSequences   []string                         `json:"stop_sequences,omitempty" yaml:"stop_sequences,omitempty" validate:"max=5"`
	Safety          map[HarmCategory]SafetyThreshold `json:"safety,omitempty" yaml:"safety,omitempty" validate:"dive,keys,oneof=harassment hate_speech sexually_explicit dangerous_content,endkeys,oneof=none block_high_only block_medium_and_above block_low_and_above"`
}

// SearchParams holds request parameters for the search family.
type SearchParams struct {
	Temperature      float64       `json:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens        int           `json:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
	TopP             float64       `json:"top_p" yaml:"top_p" validate:"gte=0,lte=1"`
	TopK             int           `json:"top_k" yaml:"top_k" validate:"gte=0,lte=100"`
	FrequencyPenalty float64       `json:"frequency_penalty" yaml:"frequency_penalty" validate:"gte=-2,lte=2"`
	PresencePenalty  float64       `json:"presence_penalty" yaml:"presence_penalty" validate:"gte=-2,lte=2"`
	Recency          RecencyFilter `json:"recency" yaml:"recency" validate:"omitempty,oneof=hour day week month year none"`
	ResultCount      int           `json:"result_count" yaml:"result_count" validate:"gte=0,lte=100"`
	IncludeDomains   []string      `json:"include_domains,omitempty" yaml:"include_domains,omitempty"`
	ExcludeDomains   []string      `json:"exclude_domains,omitempty" yaml:"exclude_domains,omitempty"`

	// SearchDepth is Tavily's basic/advanced switch.
	SearchDepth string `json:"search_depth,omitempty" yaml:"search_depth,omitempty" validate:"omitempty,oneof=basic advanced"`

	// SearchType is Exa's retrieval type.
	SearchType string `json:"search_type,omitempty" yaml:"search_type,omitempty" validate:"omitempty,oneof=auto neural keyword fast"`

	StartPublishedDate string `json:"start_published_date,omitempty" yaml:"start_published_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndPublishedDate   string `json:"end_published_date,omitempty" yaml:"end_published_date,omitempty" validate:"omitempty,datetime=2006-01-02"`

	IncludeCitations        bool `json:"include_citations" yaml:"include_citations"`
	IncludeImages           bool `json:"include_images" yaml:"include_images"`
	IncludeRelatedQuestions bool `json:"include_related_questions" yaml:"include_related_questions"`
	IncludeAnswer           bool `json:"include_answer" yaml:"include_answer"`
	IncludeRawContent       bool `json:"include_raw_content" yaml:"include_raw_content"`
	IncludeText             bool `json:"include_text" yaml:"include_text"`
	IncludeHighlights       bool `json:"include_highlights" yaml:"include_highlights"`
}

// ProviderProfile is the parameter bundle for one (mode, provider) pair.
// Exactly one of Generation or Search is set, matching the provider family.
type ProviderProfile struct {
	Provider   ProviderID        `json:"provider" yaml:"provider" validate:"required"`
	Mode       ResearchMode      `json:"mode" yaml:"mode" validate:"required"`
	Model      string            `json:"model,omitempty" yaml:"model,omitempty"`
	Generation *GenerationParams `json:"generation,omitempty" yaml:"generation,omitempty" validate:"omitempty"`
	Search     *SearchParams     `json:"search,omitempty" yaml:"search,omitempty" validate:"omitempty"`
}

// Clone returns a deep copy so callers cannot mutate stored profiles.
func (p ProviderProfile) Clone() ProviderProfile {
	out := p
	if p.Generation != nil {
		g := *p.Generation
		g.StopSequences = append([]string(nil), p.Generation.StopSequences...)
		if p.Generation.Safety != nil {
			g.Safety = make(map[HarmCategory]SafetyThreshold, len(p.Generation.Safety))
			for k, v := range p.Generation.Safety {
				g.Safety[k] = v
			}
		}
		out.Generation = &g
	}
	if p.Search != nil {
		s := *p.Search
		s.IncludeDomains = append([]string(nil), p.Search.IncludeDomains...)
		s.ExcludeDomains = append([]string(nil), p.Search.ExcludeDomains...)
		out.Search = &s
	}
	return out
}

// ProfilePatch is a partial update to a provider profile. Nil fields are
// left unchanged. Domain lists are taken as comma-separated settings strings.
type ProfilePatch struct {
	Model *string `json:"model,omitempty" yaml:"model,omitempty"`

	Temperature      *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	TopK             *int     `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	CandidateCount   *int     `json:"candidate_count,omitempty" yaml:"candidate_count,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty" yaml:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty" yaml:"presence_penalty,omitempty"`

	StopSequences []string                         `json:"stop_sequences,omitempty" yaml:"stop_sequences,omitempty"`
	Safety        map[HarmCategory]SafetyThreshold `json:"safety,omitempty" yaml:"safety,omitempty"`

	Recency            *RecencyFilter `json:"recency,omitempty" yaml:"recency,omitempty"`
	ResultCount        *int           `json:"result_count,omitempty" yaml:"result_count,omitempty"`
	IncludeDomains     *string        `json:"include_domains,omitempty" yaml:"include_domains,omitempty"`
	ExcludeDomains     *string        `json:"exclude_domains,omitempty" yaml:"exclude_domains,omitempty"`
	SearchDepth        *string        `json:"search_depth,omitempty" yaml:"search_depth,omitempty"`
	SearchType         *string        `json:"search_type,omitempty" yaml:"search_type,omitempty"`
	StartPublishedDate *string        `json:"start_published_date,omitempty" yaml:"start_published_date,omitempty"`
	EndPublishedDate   *string        `json:"end_published_date,omitempty" yaml:"end_published_date,omitempty"`

	IncludeCitations        *bool `json:"include_citations,omitempty" yaml:"include_citations,omitempty"`
	IncludeImages           *bool `json:"include_images,omitempty" yaml:"include_images,omitempty"`
	IncludeRelatedQuestions *bool `json:"include_related_questions,omitempty" yaml:"include_related_questions,omitempty"`
	IncludeAnswer           *bool `json:"include_answer,omitempty" yaml:"include_answer,omitempty"`
	IncludeRawContent       *bool `json:"include_raw_content,omitempty" yaml:"include_raw_content,omitempty"`
	IncludeText             *bool `json:"include_text,omitempty" yaml:"include_text,omitempty"`
	IncludeHighlights       *bool `json:"include_highlights,omitempty" yaml:"include_highlights,omitempty"`
}

// ParseDomainList splits a comma-separated settings string into trimmed,
// lowercased, de-duplicated domains. Blank entries are dropped.
func ParseDomainList(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		d := strings.ToLower(strings.TrimSpace(part))
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
