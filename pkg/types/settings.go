// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// VideoPolicy decides what happens when video analysis is requested on a
// provider that cannot run it.
type VideoPolicy string

const (
	// VideoPolicySwitch switches the request to the generation provider and
	// records a warning.
	VideoPolicySwitch VideoPolicy = "switch"

	// VideoPolicyReject fails the request with ErrModeProviderMismatch.
	VideoPolicyReject VideoPolicy = "reject"
)

// FileNameTemplate selects how saved conversation files are named.
type FileNameTemplate string

const (
	FileNameTimestamp FileNameTemplate = "timestamp"
	FileNameQuery     FileNameTemplate = "query"
	FileNameCounter   FileNameTemplate = "counter"
)

// ExportSettings controls saving conversations into the vault.
type ExportSettings struct {
	// Folder is the vault-relative folder conversations are written to.
	Folder string `json:"folder" yaml:"folder"`

	// FileName selects the filename template.
	FileName FileNameTemplate `json:"file_name" yaml:"file_name" validate:"oneof=timestamp query counter"`

	// IncludeMetadata writes YAML front matter with provider, mode, and dates.
	IncludeMetadata bool `json:"include_metadata" yaml:"include_metadata"`
}

// Settings is the user-editable settings blob persisted by the host. It is
// merged over DefaultSettings when loaded.
type Settings struct {
	Provider ProviderID   `json:"provider" yaml:"provider" validate:"required"`
	Mode     ResearchMode `json:"mode" yaml:"mode" validate:"required"`

	// APIKeys maps each provider to its stored key.
	APIKeys map[ProviderID]string `json:"api_keys,omitempty" yaml:"api_keys,omitempty"`

	// UseCustomTemplates enables Templates; otherwise built-in prompts are used.
	UseCustomTemplates bool                    `json:"use_custom_templates" yaml:"use_custom_templates"`
	Templates          map[ResearchMode]string `json:"templates,omitempty" yaml:"templates,omitempty"`
	ContextStrategy    ContextStrategy         `json:"context_strategy" yaml:"context_strategy" validate:"oneof=recent token_limit summary"`
	ContextLimit       int                     `json:"context_limit" yaml:"context_limit" validate:"gte=0"`
	ChatMode           map[ProviderID]bool     `json:"chat_mode,omitempty" yaml:"chat_mode,omitempty"`
	VideoPolicy        VideoPolicy             `json:"video_policy" yaml:"video_policy" validate:"oneof=switch reject"`
	ProfileFallback    bool                    `json:"profile_fallback" yaml:"profile_fallback"`
	IncludeMetadata    bool                    `json:"include_metadata" yaml:"include_metadata"`

	// Profiles holds every provider profile that differs from the defaults.
	Profiles map[ResearchMode]map[ProviderID]ProviderProfile `json:"profiles,omitempty" yaml:"profiles,omitempty"`

	Export ExportSettings `json:"export" yaml:"export"`
}

// DefaultSettings returns the settings used before anything is persisted.
func DefaultSettings() Settings {
	return Settings{
		Provider:        ProviderGemini,
		Mode:            ModeComprehensive,
		APIKeys:         map[ProviderID]string{},
		ContextStrategy: StrategyRecent,
		ContextLimit:    10,
		ChatMode: map[ProviderID]bool{
			ProviderGemini:     true,
			ProviderPerplexity: true,
		},
		VideoPolicy:     VideoPolicySwitch,
		IncludeMetadata: true,
		Export: ExportSettings{
			Folder:          "Research",
			FileName:        FileNameTimestamp,
			IncludeMetadata: true,
		},
	}
}

// ChatEnabled reports whether provider p is flagged for chat mode. Providers
// without multi-turn support always use the search path.
func (s Settings) ChatEnabled(p ProviderID) bool {
	return p.SupportsChat() && s.ChatMode[p]
}
