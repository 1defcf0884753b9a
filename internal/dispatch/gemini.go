// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// videoMIMEType is sent with video file references.
const videoMIMEType = "video/*"

type geminiBackend struct {
	base string
}

func (b *geminiBackend) build(in buildInput) (string, map[string]string, any, error) {
	g := in.profile.Generation
	if g == nil {
		return "", nil, nil, fmt.Errorf("profile %s/%s has no generation parameters", in.profile.Mode, in.profile.Provider)
	}
	if in.profile.Model == "" {
		return "", nil, nil, fmt.Errorf("profile %s/%s has no model", in.profile.Mode, in.profile.Provider)
	}

	req := geminiRequest{
		GenerationConfig: &genai.GenerationConfig{
			Temperature:     genai.Ptr(float32(g.Temperature)),
			TopP:            genai.Ptr(float32(g.TopP)),
			TopK:            genai.Ptr(float32(g.TopK)),
			MaxOutputTokens: int32(g.MaxOutputTokens),
			CandidateCount:  int32(g.CandidateCount),
			StopSequences:   g.StopSequences,
		},
		SafetySettings: safetySettings(g.Safety),
	}

	var system []string
	for _, t := range in.context {
		switch t.Role {
		case types.RoleSystem:
			system = append(system, t.Content)
		case types.RoleAssistant:
			req.Contents = append(req.Contents, genai.NewContentFromText(t.Content, genai.RoleModel))
		default:
			req.Contents = append(req.Contents, genai.NewContentFromText(t.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		req.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
	}

	prompt := &genai.Content{Role: genai.RoleUser}
	if in.video != nil {
		prompt.Parts = append(prompt.Parts, genai.NewPartFromURI(in.video.URL, videoMIMEType))
	} else {
		req.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	prompt.Parts = append(prompt.Parts, genai.NewPartFromText(in.prompt))
	req.Contents = append(req.Contents, prompt)

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(b.base, "/"), in.profile.Model)
	headers := map[string]string{"x-goog-api-key": in.apiKey}
	return url, headers, req, nil
}

// safetySettings emits one setting per harm category in a fixed order.
func safetySettings(m map[types.HarmCategory]types.SafetyThreshold) []*genai.SafetySetting {
	var out []*genai.SafetySetting
	for _, c := range types.HarmCategories() {
		th, ok := m[c]
		if !ok {
			continue
		}
		out = append(out, &genai.SafetySetting{
			Category:  harmCategory(c),
			Threshold: harmThreshold(th),
		})
	}
	return out
}

func harmCategory(c types.HarmCategory) genai.HarmCategory {
	switch c {
	case types.HarmHarassment:
		return genai.HarmCategoryHarassment
	case types.HarmHateSpeech:
		return genai.HarmCategoryHateSpeech
	case types.HarmSexuallyExplicit:
		return genai.HarmCategorySexuallyExplicit
	case types.HarmDangerousContent:
		return genai.HarmCategoryDangerousContent
	}
	return genai.HarmCategoryUnspecified
}

func harmThreshold(t types.SafetyThreshold) genai.HarmBlockThreshold {
	switch t {
	case types.SafetyNone:
		return genai.HarmBlockThresholdBlockNone
	case types.SafetyBlockHighOnly:
		return genai.HarmBlockThresholdBlockOnlyHigh
	case types.SafetyBlockMediumAbove:
		return genai.HarmBlockThresholdBlockMediumAndAbove
	case types.SafetyBlockLowAndAbove:
		return genai.HarmBlockThresholdBlockLowAndAbove
	}
	return genai.HarmBlockThresholdUnspecified
}

// geminiRequest is the generateContent request body.
type geminiRequest struct {
	Contents          []*genai.Content        `json:"contents"`
	SystemInstruction *genai.Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *genai.GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings    []*genai.SafetySetting  `json:"safetySettings,omitempty"`
	Tools             []*genai.Tool           `json:"tools,omitempty"`
}
