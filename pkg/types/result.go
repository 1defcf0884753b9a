// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Citation is a source backing a result.
type Citation struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// Image is an image returned by a search provider.
type Image struct {
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// MetadataLine is one "label: value" entry in a result footer.
type MetadataLine struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// NormalizedResult is the provider-independent form of a response.
// Citations have set semantics keyed by URL; use AddCitation to append.
type NormalizedResult struct {
	Provider         ProviderID     `json:"provider" yaml:"provider"`
	Mode             ResearchMode   `json:"mode" yaml:"mode"`
	Query            string         `json:"query" yaml:"query"`
	Title            string         `json:"title" yaml:"title"`
	BodyText         string         `json:"body_text" yaml:"body_text"`
	Citations        []Citation     `json:"citations,omitempty" yaml:"citations,omitempty"`
	Warnings         []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	RelatedQuestions []string       `json:"related_questions,omitempty" yaml:"related_questions,omitempty"`
	Images           []Image        `json:"images,omitempty" yaml:"images,omitempty"`
	Metadata         []MetadataLine `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Timestamp        time.Time      `json:"timestamp" yaml:"timestamp"`
	IsError          bool           `json:"is_error,omitempty" yaml:"is_error,omitempty"`
}

// AddCitation appends c unless a citation with the same URL is already
// present. It returns the 1-based position of the citation in the list.
// Citations without a URL are ignored and return 0.
func (r *NormalizedResult) AddCitation(c Citation) int {
	if c.URL == "" {
		return 0
	}
	for i, existing := range r.Citations {
		if existing.URL == c.URL {
			if existing.Title == "" && c.Title != "" {
				r.Citations[i].Title = c.Title
			}
			return i + 1
		}
	}
	r.Citations = append(r.Citations, c)
	return len(r.Citations)
}

// AddMetadata appends a footer line when value is non-empty.
func (r *NormalizedResult) AddMetadata(label, value string) {
	if value == "" {
		return
	}
	r.Metadata = append(r.Metadata, MetadataLine{Label: label, Value: value})
}
