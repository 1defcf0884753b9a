// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const exportLimit = 100000

// ExportYAML writes every conversation matching opts, with turns, to w.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts QueryOptions) error {
	convs, err := s.exportConversations(ctx, opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(convs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes every conversation matching opts, with turns, to w.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts QueryOptions) error {
	convs, err := s.exportConversations(ctx, opts)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(convs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func (s *Store) exportConversations(ctx context.Context, opts QueryOptions) ([]types.Conversation, error) {
	opts.Limit = exportLimit
	list, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	convs := make([]types.Conversation, 0, len(list))
	for _, sum := range list {
		c, err := s.LoadConversation(ctx, sum.ID)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, nil
}
