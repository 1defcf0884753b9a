// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or change provider parameters per research mode",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved profile for the selected provider and mode",
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set key=value...",
	Short: "Change profile parameters and save them",
	Long: `Set patches the profile of the selected provider and mode. Keys use the
names shown by "profile show", for example:

  research-assistant profile set --provider exa --mode deep result_count=15 include_domains=arxiv.org,nature.com

Sampling, penalty, safety, domain, and toggle settings apply to every mode
of the provider; model, token limit, recency, result count, search depth
and type, and date range apply to the selected mode only.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProfileSet,
}

func init() {
	profileCmd.AddCommand(profileShowCmd, profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	s := a.assistant.Settings()
	p, err := a.assistant.Profile(s.Mode, s.Provider)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}
	return enc.Close()
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	patch, err := parsePatch(args)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	s := a.assistant.Settings()
	if err := a.assistant.UpdateProfile(s.Mode, s.Provider, patch); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Updated %s %s profile\n", s.Provider.DisplayName(), s.Mode.DisplayName())
	return nil
}

// parsePatch reads key=value pairs into a ProfilePatch.
func parsePatch(args []string) (types.ProfilePatch, error) {
	doc := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return types.ProfilePatch{}, fmt.Errorf("expected key=value, got %q", arg)
		}
		doc[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	var b strings.Builder
	for k, v := range doc {
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	var patch types.ProfilePatch
	dec := yaml.NewDecoder(strings.NewReader(b.String()))
	dec.KnownFields(true)
	if err := dec.Decode(&patch); err != nil {
		return types.ProfilePatch{}, fmt.Errorf("parsing profile settings: %w", err)
	}
	return patch, nil
}
