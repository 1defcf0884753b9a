// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/store"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "List, search, export, or delete saved conversations",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved conversations, newest first",
	RunE:  runConversationsList,
}

var conversationsSearchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Find conversations containing text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConversationsSearch,
}

var conversationsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export conversations with all turns as YAML or JSON",
	RunE:  runConversationsExport,
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsDelete,
}

func init() {
	for _, c := range []*cobra.Command{conversationsListCmd, conversationsSearchCmd, conversationsExportCmd} {
		c.Flags().String("filter-provider", "", "only conversations with this provider")
		c.Flags().String("filter-mode", "", "only conversations in this research mode")
		c.Flags().Int("limit", 50, "maximum number of conversations")
	}
	conversationsListCmd.Flags().Bool("json", false, "output as JSON")
	conversationsSearchCmd.Flags().Bool("json", false, "output as JSON")
	conversationsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	conversationsExportCmd.Flags().String("out", "", "write to this file instead of stdout")

	conversationsCmd.AddCommand(conversationsListCmd, conversationsSearchCmd, conversationsExportCmd, conversationsDeleteCmd)
	rootCmd.AddCommand(conversationsCmd)
}

func queryOptsFromFlags(cmd *cobra.Command) store.QueryOptions {
	provider, _ := cmd.Flags().GetString("filter-provider")
	mode, _ := cmd.Flags().GetString("filter-mode")
	limit, _ := cmd.Flags().GetInt("limit")
	return store.QueryOptions{
		Provider: types.ProviderID(strings.ToLower(provider)),
		Mode:     types.ResearchMode(strings.ToLower(mode)),
		Limit:    limit,
	}
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	list, err := a.store.List(context.Background(), queryOptsFromFlags(cmd))
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSummaries(os.Stdout, list, jsonOutput)
}

func runConversationsSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	opts := queryOptsFromFlags(cmd)
	opts.Text = strings.Join(args, " ")
	list, err := a.store.List(context.Background(), opts)
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSummaries(os.Stdout, list, jsonOutput)
}

func runConversationsExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	var w io.Writer = os.Stdout
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	opts := queryOptsFromFlags(cmd)
	switch format, _ := cmd.Flags().GetString("format"); format {
	case "yaml":
		return a.store.ExportYAML(context.Background(), w, opts)
	case "json":
		return a.store.ExportJSON(context.Background(), w, opts)
	default:
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}
}

func runConversationsDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	return a.store.Delete(context.Background(), args[0])
}

func formatSummaries(w io.Writer, list []store.Summary, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Fprintln(w, "No conversations found.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-16s  %-11s  %-13s  %5s  %s\n",
		"ID", "Updated", "Provider", "Mode", "Turns", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, s := range list {
		title := s.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(w, "%-36s  %-16s  %-11s  %-13s  %5d  %s\n",
			s.ID, s.Updated.Local().Format("2006-01-02 15:04"), s.Provider, s.Mode, s.Turns, title)
	}
	fmt.Fprintf(w, "\n%d conversations\n", len(list))
	return nil
}
