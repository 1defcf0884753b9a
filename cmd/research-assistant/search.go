// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a one-shot research query",
	Long: `Search sends the query to the configured provider using the current
research mode and prints the answer as Markdown.

With --stdin the query is read from standard input and the result is
written in its place, so the command can filter an editor selection.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Bool("stdin", false, "read the query from stdin and print the replacement text")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if useStdin, _ := cmd.Flags().GetBool("stdin"); useStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		return a.assistant.RunSearchCommand(ctx, &streamEditor{selection: string(data), out: os.Stdout})
	}

	if len(args) == 0 {
		return fmt.Errorf("query required: pass it as arguments or use --stdin")
	}
	printResult(os.Stdout, a.assistant.Search(ctx, strings.Join(args, " ")))
	return nil
}

// streamEditor adapts a text stream to the assistant's Editor: the input is
// the selection and whatever replaces it is written to out.
type streamEditor struct {
	selection string
	out       io.Writer
}

func (e *streamEditor) Selection() string { return e.selection }

func (e *streamEditor) ReplaceSelection(text string) error {
	_, err := io.WriteString(e.out, text)
	return err
}

// InsertAtCursor keeps the original text and appends the insertion.
func (e *streamEditor) InsertAtCursor(text string) error {
	_, err := io.WriteString(e.out, e.selection+text)
	return err
}
