// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/assistant"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive research conversation",
	Long: `Chat reads one query per line from stdin and prints each answer. Earlier
turns are sent as context when the provider supports it. Every turn is
stored in the conversation database.

Commands inside a chat:
  /new              start a new conversation
  /provider NAME    switch provider
  /mode NAME        switch research mode
  /save             save the conversation as a note in the vault
  /quit             leave`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("conversation", "", "resume the conversation with this id")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sess := a.assistant.NewSession()
	if id, _ := cmd.Flags().GetString("conversation"); id != "" {
		c, err := a.store.LoadConversation(ctx, id)
		if err != nil {
			return err
		}
		sess = assistant.RestoreSession(c)
		fmt.Fprintf(os.Stderr, "Resumed %q (%d turns)\n", c.Title, len(c.Turns))
	}

	return chatLoop(ctx, a, sess, os.Stdin, os.Stdout)
}

func chatLoop(ctx context.Context, a *app, sess *assistant.Session, in io.Reader, out io.Writer) error {
	prompt := color.New(color.FgCyan, color.Bold)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), types.MaxQueryLength*4)

	for {
		prompt.Fprintf(out, "%s/%s> ", sess.Provider(), sess.Mode())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := chatCommand(a, sess, line, out)
			if err != nil {
				color.New(color.FgRed).Fprintln(out, err)
			}
			if done {
				return nil
			}
			continue
		}

		printResult(out, a.assistant.Chat(ctx, sess, line))
		fmt.Fprintln(out)
	}
}

// chatCommand handles a slash command. It reports whether the chat should end.
func chatCommand(a *app, sess *assistant.Session, line string, out io.Writer) (bool, error) {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/new":
		sess.Reset(a.assistant.Now())
		fmt.Fprintln(out, "Started a new conversation.")
	case "/provider":
		p, err := types.ParseProviderID(arg)
		if err != nil {
			return false, err
		}
		sess.SetProvider(p)
	case "/mode":
		m, err := types.ParseResearchMode(arg)
		if err != nil {
			return false, err
		}
		sess.SetMode(m)
	case "/save":
		path, err := a.assistant.SaveConversation(sess, a.vault)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "Saved to %s\n", path)
	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
	return false, nil
}
