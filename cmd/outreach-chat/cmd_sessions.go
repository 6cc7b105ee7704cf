package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/outreach/outreach-chat/internal/models"
)

func newSessionsCmd(g *globalFlags) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage chat sessions",
		Long: `List, create and inspect chat sessions.

Subcommands:
  list   - List your sessions, most recent first
  new    - Start a new session
  show   - Print a session's transcript`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(cmd, g)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(cmd, g)
		},
	}

	var contextType, contextID string
	newCmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Start a new session",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsNew(cmd, g, strings.Join(args, " "), contextType, contextID)
		},
	}
	newCmd.Flags().StringVar(&contextType, "context-type", "", "Link the session to a record type (campaign, lead, email)")
	newCmd.Flags().StringVar(&contextID, "context-id", "", "ID of the linked record")
	newCmd.MarkFlagsRequiredTogether("context-type", "context-id")

	showCmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session's transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsShow(cmd, g, args[0])
		},
	}

	sessionsCmd.AddCommand(listCmd, newCmd, showCmd)
	return sessionsCmd
}

func runSessionsList(cmd *cobra.Command, g *globalFlags) error {
	a, err := g.setup(false, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := a.directory.Load(ctx); err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	printSessions(cmd.OutOrStdout(), a.directory.Sessions())
	return nil
}

func runSessionsNew(cmd *cobra.Command, g *globalFlags, title, contextType, contextID string) error {
	a, err := g.setup(false, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := a.directory.CreateForContext(ctx, title, contextType, contextID)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created session %s (%s)\n", s.ID, s.Title)
	return nil
}

func runSessionsShow(cmd *cobra.Command, g *globalFlags, id string) error {
	a, err := g.setup(false, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := a.client.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	printTranscript(cmd.OutOrStdout(), *s)
	return nil
}

func printSessions(w io.Writer, sessions []models.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions yet. Start one with: outreach-chat sessions new [title]")
		return
	}

	for _, s := range sessions {
		fmt.Fprintf(w, "%-36s  %-24s  %s\n", s.ID, s.Title, models.OneLine(s.Preview()))
	}
	fmt.Fprintf(w, "\nTotal: %d sessions\n", len(sessions))
}

func printTranscript(w io.Writer, s models.Session) {
	fmt.Fprintf(w, "%s  [%s]\n", s.Title, s.ID)
	if s.HasContext() {
		fmt.Fprintf(w, "Linked to %s %s\n", s.ContextType, s.ContextID)
	}
	fmt.Fprintln(w, strings.Repeat("─", 50))

	if len(s.Messages) == 0 {
		fmt.Fprintln(w, "No messages yet")
		return
	}
	for _, msg := range s.Messages {
		fmt.Fprintf(w, "%s:\n%s\n\n", msg.Role.Label(), msg.Content)
	}
}
