package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var errEmptyMessage = errors.New("message is empty")

func newSendCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "send <session-id> <message...>",
		Short: "Send a message to a session and print the reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, g, args[0], strings.Join(args[1:], " "))
		},
	}
}

func runSend(cmd *cobra.Command, g *globalFlags, id, text string) error {
	if strings.TrimSpace(text) == "" {
		return errEmptyMessage
	}

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
	if err := a.directory.Select(ctx, id); err != nil {
		return fmt.Errorf("failed to open session %s: %w", id, err)
	}
	if err := a.controller.SendMessage(ctx, text); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	s, _ := a.controller.Active()
	printTranscript(cmd.OutOrStdout(), s)
	return nil
}
