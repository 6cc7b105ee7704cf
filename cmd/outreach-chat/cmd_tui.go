package main

import (
	"github.com/spf13/cobra"

	"github.com/outreach/outreach-chat/internal/tui"
)

func newTUICmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive chat screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, g)
		},
	}
}

func runTUI(cmd *cobra.Command, g *globalFlags) error {
	a, err := g.setup(true, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a.logger.WithField("api", a.client.BaseURL()).Info("Starting chat screen")
	return tui.Run(ctx, a.directory, a.controller, a.creds)
}
