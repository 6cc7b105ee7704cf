package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/outreach/outreach-chat/internal/auth"
	"github.com/outreach/outreach-chat/internal/chat"
)

// ErrSessionExpired is returned by Run when the server rejected the token
var ErrSessionExpired = errors.New("session expired, sign in again")

// Run starts the interactive chat screen and blocks until it exits
func Run(ctx context.Context, directory *chat.Directory, controller *chat.Controller, credentials *auth.CredentialStore) error {
	p := tea.NewProgram(
		New(ctx, directory, controller, credentials),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	fwdCtx, stop := context.WithCancel(ctx)
	defer stop()

	dirBox := newMailbox[chat.DirectorySnapshot]()
	defer directory.Subscribe(dirBox.put)()
	go dirBox.forward(fwdCtx, p.Send, func(s chat.DirectorySnapshot) tea.Msg { return directoryMsg(s) })

	convBox := newMailbox[chat.ControllerSnapshot]()
	defer controller.Subscribe(convBox.put)()
	go convBox.forward(fwdCtx, p.Send, func(s chat.ControllerSnapshot) tea.Msg { return controllerMsg(s) })

	credentials.OnInvalidate(func() {
		go p.Send(sessionExpiredMsg{})
	})

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.Expired() {
		return ErrSessionExpired
	}
	return nil
}
