package tui

import "github.com/outreach/outreach-chat/internal/chat"

// directoryMsg carries a pushed directory snapshot
type directoryMsg chat.DirectorySnapshot

// controllerMsg carries a pushed controller snapshot
type controllerMsg chat.ControllerSnapshot

// sessionExpiredMsg is sent when the credential store is invalidated
type sessionExpiredMsg struct{}

// opDoneMsg reports the outcome of a directory operation
type opDoneMsg struct {
	op  string
	err error
}

// sendDoneMsg reports the outcome of a submission; text is what was sent
type sendDoneMsg struct {
	text string
	err  error
}
