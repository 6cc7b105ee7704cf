package main

import (
	"bytes"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreach/outreach-chat/internal/api"
	"github.com/outreach/outreach-chat/internal/auth"
	"github.com/outreach/outreach-chat/internal/client"
	"github.com/outreach/outreach-chat/internal/providers/canned"
	"github.com/outreach/outreach-chat/internal/repository/memory"
	"github.com/outreach/outreach-chat/internal/services"
)

type server struct {
	url   string
	token string
}

func startServer(t *testing.T) server {
	t.Helper()

	// keep config lookup away from the developer's files
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OUTREACH_TOKEN", "")
	t.Setenv("OUTREACH_API_URL", "")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	jwtService := auth.NewJWTService("cli-secret", "outreach-chat", time.Hour)
	app := api.NewApp(api.Options{
		Chat:   services.NewChatService(memory.NewSessionRepository(), canned.NewProvider(""), "", logger),
		JWT:    jwtService,
		Logger: logger,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	token, err := jwtService.GenerateAccessToken("cli-user", "cli@example.com")
	require.NoError(t, err)

	return server{url: "http://" + ln.Addr().String() + "/api", token: token}
}

func (s server) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--api-url", s.url, "--token", s.token))
	err := cmd.Execute()
	return out.String(), err
}

func sessionID(t *testing.T, created string) string {
	t.Helper()
	fields := strings.Fields(created)
	require.GreaterOrEqual(t, len(fields), 3, created)
	return fields[2]
}

func TestSessionsCommands(t *testing.T) {
	s := startServer(t)

	out, err := s.run(t, "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions yet")

	out, err = s.run(t, "sessions", "new", "Q3", "outreach", "--context-type", "campaign", "--context-id", "c-1")
	require.NoError(t, err)
	assert.Contains(t, out, "(Q3 outreach)")
	id := sessionID(t, out)

	out, err = s.run(t, "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "No messages yet")
	assert.Contains(t, out, "Total: 1 sessions")

	out, err = s.run(t, "sessions", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Linked to campaign c-1")
}

func TestSendCommand(t *testing.T) {
	s := startServer(t)

	out, err := s.run(t, "sessions", "new")
	require.NoError(t, err)
	assert.Contains(t, out, "(New Chat)")
	id := sessionID(t, out)

	out, err = s.run(t, "send", id, "write", "a", "subject", "line")
	require.NoError(t, err)
	assert.Contains(t, out, "You:\nwrite a subject line")
	assert.Contains(t, out, "Assistant:\nYou said: write a subject line")

	_, err = s.run(t, "send", "missing", "hello")
	assert.Error(t, err)

	_, err = s.run(t, "send", id, "   ")
	assert.ErrorIs(t, err, errEmptyMessage)
}

func TestRejectedTokenIsUnauthorized(t *testing.T) {
	s := startServer(t)
	s.token = "forged"

	_, err := s.run(t, "sessions", "list")
	require.Error(t, err)
	assert.True(t, client.IsUnauthorized(err))
}

func TestMissingToken(t *testing.T) {
	s := startServer(t)

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"sessions", "list", "--api-url", s.url})
	assert.ErrorIs(t, cmd.Execute(), errNoToken)
}
