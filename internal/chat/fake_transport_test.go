package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/outreach/outreach-chat/internal/models"
)

var errNetwork = errors.New("network unreachable")

// fakeTransport is an in-memory Transport with call counters and failure knobs
type fakeTransport struct {
	mu sync.Mutex

	sessions map[string]models.Session
	order    []string
	nextID   int

	listErr   error
	createErr error
	getErr    error
	sendErr   error

	// reply builds the server transcript for a send; defaults to echo + "ok"
	reply func(s models.Session, content string) []models.Message

	// sendGate, when set, blocks SendMessage until closed or fed
	sendGate    chan struct{}
	sendEntered chan string
	// getGates blocks GetSession per id
	getGates map[string]chan struct{}

	listCalls   int
	createCalls int
	getCalls    int
	sendCalls   int
	lastCreate  models.CreateSessionRequest
}

func newFakeTransport(sessions ...models.Session) *fakeTransport {
	f := &fakeTransport{sessions: make(map[string]models.Session), getGates: make(map[string]chan struct{})}
	for _, s := range sessions {
		f.sessions[s.ID] = s.Clone()
		f.order = append(f.order, s.ID)
	}
	f.nextID = len(sessions) + 1
	return f
}

func (f *fakeTransport) ListSessions(ctx context.Context) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Session, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.sessions[id].Clone())
	}
	return out, nil
}

func (f *fakeTransport) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastCreate = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := "S" + string(rune('0'+f.nextID))
	f.nextID++
	s := models.Session{
		ID:          id,
		Title:       req.Title,
		Messages:    []models.Message{},
		ContextType: req.ContextType,
		ContextID:   req.ContextID,
	}
	f.sessions[id] = s
	f.order = append([]string{id}, f.order...)
	out := s.Clone()
	return &out, nil
}

func (f *fakeTransport) GetSession(ctx context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	f.getCalls++
	gate := f.getGates[id]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("not found")
	}
	out := s.Clone()
	return &out, nil
}

func (f *fakeTransport) SendMessage(ctx context.Context, id, content string) (*models.Session, error) {
	f.mu.Lock()
	f.sendCalls++
	gate := f.sendGate
	entered := f.sendEntered
	f.mu.Unlock()

	if entered != nil {
		entered <- id
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	s := f.sessions[id]
	if f.reply != nil {
		s.Messages = f.reply(s, content)
	} else {
		s.Messages = append(s.Clone().Messages,
			models.Message{Role: models.RoleUser, Content: content},
			models.Message{Role: models.RoleAssistant, Content: "ok"},
		)
	}
	f.sessions[id] = s
	out := s.Clone()
	return &out, nil
}

func (f *fakeTransport) calls() (list, create, get, send int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.createCalls, f.getCalls, f.sendCalls
}

func ids(sessions []models.Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}
