package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/outreach/outreach-chat/internal/logging"
	"github.com/outreach/outreach-chat/internal/models"
)

// DefaultTitle names sessions created without a title
const DefaultTitle = "New Chat"

// DirectorySnapshot is the directory state handed to subscribers
type DirectorySnapshot struct {
	Sessions []models.Session
	Loading  bool
	Loaded   bool
	Err      error
}

// Directory is the ordered list of the user's sessions. It hands created and
// selected sessions to its Controller.
type Directory struct {
	transport    Transport
	controller   *Controller
	logger       *logrus.Logger
	defaultTitle string

	mu        sync.Mutex
	sessions  []models.Session
	loading   bool
	loaded    bool
	lastErr   error
	selectSeq uint64

	observers subscribers[DirectorySnapshot]
}

// NewDirectory creates an empty directory bound to controller
func NewDirectory(transport Transport, controller *Controller, defaultTitle string, logger *logrus.Logger) *Directory {
	if logger == nil {
		logger = logging.Discard()
	}
	if strings.TrimSpace(defaultTitle) == "" {
		defaultTitle = DefaultTitle
	}

	d := &Directory{
		transport:    transport,
		controller:   controller,
		logger:       logger,
		defaultTitle: defaultTitle,
	}
	controller.OnSessionUpdated(d.replace)
	return d
}

// Subscribe registers fn for every change and returns a cancel func
func (d *Directory) Subscribe(fn func(DirectorySnapshot)) func() {
	return d.observers.add(fn)
}

// Snapshot returns the current state
func (d *Directory) Snapshot() DirectorySnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// Sessions returns the listed sessions in display order
func (d *Directory) Sessions() []models.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneSessions(d.sessions)
}

// Load fetches the full session list. The server's order is kept as-is.
// On failure the previous list stays in place.
func (d *Directory) Load(ctx context.Context) error {
	d.mu.Lock()
	d.loading = true
	snap := d.snapshotLocked()
	d.mu.Unlock()
	d.observers.publish(snap)

	sessions, err := d.transport.ListSessions(ctx)

	d.mu.Lock()
	d.loading = false
	if err != nil {
		d.lastErr = err
	} else {
		d.sessions = cloneSessions(sessions)
		d.loaded = true
		d.lastErr = nil
	}
	snap = d.snapshotLocked()
	d.mu.Unlock()

	if err != nil {
		d.logger.WithError(err).Warn("failed to load chat sessions")
	} else {
		d.logger.WithField("count", len(sessions)).Debug("chat sessions loaded")
	}
	d.observers.publish(snap)
	return err
}

// Create opens a new session, lists it first and makes it active.
// A blank title falls back to the directory's default title.
func (d *Directory) Create(ctx context.Context, title string) (models.Session, error) {
	return d.CreateForContext(ctx, title, "", "")
}

// CreateForContext is Create with a link to another entity, such as a campaign
func (d *Directory) CreateForContext(ctx context.Context, title, contextType, contextID string) (models.Session, error) {
	if strings.TrimSpace(title) == "" {
		title = d.defaultTitle
	}

	created, err := d.transport.CreateSession(ctx, models.CreateSessionRequest{
		Title:       title,
		ContextType: contextType,
		ContextID:   contextID,
	})
	if err != nil {
		d.fail(err, "failed to create chat session")
		return models.Session{}, err
	}

	d.mu.Lock()
	d.sessions = append([]models.Session{created.Clone()}, d.sessions...)
	d.lastErr = nil
	d.selectSeq++
	snap := d.snapshotLocked()
	d.mu.Unlock()

	d.logger.WithField("session_id", created.ID).Info("chat session created")
	d.observers.publish(snap)
	d.controller.Show(*created)
	return created.Clone(), nil
}

// Select fetches the hydrated session and opens it. Only ids the directory
// lists are accepted. A failed fetch leaves the open session alone. The
// fetched session is dropped when a later selection or a create was requested
// meanwhile, or when the controller opened or closed a session.
func (d *Directory) Select(ctx context.Context, id string) error {
	d.mu.Lock()
	if d.indexLocked(id) < 0 {
		d.mu.Unlock()
		return ErrUnknownSession
	}
	d.selectSeq++
	seq := d.selectSeq
	d.mu.Unlock()
	epoch := d.controller.currentEpoch()

	s, err := d.transport.GetSession(ctx, id)
	if err != nil {
		d.fail(err, "failed to fetch chat session")
		return err
	}

	d.mu.Lock()
	latest := seq == d.selectSeq
	d.mu.Unlock()
	if !latest {
		d.logger.WithField("session_id", id).Debug("dropping superseded selection")
		return nil
	}

	d.replace(*s)
	if !d.controller.showIfUnchanged(epoch, *s) {
		d.logger.WithField("session_id", id).Debug("dropping selection, open session changed")
	}
	return nil
}

// replace swaps in a fresh copy of a listed session without moving it
func (d *Directory) replace(s models.Session) {
	d.mu.Lock()
	i := d.indexLocked(s.ID)
	if i < 0 {
		d.mu.Unlock()
		return
	}
	d.sessions[i] = s.Clone()
	snap := d.snapshotLocked()
	d.mu.Unlock()

	d.observers.publish(snap)
}

func (d *Directory) fail(err error, msg string) {
	d.mu.Lock()
	d.lastErr = err
	snap := d.snapshotLocked()
	d.mu.Unlock()

	d.logger.WithError(err).Warn(msg)
	d.observers.publish(snap)
}

func (d *Directory) indexLocked(id string) int {
	for i := range d.sessions {
		if d.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Directory) snapshotLocked() DirectorySnapshot {
	return DirectorySnapshot{
		Sessions: cloneSessions(d.sessions),
		Loading:  d.loading,
		Loaded:   d.loaded,
		Err:      d.lastErr,
	}
}
