package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/outreach/outreach-chat/internal/logging"
	"github.com/outreach/outreach-chat/internal/models"
)

// ControllerSnapshot is the controller state handed to subscribers
type ControllerSnapshot struct {
	State   State
	Session *models.Session
	Input   string
	// Revision changes whenever the displayed transcript is replaced.
	// Views scroll to the newest message when it moves.
	Revision uint64
	Err      error
}

// Controller owns the single open session and its message submissions
type Controller struct {
	transport Transport
	logger    *logrus.Logger

	mu       sync.Mutex
	active   *models.Session
	input    string
	inFlight map[string]struct{}
	revision uint64
	lastErr  error
	// epoch moves each time the open session is swapped or closed
	epoch uint64

	observers subscribers[ControllerSnapshot]
	updates   subscribers[models.Session]
}

// NewController creates a controller in the empty state
func NewController(transport Transport, logger *logrus.Logger) *Controller {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Controller{
		transport: transport,
		logger:    logger,
		inFlight:  make(map[string]struct{}),
	}
}

// Subscribe registers fn for every state change and returns a cancel func
func (c *Controller) Subscribe(fn func(ControllerSnapshot)) func() {
	return c.observers.add(fn)
}

// OnSessionUpdated registers fn for every session copy the server returns
// after a send, including sends that finish after the user switched away
func (c *Controller) OnSessionUpdated(fn func(models.Session)) func() {
	return c.updates.add(fn)
}

// Snapshot returns the current state
func (c *Controller) Snapshot() ControllerSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the lifecycle state of the open session
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Active returns a copy of the open session
func (c *Controller) Active() (models.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return models.Session{}, false
	}
	return c.active.Clone(), true
}

// ActiveID returns the id of the open session, or ""
func (c *Controller) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return ""
	}
	return c.active.ID
}

// Input returns the pending, unsent text
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SetInput replaces the pending text
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	if c.input == text {
		c.mu.Unlock()
		return
	}
	c.input = text
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.observers.publish(snap)
}

// Show makes s the open session, discarding the previously hydrated one
func (c *Controller) Show(s models.Session) {
	c.mu.Lock()
	snap := c.showLocked(s)
	c.mu.Unlock()

	c.logOpened(s)
	c.observers.publish(snap)
}

// showIfUnchanged opens s only when nothing was opened or closed since epoch
// was read
func (c *Controller) showIfUnchanged(epoch uint64, s models.Session) bool {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return false
	}
	snap := c.showLocked(s)
	c.mu.Unlock()

	c.logOpened(s)
	c.observers.publish(snap)
	return true
}

func (c *Controller) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

func (c *Controller) showLocked(s models.Session) ControllerSnapshot {
	hydrated := s.Clone()
	c.active = &hydrated
	c.epoch++
	c.revision++
	c.lastErr = nil
	return c.snapshotLocked()
}

func (c *Controller) logOpened(s models.Session) {
	c.logger.WithFields(logrus.Fields{
		"session_id": s.ID,
		"messages":   len(s.Messages),
	}).Debug("session opened")
}

// Reset closes the open session and clears the pending input
func (c *Controller) Reset() {
	c.mu.Lock()
	c.active = nil
	c.input = ""
	c.lastErr = nil
	c.epoch++
	c.revision++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.observers.publish(snap)
}

// SendMessage replaces the pending input with text and submits it
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	c.SetInput(text)
	return c.Submit(ctx)
}

// Submit sends the pending input as a user turn of the open session.
//
// With no open session, or input that is blank after trimming, it does
// nothing. A second submission for a session whose send is still in flight
// returns ErrSendInFlight without reaching the transport. On success the
// transcript is replaced wholesale by the server's copy and the input is
// cleared; on failure both are left as they were.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.active == nil || strings.TrimSpace(c.input) == "" {
		c.mu.Unlock()
		return nil
	}
	id := c.active.ID
	if _, busy := c.inFlight[id]; busy {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	text := c.input
	c.inFlight[id] = struct{}{}
	c.lastErr = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.observers.publish(snap)
	log := c.logger.WithField("session_id", id)
	log.Debug("sending message")

	updated, err := c.transport.SendMessage(ctx, id, text)

	c.mu.Lock()
	delete(c.inFlight, id)
	stillActive := c.active != nil && c.active.ID == id
	if err != nil {
		if stillActive {
			c.lastErr = err
		}
		snap = c.snapshotLocked()
		c.mu.Unlock()

		log.WithError(err).Warn("failed to send message")
		c.observers.publish(snap)
		return err
	}

	if stillActive {
		hydrated := updated.Clone()
		c.active = &hydrated
		c.revision++
		if c.input == text {
			c.input = ""
		}
	} else {
		log.Debug("send finished after the session was closed")
	}
	snap = c.snapshotLocked()
	c.mu.Unlock()

	c.updates.publish(updated.Clone())
	c.observers.publish(snap)
	return nil
}

func (c *Controller) stateLocked() State {
	if c.active == nil {
		return StateEmpty
	}
	if _, busy := c.inFlight[c.active.ID]; busy {
		return StateSending
	}
	return StateViewing
}

func (c *Controller) snapshotLocked() ControllerSnapshot {
	snap := ControllerSnapshot{
		State:    c.stateLocked(),
		Input:    c.input,
		Revision: c.revision,
		Err:      c.lastErr,
	}
	if c.active != nil {
		s := c.active.Clone()
		snap.Session = &s
	}
	return snap
}
