// Package wizard drives the guided, reply-by-reply setup dialogue. A
// registry keyed by (user, guild) matches inbound messages against
// pending sessions; cancellation and timeout are explicit terminal
// transitions rather than exceptions.
package wizard

import (
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"ticket-bot/storage"
)

var ErrSessionActive = errors.New("setup session already active")

// Question is one step of the dialogue. Assign writes the validated
// answer into the guild's setup record.
type Question struct {
	Prompt    string
	Skippable bool
	Validate  func(string) bool
	Assign    func(*storage.GuildSetup, string)
}

// Messenger is the slice of the transport the wizard needs.
type Messenger interface {
	SendMessage(channelID, content string) (string, error)
}

// Notices are the user-facing strings emitted on session transitions.
type Notices struct {
	Cancelled  string
	TimedOut   string
	Invalid    string
	Completed  string
	SaveFailed string
}

type session struct {
	userID    string
	channelID string
	guildID   string
	questions []Question
	index     int
	gen       int
	timer     *time.Timer
	deadline  time.Time
	startedAt time.Time
}

type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session

	store   *storage.Store
	send    Messenger
	log     *zap.Logger
	timeout time.Duration
	notices Notices
}

func NewRegistry(store *storage.Store, send Messenger, log *zap.Logger, timeout time.Duration, notices Notices) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		store:    store,
		send:     send,
		log:      log,
		timeout:  timeout,
		notices:  notices,
	}
}

func key(userID, guildID string) string {
	return userID + "/" + guildID
}

// Start opens a session for (user, guild) in channelID and emits the
// first prompt. At most one session per (user, guild) may be active.
func (r *Registry) Start(userID, channelID, guildID string, questions []Question) error {
	if len(questions) == 0 {
		return errors.New("empty question list")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(userID, guildID)
	if _, ok := r.sessions[k]; ok {
		return ErrSessionActive
	}

	s := &session{
		userID:    userID,
		channelID: channelID,
		guildID:   guildID,
		questions: questions,
		startedAt: time.Now(),
	}
	r.sessions[k] = s
	r.armTimer(k, s)

	r.notify(channelID, questions[0].Prompt)
	return nil
}

// Active reports whether a session exists for (user, guild).
func (r *Registry) Active(userID, guildID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[key(userID, guildID)]
	return ok
}

// HandleMessage offers an inbound message to the registry. It returns
// true when a session consumed the message; all other traffic passes
// through untouched. Only messages from the owning user in the owning
// channel are consumed.
func (r *Registry) HandleMessage(userID, channelID, guildID, content string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(userID, guildID)
	s, ok := r.sessions[k]
	if !ok || s.channelID != channelID {
		return false
	}

	// A reply landing after the deadline but before the timer callback
	// has run must not be applied; it gets the timeout transition
	// instead and passes through as ordinary traffic.
	if time.Now().After(s.deadline) {
		r.endLocked(k, s)
		r.notify(s.channelID, r.notices.TimedOut)
		r.log.Info("setup timed out",
			zap.String("user", userID), zap.String("guild", guildID), zap.Int("answered", s.index))
		return false
	}

	reply := strings.TrimSpace(content)
	if strings.EqualFold(reply, "cancel") {
		r.endLocked(k, s)
		r.notify(s.channelID, r.notices.Cancelled)
		r.log.Info("setup cancelled",
			zap.String("user", userID), zap.String("guild", guildID), zap.Int("answered", s.index))
		return true
	}

	q := s.questions[s.index]
	if q.Skippable && strings.EqualFold(reply, "skip") {
		r.advanceLocked(k, s)
		return true
	}

	if q.Validate != nil && !q.Validate(reply) {
		// Fail-fast: invalid input aborts the whole session. Fields
		// from fully answered earlier questions stay persisted.
		r.endLocked(k, s)
		r.notify(s.channelID, r.notices.Invalid)
		r.log.Info("setup aborted on invalid input",
			zap.String("user", userID), zap.String("guild", guildID), zap.Int("question", s.index))
		return true
	}

	err := r.store.Update(func(d *storage.Document) error {
		q.Assign(&d.Guild(guildID).Setup, reply)
		return nil
	})
	if err != nil {
		r.endLocked(k, s)
		r.notify(s.channelID, r.notices.SaveFailed)
		r.log.Error("setup answer persist failed", zap.Error(err),
			zap.String("user", userID), zap.String("guild", guildID))
		return true
	}

	r.advanceLocked(k, s)
	return true
}

// advanceLocked moves to the next question or completes the session.
func (r *Registry) advanceLocked(k string, s *session) {
	s.index++
	if s.index < len(s.questions) {
		s.gen++
		r.armTimer(k, s)
		r.notify(s.channelID, s.questions[s.index].Prompt)
		return
	}

	r.endLocked(k, s)

	// The wizard is single-use per redemption: completing it converts
	// the activation into plain membership.
	err := r.store.Update(func(d *storage.Document) error {
		if act, ok := d.Users[s.userID]; ok {
			d.Members[s.userID] = act.Mode
			delete(d.Users, s.userID)
		}
		return nil
	})
	if err != nil {
		r.log.Error("activation cleanup failed", zap.Error(err), zap.String("user", s.userID))
	}

	r.notify(s.channelID, r.notices.Completed)
	r.log.Info("setup completed",
		zap.String("user", s.userID), zap.String("guild", s.guildID),
		zap.Duration("took", time.Since(s.startedAt)))
}

// endLocked removes the session and stops its timer. Idempotent: a
// second call for the same key finds nothing.
func (r *Registry) endLocked(k string, s *session) {
	if s.timer != nil {
		s.timer.Stop()
	}
	delete(r.sessions, k)
}

// armTimer schedules the per-question timeout. The generation check in
// expire makes a reply racing the timer safe: once the session advanced
// or ended, the stale timer does nothing.
func (r *Registry) armTimer(k string, s *session) {
	if s.timer != nil {
		s.timer.Stop()
	}
	gen := s.gen
	s.deadline = time.Now().Add(r.timeout)
	s.timer = time.AfterFunc(r.timeout, func() {
		r.expire(k, gen)
	})
}

func (r *Registry) expire(k string, gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[k]
	if !ok || s.gen != gen {
		return
	}
	r.endLocked(k, s)
	r.notify(s.channelID, r.notices.TimedOut)
	r.log.Info("setup timed out",
		zap.String("user", s.userID), zap.String("guild", s.guildID), zap.Int("answered", s.index))
}

func (r *Registry) notify(channelID, content string) {
	if content == "" {
		return
	}
	if _, err := r.send.SendMessage(channelID, content); err != nil {
		r.log.Warn("setup notice send failed", zap.Error(err), zap.String("channel", channelID))
	}
}
