// nav/registry.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/atctrainer/flightcontrols/log"
	"github.com/atctrainer/flightcontrols/util"

	"github.com/brunoga/deep"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrSessionActive  = errors.New("Session already active for aircraft")
	ErrRegistryClosed = errors.New("Session registry has been shut down")
)

type SessionKind int

const (
	ApproachSession SessionKind = iota
	HoldSession
	numSessionKinds
)

func (k SessionKind) String() string {
	return []string{"approach", "hold"}[int(k)]
}

// Outcome records how a session's loop ended.
type Outcome int

const (
	OutcomeCancelled Outcome = iota
	OutcomeLanded
	OutcomeFailed
)

func (o Outcome) String() string {
	return []string{"cancelled", "landed", "failed"}[int(o)]
}

// Session is one running approach or hold. It is created by
// Registry.Start and owned by the goroutine running its loop.
type Session struct {
	ID       uuid.UUID
	Kind     SessionKind
	Callsign string
	Started  time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state any
}

// Cancelled reports whether the session has been asked to stop; its
// loop may still be finishing its current step.
func (s *Session) Cancelled() bool {
	return s.ctx.Err() != nil
}

// Done is closed once the session's loop has exited and the session has
// been removed from the registry.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", s.ID.String()),
		slog.String("kind", s.Kind.String()),
		slog.String("callsign", s.Callsign),
		slog.Time("started", s.Started))
}

// Publish stores a copy of a loop's state so that it can be inspected
// from other goroutines.
func Publish[T any](s *Session, state T) {
	c := deep.MustCopy(state)
	s.mu.Lock()
	s.state = c
	s.mu.Unlock()
}

// StateOf returns the most recently published state of the session, if
// it is of type T.
func StateOf[T any](s *Session) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.state.(T)
	return st, ok
}

// SessionRecord describes a session that has ended.
type SessionRecord struct {
	ID       uuid.UUID
	Kind     SessionKind
	Callsign string
	Started  time.Time
	Ended    time.Time
	Outcome  Outcome
	Final    any // last published state
}

// Registry tracks the approach and hold sessions for every aircraft. At
// most one session of each kind may be active per callsign; starting a
// second one fails with ErrSessionActive.
type Registry struct {
	mu       util.LoggingMutex
	sessions [numSessionKinds]map[string]*Session
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	history *lru.Cache[uuid.UUID, SessionRecord]
	// OnEnd, if set, is called after a session has been removed. It is
	// called from the session's goroutine.
	OnEnd func(SessionRecord)

	lg *log.Logger
}

const DefaultHistorySize = 64

func NewRegistry(lg *log.Logger, historySize int) *Registry {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	history, err := lru.New[uuid.UUID, SessionRecord](historySize)
	if err != nil {
		// Only possible for a non-positive size.
		panic(err)
	}

	r := &Registry{
		history: history,
		lg:      lg,
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	for i := range r.sessions {
		r.sessions[i] = make(map[string]*Session)
	}
	return r
}

// Start atomically checks that callsign has no active session of the
// given kind, registers a new one, and runs loop in its own goroutine.
// The session is removed from the registry when loop returns, however
// it returns. A session that has been cancelled still blocks a new one
// of the same kind until its loop has exited.
func (r *Registry) Start(kind SessionKind, callsign string,
	loop func(ctx context.Context, s *Session) Outcome) (*Session, error) {
	r.mu.Lock(r.lg)
	defer r.mu.Unlock(r.lg)

	if r.closed {
		return nil, ErrRegistryClosed
	}
	if _, ok := r.sessions[kind][callsign]; ok {
		return nil, fmt.Errorf("%s: %s: %w", callsign, kind, ErrSessionActive)
	}

	s := &Session{
		ID:       uuid.New(),
		Kind:     kind,
		Callsign: callsign,
		Started:  time.Now(),
		done:     make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(r.ctx)
	r.sessions[kind][callsign] = s

	r.lg.Info("session started", slog.Any("session", s))

	r.wg.Add(1)
	go r.run(s, loop)

	return s, nil
}

func (r *Registry) run(s *Session, loop func(ctx context.Context, s *Session) Outcome) {
	defer r.wg.Done()

	outcome := OutcomeFailed
	defer func() {
		if err := recover(); err != nil {
			r.lg.Error("session loop panicked", slog.Any("session", s), slog.Any("panic", err),
				slog.String("stack", string(debug.Stack())))
			outcome = OutcomeFailed
		}
		r.release(s, outcome)
	}()

	outcome = loop(s.ctx, s)
}

func (r *Registry) release(s *Session, outcome Outcome) {
	s.cancel()

	rec := SessionRecord{
		ID:       s.ID,
		Kind:     s.Kind,
		Callsign: s.Callsign,
		Started:  s.Started,
		Ended:    time.Now(),
		Outcome:  outcome,
	}
	s.mu.Lock()
	rec.Final = s.state
	s.mu.Unlock()

	r.mu.Lock(r.lg)
	// A replacement may already have been registered if this one was
	// cancelled while it was still running.
	if r.sessions[s.Kind][s.Callsign] == s {
		delete(r.sessions[s.Kind], s.Callsign)
	}
	r.mu.Unlock(r.lg)

	r.history.Add(s.ID, rec)
	close(s.done)

	r.lg.Info("session ended", slog.Any("session", s), slog.String("outcome", outcome.String()),
		slog.Duration("duration", rec.Ended.Sub(rec.Started)))

	if r.OnEnd != nil {
		r.OnEnd(rec)
	}
}

// Cancel signals the callsign's session of the given kind to stop. It
// returns false if there was no active session. The session's loop
// notices at its next step and removes it from the registry.
func (r *Registry) Cancel(kind SessionKind, callsign string) bool {
	r.mu.Lock(r.lg)
	defer r.mu.Unlock(r.lg)

	s, ok := r.sessions[kind][callsign]
	if !ok || s.Cancelled() {
		return false
	}
	s.cancel()
	r.lg.Info("session cancelled", slog.Any("session", s))
	return true
}

// CancelAll cancels all of the callsign's sessions.
func (r *Registry) CancelAll(callsign string) {
	for k := range numSessionKinds {
		r.Cancel(k, callsign)
	}
}

// Active reports whether callsign has a session of the given kind that
// hasn't been cancelled.
func (r *Registry) Active(kind SessionKind, callsign string) bool {
	s := r.Session(kind, callsign)
	return s != nil && !s.Cancelled()
}

// Session returns the callsign's registered session of the given kind,
// including one that has been cancelled but hasn't exited yet.
func (r *Registry) Session(kind SessionKind, callsign string) *Session {
	r.mu.Lock(r.lg)
	defer r.mu.Unlock(r.lg)
	return r.sessions[kind][callsign]
}

// Sessions returns all registered sessions ordered by start time.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock(r.lg)
	var all []*Session
	for _, m := range r.sessions {
		for _, s := range m {
			all = append(all, s)
		}
	}
	r.mu.Unlock(r.lg)

	slices.SortFunc(all, func(a, b *Session) int { return a.Started.Compare(b.Started) })
	return all
}

func (r *Registry) ApproachState(callsign string) (ApproachState, bool) {
	if s := r.Session(ApproachSession, callsign); s != nil {
		return StateOf[ApproachState](s)
	}
	return ApproachState{}, false
}

func (r *Registry) HoldState(callsign string) (HoldState, bool) {
	if s := r.Session(HoldSession, callsign); s != nil {
		return StateOf[HoldState](s)
	}
	return HoldState{}, false
}

// History returns records of recently ended sessions, oldest first.
func (r *Registry) History() []SessionRecord {
	return r.history.Values()
}

// Shutdown cancels every session and waits for their loops to exit or
// for ctx to expire. No new sessions may be started afterward.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock(r.lg)
	r.closed = true
	r.mu.Unlock(r.lg)

	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
