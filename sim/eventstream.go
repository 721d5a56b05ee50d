// sim/eventstream.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/atctrainer/flightcontrols/log"
	"github.com/atctrainer/flightcontrols/nav"
)

// EventStream is a pub/sub queue of Events: anything may post and each
// subscriber sees every event posted after it subscribed, optionally
// limited to some event types. It carries clearance readbacks, session
// changes and aircraft arrivals and departures to whatever is presenting
// them.
type EventStream struct {
	mu            sync.Mutex
	events        []Event
	subscriptions map[*EventsSubscription]struct{}
	lastPost      time.Time
	warnedLong    bool
	done          chan struct{}
	lg            *log.Logger
}

const (
	longStreamLength = 1000
	idleSubscriber   = 10 * time.Second
	monitorInterval  = 5 * time.Second
)

type EventsSubscription struct {
	stream *EventStream
	// Events before offset in stream.events have been returned by Get.
	offset int
	// If non-nil, only these types are returned.
	types []EventType
	// Where Subscribe was called from, to identify idle subscribers.
	source      string
	lastGet     time.Time
	warnedNoGet bool
}

func (e *EventsSubscription) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("offset", e.offset),
		slog.String("source", e.source),
		slog.Time("last_get", e.lastGet))
}

func NewEventStream(lg *log.Logger) *EventStream {
	es := &EventStream{
		subscriptions: make(map[*EventsSubscription]struct{}),
		lastPost:      time.Now(),
		done:          make(chan struct{}),
		lg:            lg,
	}
	go es.monitor()
	return es
}

// Subscribe returns a subscription to events of the given types, or to
// all events if none are given.
func (e *EventStream) Subscribe(types ...EventType) *EventsSubscription {
	_, file, line, _ := runtime.Caller(1)
	sub := &EventsSubscription{
		stream:  e,
		types:   slices.Clone(types),
		source:  fmt.Sprintf("%s:%d", filepath.Base(file), line),
		lastGet: time.Now(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	sub.offset = len(e.events)
	e.subscriptions[sub] = struct{}{}
	return sub
}

func (e *EventStream) monitor() {
	tick := time.NewTicker(monitorInterval)
	defer tick.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-tick.C:
			e.mu.Lock()
			e.compact()
			e.checkHealth()
			e.mu.Unlock()
		}
	}
}

// checkHealth warns once about a stream that keeps growing and about
// subscribers that have stopped calling Get while events are arriving.
func (e *EventStream) checkHealth() {
	if len(e.events) > longStreamLength && !e.warnedLong {
		e.lg.Warn("long event stream", slog.Int("length", len(e.events)))
		e.warnedLong = true
	}

	if time.Since(e.lastPost) > monitorInterval {
		return
	}
	for sub := range e.subscriptions {
		if d := time.Since(sub.lastGet); d > idleSubscriber && !sub.warnedNoGet {
			e.lg.Warn("event subscriber isn't calling Get", slog.Duration("idle", d),
				slog.Any("subscriber", sub))
			sub.warnedNoGet = true
		}
	}
}

func (e *EventsSubscription) Unsubscribe() {
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	if _, ok := e.stream.subscriptions[e]; !ok {
		e.stream.lg.Error("unsubscribe of unknown subscription", slog.Any("subscriber", e))
	}
	delete(e.stream.subscriptions, e)
}

// Post adds an event to the stream, stamping it with the current time if
// it has none. With no subscribers the event is dropped.
func (e *EventStream) Post(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	e.lg.Debug("posted event", slog.Any("event", event))

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.subscriptions) == 0 {
		return
	}
	e.events = append(e.events, event)
	e.lastPost = event.Time
}

// Get returns the subscribed events posted since the last call to Get.
func (e *EventsSubscription) Get() []Event {
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	if _, ok := e.stream.subscriptions[e]; !ok {
		e.stream.lg.Error("Get from unknown subscription", slog.Any("subscriber", e))
		return nil
	}

	var events []Event
	for _, ev := range e.stream.events[e.offset:] {
		if e.types == nil || slices.Contains(e.types, ev.Type) {
			events = append(events, ev)
		}
	}
	e.offset = len(e.stream.events)
	e.lastGet = time.Now()
	e.warnedNoGet = false

	return events
}

// Destroy stops the monitor goroutine and drops all subscriptions. It may
// be called more than once.
func (e *EventStream) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case <-e.done:
	default:
		close(e.done)
	}
	clear(e.subscriptions)
}

// compact drops events that every subscriber has already seen.
func (e *EventStream) compact() {
	minOffset := len(e.events)
	for sub := range e.subscriptions {
		minOffset = min(minOffset, sub.offset)
	}

	if minOffset > cap(e.events)/2 {
		n := len(e.events) - minOffset

		copy(e.events, e.events[minOffset:])
		e.events = e.events[:n]

		for sub := range e.subscriptions {
			sub.offset -= minOffset
		}

		e.warnedLong = false
	}
}

func (e *EventStream) LogValue() slog.Value {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := []slog.Attr{
		slog.Int("len", len(e.events)),
		slog.Int("cap", cap(e.events)),
		slog.Int("subscriptions", len(e.subscriptions)),
	}
	if len(e.events) > 0 {
		items = append(items, slog.Any("last_element", e.events[len(e.events)-1]))
	}
	return slog.GroupValue(items...)
}

///////////////////////////////////////////////////////////////////////////

type EventType int

const (
	ClearanceEvent EventType = iota
	SessionStartedEvent
	SessionEndedEvent
	AircraftSpawnedEvent
	AircraftRemovedEvent
	NumEventTypes
)

func (t EventType) String() string {
	return []string{"Clearance", "SessionStarted", "SessionEnded", "AircraftSpawned",
		"AircraftRemoved"}[t]
}

type Event struct {
	Type     EventType
	Time     time.Time
	Callsign string

	// ClearanceEvent
	Message     string
	Response    string
	Intercepted bool

	// SessionStartedEvent, SessionEndedEvent
	Session nav.SessionKind
	Outcome nav.Outcome
}

func (e Event) String() string {
	switch e.Type {
	case ClearanceEvent:
		return fmt.Sprintf("%s: %s %q -> %q", e.Type, e.Callsign, e.Message, e.Response)
	case SessionStartedEvent:
		return fmt.Sprintf("%s: %s %s", e.Type, e.Callsign, e.Session)
	case SessionEndedEvent:
		return fmt.Sprintf("%s: %s %s %s", e.Type, e.Callsign, e.Session, e.Outcome)
	default:
		return fmt.Sprintf("%s: %s", e.Type, e.Callsign)
	}
}

func (e Event) LogValue() slog.Value {
	items := []slog.Attr{
		slog.String("type", e.Type.String()),
		slog.String("callsign", e.Callsign),
	}
	switch e.Type {
	case ClearanceEvent:
		items = append(items, slog.String("message", e.Message), slog.String("response", e.Response),
			slog.Bool("intercepted", e.Intercepted))
	case SessionStartedEvent:
		items = append(items, slog.String("session", e.Session.String()))
	case SessionEndedEvent:
		items = append(items, slog.String("session", e.Session.String()),
			slog.String("outcome", e.Outcome.String()))
	}
	return slog.GroupValue(items...)
}
