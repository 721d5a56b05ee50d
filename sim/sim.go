// sim/sim.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	av "github.com/atctrainer/flightcontrols/aviation"
	"github.com/atctrainer/flightcontrols/clearance"
	"github.com/atctrainer/flightcontrols/log"
	"github.com/atctrainer/flightcontrols/math"
	"github.com/atctrainer/flightcontrols/nav"
	"github.com/atctrainer/flightcontrols/rand"
	"github.com/atctrainer/flightcontrols/util"
)

// Sim is a set of aircraft flying under the control of a Dispatcher.
type Sim struct {
	Registry   *nav.Registry
	Dispatcher *Dispatcher
	Events     *EventStream

	mu       util.LoggingMutex
	aircraft map[string]*Aircraft
	rand     *rand.Rand
	arrival  av.ILSApproach
	cfg      Config
	lg       *log.Logger
}

func NewSim(cfg Config, lg *log.Logger) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	arrival, found, err := clearance.ParseILS(cfg.ArrivalILS)
	if err != nil {
		return nil, fmt.Errorf("arrival_ils: %w", err)
	} else if !found {
		return nil, fmt.Errorf("arrival_ils: %q is not an ILS clearance", cfg.ArrivalILS)
	}

	s := &Sim{
		Registry: nav.NewRegistry(lg, cfg.HistorySize),
		Events:   NewEventStream(lg),
		aircraft: make(map[string]*Aircraft),
		rand:     rand.New(),
		arrival:  arrival,
		cfg:      cfg,
		lg:       lg,
	}
	s.Dispatcher = NewDispatcher(s.Registry, s.Events, cfg, lg)
	s.Registry.OnEnd = func(rec nav.SessionRecord) {
		s.Events.Post(Event{
			Type:     SessionEndedEvent,
			Callsign: rec.Callsign,
			Session:  rec.Kind,
			Outcome:  rec.Outcome,
		})
	}
	return s, nil
}

// AddAircraft adds an aircraft with the given state to the simulation.
func (s *Sim) AddAircraft(callsign string, sq av.Squawk, fs FlightState) (*Aircraft, error) {
	callsign = strings.ToUpper(strings.TrimSpace(callsign))
	if callsign == "" || strings.ContainsAny(callsign, " \t") {
		return nil, ErrInvalidCallsign
	}

	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if _, ok := s.aircraft[callsign]; ok {
		return nil, ErrDuplicateCallsign
	}
	ac := NewAircraft(callsign, sq, fs)
	s.aircraft[callsign] = ac

	s.lg.Info("aircraft added", slog.Any("aircraft", ac))
	s.Events.Post(Event{Type: AircraftSpawnedEvent, Callsign: callsign})
	return ac, nil
}

// SpawnArrival adds an aircraft 10-14nm out from the configured arrival
// runway, to one side of its final approach course and pointed to
// intercept it below the glideslope.
func (s *Sim) SpawnArrival(callsign string) (*Aircraft, error) {
	s.mu.Lock(s.lg)
	dist := s.rand.Range(10, 14)
	offset := rand.Sample(s.rand, -1.0, 1.0) * s.rand.Range(5, 8)
	intercept := s.rand.Range(25, 40)
	sq := av.Squawk(0o1000 + s.rand.Intn(0o6000))
	s.mu.Unlock(s.lg)

	ils := s.arrival
	// The bearing from the aircraft to the threshold is the course plus
	// offset; fly in toward the localizer at the intercept angle.
	bearing := math.NormalizeHeading(ils.Course + offset)
	pos := math.Offset2LL(ils.Threshold, math.OppositeHeading(bearing), dist)
	heading := math.NormalizeHeading(ils.Course + math.Sign(offset)*intercept)

	// Low enough to be established on the localizer before reaching the
	// glideslope.
	alt := math.Floor(ils.GlideslopeAltitude(0.6*dist)/100) * 100

	return s.AddAircraft(callsign, sq, FlightState{
		Position:    pos,
		Heading:     heading,
		GroundSpeed: 200,
		Altitude:    alt,
	})
}

func (s *Sim) Aircraft(callsign string) (*Aircraft, bool) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)
	ac, ok := s.aircraft[strings.ToUpper(callsign)]
	return ac, ok
}

// Command sends a message to the given aircraft. It returns the
// aircraft's response and whether the message was a clearance.
func (s *Sim) Command(callsign string, msg string) (string, bool, error) {
	ac, ok := s.Aircraft(callsign)
	if !ok || ac.Killed() {
		return "", false, ErrNoAircraft
	}
	resp, ok := s.Dispatcher.MessageReceived(ac, msg)
	return resp, ok, nil
}

// Update moves all of the aircraft forward by dt and removes the ones
// that have landed.
func (s *Sim) Update(dt time.Duration) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	for cs, ac := range s.aircraft {
		if ac.Killed() {
			s.Registry.CancelAll(cs)
			delete(s.aircraft, cs)
			s.lg.Info("aircraft removed", slog.String("callsign", cs))
			s.Events.Post(Event{Type: AircraftRemovedEvent, Callsign: cs})
			continue
		}
		ac.Update(dt)
	}
}

// Run updates the simulation at the configured rate until ctx is done.
func (s *Sim) Run(ctx context.Context) error {
	dt := s.cfg.UpdateRate.D()
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Update(dt)
		}
	}
}

// AircraftReport combines an aircraft's status with its approach or hold
// progress, if any.
type AircraftReport struct {
	AircraftStatus
	Approach *nav.ApproachState
	Hold     *nav.HoldState
}

// Status returns reports for all of the aircraft, sorted by callsign.
func (s *Sim) Status() []AircraftReport {
	s.mu.Lock(s.lg)
	var acs []*Aircraft
	for _, ac := range s.aircraft {
		acs = append(acs, ac)
	}
	s.mu.Unlock(s.lg)

	var r []AircraftReport
	for _, ac := range acs {
		rep := AircraftReport{AircraftStatus: ac.Status()}
		if st, ok := s.Registry.ApproachState(rep.Callsign); ok {
			rep.Approach = &st
		}
		if st, ok := s.Registry.HoldState(rep.Callsign); ok {
			rep.Hold = &st
		}
		r = append(r, rep)
	}
	slices.SortFunc(r, func(a, b AircraftReport) int { return strings.Compare(a.Callsign, b.Callsign) })
	return r
}

// Shutdown stops all sessions and the event stream.
func (s *Sim) Shutdown(ctx context.Context) error {
	err := s.Registry.Shutdown(ctx)
	s.Events.Destroy()
	return err
}
