// sim/dispatcher.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	av "github.com/atctrainer/flightcontrols/aviation"
	"github.com/atctrainer/flightcontrols/clearance"
	"github.com/atctrainer/flightcontrols/log"
	"github.com/atctrainer/flightcontrols/nav"
	"github.com/atctrainer/flightcontrols/rand"
)

// Dispatcher turns controller messages into aircraft maneuvers. Textual
// clearances are parsed and issued to the aircraft directly; ILS and
// hold clearances start approach and hold sessions in the registry.
type Dispatcher struct {
	Registry *nav.Registry
	Events   *EventStream

	cfg Config
	lg  *log.Logger

	mu   sync.Mutex // rand isn't safe for concurrent use
	rand *rand.Rand
}

func NewDispatcher(reg *nav.Registry, events *EventStream, cfg Config, lg *log.Logger) *Dispatcher {
	return &Dispatcher{
		Registry: reg,
		Events:   events,
		cfg:      cfg,
		lg:       lg,
		rand:     rand.New(),
	}
}

func (d *Dispatcher) post(e Event) {
	if d.Events != nil {
		d.Events.Post(e)
	}
}

// CheckIntercept reports whether MessageReceived would handle msg, i.e.
// whether it is an ILS clearance or a clearance with something the
// aircraft can act on. It doesn't depend on the aircraft's state.
func (d *Dispatcher) CheckIntercept(msg string) bool {
	if _, found, _ := clearance.ParseILS(msg); found {
		return true
	}
	c, err := clearance.Parse(msg)
	return err == nil && c.Actionable()
}

// MessageReceived handles a message sent to the aircraft. It returns the
// aircraft's response and true if the message was a clearance, or "" and
// false if it should be passed along as ordinary text.
func (d *Dispatcher) MessageReceived(ac nav.Aircraft, msg string) (string, bool) {
	lg := d.lg.With(slog.String("callsign", ac.Callsign()))

	resp, ok := d.handle(ac, msg, lg)
	d.post(Event{
		Type:        ClearanceEvent,
		Callsign:    ac.Callsign(),
		Message:     msg,
		Response:    resp,
		Intercepted: ok,
	})
	return resp, ok
}

func (d *Dispatcher) handle(ac nav.Aircraft, msg string, lg *log.Logger) (string, bool) {
	if ils, found, err := clearance.ParseILS(msg); found {
		if err != nil {
			lg.Info("invalid ILS clearance", slog.String("message", msg), slog.Any("error", err))
			return err.Error(), true
		}
		return d.startApproach(ac, ils, lg), true
	}

	c, err := clearance.Parse(msg)
	if err != nil {
		lg.Debug("not a clearance", slog.String("message", msg), slog.Any("error", err))
		return "", false
	}
	for _, ferr := range c.FieldErrors {
		lg.Warn("ignoring invalid clearance field", slog.String("message", msg), slog.Any("error", ferr))
	}
	if !c.Actionable() {
		return "", false
	}

	// Check this before doing anything so that a rejected clearance has
	// no effect at all.
	for _, in := range c.Instructions {
		if _, ok := in.(clearance.Holding); ok && d.Registry.Active(nav.HoldSession, ac.Callsign()) {
			lg.Info("hold rejected: already holding")
			return ErrAlreadyHolding.Error(), true
		}
	}

	var readbacks []string
	if c.Squawk != nil {
		if err := ac.SetSquawk(*c.Squawk); err != nil {
			lg.Warn("squawk failed", slog.Any("error", err))
		} else {
			readbacks = append(readbacks, "Squawking "+c.Squawk.String())
		}
	}

	// The squawk readback, if any, leads; otherwise the first instruction
	// that was actually given does.
	led := len(readbacks) > 0
	for _, in := range c.Instructions {
		if err := d.issue(ac, in, lg); err != nil {
			lg.Warn("instruction failed", slog.Any("instruction", in), slog.Any("error", err))
			if errors.Is(err, ErrAlreadyHolding) {
				readbacks = append(readbacks, err.Error())
			}
			continue
		}
		rb := in.Readback()
		if !led {
			rb, led = "Flying "+rb, true
		}
		readbacks = append(readbacks, rb)
	}

	resp := strings.Join(readbacks, ", then ")
	lg.Info("clearance", slog.String("message", msg), slog.String("response", resp))
	return resp, true
}

// issue gives a single instruction to the aircraft. Lateral instructions
// that aren't queued behind earlier ones take over from whatever the
// aircraft was doing, including a running approach or hold.
func (d *Dispatcher) issue(ac nav.Aircraft, in clearance.Instruction, lg *log.Logger) error {
	cs := ac.Callsign()

	_, hold := in.(clearance.Holding)
	if clearance.Lateral(in) && !in.Queued() {
		ac.Interrupt()
		d.Registry.Cancel(nav.ApproachSession, cs)
		if !hold {
			d.Registry.Cancel(nav.HoldSession, cs)
		}
	} else if hold {
		// A queued hold still replaces the approach; the aircraft finishes
		// what it was given before it enters the hold.
		d.Registry.Cancel(nav.ApproachSession, cs)
	}

	switch in := in.(type) {
	case clearance.Heading:
		ac.TurnCourse(in.Degrees, d.cfg.TurnRate, av.TurnClosest)

	case clearance.TurnLeft:
		ac.TurnCourse(in.Degrees, d.cfg.TurnRate, av.TurnLeft)

	case clearance.TurnRight:
		ac.TurnCourse(in.Degrees, d.cfg.TurnRate, av.TurnRight)

	case clearance.Direct:
		ac.FlyDirect(in.Fix, d.cfg.TurnRate)

	case clearance.Altitude:
		alt := float64(in.Feet)
		ac.RestrictAltitude(alt, alt, d.verticalRate(ac.Altitude() > alt, in.Expedite))

	case clearance.Speed:
		spd := float64(in.Knots)
		rate := d.cfg.Acceleration
		if ac.GroundSpeed() > spd {
			rate = d.cfg.Deceleration
		}
		ac.RestrictSpeed(spd, spd, rate)

	case clearance.Holding:
		return d.startHold(ac, in.Hold, lg)
	}
	return nil
}

func (d *Dispatcher) verticalRate(descending, expedite bool) float64 {
	r := d.cfg.Rates
	switch {
	case descending && expedite:
		return r.ExpediteDescent
	case expedite:
		return r.ExpediteClimb
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if descending {
		return d.rand.Range(r.Descent[0], r.Descent[1])
	}
	return d.rand.Range(r.Climb[0], r.Climb[1])
}

func (d *Dispatcher) startHold(ac nav.Aircraft, hold av.Hold, lg *log.Logger) error {
	h, err := nav.NewHolding(ac, hold, d.cfg.Hold, lg)
	if err != nil {
		return err
	}

	s, err := d.Registry.Start(nav.HoldSession, ac.Callsign(), h.Run)
	if errors.Is(err, nav.ErrSessionActive) {
		return ErrAlreadyHolding
	} else if err != nil {
		return err
	}

	d.post(Event{Type: SessionStartedEvent, Callsign: ac.Callsign(), Session: s.Kind})
	return nil
}

func (d *Dispatcher) startApproach(ac nav.Aircraft, ils av.ILSApproach, lg *log.Logger) string {
	cs := ac.Callsign()
	if d.Registry.Active(nav.ApproachSession, cs) {
		return ErrApproachActive.Error()
	}

	a, err := nav.NewApproach(ac, ils, d.cfg.Approach, lg)
	if err != nil {
		return err.Error()
	}

	// The approach takes over: anything queued and any hold are dropped.
	ac.Interrupt()
	d.Registry.Cancel(nav.HoldSession, cs)

	turn := a.State.Turn
	s, err := d.Registry.Start(nav.ApproachSession, cs, a.Run)
	if errors.Is(err, nav.ErrSessionActive) {
		return ErrApproachActive.Error()
	} else if err != nil {
		lg.Error("unable to start approach", slog.Any("error", err))
		return err.Error()
	}

	lg.Info("approach started", slog.Any("session", s), slog.String("ils", ils.Text),
		slog.String("turn", turn.String()))
	d.post(Event{Type: SessionStartedEvent, Callsign: cs, Session: s.Kind})
	return "Controller started"
}
