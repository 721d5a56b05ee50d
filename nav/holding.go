// nav/holding.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"context"
	"log/slog"
	"time"

	av "github.com/atctrainer/flightcontrols/aviation"
	"github.com/atctrainer/flightcontrols/log"
	"github.com/atctrainer/flightcontrols/math"
)

type HoldPhase int

const (
	HoldInboundEntry    HoldPhase = iota // flying to the fix for the first time
	HoldInbound                          // flying back to the fix
	HoldTurningOutbound                  // waiting for the turn to the outbound course to finish
	HoldOutbound                         // on the timed outbound leg
	HoldCancelled
)

func (p HoldPhase) String() string {
	return []string{"InboundEntry", "Inbound", "TurningOutbound", "Outbound", "Cancelled"}[int(p)]
}

type HoldState struct {
	Callsign string
	Hold     av.Hold
	Inbound  float64
	Outbound float64
	Phase    HoldPhase
	TurnRate float64 // rate used for the current cycle's turns
	Cycles   int     // completed racetrack circuits
	LegStart time.Time
}

func (s HoldState) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("callsign", s.Callsign),
		slog.String("fix", s.Hold.FixText),
		slog.String("turn", s.Hold.TurnDirection.String()),
		slog.Float64("inbound", s.Inbound),
		slog.Float64("outbound", s.Outbound),
		slog.String("phase", s.Phase.String()),
		slog.Int("cycles", s.Cycles))
}

// Holding flies an aircraft around a racetrack pattern over a fix: direct
// to the fix, onto the inbound course, a turn in the hold's direction to
// the outbound course, and a timed outbound leg, over and over.
type Holding struct {
	State HoldState

	ac  Aircraft
	cfg HoldConfig
	lg  *log.Logger

	// sleep waits for d or until ctx is done, returning false in the
	// latter case.
	sleep func(ctx context.Context, d time.Duration) bool
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func NewHolding(ac Aircraft, hold av.Hold, cfg HoldConfig, lg *log.Logger) (*Holding, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Holding{
		State: HoldState{
			Callsign: ac.Callsign(),
			Hold:     hold,
			Inbound:  hold.InboundCourse,
			Outbound: hold.OutboundCourse(),
			Phase:    HoldInboundEntry,
			TurnRate: cfg.EntryTurnRate,
		},
		ac:    ac,
		cfg:   cfg,
		lg:    lg.With(slog.String("callsign", ac.Callsign())),
		sleep: sleepCtx,
	}, nil
}

// onOutbound reports whether the aircraft's course is on the outbound
// course to the nearest whole degree.
func (h *Holding) onOutbound() bool {
	return int(math.NormalizeHeading(h.ac.TrueCourse())) == int(h.State.Outbound)
}

// Run flies the hold until ctx is cancelled. A hold never ends by itself.
func (h *Holding) Run(ctx context.Context, s *Session) Outcome {
	st := &h.State

	cancelled := func() Outcome {
		st.Phase = HoldCancelled
		Publish(s, *st)
		h.lg.Info("hold cancelled", slog.Any("hold", *st))
		return OutcomeCancelled
	}

	for {
		if ctx.Err() != nil {
			return cancelled()
		}

		if st.Cycles == 0 {
			st.Phase, st.TurnRate = HoldInboundEntry, h.cfg.EntryTurnRate
		} else {
			st.Phase, st.TurnRate = HoldInbound, h.cfg.TurnRate
		}

		// These queue up behind each other on the aircraft: to the fix,
		// then onto the inbound course, then around to the outbound one.
		h.ac.FlyDirect(st.Hold.Fix, st.TurnRate)
		h.ac.TurnCourse(st.Inbound, h.cfg.InboundLockRate, av.TurnClosest)
		h.ac.TurnCourse(st.Outbound, h.cfg.TurnRate, st.Hold.TurnDirection)
		Publish(s, *st)

		if !h.sleep(ctx, h.cfg.Settle.D()) {
			return cancelled()
		}
		st.Phase = HoldTurningOutbound
		Publish(s, *st)

		for !h.onOutbound() {
			if !h.sleep(ctx, h.cfg.Poll.D()) {
				return cancelled()
			}
		}

		st.Phase = HoldOutbound
		st.LegStart = time.Now()
		Publish(s, *st)
		h.lg.Debug("outbound leg", slog.Any("hold", *st))

		if !h.sleep(ctx, h.cfg.Leg.D()) {
			return cancelled()
		}
		st.Cycles++
	}
}
