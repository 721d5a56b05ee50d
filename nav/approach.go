// nav/approach.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"context"
	"errors"
	"log/slog"
	"time"

	av "github.com/atctrainer/flightcontrols/aviation"
	"github.com/atctrainer/flightcontrols/log"
	"github.com/atctrainer/flightcontrols/math"

	"go.einride.tech/pid"
)

var (
	ErrPassedLocalizer = errors.New("Already passed the loc")
)

type ApproachPhase int

const (
	ApproachCapturing ApproachPhase = iota
	ApproachGlideslopeArmed
	ApproachLanded
	ApproachCancelled
)

func (p ApproachPhase) String() string {
	return []string{"Capturing", "GlideslopeArmed", "Landed", "Cancelled"}[int(p)]
}

// ApproachState is everything an ILS approach loop carries from one tick
// to the next.
type ApproachState struct {
	Callsign       string
	ILS            av.ILSApproach
	InitialHeading float64
	// Turn is the direction the aircraft has to turn to intercept the
	// localizer; it's determined when the approach starts.
	Turn av.TurnDirection
	// PID holds the localizer controller, including its integral and
	// previous error.
	PID pid.Controller
	// Toggled is set the first time the controller's heading agrees with
	// Turn. From then on, the controller's heading is always flown.
	Toggled bool
	Phase   ApproachPhase

	// Most recent tick
	Bearing          float64 // aircraft to threshold
	Distance         float64 // nm
	CommandedHeading float64
	Ticks            int
}

func (s ApproachState) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("callsign", s.Callsign),
		slog.String("phase", s.Phase.String()),
		slog.String("turn", s.Turn.String()),
		slog.Bool("toggled", s.Toggled),
		slog.Float64("bearing", s.Bearing),
		slog.Float64("distance", s.Distance),
		slog.Float64("commanded_heading", s.CommandedHeading),
		slog.Float64("integral", s.PID.State.ControlErrorIntegral),
		slog.Int("ticks", s.Ticks))
}

// LocalizerError returns how far the aircraft is off the localizer, as
// the bearing to the threshold minus the runway course, in [-180,180).
func (s ApproachState) LocalizerError() float64 {
	return math.HeadingSignedTurn(s.ILS.Course, s.Bearing)
}

// Approach flies an aircraft down an ILS. The aircraft is turned onto
// the localizer by a PID controller on the difference between its bearing
// to the threshold and the runway course, descended on the glideslope once
// established, slowed according to the speed schedule, and removed from
// the simulation once it reaches the runway.
type Approach struct {
	State ApproachState

	ac  Aircraft
	cfg ApproachConfig
	lg  *log.Logger
}

// InterceptTurn returns the direction an aircraft on the given heading
// must turn to intercept a localizer with the given course, where bearing
// is the aircraft's bearing to the threshold. It returns false if the
// aircraft isn't between its heading and the localizer, i.e. it has
// already passed it.
func InterceptTurn(heading, bearing, course float64) (av.TurnDirection, bool) {
	// Express both relative to the course so that there's no wrap at
	// 360 to worry about.
	hdg := course + math.HeadingSignedTurn(course, heading)
	brg := course + math.HeadingSignedTurn(course, bearing)

	if hdg > brg && brg > course {
		return av.TurnLeft, true
	} else if hdg < brg && brg < course {
		return av.TurnRight, true
	}
	return av.TurnClosest, false
}

// NewApproach prepares an ILS approach for the aircraft. It returns
// ErrPassedLocalizer if the aircraft's heading won't take it across the
// localizer.
func NewApproach(ac Aircraft, ils av.ILSApproach, cfg ApproachConfig, lg *log.Logger) (*Approach, error) {
	if err := ils.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hdg := ac.TrueCourse()
	bearing := math.Heading2LL(ac.Position(), ils.Threshold)
	turn, ok := InterceptTurn(hdg, bearing, ils.Course)
	if !ok {
		lg.Info("ILS rejected", slog.String("callsign", ac.Callsign()), slog.Float64("heading", hdg),
			slog.Float64("bearing", bearing), slog.Float64("course", ils.Course))
		return nil, ErrPassedLocalizer
	}

	a := &Approach{
		State: ApproachState{
			Callsign:       ac.Callsign(),
			ILS:            ils,
			InitialHeading: hdg,
			Turn:           turn,
			PID: pid.Controller{
				Config: pid.ControllerConfig{
					ProportionalGain: cfg.ProportionalGain,
					IntegralGain:     cfg.IntegralGain,
					DerivativeGain:   cfg.DerivativeGain,
				},
			},
			Phase:   ApproachCapturing,
			Bearing: bearing,
		},
		ac:  ac,
		cfg: cfg,
		lg:  lg.With(slog.String("callsign", ac.Callsign())),
	}
	return a, nil
}

// agrees reports whether a commanded heading that is turn degrees from
// the initial heading is in the intercept direction.
func (a *Approach) agrees(turn float64) bool {
	switch a.State.Turn {
	case av.TurnLeft:
		return turn <= 0
	case av.TurnRight:
		return turn >= 0
	default:
		return true
	}
}

// Tick runs one step of the approach. It returns true once the aircraft
// has landed and been removed from the simulation.
func (a *Approach) Tick() bool {
	s := &a.State
	ils := s.ILS
	s.Ticks++

	// Localizer
	pos := a.ac.Position()
	course := a.ac.TrueCourse()
	s.Bearing = math.Heading2LL(pos, ils.Threshold)
	locErr := s.LocalizerError()

	s.PID.Update(pid.ControllerInput{
		ReferenceSignal:  ils.Course + locErr,
		ActualSignal:     ils.Course,
		SamplingInterval: a.cfg.samplingInterval(),
	})
	output := s.PID.State.ControlSignal

	hdg := course
	if s.Toggled || a.agrees(output+math.HeadingSignedTurn(s.InitialHeading, course)) {
		if !s.Toggled {
			a.lg.Debug("localizer turn toggled", slog.Any("state", *s))
		}
		s.Toggled = true
		hdg = output + course
	} else {
		// Not turning yet; keep the integral from winding up.
		s.PID.State.ControlErrorIntegral = a.cfg.IntegralReset
	}
	s.CommandedHeading = math.NormalizeHeading(hdg)
	a.ac.TurnCourse(s.CommandedHeading, a.cfg.TurnRate, av.TurnClosest)

	// Speed
	s.Distance = math.NMDistance2LL(pos, ils.Threshold)
	gs := a.ac.GroundSpeed()
	for _, step := range a.cfg.SpeedSchedule {
		if s.Distance < step.DistanceNM && gs > step.Knots {
			a.ac.RestrictSpeed(step.Knots, step.Knots, a.cfg.SpeedChangeRate)
		}
	}

	// Glideslope
	alt := a.ac.Altitude()
	if s.Phase == ApproachCapturing && math.Abs(locErr) < a.cfg.CaptureWindow {
		gsAlt := ils.GlideslopeAltitude(s.Distance)
		if alt-a.cfg.GlideslopeWindow < gsAlt && gsAlt < alt+a.cfg.GlideslopeWindow {
			s.Phase = ApproachGlideslopeArmed
			a.lg.Info("glideslope armed", slog.Any("state", *s), slog.Float64("altitude", alt))
		}
	}
	if s.Phase == ApproachGlideslopeArmed {
		a.ac.RestrictAltitude(ils.Elevation, ils.Elevation,
			av.GlideslopeDescentRate(gs, ils.GlideslopeAngle))
	}

	// Touchdown
	if alt < ils.Elevation+a.cfg.LandingHeight && s.Distance < a.cfg.LandingDistance {
		s.Phase = ApproachLanded
		a.lg.Info("landed", slog.Any("state", *s))
		a.ac.Kill()
		return true
	}

	return false
}

// Run ticks the approach until the aircraft lands or ctx is cancelled.
func (a *Approach) Run(ctx context.Context, s *Session) Outcome {
	ticker := time.NewTicker(a.cfg.Tick.D())
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			a.State.Phase = ApproachCancelled
			Publish(s, a.State)
			return OutcomeCancelled
		}

		landed := a.Tick()
		Publish(s, a.State)
		if landed {
			return OutcomeLanded
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}
