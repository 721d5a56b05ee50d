// sim/aircraft.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"log/slog"
	"sync"
	"time"

	av "github.com/atctrainer/flightcontrols/aviation"
	"github.com/atctrainer/flightcontrols/math"
	"github.com/atctrainer/flightcontrols/nav"
)

// A fix counts as reached once the aircraft is this close to it.
const fixCaptureDistance = 0.1 // nm

type maneuverKind int

const (
	turnManeuver maneuverKind = iota
	directManeuver
)

// maneuver is a queued lateral command. Turns complete when the target
// course is reached; directs complete when the fix is reached.
type maneuver struct {
	Kind   maneuverKind
	Course float64
	Rate   float64 // deg/s
	Dir    av.TurnDirection
	Fix    math.Point2LL
}

// FlightState is an aircraft's kinematic state.
type FlightState struct {
	Position    math.Point2LL
	Heading     float64 // true
	GroundSpeed float64 // knots
	Altitude    float64 // feet
}

// AircraftStatus is a snapshot of an aircraft for display.
type AircraftStatus struct {
	Callsign string
	Squawk   av.Squawk
	FlightState

	AltitudeRange [2]float64
	Speed         float64
	Maneuvers     int
	Killed        bool
}

// Aircraft is a simple kinematic model: no wind, no performance limits
// beyond the rates it is given. Lateral commands are queued and flown in
// order; altitude and speed restrictions take effect immediately. All
// methods are safe to call concurrently with Update.
type Aircraft struct {
	mu sync.Mutex

	callsign string
	squawk   av.Squawk
	state    FlightState

	maneuvers []maneuver

	minAlt, maxAlt float64
	vertRate       float64 // ft/min
	targetSpeed    float64
	accel          float64 // kt/s

	killed bool
}

var _ nav.Aircraft = (*Aircraft)(nil)

func NewAircraft(callsign string, sq av.Squawk, fs FlightState) *Aircraft {
	return &Aircraft{
		callsign:    callsign,
		squawk:      sq,
		state:       fs,
		minAlt:      fs.Altitude,
		maxAlt:      fs.Altitude,
		targetSpeed: fs.GroundSpeed,
	}
}

func (ac *Aircraft) Callsign() string { return ac.callsign }

func (ac *Aircraft) Position() math.Point2LL {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.state.Position
}

func (ac *Aircraft) TrueCourse() float64 {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.state.Heading
}

func (ac *Aircraft) GroundSpeed() float64 {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.state.GroundSpeed
}

func (ac *Aircraft) Altitude() float64 {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.state.Altitude
}

func (ac *Aircraft) Squawk() av.Squawk {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.squawk
}

func (ac *Aircraft) SetSquawk(sq av.Squawk) error {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if ac.killed {
		return ErrAircraftRemoved
	}
	if sq < 0 || sq > 0o7777 {
		return av.ErrInvalidSquawkCode
	}
	ac.squawk = sq
	return nil
}

func (ac *Aircraft) enqueue(m maneuver) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if !ac.killed {
		ac.maneuvers = append(ac.maneuvers, m)
	}
}

func (ac *Aircraft) TurnCourse(course, rate float64, dir av.TurnDirection) {
	ac.enqueue(maneuver{Kind: turnManeuver, Course: math.NormalizeHeading(course), Rate: rate, Dir: dir})
}

func (ac *Aircraft) FlyDirect(fix math.Point2LL, rate float64) {
	ac.enqueue(maneuver{Kind: directManeuver, Fix: fix, Rate: rate})
}

func (ac *Aircraft) RestrictAltitude(min, max, rate float64) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.minAlt, ac.maxAlt, ac.vertRate = min, max, rate
}

func (ac *Aircraft) RestrictSpeed(min, max, rate float64) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.targetSpeed = math.Clamp(ac.state.GroundSpeed, min, max)
	ac.accel = rate
}

// Interrupt drops all queued lateral maneuvers; the aircraft continues on
// its current heading.
func (ac *Aircraft) Interrupt() {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.maneuvers = nil
}

func (ac *Aircraft) Kill() {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.killed = true
	ac.maneuvers = nil
}

func (ac *Aircraft) Killed() bool {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.killed
}

func (ac *Aircraft) Status() AircraftStatus {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	return AircraftStatus{
		Callsign:      ac.callsign,
		Squawk:        ac.squawk,
		FlightState:   ac.state,
		AltitudeRange: [2]float64{ac.minAlt, ac.maxAlt},
		Speed:         ac.targetSpeed,
		Maneuvers:     len(ac.maneuvers),
		Killed:        ac.killed,
	}
}

func (ac *Aircraft) LogValue() slog.Value {
	s := ac.Status()
	return slog.GroupValue(
		slog.String("callsign", s.Callsign),
		slog.String("squawk", s.Squawk.String()),
		slog.String("position", s.Position.String()),
		slog.Float64("heading", s.Heading),
		slog.Float64("gs", s.GroundSpeed),
		slog.Float64("altitude", s.Altitude),
		slog.Int("maneuvers", s.Maneuvers))
}

// turnToward turns the aircraft toward target by at most rate*sec degrees
// and returns the number of seconds the turn took.
func (ac *Aircraft) turnToward(target, rate float64, dir av.TurnDirection, sec float64) float64 {
	hdg := ac.state.Heading
	if hdg == target {
		return 0
	}

	var turn float64
	switch dir {
	case av.TurnLeft:
		turn = -math.NormalizeHeading(hdg - target)
	case av.TurnRight:
		turn = math.NormalizeHeading(target - hdg)
	default:
		turn = math.HeadingSignedTurn(hdg, target)
	}

	need := math.Abs(turn) / rate
	if need <= sec {
		ac.state.Heading = target
		return need
	}
	ac.state.Heading = math.NormalizeHeading(hdg + math.Sign(turn)*rate*sec)
	return sec
}

// fly works through the maneuver queue for sec seconds. Turns that
// finish early leave the rest of the time for the next maneuver, so a
// sequence of fast turns all take effect within one update.
func (ac *Aircraft) fly(sec float64) {
	for len(ac.maneuvers) > 0 && sec > 0 {
		m := &ac.maneuvers[0]
		switch m.Kind {
		case turnManeuver:
			sec -= ac.turnToward(m.Course, m.Rate, m.Dir, sec)
			if ac.state.Heading == m.Course {
				ac.maneuvers = ac.maneuvers[1:]
			}

		case directManeuver:
			brg := math.Heading2LL(ac.state.Position, m.Fix)
			ac.turnToward(brg, m.Rate, av.TurnClosest, sec)
			// The position update happens afterward; completion is
			// checked then.
			return
		}
	}
}

// passedFix reports whether the direct at the head of the queue is done:
// either the fix has been reached, or it's close and behind the aircraft.
func (ac *Aircraft) passedFix() bool {
	if len(ac.maneuvers) == 0 || ac.maneuvers[0].Kind != directManeuver {
		return false
	}
	fix := ac.maneuvers[0].Fix
	d := math.NMDistance2LL(ac.state.Position, fix)
	if d < fixCaptureDistance {
		return true
	}
	behind := math.HeadingDifference(ac.state.Heading, math.Heading2LL(ac.state.Position, fix)) > 90
	return behind && d < 1
}

// Update advances the aircraft by dt.
func (ac *Aircraft) Update(dt time.Duration) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if ac.killed {
		return
	}
	sec := dt.Seconds()

	ac.fly(sec)

	ac.state.Position = math.Offset2LL(ac.state.Position, ac.state.Heading, ac.state.GroundSpeed*sec/3600)
	if ac.passedFix() {
		ac.maneuvers = ac.maneuvers[1:]
	}

	if ac.state.Altitude > ac.maxAlt {
		ac.state.Altitude = max(ac.maxAlt, ac.state.Altitude-ac.vertRate/60*sec)
	} else if ac.state.Altitude < ac.minAlt {
		ac.state.Altitude = min(ac.minAlt, ac.state.Altitude+ac.vertRate/60*sec)
	}
	ac.state.GroundSpeed = math.MoveToward(ac.state.GroundSpeed, ac.targetSpeed, ac.accel*sec)
}
