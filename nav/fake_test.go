// nav/fake_test.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"sync"
	"time"

	av "github.com/atctrainer/flightcontrols/aviation"
	"github.com/atctrainer/flightcontrols/math"
)

// command records a call made on fakeAircraft.
type command struct {
	name   string
	course float64
	rate   float64
	dir    av.TurnDirection
	fix    math.Point2LL
	min    float64
}

// fakeAircraft is a point-mass aircraft. Commands take effect immediately
// rather than being queued, which is all the approach needs; step moves it
// forward in time.
type fakeAircraft struct {
	mu sync.Mutex

	callsign string
	pos      math.Point2LL
	heading  float64
	gs       float64
	alt      float64
	squawk   av.Squawk

	targetHeading float64
	turnRate      float64
	turnDir       av.TurnDirection
	targetAlt     float64
	vertRate      float64 // ft/min
	targetSpeed   float64
	accel         float64 // kt/s

	commands    []command
	interrupted int
	killed      bool
}

func newFakeAircraft(callsign string, pos math.Point2LL, heading, gs, alt float64) *fakeAircraft {
	return &fakeAircraft{
		callsign:      callsign,
		pos:           pos,
		heading:       heading,
		gs:            gs,
		alt:           alt,
		targetHeading: heading,
		targetAlt:     alt,
		targetSpeed:   gs,
	}
}

func (ac *fakeAircraft) Callsign() string { return ac.callsign }

func (ac *fakeAircraft) Position() math.Point2LL {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.pos
}

func (ac *fakeAircraft) TrueCourse() float64 {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.heading
}

func (ac *fakeAircraft) GroundSpeed() float64 {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.gs
}

func (ac *fakeAircraft) Altitude() float64 {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.alt
}

func (ac *fakeAircraft) Squawk() av.Squawk {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.squawk
}

func (ac *fakeAircraft) SetSquawk(sq av.Squawk) error {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.squawk = sq
	ac.commands = append(ac.commands, command{name: "squawk"})
	return nil
}

func (ac *fakeAircraft) TurnCourse(course, rate float64, dir av.TurnDirection) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.targetHeading, ac.turnRate, ac.turnDir = math.NormalizeHeading(course), rate, dir
	ac.commands = append(ac.commands, command{name: "turn", course: course, rate: rate, dir: dir})
}

func (ac *fakeAircraft) FlyDirect(fix math.Point2LL, rate float64) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.commands = append(ac.commands, command{name: "direct", fix: fix, rate: rate})
}

func (ac *fakeAircraft) RestrictAltitude(min, max, rate float64) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.targetAlt, ac.vertRate = min, rate
	ac.commands = append(ac.commands, command{name: "altitude", min: min, rate: rate})
}

func (ac *fakeAircraft) RestrictSpeed(min, max, rate float64) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.targetSpeed, ac.accel = min, rate
	ac.commands = append(ac.commands, command{name: "speed", min: min, rate: rate})
}

func (ac *fakeAircraft) Interrupt() {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.interrupted++
}

func (ac *fakeAircraft) Kill() {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.killed = true
}

func (ac *fakeAircraft) setHeading(h float64) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.heading, ac.targetHeading = h, h
}

func (ac *fakeAircraft) isKilled() bool {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.killed
}

func (ac *fakeAircraft) history() []command {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return append([]command(nil), ac.commands...)
}

func (ac *fakeAircraft) countCommands(name string) int {
	n := 0
	for _, c := range ac.history() {
		if c.name == name {
			n++
		}
	}
	return n
}

// step advances the aircraft by dt: it turns toward its target heading, moves
// along it, then changes altitude and speed.
func (ac *fakeAircraft) step(dt time.Duration) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	sec := dt.Seconds()

	if ac.heading != ac.targetHeading {
		turn := math.HeadingSignedTurn(ac.heading, ac.targetHeading)
		switch ac.turnDir {
		case av.TurnLeft:
			if turn > 0 {
				turn -= 360
			}
		case av.TurnRight:
			if turn < 0 {
				turn += 360
			}
		}
		if lim := ac.turnRate * sec; math.Abs(turn) > lim {
			turn = math.Sign(turn) * lim
			ac.heading = math.NormalizeHeading(ac.heading + turn)
		} else {
			ac.heading = ac.targetHeading
		}
	}

	d := ac.gs * sec / 3600
	lat := ac.pos.Latitude() + d*math.Cos(math.Radians(ac.heading))/math.NMPerLatitude
	lon := ac.pos.Longitude() + d*math.Sin(math.Radians(ac.heading))/(math.NMPerLatitude*math.Cos(math.Radians(lat)))
	ac.pos = math.Point2LL{lon, lat}

	if ac.alt > ac.targetAlt {
		ac.alt = max(ac.targetAlt, ac.alt-ac.vertRate/60*sec)
	}
	if ac.gs > ac.targetSpeed {
		ac.gs = max(ac.targetSpeed, ac.gs-ac.accel*sec)
	}
}
