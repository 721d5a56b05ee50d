// sim/aircraft_test.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
	"testing"
	"time"

	av "github.com/atctrainer/flightcontrols/aviation"
	"github.com/atctrainer/flightcontrols/math"
)

func makeTestAircraft(heading float64) *Aircraft {
	return NewAircraft("AAL1", 0o1200, FlightState{
		Position:    math.Point2LL{-75, 40},
		Heading:     heading,
		GroundSpeed: 180,
		Altitude:    5000,
	})
}

func TestAircraftTurns(t *testing.T) {
	tests := []struct {
		name    string
		heading float64
		target  float64
		dir     av.TurnDirection
		after   []float64 // heading after each second
	}{
		{name: "closest right", heading: 90, target: 100, dir: av.TurnClosest, after: []float64{93, 96, 99, 100, 100}},
		{name: "closest left across north", heading: 5, target: 355, dir: av.TurnClosest, after: []float64{2, 359, 356, 355}},
		{name: "left the long way", heading: 90, target: 100, dir: av.TurnLeft, after: []float64{87, 84}},
		{name: "right the long way", heading: 100, target: 90, dir: av.TurnRight, after: []float64{103, 106}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac := makeTestAircraft(tt.heading)
			ac.TurnCourse(tt.target, av.StandardTurnRate, tt.dir)
			for i, want := range tt.after {
				ac.Update(time.Second)
				if got := ac.TrueCourse(); math.Abs(got-want) > 1e-9 {
					t.Fatalf("after %ds heading %v, expected %v", i+1, got, want)
				}
			}
		})
	}
}

func TestAircraftManeuverQueue(t *testing.T) {
	ac := makeTestAircraft(90)

	// Fast turns complete within a single update and the next one starts
	// with the time that's left.
	ac.TurnCourse(120, 1000, av.TurnClosest)
	ac.TurnCourse(110, 1000, av.TurnClosest)
	ac.TurnCourse(150, 3, av.TurnClosest)
	ac.Update(time.Second)
	if h := ac.TrueCourse(); h < 112 || h > 113 {
		t.Errorf("heading %v after fast turns, expected just under 113", h)
	}
	if n := ac.Status().Maneuvers; n != 1 {
		t.Errorf("%d maneuvers left, expected 1", n)
	}

	ac.Interrupt()
	ac.Update(time.Second)
	h := ac.TrueCourse()
	ac.Update(time.Second)
	if ac.TrueCourse() != h || ac.Status().Maneuvers != 0 {
		t.Errorf("still turning after Interrupt")
	}
}

func TestAircraftDirect(t *testing.T) {
	ac := makeTestAircraft(0)
	fix := math.Offset2LL(math.Point2LL{-75, 40}, 90, 5)

	ac.FlyDirect(fix, av.StandardTurnRate)
	ac.TurnCourse(180, av.StandardTurnRate, av.TurnRight)

	reached := false
	for i := 0; i < 300; i++ {
		ac.Update(time.Second)
		if ac.Status().Maneuvers == 1 {
			reached = true
			break
		}
	}
	if !reached {
		t.Fatalf("never reached the fix: %+v", ac.Status())
	}
	if d := math.NMDistance2LL(ac.Position(), fix); d > 1 {
		t.Errorf("direct finished %.2fnm from the fix", d)
	}

	// Then the queued turn.
	for i := 0; i < 60; i++ {
		ac.Update(time.Second)
	}
	if ac.TrueCourse() != 180 || ac.Status().Maneuvers != 0 {
		t.Errorf("queued turn not flown: %+v", ac.Status())
	}
}

func TestAircraftAltitudeAndSpeed(t *testing.T) {
	ac := makeTestAircraft(90)

	ac.RestrictAltitude(4000, 4000, 1200) // 20 ft/s
	ac.RestrictSpeed(170, 170, 2.5)
	for i := 0; i < 10; i++ {
		ac.Update(time.Second)
	}
	if alt := ac.Altitude(); math.Abs(alt-4800) > 1e-6 {
		t.Errorf("altitude %v, expected 4800", alt)
	}
	if gs := ac.GroundSpeed(); gs != 170 {
		t.Errorf("groundspeed %v, expected 170", gs)
	}

	ac.RestrictAltitude(6000, 6000, 3000)
	for i := 0; i < 60; i++ {
		ac.Update(time.Second)
	}
	if alt := ac.Altitude(); alt != 6000 {
		t.Errorf("altitude %v, expected 6000", alt)
	}

	// Position moves along the heading at the groundspeed.
	p := ac.Position()
	ac.Update(time.Second)
	if d := math.NMDistance2LL(p, ac.Position()); math.Abs(d-170.0/3600) > 5e-4 {
		t.Errorf("moved %vnm in a second", d)
	}
}

func TestAircraftKill(t *testing.T) {
	ac := makeTestAircraft(90)
	ac.TurnCourse(180, 3, av.TurnClosest)
	ac.Kill()

	p := ac.Position()
	ac.Update(time.Second)
	if ac.Position() != p {
		t.Errorf("killed aircraft moved")
	}
	if !errors.Is(ac.SetSquawk(0o4321), ErrAircraftRemoved) {
		t.Errorf("expected ErrAircraftRemoved")
	}
	ac.TurnCourse(270, 3, av.TurnClosest)
	if ac.Status().Maneuvers != 0 {
		t.Errorf("killed aircraft accepted a maneuver")
	}
}

func TestAircraftSquawk(t *testing.T) {
	ac := makeTestAircraft(90)
	if err := ac.SetSquawk(0o7700); err != nil {
		t.Fatal(err)
	}
	if sq := ac.Squawk(); sq.String() != "7700" {
		t.Errorf("squawk %s", sq)
	}
	if !errors.Is(ac.SetSquawk(0o10000), av.ErrInvalidSquawkCode) {
		t.Errorf("expected ErrInvalidSquawkCode")
	}
}
