// nav/aircraft.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	av "github.com/atctrainer/flightcontrols/aviation"
	"github.com/atctrainer/flightcontrols/math"
)

// Aircraft is the host simulator's handle to a single aircraft. The
// controllers in this package only issue intents through it; turning,
// climbing and accelerating are up to the host. Lateral commands
// (TurnCourse, FlyDirect) are queued behind whatever the aircraft is
// already doing until Interrupt is called.
//
// Implementations must be safe for concurrent use: approach and holding
// loops call into them from their own goroutines.
type Aircraft interface {
	Callsign() string

	Position() math.Point2LL
	TrueCourse() float64  // degrees
	GroundSpeed() float64 // knots
	Altitude() float64    // feet

	Squawk() av.Squawk
	SetSquawk(sq av.Squawk) error

	// TurnCourse turns to the given course at rate degrees per second.
	TurnCourse(course float64, rate float64, dir av.TurnDirection)
	// FlyDirect flies direct to the fix, turning at rate degrees per second.
	FlyDirect(fix math.Point2LL, rate float64)
	// RestrictAltitude keeps the aircraft between min and max feet,
	// climbing or descending at rate feet per minute.
	RestrictAltitude(min, max float64, rate float64)
	// RestrictSpeed keeps the aircraft between min and max knots,
	// changing speed at rate knots per second.
	RestrictSpeed(min, max float64, rate float64)

	// Interrupt discards all queued lateral maneuvers.
	Interrupt()
	// Kill removes the aircraft from the simulation.
	Kill()
}
