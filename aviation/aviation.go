// aviation/aviation.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"fmt"
	"strconv"

	"github.com/atctrainer/flightcontrols/math"
)

///////////////////////////////////////////////////////////////////////////
// Squawk

type Squawk int

func (sq Squawk) String() string { return fmt.Sprintf("%04o", sq) }

func ParseSquawk(s string) (Squawk, error) {
	if len(s) != 4 {
		return Squawk(0), ErrInvalidSquawkCode
	}

	sq, err := strconv.ParseInt(s, 8, 32) // base 8!!!
	if err != nil || sq < 0 || sq > 0o7777 {
		return Squawk(0), ErrInvalidSquawkCode
	}
	return Squawk(sq), nil
}

///////////////////////////////////////////////////////////////////////////
// Turns

// TurnDirection specifies the direction of a turn.
type TurnDirection int

const (
	TurnClosest TurnDirection = iota // default: turn the shortest direction
	TurnLeft
	TurnRight
)

func (t TurnDirection) String() string {
	return []string{"closest", "left", "right"}[int(t)]
}

func ParseTurnDirection(s string) (TurnDirection, error) {
	switch s {
	case "L", "l", "LEFT", "left", "Left":
		return TurnLeft, nil
	case "R", "r", "RIGHT", "right", "Right":
		return TurnRight, nil
	default:
		return TurnClosest, ErrInvalidTurnDirection
	}
}

// Standard rates of turn, in degrees per second.
const (
	StandardTurnRate = 3
	HalfStandardRate = 1.5
)

// ValidHeading reports whether h is a heading that may be assigned;
// 360 is allowed and means north.
func ValidHeading(h float64) bool {
	return h >= 0 && h <= 360
}

///////////////////////////////////////////////////////////////////////////
// Hold

// Hold is a controller-issued holding clearance over a lat-long fix.
type Hold struct {
	Fix           math.Point2LL
	FixText       string  // the fix as it was written in the clearance
	InboundCourse float64 // degrees true
	TurnDirection TurnDirection
}

// OutboundCourse returns the reciprocal of the inbound course, in [0,360).
func (h Hold) OutboundCourse() float64 {
	return math.OppositeHeading(h.InboundCourse)
}

func (h Hold) DisplayName() string {
	return fmt.Sprintf("%s (%s turns, inbound %03.0f)", h.FixText, h.TurnDirection, h.InboundCourse)
}

///////////////////////////////////////////////////////////////////////////
// ILS

// ILSApproach describes the runway end an ILS clearance is issued for.
type ILSApproach struct {
	Threshold       math.Point2LL
	Course          float64 // runway course, degrees true
	Elevation       float64 // field elevation, feet
	GlideslopeAngle float64 // degrees
	Text            string
}

func (a ILSApproach) Validate() error {
	if !ValidHeading(a.Course) {
		return fmt.Errorf("%.1f: %w", a.Course, ErrInvalidHeading)
	}
	if a.GlideslopeAngle <= 0 || a.GlideslopeAngle >= 10 {
		return fmt.Errorf("%.2f: %w", a.GlideslopeAngle, ErrInvalidGlideslope)
	}
	if a.Elevation < -1500 || a.Elevation > 15000 {
		return fmt.Errorf("%.0f: %w", a.Elevation, ErrInvalidAltitude)
	}
	return nil
}

// GlideslopeAltitude returns the altitude of the glideslope at the given
// distance from the threshold.
func (a ILSApproach) GlideslopeAltitude(distNM float64) float64 {
	return a.Elevation + distNM*math.NauticalMilesToFeet*math.Tan(math.Radians(a.GlideslopeAngle))
}

// GlideslopeDescentRate returns the descent rate in feet per minute that
// holds the glideslope at the given groundspeed. 101.3 is the number of
// feet per minute covered per knot.
func GlideslopeDescentRate(groundspeed float64, glideslopeAngle float64) float64 {
	return groundspeed * 101.3 * math.Tan(math.Radians(glideslopeAngle))
}
