// clearance/instructions.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package clearance

import (
	"fmt"
	"strings"

	av "github.com/atctrainer/flightcontrols/aviation"
	"github.com/atctrainer/flightcontrols/math"
)

// Instruction is one maneuver parsed from a clearance. The set of
// implementations is closed; dispatch is a type switch over them.
type Instruction interface {
	// Queued reports whether the instruction was given with an AFTER
	// prefix, in which case it is appended to the aircraft's current
	// maneuvers rather than replacing them.
	Queued() bool

	// Readback returns the pilot's acknowledgment fragment, e.g.
	// "heading 090.00".
	Readback() string

	instruction()
}

type Heading struct {
	Degrees float64
	After   bool
}

type TurnLeft struct {
	Degrees float64
	After   bool
}

type TurnRight struct {
	Degrees float64
	After   bool
}

type Altitude struct {
	Feet     int
	Expedite bool
	After    bool
}

type Speed struct {
	Knots int
	After bool
}

type Direct struct {
	Fix     math.Point2LL
	FixText string
	After   bool
}

type Holding struct {
	Hold  av.Hold
	After bool
}

func (h Heading) Queued() bool   { return h.After }
func (t TurnLeft) Queued() bool  { return t.After }
func (t TurnRight) Queued() bool { return t.After }
func (a Altitude) Queued() bool  { return a.After }
func (s Speed) Queued() bool     { return s.After }
func (d Direct) Queued() bool    { return d.After }
func (h Holding) Queued() bool   { return h.After }

func (Heading) instruction()   {}
func (TurnLeft) instruction()  {}
func (TurnRight) instruction() {}
func (Altitude) instruction()  {}
func (Speed) instruction()     {}
func (Direct) instruction()    {}
func (Holding) instruction()   {}

func headingReadback(h float64) string {
	return fmt.Sprintf("heading %06.2f", h)
}

func (h Heading) Readback() string   { return headingReadback(h.Degrees) }
func (t TurnLeft) Readback() string  { return headingReadback(t.Degrees) }
func (t TurnRight) Readback() string { return headingReadback(t.Degrees) }

// Altitudes are read back in hundreds of feet.
func (a Altitude) Readback() string { return fmt.Sprintf("altitude %03d", a.Feet/100) }
func (s Speed) Readback() string    { return fmt.Sprintf("speed %03d", s.Knots) }
func (d Direct) Readback() string   { return "direct to " + d.FixText }
func (h Holding) Readback() string  { return "holding over " + h.Hold.FixText }

// Lateral reports whether the instruction changes the aircraft's lateral
// path; only those displace the aircraft's current maneuvers and any
// approach or hold it is flying.
func Lateral(in Instruction) bool {
	switch in.(type) {
	case Heading, TurnLeft, TurnRight, Direct, Holding:
		return true
	default:
		return false
	}
}

// Clearance is the result of parsing a controller's message.
type Clearance struct {
	Instructions []Instruction
	Squawk       *av.Squawk
	// FieldErrors holds errors for fields that were recognized but had
	// invalid values; those fields are omitted from the clearance.
	FieldErrors []error
}

// Actionable reports whether there is anything for the aircraft to do.
func (c Clearance) Actionable() bool {
	return len(c.Instructions) > 0 || c.Squawk != nil
}

func (c Clearance) String() string {
	var s []string
	if c.Squawk != nil {
		s = append(s, "squawk "+c.Squawk.String())
	}
	for _, in := range c.Instructions {
		r := in.Readback()
		if in.Queued() {
			r = "after " + r
		}
		s = append(s, r)
	}
	return strings.Join(s, ", ")
}
