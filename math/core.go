// math/core.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

// Guidance math is done in float64 throughout; the localizer loop
// differentiates bearings over millisecond steps and float32 positions
// don't have the resolution for it close to the threshold.

// Degrees converts an angle expressed in radians to degrees
func Degrees(r float64) float64 {
	return r * 180 / gomath.Pi
}

// Radians converts an angle expressed in degrees to radians
func Radians(d float64) float64 {
	return d / 180 * gomath.Pi
}

func Sin(a float64) float64      { return gomath.Sin(a) }
func Cos(a float64) float64      { return gomath.Cos(a) }
func Tan(a float64) float64      { return gomath.Tan(a) }
func Atan2(y, x float64) float64 { return gomath.Atan2(y, x) }
func Sqrt(a float64) float64     { return gomath.Sqrt(a) }
func Mod(a, b float64) float64   { return gomath.Mod(a, b) }
func Floor(v float64) float64    { return gomath.Floor(v) }

func Sign[V constraints.Signed | constraints.Float](v V) V {
	if v > 0 {
		return 1
	} else if v < 0 {
		return -1
	}
	return 0
}

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

func Sqr[V constraints.Integer | constraints.Float](v V) V { return v * v }

func Clamp[T constraints.Ordered](x T, low T, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

// MoveToward returns v moved toward target by at most step.
func MoveToward(v, target, step float64) float64 {
	if v < target {
		return min(v+step, target)
	}
	return max(v-step, target)
}
