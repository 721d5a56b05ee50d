// math/heading.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

// Reduces it to [0,360).
func NormalizeHeading(h float64) float64 {
	if h < 0 {
		h = 360 - Mod(-h, 360)
	} else {
		h = Mod(h, 360)
	}
	if h >= 360 {
		// 360 - tiny epsilon rounds to 360
		h = 0
	}
	return h
}

func OppositeHeading(h float64) float64 {
	return NormalizeHeading(h + 180)
}

// HeadingDifference returns the minimum difference between two
// headings. (i.e., the result is always in the range [0,180].)
func HeadingDifference(a float64, b float64) float64 {
	d := Abs(NormalizeHeading(a) - NormalizeHeading(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// HeadingSignedTurn returns the shortest signed turn from cur to target,
// in [-180,180); positive is clockwise. Rotating target to 180 first
// takes care of the wrap at 0/360.
func HeadingSignedTurn(cur, target float64) float64 {
	rot := NormalizeHeading(180 - target)
	return 180 - NormalizeHeading(cur+rot)
}
