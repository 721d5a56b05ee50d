// aviation/errors.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import "errors"

var (
	ErrInvalidAltitude      = errors.New("Invalid altitude")
	ErrInvalidGlideslope    = errors.New("Invalid glideslope angle")
	ErrInvalidHeading       = errors.New("Invalid heading")
	ErrInvalidSpeed         = errors.New("Invalid speed")
	ErrInvalidSquawkCode    = errors.New("Invalid squawk code")
	ErrInvalidTurnDirection = errors.New("Invalid turn direction")
)
