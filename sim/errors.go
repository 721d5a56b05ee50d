// sim/errors.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
)

var (
	ErrAircraftRemoved   = errors.New("Aircraft has been removed from the simulation")
	ErrAlreadyHolding    = errors.New("Aircraft was already holding!")
	ErrApproachActive    = errors.New("Controller was already started!")
	ErrDuplicateCallsign = errors.New("Duplicate callsign")
	ErrInvalidCallsign   = errors.New("Invalid callsign")
	ErrNoAircraft        = errors.New("No aircraft with that callsign")
)
