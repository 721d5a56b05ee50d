// sim/config.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	av "github.com/atctrainer/flightcontrols/aviation"
	"github.com/atctrainer/flightcontrols/nav"
	"github.com/atctrainer/flightcontrols/util"
)

// ClimbRates gives the ranges that the vertical rates assigned for
// altitude clearances are drawn from, in feet per minute.
type ClimbRates struct {
	Climb           [2]float64 `json:"climb"`
	Descent         [2]float64 `json:"descent"`
	ExpediteClimb   float64    `json:"expedite_climb"`
	ExpediteDescent float64    `json:"expedite_descent"`
}

type Config struct {
	Approach nav.ApproachConfig `json:"approach"`
	Hold     nav.HoldConfig     `json:"hold"`
	Rates    ClimbRates         `json:"rates"`

	// Knots per second when slowing and when speeding up for a speed
	// clearance.
	Deceleration float64 `json:"deceleration"`
	Acceleration float64 `json:"acceleration"`
	TurnRate     float64 `json:"turn_rate"` // deg/s, for heading and direct clearances

	UpdateRate  util.Duration `json:"update_rate"`
	HistorySize int           `json:"history_size"`
	// Arrivals spawned with SPAWN are placed relative to this ILS.
	ArrivalILS string `json:"arrival_ils"`
}

func DefaultConfig() Config {
	return Config{
		Approach: nav.DefaultApproachConfig(),
		Hold:     nav.DefaultHoldConfig(),
		Rates: ClimbRates{
			Climb:           [2]float64{1000, 2000},
			Descent:         [2]float64{800, 1800},
			ExpediteClimb:   2000,
			ExpediteDescent: 2500,
		},
		Deceleration: 2.5,
		Acceleration: 5,
		TurnRate:     av.StandardTurnRate,
		UpdateRate:   util.Duration(time.Second),
		HistorySize:  nav.DefaultHistorySize,
		ArrivalILS:   "ILS 40.6398/-73.7789 043 13 3.0",
	}
}

func (c Config) Validate() error {
	var errs []error
	if err := c.Approach.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("approach: %w", err))
	}
	if err := c.Hold.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("hold: %w", err))
	}
	for _, r := range [][2]float64{c.Rates.Climb, c.Rates.Descent} {
		if r[0] <= 0 || r[1] < r[0] {
			errs = append(errs, fmt.Errorf("invalid vertical rate range %v", r))
		}
	}
	if c.Rates.ExpediteClimb <= 0 || c.Rates.ExpediteDescent <= 0 {
		errs = append(errs, errors.New("expedite rates must be positive"))
	}
	if c.Deceleration <= 0 || c.Acceleration <= 0 || c.TurnRate <= 0 {
		errs = append(errs, errors.New("speed change and turn rates must be positive"))
	}
	if c.UpdateRate <= 0 {
		errs = append(errs, fmt.Errorf("update_rate must be positive, got %s", c.UpdateRate))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a JSON configuration file. Fields that aren't given
// keep their default values; if the file doesn't exist, the defaults are
// returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return Config{}, err
	}
	defer f.Close()

	if err := util.UnmarshalJSON(f, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
