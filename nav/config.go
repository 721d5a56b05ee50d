// nav/config.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/atctrainer/flightcontrols/util"

	"github.com/iancoleman/orderedmap"
)

// SpeedStep slows the aircraft to Knots once it is within DistanceNM of
// the threshold.
type SpeedStep struct {
	Knots      float64
	DistanceNM float64
}

// SpeedSchedule is evaluated in order every tick. It is stored in JSON as
// an object from speed to trigger distance, e.g. {"180": 12, "160": 9},
// and the order of the keys is preserved.
type SpeedSchedule []SpeedStep

func (s SpeedSchedule) MarshalJSON() ([]byte, error) {
	o := orderedmap.New()
	for _, step := range s {
		o.Set(strconv.FormatFloat(step.Knots, 'f', -1, 64), step.DistanceNM)
	}
	return json.Marshal(o)
}

func (s *SpeedSchedule) UnmarshalJSON(b []byte) error {
	o := orderedmap.New()
	if err := json.Unmarshal(b, o); err != nil {
		return err
	}

	var sched SpeedSchedule
	for _, k := range o.Keys() {
		knots, err := strconv.ParseFloat(k, 64)
		if err != nil || knots <= 0 {
			return fmt.Errorf("%q: invalid speed in speed schedule", k)
		}
		v, _ := o.Get(k)
		dist, ok := v.(float64)
		if !ok || dist < 0 {
			return fmt.Errorf("%q: invalid trigger distance %v in speed schedule", k, v)
		}
		sched = append(sched, SpeedStep{Knots: knots, DistanceNM: dist})
	}
	*s = sched
	return nil
}

// ApproachConfig holds the tuning of the ILS capture loop. The gains and
// the integral reset are tuned values rather than derived ones.
type ApproachConfig struct {
	ProportionalGain float64 `json:"proportional_gain"`
	IntegralGain     float64 `json:"integral_gain"`
	DerivativeGain   float64 `json:"derivative_gain"`
	// PID sampling step, in seconds. It is deliberately not the tick
	// period; the gains were tuned against it.
	DistStep float64 `json:"dist_step"`
	// Integral term value while waiting for the turn toggle.
	IntegralReset float64 `json:"integral_reset"`

	// Turn rate passed with each heading command; large enough that the
	// aircraft reaches the commanded heading within a tick.
	TurnRate float64 `json:"turn_rate"`

	SpeedSchedule   SpeedSchedule `json:"speed_schedule"`
	SpeedChangeRate float64       `json:"speed_change_rate"` // knots per second

	CaptureWindow    float64 `json:"capture_window"`    // degrees
	GlideslopeWindow float64 `json:"glideslope_window"` // feet
	LandingDistance  float64 `json:"landing_distance"`  // nm
	LandingHeight    float64 `json:"landing_height"`    // feet above field

	Tick util.Duration `json:"tick"`
}

func DefaultApproachConfig() ApproachConfig {
	return ApproachConfig{
		ProportionalGain: 2.5,
		IntegralGain:     0.1,
		DerivativeGain:   0.05,
		DistStep:         0.001,
		IntegralReset:    10,
		TurnRate:         1000,
		SpeedSchedule: SpeedSchedule{
			{Knots: 180, DistanceNM: 12},
			{Knots: 160, DistanceNM: 9},
			{Knots: 130, DistanceNM: 4},
		},
		SpeedChangeRate:  2.5,
		CaptureWindow:    1,
		GlideslopeWindow: 100,
		LandingDistance:  0.3,
		LandingHeight:    100,
		Tick:             util.Duration(time.Second),
	}
}

func (c ApproachConfig) samplingInterval() time.Duration {
	return time.Duration(c.DistStep * float64(time.Second))
}

func (c ApproachConfig) Validate() error {
	if c.DistStep <= 0 {
		return fmt.Errorf("dist_step must be positive, got %v", c.DistStep)
	}
	if c.samplingInterval() <= 0 {
		return fmt.Errorf("dist_step %v is below the clock resolution", c.DistStep)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("approach tick must be positive, got %s", c.Tick)
	}
	if c.TurnRate <= 0 || c.SpeedChangeRate <= 0 {
		return fmt.Errorf("approach turn and speed change rates must be positive")
	}
	return nil
}

// HoldConfig holds the timing of the holding pattern.
type HoldConfig struct {
	EntryTurnRate   float64 `json:"entry_turn_rate"`   // first turn to the fix, deg/s
	TurnRate        float64 `json:"turn_rate"`         // deg/s afterward
	InboundLockRate float64 `json:"inbound_lock_rate"` // deg/s; snaps to the inbound course at the fix

	Settle util.Duration `json:"settle"`
	Poll   util.Duration `json:"poll"`
	Leg    util.Duration `json:"leg"`
}

func DefaultHoldConfig() HoldConfig {
	return HoldConfig{
		EntryTurnRate:   3,
		TurnRate:        1.5,
		InboundLockRate: 360,
		Settle:          util.Duration(5 * time.Second),
		Poll:            util.Duration(2 * time.Second),
		Leg:             util.Duration(60 * time.Second),
	}
}

func (c HoldConfig) Validate() error {
	if c.Poll <= 0 {
		return fmt.Errorf("hold poll interval must be positive, got %s", c.Poll)
	}
	if c.Settle < 0 || c.Leg < 0 {
		return fmt.Errorf("hold settle and leg durations must not be negative")
	}
	if c.EntryTurnRate <= 0 || c.TurnRate <= 0 || c.InboundLockRate <= 0 {
		return fmt.Errorf("hold turn rates must be positive")
	}
	return nil
}
