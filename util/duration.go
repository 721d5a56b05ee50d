// util/duration.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration wraps time.Duration so that it's stored in JSON as a
// string like "1s" or "1m30s". Plain numbers are accepted as seconds.
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch dv := v.(type) {
	case float64:
		*d = Duration(dv * float64(time.Second))
		return nil
	case string:
		td, err := time.ParseDuration(dv)
		if err != nil {
			return err
		}
		*d = Duration(td)
		return nil
	default:
		return fmt.Errorf("%s: invalid duration", string(b))
	}
}
