// sim/history.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"time"

	"github.com/atctrainer/flightcontrols/nav"
	"github.com/atctrainer/flightcontrols/util"
)

// HistoryEntry is the archived form of a finished approach or hold.
type HistoryEntry struct {
	ID       string        `msgpack:"id"`
	Kind     string        `msgpack:"kind"`
	Callsign string        `msgpack:"callsign"`
	Started  time.Time     `msgpack:"started"`
	Duration time.Duration `msgpack:"duration"`
	Outcome  string        `msgpack:"outcome"`

	// Approaches
	Ticks    int     `msgpack:"ticks,omitempty"`
	Distance float64 `msgpack:"distance,omitempty"` // from the threshold at the end
	// Holds
	Cycles int `msgpack:"cycles,omitempty"`
}

func makeHistoryEntry(rec nav.SessionRecord) HistoryEntry {
	e := HistoryEntry{
		ID:       rec.ID.String(),
		Kind:     rec.Kind.String(),
		Callsign: rec.Callsign,
		Started:  rec.Started,
		Duration: rec.Ended.Sub(rec.Started),
		Outcome:  rec.Outcome.String(),
	}
	switch st := rec.Final.(type) {
	case nav.ApproachState:
		e.Ticks, e.Distance = st.Ticks, st.Distance
	case nav.HoldState:
		e.Cycles = st.Cycles
	}
	return e
}

// History returns the recently finished sessions, oldest first.
func (s *Sim) History() []HistoryEntry {
	var h []HistoryEntry
	for _, rec := range s.Registry.History() {
		h = append(h, makeHistoryEntry(rec))
	}
	return h
}

// SaveHistory writes the session history to a compressed archive.
func (s *Sim) SaveHistory(path string) error {
	return util.StoreArchive(path, s.History())
}

func LoadHistory(path string) ([]HistoryEntry, error) {
	var h []HistoryEntry
	err := util.LoadArchive(path, &h)
	return h, err
}
