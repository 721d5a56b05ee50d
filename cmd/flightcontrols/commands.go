// cmd/flightcontrols/commands.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atctrainer/flightcontrols/sim"

	"github.com/goforj/godump"
)

// execute runs one line of input and reports whether it asked to quit.
func execute(w io.Writer, s *sim.Sim, line string) bool {
	first, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToUpper(first) {
	case "":
		return false

	case "QUIT", "EXIT":
		return true

	case "SPAWN":
		if rest == "" {
			fmt.Fprintln(w, "SPAWN: callsign required")
			return false
		}
		ac, err := s.SpawnArrival(rest)
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", rest, err)
			return false
		}
		st := ac.Status()
		fmt.Fprintf(w, "%s: %s squawk %s heading %03.0f %.0f ft %.0f kt\n", st.Callsign,
			st.Position.DDString(), st.Squawk, st.Heading, st.Altitude, st.GroundSpeed)

	case "STATUS":
		reports := s.Status()
		if len(reports) == 0 {
			fmt.Fprintln(w, "No aircraft")
		}
		for _, rep := range reports {
			fmt.Fprintln(w, statusLine(rep))
		}

	case "DUMP":
		for _, rep := range s.Status() {
			if strings.EqualFold(rep.Callsign, rest) {
				godump.Fdump(w, rep)
				return false
			}
		}
		fmt.Fprintf(w, "%s: %v\n", rest, sim.ErrNoAircraft)

	case "HISTORY":
		h := s.History()
		if len(h) == 0 {
			fmt.Fprintln(w, "No finished sessions")
		}
		for _, e := range h {
			fmt.Fprintf(w, "%s %-8s %-8s %-9s %s\n", e.Started.Format(time.TimeOnly), e.Callsign, e.Kind,
				e.Outcome, e.Duration.Round(time.Second))
		}

	default:
		if rest == "" {
			fmt.Fprintf(w, "%s: unknown command\n", first)
			return false
		}
		resp, ok, err := s.Command(first, rest)
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", first, err)
		} else if ok {
			fmt.Fprintf(w, "%s: %s\n", strings.ToUpper(first), resp)
		} else {
			fmt.Fprintf(w, "%s: (no response)\n", strings.ToUpper(first))
		}
	}
	return false
}

func statusLine(rep sim.AircraftReport) string {
	s := fmt.Sprintf("%-8s %s hdg %03.0f alt %5.0f gs %3.0f", rep.Callsign, rep.Squawk,
		rep.Heading, rep.Altitude, rep.GroundSpeed)
	if a := rep.Approach; a != nil {
		s += fmt.Sprintf("  approach %s %.1fnm loc %+.2f", a.Phase, a.Distance, a.LocalizerError())
	}
	if h := rep.Hold; h != nil {
		s += fmt.Sprintf("  hold %s %s cycle %d", h.Hold.DisplayName(), h.Phase, h.Cycles)
	}
	return s
}
