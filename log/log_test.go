// log/log_test.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		level   string
		wantMsg []string
		skipMsg []string
	}{
		{level: "debug", wantMsg: []string{"dbg", "inf", "wrn"}},
		{level: "info", wantMsg: []string{"inf", "wrn"}, skipMsg: []string{"dbg"}},
		{level: "warn", wantMsg: []string{"wrn"}, skipMsg: []string{"dbg", "inf"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			lg := NewWithWriter(&buf, tt.level)
			lg.Debug("dbg")
			lg.Infof("%s", "inf")
			lg.Warn("wrn", slog.String("callsign", "DAL12"))

			out := buf.String()
			for _, m := range tt.wantMsg {
				if !strings.Contains(out, `"msg":"`+m+`"`) {
					t.Errorf("expected %q in log output %s", m, out)
				}
			}
			for _, m := range tt.skipMsg {
				if strings.Contains(out, `"msg":"`+m+`"`) {
					t.Errorf("did not expect %q in log output %s", m, out)
				}
			}
		})
	}
}

func TestLoggerCallstackAndWith(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter(&buf, "info").With(slog.String("callsign", "AAL7"))
	lg.Info("hello")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("unable to decode log record: %v", err)
	}
	if rec["callsign"] != "AAL7" {
		t.Errorf("expected callsign attribute, got %v", rec["callsign"])
	}
	cs, ok := rec["callstack"].([]any)
	if !ok || len(cs) == 0 {
		t.Fatalf("expected non-empty callstack, got %v", rec["callstack"])
	}
	frame := cs[0].(map[string]any)
	if frame["file"] != "log_test.go" {
		t.Errorf("expected first frame in log_test.go, got %v", frame["file"])
	}
}

func TestNilLogger(t *testing.T) {
	var lg *Logger
	// None of these should panic.
	lg.Debug("x")
	lg.Debugf("%d", 1)
	lg.Info("x")
	lg.Infof("%d", 1)
	if lg.With("a", 1) != nil {
		t.Errorf("expected nil logger from nil With")
	}
}

func TestCatchAndReportCrash(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter(&buf, "info")

	var got any
	func() {
		defer func() { got = recover() }()
		func() {
			defer lg.CatchAndReportCrash()
			panic("boom")
		}()
	}()

	// The crash was caught, so nothing propagates to the outer recover.
	if got != nil {
		t.Errorf("expected panic to be caught, got %v", got)
	}
	if !strings.Contains(buf.String(), "Crashed: boom") {
		t.Errorf("expected crash to be logged, got %s", buf.String())
	}
}
