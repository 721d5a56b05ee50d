// util/util_test.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atctrainer/flightcontrols/log"
)

func TestDurationJSON(t *testing.T) {
	type S struct {
		D Duration `json:"d"`
	}

	tests := []struct {
		name    string
		json    string
		want    time.Duration
		wantErr bool
	}{
		{name: "string", json: `{"d": "1m30s"}`, want: 90 * time.Second},
		{name: "milliseconds", json: `{"d": "250ms"}`, want: 250 * time.Millisecond},
		{name: "seconds number", json: `{"d": 5}`, want: 5 * time.Second},
		{name: "bad string", json: `{"d": "soon"}`, wantErr: true},
		{name: "bool", json: `{"d": true}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s S
			err := UnmarshalJSONBytes([]byte(tt.json), &s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && s.D.D() != tt.want {
				t.Errorf("got %v, expected %v", s.D, tt.want)
			}
		})
	}
}

func TestUnmarshalJSONBytesErrors(t *testing.T) {
	type S struct {
		A int `json:"a"`
	}

	var s S
	err := UnmarshalJSONBytes([]byte("{\n  \"a\": \"x\"\n}"), &s)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected type error on line 2, got %v", err)
	}

	err = UnmarshalJSONBytes([]byte("{\n  \"a\": 1,\n}"), &s)
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected syntax error on line 3, got %v", err)
	}

	err = UnmarshalJSONBytes([]byte(`{"b": 1}`), &s)
	if err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Errorf("expected unknown field error, got %v", err)
	}
}

func TestLoggingMutex(t *testing.T) {
	var mu LoggingMutex
	var wg sync.WaitGroup
	count := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mu.Lock(nil)
				count++
				mu.Unlock(nil)
			}
		}()
	}
	wg.Wait()

	if count != 800 {
		t.Errorf("expected 800 increments, got %d", count)
	}
}

func TestLoggingMutexWaitReport(t *testing.T) {
	limit := MutexWaitLimit
	MutexWaitLimit = 10 * time.Millisecond
	defer func() { MutexWaitLimit = limit }()

	var buf bytes.Buffer
	lg := log.NewWithWriter(&buf, "info")

	var mu LoggingMutex
	mu.Lock(lg)
	done := make(chan struct{})
	go func() {
		mu.Lock(lg)
		mu.Unlock(lg)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	mu.Unlock(lg)
	<-done

	if !strings.Contains(buf.String(), "unable to acquire mutex") {
		t.Errorf("expected a deadlock report, got %s", buf.String())
	}
}
