// nav/registry_test.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// untilCancelled is a session loop that does nothing until it's told to
// stop.
func untilCancelled(ctx context.Context, s *Session) Outcome {
	<-ctx.Done()
	return OutcomeCancelled
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("session %s for %s didn't exit", s.Kind, s.Callsign)
	}
}

func TestRegistryOneSessionPerKind(t *testing.T) {
	r := NewRegistry(nil, 0)
	defer r.Shutdown(context.Background())

	a, err := r.Start(ApproachSession, "AAL1", untilCancelled)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Start(ApproachSession, "AAL1", untilCancelled); !errors.Is(err, ErrSessionActive) {
		t.Errorf("expected ErrSessionActive, got %v", err)
	}

	// Other kinds and other aircraft are independent.
	if _, err := r.Start(HoldSession, "AAL1", untilCancelled); err != nil {
		t.Errorf("hold for AAL1: %v", err)
	}
	if _, err := r.Start(ApproachSession, "UAL2", untilCancelled); err != nil {
		t.Errorf("approach for UAL2: %v", err)
	}

	if !r.Active(ApproachSession, "AAL1") || !r.Active(HoldSession, "AAL1") || !r.Active(ApproachSession, "UAL2") {
		t.Errorf("expected all three sessions active")
	}
	if r.Active(HoldSession, "UAL2") {
		t.Errorf("unexpected hold for UAL2")
	}
	if n := len(r.Sessions()); n != 3 {
		t.Errorf("expected 3 sessions, got %d", n)
	}

	if !r.Cancel(ApproachSession, "AAL1") {
		t.Errorf("cancel returned false for active session")
	}
	if r.Cancel(ApproachSession, "AAL1") {
		t.Errorf("second cancel returned true")
	}
	waitDone(t, a)
	if r.Session(ApproachSession, "AAL1") != nil {
		t.Errorf("session still registered after exit")
	}
	if !r.Active(HoldSession, "AAL1") {
		t.Errorf("cancelling the approach cancelled the hold")
	}
}

func TestRegistryConcurrentStart(t *testing.T) {
	r := NewRegistry(nil, 0)
	defer r.Shutdown(context.Background())

	var started atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Start(ApproachSession, "DAL3", untilCancelled); err == nil {
				started.Add(1)
			} else if !errors.Is(err, ErrSessionActive) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := started.Load(); n != 1 {
		t.Errorf("%d sessions started, expected exactly 1", n)
	}
}

func TestRegistryStartWhileDraining(t *testing.T) {
	r := NewRegistry(nil, 0)
	defer r.Shutdown(context.Background())

	// The first loop keeps running for a while after it's cancelled.
	release := make(chan struct{})
	first, err := r.Start(ApproachSession, "SWA4", func(ctx context.Context, s *Session) Outcome {
		<-ctx.Done()
		<-release
		return OutcomeCancelled
	})
	if err != nil {
		t.Fatal(err)
	}

	r.Cancel(ApproachSession, "SWA4")
	if !first.Cancelled() {
		t.Fatalf("expected first session to be cancelled")
	}
	if r.Active(ApproachSession, "SWA4") {
		t.Errorf("cancelled session reported as active")
	}

	if _, err := r.Start(ApproachSession, "SWA4", untilCancelled); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive while the old session drains, got %v", err)
	}
	if r.Session(ApproachSession, "SWA4") != first {
		t.Errorf("draining session was replaced")
	}

	close(release)
	waitDone(t, first)

	second, err := r.Start(ApproachSession, "SWA4", untilCancelled)
	if err != nil {
		t.Fatalf("couldn't start a new session after the old one exited: %v", err)
	}
	if r.Session(ApproachSession, "SWA4") != second || !r.Active(ApproachSession, "SWA4") {
		t.Errorf("new session not registered")
	}
}

func TestRegistryPanicRecovered(t *testing.T) {
	r := NewRegistry(nil, 0)
	defer r.Shutdown(context.Background())

	ended := make(chan SessionRecord, 1)
	r.OnEnd = func(rec SessionRecord) { ended <- rec }

	s, err := r.Start(HoldSession, "N123", func(ctx context.Context, s *Session) Outcome {
		panic("boom")
	})
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, s)

	rec := <-ended
	if rec.Outcome != OutcomeFailed || rec.ID != s.ID || rec.Callsign != "N123" {
		t.Errorf("unexpected record %+v", rec)
	}
	if r.Active(HoldSession, "N123") {
		t.Errorf("failed session still active")
	}

	// The callsign is free again.
	if _, err := r.Start(HoldSession, "N123", untilCancelled); err != nil {
		t.Errorf("restart after failure: %v", err)
	}
}

func TestRegistryHistory(t *testing.T) {
	r := NewRegistry(nil, 2)
	defer r.Shutdown(context.Background())

	for i, cs := range []string{"A1", "A2", "A3"} {
		s, err := r.Start(ApproachSession, cs, func(ctx context.Context, s *Session) Outcome {
			Publish(s, i)
			return OutcomeLanded
		})
		if err != nil {
			t.Fatal(err)
		}
		waitDone(t, s)
	}

	h := r.History()
	if len(h) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(h))
	}
	if h[0].Callsign != "A2" || h[1].Callsign != "A3" {
		t.Errorf("unexpected history order: %s, %s", h[0].Callsign, h[1].Callsign)
	}
	if h[1].Outcome != OutcomeLanded || h[1].Final != 2 {
		t.Errorf("unexpected record %+v", h[1])
	}
	if h[1].Ended.Before(h[1].Started) {
		t.Errorf("session ended before it started")
	}
}

func TestPublishCopies(t *testing.T) {
	type state struct {
		Headings []float64
	}

	s := &Session{}
	st := state{Headings: []float64{90, 180}}
	Publish(s, st)
	st.Headings[0] = 270

	got, ok := StateOf[state](s)
	if !ok {
		t.Fatalf("no state")
	}
	if got.Headings[0] != 90 {
		t.Errorf("published state shares memory with the loop's copy")
	}
	if _, ok := StateOf[int](s); ok {
		t.Errorf("StateOf returned state of the wrong type")
	}
}

func TestRegistryShutdown(t *testing.T) {
	r := NewRegistry(nil, 0)

	var sessions []*Session
	for _, cs := range []string{"AAL1", "UAL2"} {
		for _, kind := range []SessionKind{ApproachSession, HoldSession} {
			s, err := r.Start(kind, cs, untilCancelled)
			if err != nil {
				t.Fatal(err)
			}
			sessions = append(sessions, s)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	for _, s := range sessions {
		waitDone(t, s)
	}
	if n := len(r.Sessions()); n != 0 {
		t.Errorf("%d sessions left after shutdown", n)
	}
	if _, err := r.Start(ApproachSession, "AAL1", untilCancelled); !errors.Is(err, ErrRegistryClosed) {
		t.Errorf("expected ErrRegistryClosed, got %v", err)
	}
}

func TestRegistryShutdownTimeout(t *testing.T) {
	r := NewRegistry(nil, 0)

	// A loop that ignores cancellation.
	release := make(chan struct{})
	s, err := r.Start(ApproachSession, "STUCK", func(ctx context.Context, s *Session) Outcome {
		<-release
		return OutcomeCancelled
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	close(release)
	waitDone(t, s)
}
