// util/sync.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/atctrainer/flightcontrols/log"

	"github.com/shirou/gopsutil/cpu"
)

var (
	// MutexWaitLimit is how long Lock waits before it reports a probable
	// deadlock, along with the process's load and the other held mutexes.
	MutexWaitLimit = 10 * time.Second
	// MutexHoldWarning is how long a mutex may be held before Unlock
	// warns about it.
	MutexHoldWarning = time.Second
)

// held tracks every LoggingMutex that is currently locked, for deadlock
// reports.
var held struct {
	sync.Mutex
	m map[*LoggingMutex]struct{}
}

// LoggingMutex is a sync.Mutex that is noisy about contention: it logs
// long waits and long holds, and if Lock can't make progress it logs the
// stacks where the held mutexes were acquired. The zero value is an
// unlocked mutex.
type LoggingMutex struct {
	sync.Mutex
	acquired time.Time
	stack    []log.Frame
}

func (l *LoggingMutex) Lock(lg *log.Logger) {
	start := time.Now()
	if !l.Mutex.TryLock() {
		l.lockSlow(lg)
	}

	held.Lock()
	if held.m == nil {
		held.m = make(map[*LoggingMutex]struct{})
	}
	held.m[l] = struct{}{}
	held.Unlock()

	l.acquired = time.Now()
	l.stack = log.Callstack(1)
	if w := l.acquired.Sub(start); w > MutexHoldWarning {
		lg.Warn("long wait to acquire mutex", slog.Any("mutex", l), slog.Duration("wait", w))
	}
}

func (l *LoggingMutex) lockSlow(lg *log.Logger) {
	locked := make(chan struct{})
	go func() {
		l.Mutex.Lock()
		close(locked)
	}()

	t := time.NewTimer(MutexWaitLimit)
	defer t.Stop()
	select {
	case <-locked:
		return
	case <-t.C:
		lg.Error("unable to acquire mutex", slog.Duration("limit", MutexWaitLimit),
			slog.Any("held", heldMutexes()), slog.Any("load", processLoad()))
		<-locked
	}
}

func (l *LoggingMutex) Unlock(lg *log.Logger) {
	held.Lock()
	if _, ok := held.m[l]; !ok {
		lg.Error("unlock of mutex that isn't held")
	}
	delete(held.m, l)
	held.Unlock()

	if d := time.Since(l.acquired); d > MutexHoldWarning {
		lg.Warn("mutex held too long", slog.Any("mutex", l), slog.Duration("held", d))
	}
	l.acquired, l.stack = time.Time{}, nil
	l.Mutex.Unlock()
}

func (l *LoggingMutex) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Time("acquired", l.acquired),
		slog.Any("stack", l.stack))
}

func heldMutexes() []slog.Value {
	held.Lock()
	defer held.Unlock()

	var v []slog.Value
	for l := range held.m {
		v = append(v, l.LogValue())
	}
	return v
}

// processLoad summarizes CPU and memory use for deadlock reports.
func processLoad() slog.Value {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	attrs := []slog.Attr{
		slog.Uint64("alloc_mb", m.Alloc>>20),
		slog.Uint64("sys_mb", m.Sys>>20),
		slog.Int("goroutines", runtime.NumGoroutine()),
	}
	if usage, err := cpu.Percent(time.Second, false); err == nil && len(usage) > 0 {
		attrs = append(attrs, slog.Float64("cpu_percent", usage[0]))
	}
	return slog.GroupValue(attrs...)
}
