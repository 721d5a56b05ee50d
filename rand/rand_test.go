// rand/rand_test.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rand

import "testing"

func TestSeedReproducible(t *testing.T) {
	a, b := Make(42), Make(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Uint32(), b.Uint32(); x != y {
			t.Fatalf("iteration %d: %d != %d with identical seeds", i, x, y)
		}
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
	}{
		{"climb", 1000, 2000},
		{"descent", 800, 1800},
		{"unit", 0, 1},
	}
	r := Make(1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := 0.
			n := 10000
			for i := 0; i < n; i++ {
				v := r.Range(tt.lo, tt.hi)
				if v < tt.lo || v >= tt.hi {
					t.Fatalf("Range(%v, %v) returned %v", tt.lo, tt.hi, v)
				}
				sum += v
			}
			mid := (tt.lo + tt.hi) / 2
			if mean := sum / float64(n); mean < mid-(tt.hi-tt.lo)*0.05 || mean > mid+(tt.hi-tt.lo)*0.05 {
				t.Errorf("mean %v is far from midpoint %v", mean, mid)
			}
		})
	}

	if v := r.Range(5, 5); v != 5 {
		t.Errorf("degenerate range returned %v", v)
	}
}

func TestSample(t *testing.T) {
	r := Make(7)
	var counts [3]int
	for i := 0; i < 3000; i++ {
		counts[Sample(r, 0, 1, 2)]++
	}
	for i, c := range counts {
		if c < 800 || c > 1200 {
			t.Errorf("index %d sampled %d times out of 3000", i, c)
		}
	}
}
