package run

import (
	"context"
	"time"

	"github.com/jetpham/calhacks25/internal/compile"
	"github.com/jetpham/calhacks25/internal/domain"
)

// RunStat accumulates the timed repetitions of one query. Durations holds
// every measured run in order; the warmup run is never recorded.
type RunStat struct {
	QueryID   int
	Source    string
	Durations []time.Duration
}

// Min returns the fastest recorded repetition.
func (s *RunStat) Min() time.Duration {
	if len(s.Durations) == 0 {
		return 0
	}
	min := s.Durations[0]
	for _, d := range s.Durations[1:] {
		if d < min {
			min = d
		}
	}
	return min
}

// Max returns the slowest recorded repetition.
func (s *RunStat) Max() time.Duration {
	if len(s.Durations) == 0 {
		return 0
	}
	max := s.Durations[0]
	for _, d := range s.Durations[1:] {
		if d > max {
			max = d
		}
	}
	return max
}

// Average returns the arithmetic mean of the recorded repetitions.
func (s *RunStat) Average() time.Duration {
	if len(s.Durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s.Durations {
		total += d
	}
	return total / time.Duration(len(s.Durations))
}

// Total returns the summed duration of the recorded repetitions.
func (s *RunStat) Total() time.Duration {
	var total time.Duration
	for _, d := range s.Durations {
		total += d
	}
	return total
}

// Harness runs one query's chosen statement R times after an untimed
// warmup. Repetitions are strictly sequential: each must finish before the
// next starts, so the measured wall-clock times do not overlap.
type Harness struct {
	Exec        domain.Executor
	Repetitions int
}

// Benchmark selects and runs the query once as warmup (priming caches and
// absorbing the one-time parse cost), then times Repetitions runs of the
// statement the warmup settled on. The warmup's rows are returned as the
// query result. A failed repetition invalidates the whole stat; the run is
// not silently averaged over fewer samples.
func (h *Harness) Benchmark(ctx context.Context, queryID int, candidates []compile.CompiledStatement) (*RunStat, *domain.RowSet, error) {
	reps := h.Repetitions
	if reps < 1 {
		reps = 1
	}

	rows, chosen, err := Execute(ctx, h.Exec, candidates)
	if err != nil {
		return nil, nil, err
	}

	stat := &RunStat{
		QueryID:   queryID,
		Source:    chosen.Source(),
		Durations: make([]time.Duration, 0, reps),
	}
	for i := 0; i < reps; i++ {
		start := time.Now()
		if _, err := h.Exec.Execute(ctx, chosen.SQL); err != nil {
			return nil, nil, err
		}
		stat.Durations = append(stat.Durations, time.Since(start))
	}
	return stat, rows, nil
}
