package core

// simulate.go drives the fixed-ratio processing pass.
//
// No row is inspected. Every tick advances a counter by up to BatchSize rows
// and splits the advance into valid and error counts by ValidRatio:
//
//	valid  += floor(advance * ratio)
//	errors += ceil(advance * (1 - ratio))
//
// Both terms are computed in decimal arithmetic so valid + errors always
// equals the number of processed rows.

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Simulation defaults.
const (
	DefaultBatchSize    = 50
	DefaultTickInterval = 100 * time.Millisecond
)

// DefaultValidRatio is the share of each batch counted as valid.
var DefaultValidRatio = decimal.RequireFromString("0.9")

// ErrNoData is returned when a run is requested for an empty dataset.
var ErrNoData = errors.New("no data to process")

// SimState is the counter state between ticks.
type SimState struct {
	Processed int
	Valid     int
	Errors    int
}

// SimParams configures a simulation.
type SimParams struct {
	Total      int
	BatchSize  int
	Tick       time.Duration
	ValidRatio decimal.Decimal
}

// withDefaults fills zero batch and tick fields. ValidRatio has no default
// here since zero is a valid ratio.
func (p SimParams) withDefaults() SimParams {
	if p.BatchSize <= 0 {
		p.BatchSize = DefaultBatchSize
	}
	if p.Tick <= 0 {
		p.Tick = DefaultTickInterval
	}
	return p
}

// Done reports whether the state has covered all rows.
func (s SimState) Done(total int) bool {
	return s.Processed >= total
}

// Step advances the state by one tick. A finished state is returned unchanged.
func Step(st SimState, p SimParams) SimState {
	p = p.withDefaults()
	remaining := p.Total - st.Processed
	if remaining <= 0 {
		return st
	}

	advance := min(p.BatchSize, remaining)
	adv := decimal.NewFromInt(int64(advance))
	one := decimal.NewFromInt(1)

	valid := adv.Mul(p.ValidRatio).Floor().IntPart()
	errs := adv.Mul(one.Sub(p.ValidRatio)).Ceil().IntPart()

	st.Processed += advance
	st.Valid += int(valid)
	st.Errors += int(errs)
	return st
}

// Ticks returns how many ticks a run over total rows takes.
func (p SimParams) Ticks() int {
	p = p.withDefaults()
	if p.Total <= 0 {
		return 0
	}
	return (p.Total + p.BatchSize - 1) / p.BatchSize
}

// Simulate runs Step on a ticker until all rows are processed or ctx ends.
// onTick is called after every tick with the new state and elapsed time.
// On cancellation the last state is returned together with ctx.Err().
func Simulate(ctx context.Context, p SimParams, onTick func(SimState, time.Duration)) (SimState, time.Duration, error) {
	p = p.withDefaults()
	if p.Total <= 0 {
		return SimState{}, 0, ErrNoData
	}

	start := time.Now()
	ticker := time.NewTicker(p.Tick)
	defer ticker.Stop()

	var st SimState
	for {
		select {
		case <-ctx.Done():
			return st, time.Since(start), ctx.Err()
		case <-ticker.C:
			st = Step(st, p)
			elapsed := time.Since(start)
			if onTick != nil {
				onTick(st, elapsed)
			}
			if st.Done(p.Total) {
				return st, elapsed, nil
			}
		}
	}
}
