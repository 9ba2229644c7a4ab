// Package metrics implements the process-wide profiling counters of
// spec §6 (increment/set/get) plus original_source/analysis_metrics.h's
// full counter set carried in per SPEC_FULL §3. Counters format for
// human display with github.com/dustin/go-humanize, the pack's one
// general-purpose formatting library with no other SPEC_FULL home.
package metrics

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Counter names recognized by the core (spec §6 plus
// original_source/analysis_metrics.h's survivors, per SPEC_FULL §3;
// metric-num-gotos is a genuine Non-goal drop: this IIR has no goto).
const (
	NumStmts      = "metric-num-stmts"
	MaxLoopDepth  = "metric-max-loop-depth"
	NumCallSites  = "metric-num-call-sites"
	FuncCompCount = "func-comp-count"
	FuncVersCount = "func-vers-count"
	ArrayCopyCount = "array-copy-count"
	AnaTimeTotal  = "ana-time-total"
	CompTimeTotal = "comp-time-total"
)

// Registry is the process-wide counter table. Counters are int64-valued;
// the two *-time-total counters accumulate nanoseconds and are formatted
// through humanize.RelTime for display.
type Registry struct {
	mu     sync.Mutex
	values map[string]int64
	start  time.Time
}

// NewRegistry builds an empty counter table, all counters starting at
// zero.
func NewRegistry() *Registry {
	return &Registry{values: map[string]int64{}, start: time.Now()}
}

// Incr adds delta to the named counter (the `increment` contract of
// spec §6).
func (r *Registry) Incr(name string, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[name] += delta
}

// Set overwrites the named counter (the `set` contract of spec §6).
func (r *Registry) Set(name string, value int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[name] = value
}

// Get reads the named counter (the `get` contract of spec §6).
func (r *Registry) Get(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values[name]
}

// AddDuration accumulates d (in nanoseconds) into a *-time-total counter,
// the timing idiom the JIT's Specializer.Call uses around each compile.
func (r *Registry) AddDuration(name string, d time.Duration) {
	r.Incr(name, int64(d))
}

// Report renders every non-zero counter as a human-readable line,
// counts via humanize.Comma and the two duration totals via
// humanize.RelTime against the registry's creation time.
func (r *Registry) Report() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var lines []string
	for _, name := range []string{
		NumStmts, MaxLoopDepth, NumCallSites, FuncCompCount, FuncVersCount, ArrayCopyCount,
	} {
		if v := r.values[name]; v != 0 {
			lines = append(lines, name+": "+humanize.Comma(v))
		}
	}
	for _, name := range []string{AnaTimeTotal, CompTimeTotal} {
		if v := r.values[name]; v != 0 {
			since := time.Now().Add(-time.Duration(v))
			lines = append(lines, name+": "+humanize.RelTime(since, time.Now(), "elapsed", ""))
		}
	}
	return lines
}
