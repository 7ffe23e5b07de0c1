// Package perf keeps a bounded in-memory history of dashboard latencies:
// page and intent requests, calls to the mentorship backend, and audit and outbox
// statements. The admin perf endpoint summarizes it on demand.
package perf

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCapacity is the default number of samples retained.
const DefaultCapacity = 10000

// Source names where a sample was taken.
type Source uint8

const (
	SourceRequest Source = iota
	SourceBackend
	SourceStore
)

// Sample is one timed operation.
type Sample struct {
	Source Source
	Op     string // "METHOD /route" for requests and backend calls, "Method VERB" for statements
	Status int    // HTTP status; 0 for statements and transport failures
	Failed bool   // the operation returned an error before producing a status
	Took   time.Duration
	At     time.Time
}

func (s Sample) ms() float64 {
	return float64(s.Took.Microseconds()) / 1000.0
}

// failure reports whether the sample counts against availability.
func (s Sample) failure() bool {
	return s.Failed || s.Status >= 500 || (s.Source == SourceBackend && s.Status == 0)
}

// rejection reports a 4xx answer, such as a full mentorship or a duplicate sign-up.
func (s Sample) rejection() bool {
	return !s.Failed && s.Status >= 400 && s.Status < 500
}

// Recorder accepts samples. A nil *Collector is a valid Recorder that drops everything.
type Recorder interface {
	Observe(Sample)
}

// Collector retains the most recent samples in a ring.
// INVARIANT: next indexes the slot the following Observe overwrites
type Collector struct {
	mu       sync.Mutex
	ring     []Sample
	next     int
	wrapped  bool
	observed atomic.Int64
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a collector retaining up to capacity samples.
// POST: capacity <= 0 selects DefaultCapacity
func NewCollector(capacity int) *Collector {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Collector{ring: make([]Sample, capacity)}
}

// Observe stores s, evicting the oldest sample once the ring is full.
func (c *Collector) Observe(s Sample) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.ring[c.next] = s
	c.next++
	if c.next == len(c.ring) {
		c.next = 0
		c.wrapped = true
	}
	c.mu.Unlock()
	c.observed.Add(1)
}

// Observed returns how many samples were ever recorded, evicted ones included.
func (c *Collector) Observed() int64 {
	if c == nil {
		return 0
	}
	return c.observed.Load()
}

// retained copies the live samples, oldest first.
func (c *Collector) retained() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.wrapped {
		return slices.Clone(c.ring[:c.next])
	}
	out := make([]Sample, 0, len(c.ring))
	out = append(out, c.ring[c.next:]...)
	return append(out, c.ring[:c.next]...)
}

// Report is the aggregate view over a time window.
type Report struct {
	Since    time.Time `json:"since"`
	Observed int64     `json:"observed"`
	Requests Summary   `json:"requests"`
	Backend  Summary   `json:"backend"`
	Store    Summary   `json:"store"`
}

// Summary aggregates the samples of one source.
type Summary struct {
	Count      int      `json:"count"`
	Failures   int      `json:"failures"`
	Rejections int      `json:"rejections"`
	P50Ms      float64  `json:"p50_ms"`
	P95Ms      float64  `json:"p95_ms"`
	P99Ms      float64  `json:"p99_ms"`
	Slowest    []OpStat `json:"slowest"`
}

// OpStat aggregates one operation.
type OpStat struct {
	Op       string  `json:"op"`
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	AvgMs    float64 `json:"avg_ms"`
	MaxMs    float64 `json:"max_ms"`
	totalMs  float64
}

// Report summarizes samples taken at or after since.
// POST: each Summary lists at most topN operations, slowest average first
func (c *Collector) Report(since time.Time, topN int) Report {
	rep := Report{Since: since, Observed: c.Observed()}
	if c == nil {
		return rep
	}

	var req, back, store tally
	for _, s := range c.retained() {
		if s.At.Before(since) {
			continue
		}
		switch s.Source {
		case SourceRequest:
			req.add(s)
		case SourceBackend:
			back.add(s)
		case SourceStore:
			store.add(s)
		}
	}
	rep.Requests = req.summary(topN)
	rep.Backend = back.summary(topN)
	rep.Store = store.summary(topN)
	return rep
}

// tally accumulates one source while Report walks the ring.
type tally struct {
	durations  []float64
	failures   int
	rejections int
	ops        map[string]*OpStat
}

func (t *tally) add(s Sample) {
	ms := s.ms()
	t.durations = append(t.durations, ms)
	if t.ops == nil {
		t.ops = make(map[string]*OpStat)
	}
	op, ok := t.ops[s.Op]
	if !ok {
		op = &OpStat{Op: s.Op}
		t.ops[s.Op] = op
	}
	op.Count++
	op.totalMs += ms
	op.MaxMs = max(op.MaxMs, ms)
	switch {
	case s.failure():
		t.failures++
		op.Failures++
	case s.rejection():
		t.rejections++
	}
}

func (t *tally) summary(topN int) Summary {
	sum := Summary{
		Count:      len(t.durations),
		Failures:   t.failures,
		Rejections: t.rejections,
		Slowest:    []OpStat{},
	}
	if sum.Count == 0 {
		return sum
	}
	slices.Sort(t.durations)
	sum.P50Ms = quantile(t.durations, 0.50)
	sum.P95Ms = quantile(t.durations, 0.95)
	sum.P99Ms = quantile(t.durations, 0.99)

	for _, op := range t.ops {
		op.AvgMs = op.totalMs / float64(op.Count)
		sum.Slowest = append(sum.Slowest, *op)
	}
	slices.SortFunc(sum.Slowest, func(a, b OpStat) int {
		if c := cmp.Compare(b.AvgMs, a.AvgMs); c != 0 {
			return c
		}
		return cmp.Compare(a.Op, b.Op)
	})
	if topN >= 0 && len(sum.Slowest) > topN {
		sum.Slowest = sum.Slowest[:topN]
	}
	return sum
}

// quantile interpolates linearly between the closest ranks of sorted.
// PRE: sorted is non-empty and ascending; 0 <= q <= 1
func quantile(sorted []float64, q float64) float64 {
	rank := q * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
