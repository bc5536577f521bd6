// Package health implements liveness and readiness probes for the shop API.
//
// Probes run in background goroutines on a fixed interval. To avoid flapping,
// a probe flips to unhealthy only after three consecutive failures and back to
// healthy on the first success, mirroring Kubernetes probe thresholds.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// ProbeFunc checks one component and returns nil when it is healthy.
type ProbeFunc func(ctx context.Context) error

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 1
)

// probe holds a single check and its runtime state.
//
// tick() runs on exactly one goroutine, so the consecutive counters need no
// synchronization. healthy and lastErr are read by HTTP handlers from other
// goroutines and use atomics.
type probe struct {
	name    string
	timeout time.Duration
	fn      ProbeFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func (p *probe) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.fn(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.oks = 0
		p.fails++
		if p.fails >= defaultFailureThreshold {
			p.healthy.Store(false)
		}
		return
	}
	p.fails = 0
	p.oks++
	if p.oks >= defaultSuccessThreshold {
		p.healthy.Store(true)
	}
}

func (p *probe) failure() string {
	if p.healthy.Load() {
		return ""
	}
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return (*e).Error()
	}
	return "probe is unhealthy"
}

// Checker aggregates liveness and readiness probes for one service.
type Checker struct {
	ready atomic.Bool

	mu     sync.RWMutex
	live   []*probe
	readyP []*probe
	cancel context.CancelFunc
}

// NewChecker returns a Checker in the not-ready state. Call SetReady(true)
// once startup has finished.
func NewChecker() *Checker {
	return &Checker{}
}

func newProbe(name string, timeout time.Duration, fn ProbeFunc) *probe {
	p := &probe{name: name, timeout: timeout, fn: fn}
	// Assume healthy until a run proves otherwise.
	p.healthy.Store(true)
	return p
}

// AddLiveness registers a liveness probe. Liveness answers "is this process
// still functioning", e.g. goroutine leaks or GC stalls.
func (c *Checker) AddLiveness(name string, timeout time.Duration, fn ProbeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live = append(c.live, newProbe(name, timeout, fn))
}

// AddReadiness registers a readiness probe. Readiness answers "can this
// process serve traffic right now", e.g. database connectivity.
func (c *Checker) AddReadiness(name string, timeout time.Duration, fn ProbeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readyP = append(c.readyP, newProbe(name, timeout, fn))
}

// Start launches a goroutine per registered probe, each firing at interval
// until ctx is done or Stop is called.
func (c *Checker) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.cancel = cancel
	probes := make([]*probe, 0, len(c.live)+len(c.readyP))
	probes = append(probes, c.live...)
	probes = append(probes, c.readyP...)
	c.mu.Unlock()

	for _, p := range probes {
		go loop(ctx, p, interval)
	}
}

func loop(ctx context.Context, p *probe, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// SetReady flips the manual readiness gate. Set it to false during graceful
// shutdown so load balancers drain the instance before connections close.
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// is currently passing.
func (c *Checker) IsReady() bool {
	if !c.ready.Load() {
		return false
	}
	c.mu.RLock()
	probes := c.readyP
	c.mu.RUnlock()
	for _, p := range probes {
		if !p.healthy.Load() {
			return false
		}
	}
	return true
}

// Stop cancels all probe goroutines. Safe to call more than once.
func (c *Checker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

type probeReport struct {
	Status string            `json:"status"`
	Probes map[string]string `json:"probes,omitempty"`
}

// LiveEndpoint serves GET /livez. 200 while all liveness probes pass,
// 503 with per-probe errors otherwise.
func (c *Checker) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	c.mu.RLock()
	probes := make([]*probe, len(c.live))
	copy(probes, c.live)
	c.mu.RUnlock()

	report(w, failures(probes))
}

// ReadyEndpoint serves GET /readyz. 200 only when the manual gate is open and
// every readiness probe passes.
func (c *Checker) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	ready := c.ready.Load()

	c.mu.RLock()
	probes := make([]*probe, len(c.readyP))
	copy(probes, c.readyP)
	c.mu.RUnlock()

	fails := failures(probes)
	if !ready {
		fails["_gate"] = "service is not ready"
	}
	report(w, fails)
}

func failures(probes []*probe) map[string]string {
	fails := make(map[string]string)
	for _, p := range probes {
		if msg := p.failure(); msg != "" {
			fails[p.name] = msg
		}
	}
	return fails
}

func report(w http.ResponseWriter, fails map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	body := probeReport{Status: "ok"}
	code := http.StatusOK
	if len(fails) > 0 {
		body.Status = "unhealthy"
		body.Probes = fails
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
