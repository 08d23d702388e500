package observability

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

type counter struct {
	count   int64
	latency time.Duration
}

// Metrics keeps per-route request and error counters in memory. Keys are
// "route|METHOD|status" and "route|METHOD|CODE", where route is the
// registered pattern (/api/crm/leads/:id), never the raw path.
type Metrics struct {
	started time.Time

	mu       sync.Mutex
	requests map[string]*counter
	errors   map[string]int64
	denials  map[string]int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		started:  time.Now(),
		requests: make(map[string]*counter),
		errors:   make(map[string]int64),
		denials:  make(map[string]int64),
	}
}

// RecordRequest counts one finished request.
func (m *Metrics) RecordRequest(route, method string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	key := joinKey(route, method, strconv.Itoa(status))
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.requests[key]
	if !ok {
		c = &counter{}
		m.requests[key] = c
	}
	c.count++
	c.latency += latency
}

// RecordError counts a rendered error by code. Access-control outcomes are
// also totalled per code so a spike in 403s is visible without scanning routes.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[joinKey(route, method, code)]++
	switch code {
	case "UNAUTHORIZED", "FORBIDDEN", "NOT_FOUND", "RATE_LIMITED":
		m.denials[code]++
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UptimeSeconds int64              `json:"uptime_seconds"`
	Requests      map[string]int64   `json:"requests"`
	AvgLatencyMS  map[string]float64 `json:"avg_latency_ms"`
	Errors        map[string]int64   `json:"errors"`
	Denials       map[string]int64   `json:"denials"`
}

func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Requests:     map[string]int64{},
		AvgLatencyMS: map[string]float64{},
		Errors:       map[string]int64{},
		Denials:      map[string]int64{},
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.UptimeSeconds = int64(time.Since(m.started).Seconds())
	for k, c := range m.requests {
		snap.Requests[k] = c.count
		snap.AvgLatencyMS[k] = float64(c.latency.Microseconds()) / 1000 / float64(c.count)
	}
	for k, v := range m.errors {
		snap.Errors[k] = v
	}
	for k, v := range m.denials {
		snap.Denials[k] = v
	}
	return snap
}

// RoutePattern returns the matched route pattern, or the raw path when no
// route matched (unknown URLs), collapsed to a single bucket.
func RoutePattern(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
		return route.Path
	}
	if c.Path() == "/" {
		return "/"
	}
	return "unmatched"
}

func joinKey(parts ...string) string {
	return strings.Join(parts, "|")
}
