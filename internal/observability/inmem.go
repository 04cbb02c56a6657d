package observability

import "sync"

type observe struct {
	Kind    string  `json:"kind"`
	Source  string  `json:"source,omitempty"`
	Method  string  `json:"method,omitempty"`
	Route   string  `json:"route,omitempty"`
	Status  int     `json:"status,omitempty"`
	Outcome string  `json:"outcome,omitempty"`
	Target  string  `json:"target,omitempty"`
	OK      bool    `json:"ok,omitempty"`
	CacheMs float64 `json:"cache_ms,omitempty"`
	UpMs    float64 `json:"upstream_ms,omitempty"`
	DurMs   float64 `json:"dur_ms,omitempty"`
}

// Snapshot is what /debug/stats serves.
type Snapshot struct {
	CacheHits       int            `json:"cache_hits"`
	CacheMisses     int            `json:"cache_misses"`
	Orders          map[string]int `json:"orders"`
	ReplicationOK   int            `json:"replication_ok"`
	ReplicationFail int            `json:"replication_fail"`
	Recent          []*observe     `json:"recent"`
}

// Inmem keeps counters plus the last max observations.
type Inmem struct {
	mu     sync.Mutex
	last   []*observe
	max    int
	totals struct {
		cacheHits, cacheMiss int
		replOK, replFail     int
		orders               map[string]int
	}
}

func NewInmem(max int) *Inmem {
	return &Inmem{
		max: max,
	}
}

func (m *Inmem) push(v *observe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = append(m.last, v)
	if len(m.last) > m.max {
		m.last = m.last[1:]
	}
}

func (m *Inmem) ObserveLookup(source string, cacheMs, upstreamMs float64) {
	m.push(&observe{Kind: "lookup", Source: source, CacheMs: cacheMs, UpMs: upstreamMs})
}

func (m *Inmem) ObserveOrder(status string, durMs float64) {
	m.mu.Lock()
	if m.totals.orders == nil {
		m.totals.orders = make(map[string]int)
	}
	m.totals.orders[status]++
	m.mu.Unlock()
	m.push(&observe{Kind: "order", Outcome: status, DurMs: durMs})
}

func (m *Inmem) ObserveHTTP(method, route string, status int, durMs float64) {
	m.push(&observe{Kind: "http", Method: method, Route: route, Status: status, DurMs: durMs})
}

func (m *Inmem) ObserveReplication(target string, ok bool) {
	m.mu.Lock()
	if ok {
		m.totals.replOK++
	} else {
		m.totals.replFail++
	}
	m.mu.Unlock()
	m.push(&observe{Kind: "replication", Target: target, OK: ok})
}

func (m *Inmem) IncCacheHit() {
	m.mu.Lock()
	m.totals.cacheHits++
	m.mu.Unlock()
}

func (m *Inmem) IncCacheMiss() {
	m.mu.Lock()
	m.totals.cacheMiss++
	m.mu.Unlock()
}

func (m *Inmem) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := make(map[string]int, len(m.totals.orders))
	for k, v := range m.totals.orders {
		orders[k] = v
	}
	return Snapshot{
		CacheHits:       m.totals.cacheHits,
		CacheMisses:     m.totals.cacheMiss,
		Orders:          orders,
		ReplicationOK:   m.totals.replOK,
		ReplicationFail: m.totals.replFail,
		Recent:          append([]*observe(nil), m.last...),
	}
}
