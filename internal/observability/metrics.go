package observability

type Metrics interface {
	ObserveLookup(source string, cacheMs, upstreamMs float64)
	ObserveOrder(status string, durMs float64)
	ObserveHTTP(method, route string, status int, durMs float64)
	ObserveReplication(target string, ok bool)
	IncCacheHit()
	IncCacheMiss()
}

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) ObserveLookup(string, float64, float64)   {}
func (Noop) ObserveOrder(string, float64)             {}
func (Noop) ObserveHTTP(string, string, int, float64) {}
func (Noop) ObserveReplication(string, bool)          {}
func (Noop) IncCacheHit()                             {}
func (Noop) IncCacheMiss()                            {}
