package frontend

import "time"

type LookupSource string

const (
	SourceCache    LookupSource = "cache"
	SourceUpstream LookupSource = "upstream"
)

type LookupStats struct {
	Source     LookupSource
	Replica    string
	CacheMs    float64
	UpstreamMs float64
}

func convertToMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
