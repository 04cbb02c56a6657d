package observability

import (
	"fmt"
	"net/http"
)

const (
	HeaderSource  = "X-Source"
	HeaderReplica = "X-Replica"
)

func AppendServerTiming(w http.ResponseWriter, name string, durMs float64, desc string) {
	switch {
	case durMs > 0 && desc != "":
		w.Header().Add("Server-Timing", fmt.Sprintf("%s;dur=%.2f;desc=%q", name, durMs, desc))
	case durMs > 0:
		w.Header().Add("Server-Timing", fmt.Sprintf("%s;dur=%.2f", name, durMs))
	case desc != "":
		w.Header().Add("Server-Timing", fmt.Sprintf("%s;desc=%q", name, desc))
	}
}

func SetIfPos(w http.ResponseWriter, key string, ms float64) {
	if ms > 0 {
		w.Header().Set(key, fmt.Sprintf("%.2f", ms))
	}
}

// SetLookupHeaders describes where an info payload came from. replica is empty
// on a cache hit.
func SetLookupHeaders(w http.ResponseWriter, source, replica string, cacheMs, upstreamMs float64) {
	AppendServerTiming(w, "cache", cacheMs, "")
	AppendServerTiming(w, "upstream", upstreamMs, replica)
	AppendServerTiming(w, "source", 0, source)
	w.Header().Set(HeaderSource, source)
	if replica != "" {
		w.Header().Set(HeaderReplica, replica)
	}
	SetIfPos(w, "X-Cache-Time", cacheMs)
	SetIfPos(w, "X-Upstream-Time", upstreamMs)
}
