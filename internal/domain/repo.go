package domain

import (
	"context"
)

// Replicator pushes an applied update to other catalog replicas. Implementations
// must not block the caller and must not report failures back.
type Replicator interface {
	Replicate(ctx context.Context, update ItemUpdate)
}

type OrderLedger interface {
	Record(ctx context.Context, result OrderResult) error
	Recent(ctx context.Context, limit int) ([]OrderResult, error)
}
