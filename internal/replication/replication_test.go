package replication

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/TemirB/bazar/internal/config"
	"github.com/TemirB/bazar/internal/domain"
	"github.com/TemirB/bazar/internal/observability"
	"github.com/TemirB/bazar/internal/pkg/pool"
	"github.com/TemirB/bazar/internal/upstream"
)

type recordedPush struct {
	path   string
	origin string
}

func TestUpdatePath(t *testing.T) {
	u := domain.ItemUpdate{ID: "a b", Price: 9.99, Quantity: 2}
	require.Equal(t, "/update/a%20b?price=9.99&quantity=2", UpdatePath(u))
}

func TestHTTPPusherPushesToEveryPeer(t *testing.T) {
	var (
		mu     sync.Mutex
		pushes []recordedPush
	)
	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		pushes = append(pushes, recordedPush{path: r.URL.RequestURI(), origin: r.Header.Get(HeaderReplicatedFrom)})
		mu.Unlock()
		_, _ = w.Write([]byte(`{"status":"updated"}`))
	}))
	defer peer.Close()

	down := httptest.NewServer(http.NotFoundHandler())
	downAddr := down.URL
	down.Close()

	p := pool.New(2)
	metrics := observability.NewInmem(10)
	pusher := NewHTTPPusher("catalog:5000", []string{peer.URL, downAddr}, upstream.New(time.Second), p,
		config.Breaker{Threshold: 5, OpenTimeout: time.Second, MaxHalfOpen: 1}, time.Second, zaptest.NewLogger(t), metrics)

	ctx, cancel := context.WithCancel(context.Background())
	pusher.Replicate(ctx, domain.ItemUpdate{ID: "1", Price: 20, Quantity: 4})
	cancel() // request finished; pushes are detached from it

	p.Close()
	p.Wait()

	require.Equal(t, []recordedPush{{path: "/update/1?price=20&quantity=4", origin: "catalog:5000"}}, pushes)
	snap := metrics.Snapshot()
	require.Equal(t, 1, snap.ReplicationOK)
	require.Equal(t, 1, snap.ReplicationFail)
}

func TestHTTPPusherSkipsPeerWithOpenBreaker(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer peer.Close()

	p := pool.New(1)
	pusher := NewHTTPPusher("r1", []string{peer.URL}, upstream.New(time.Second), p,
		config.Breaker{Threshold: 1, OpenTimeout: time.Hour, MaxHalfOpen: 1}, time.Second, zaptest.NewLogger(t), observability.NewNoop())

	for i := 0; i < 2; i++ {
		pusher.Replicate(context.Background(), domain.ItemUpdate{ID: "1"})
	}
	p.Close()
	p.Wait()

	require.Equal(t, 1, calls)
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafkago.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublisherReplicate(t *testing.T) {
	w := &fakeWriter{}
	metrics := observability.NewInmem(10)
	p := NewPublisher(w, "catalog.updates", zaptest.NewLogger(t), metrics)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	u := domain.ItemUpdate{ID: "7", Price: 1.25, Quantity: 9, Origin: "r1", At: at}
	p.Replicate(context.Background(), u)

	require.Len(t, w.msgs, 1)
	require.Equal(t, []byte("7"), w.msgs[0].Key)

	var got domain.ItemUpdate
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	require.Equal(t, u, got)
	require.Equal(t, 1, metrics.Snapshot().ReplicationOK)
	require.NoError(t, p.Close())
}

func TestPublisherSwallowsErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	metrics := observability.NewInmem(10)
	p := NewPublisher(w, "catalog.updates", zaptest.NewLogger(t), metrics)

	p.Replicate(context.Background(), domain.ItemUpdate{ID: "7"})
	require.Equal(t, 1, metrics.Snapshot().ReplicationFail)
}

type countingReplicator struct{ n int }

func (c *countingReplicator) Replicate(context.Context, domain.ItemUpdate) { c.n++ }

func TestFanout(t *testing.T) {
	a, b := &countingReplicator{}, &countingReplicator{}
	Fanout{a, b, Nop{}}.Replicate(context.Background(), domain.ItemUpdate{ID: "1"})
	require.Equal(t, 1, a.n)
	require.Equal(t, 1, b.n)
}
