package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TemirB/bazar/internal/observability"
	"github.com/TemirB/bazar/internal/upstream"
)

// Spammer drives purchase and info traffic at a front-end and counts the
// answers by status code.
type Spammer struct {
	client    *upstream.Client
	target    string
	logger    *zap.Logger
	isRunning atomic.Bool
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	totalSent atomic.Int64
	failed    atomic.Int64
	mu        sync.Mutex
	byStatus  map[int]int64
	startedAt time.Time
}

type SpamRequest struct {
	Rate     int      `json:"rate"`
	Duration string   `json:"duration"`
	IDs      []string `json:"ids"`
	// Share of requests that are purchases, the rest are info lookups.
	BuyRatio float64 `json:"buy_ratio"`
}

type SpamStats struct {
	IsRunning bool             `json:"is_running"`
	TotalSent int64            `json:"total_sent"`
	Failed    int64            `json:"failed"`
	ByStatus  map[string]int64 `json:"by_status"`
	Rate      float64          `json:"rate"`
}

func NewSpammer(target string, timeout time.Duration, logger *zap.Logger) *Spammer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Spammer{
		client:    upstream.New(timeout),
		target:    strings.TrimRight(target, "/"),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		byStatus:  map[int]int64{},
		startedAt: time.Now(),
	}
}

func (s *Spammer) StartSpam(req SpamRequest, duration time.Duration) bool {
	if req.Rate <= 0 || req.Rate > maxRate || len(req.IDs) == 0 {
		return false
	}
	if !s.isRunning.CompareAndSwap(false, true) {
		return false
	}
	s.totalSent.Store(0)
	s.failed.Store(0)
	s.mu.Lock()
	s.byStatus = map[int]int64{}
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("Starting spam",
		zap.Int("rate", req.Rate),
		zap.Duration("duration", duration),
		zap.Strings("ids", req.IDs),
		zap.Float64("buy_ratio", req.BuyRatio),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.isRunning.Store(false)

		ticker := time.NewTicker(time.Second / time.Duration(req.Rate))
		defer ticker.Stop()

		timer := time.NewTimer(duration)
		defer timer.Stop()

		for {
			select {
			case <-ticker.C:
				id := req.IDs[rand.Intn(len(req.IDs))]
				path := "/info/" + url.PathEscape(id)
				if rand.Float64() < req.BuyRatio {
					path = "/purchase/" + url.PathEscape(id)
				}
				s.wg.Add(1)
				go func() {
					defer s.wg.Done()
					s.send(path)
				}()

			case <-timer.C:
				s.logger.Info("Spam completed", zap.Int64("total_sent", s.totalSent.Load()))
				return

			case <-s.ctx.Done():
				s.logger.Info("Spam stopped", zap.Int64("total_sent", s.totalSent.Load()))
				return
			}
		}
	}()
	return true
}

func (s *Spammer) send(path string) {
	s.totalSent.Add(1)
	resp, err := s.client.Get(s.ctx, s.target, path)
	if err != nil {
		s.failed.Add(1)
		s.logger.Debug("Request failed", zap.String("path", path), zap.Error(err))
		return
	}
	s.mu.Lock()
	s.byStatus[resp.Status]++
	s.mu.Unlock()
}

func (s *Spammer) StopSpam() {
	if s.isRunning.Load() {
		s.cancel()
		s.wg.Wait()

		// fresh context for the next run
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}
}

func (s *Spammer) GetStats() SpamStats {
	s.mu.Lock()
	byStatus := make(map[string]int64, len(s.byStatus))
	for code, n := range s.byStatus {
		byStatus[strconv.Itoa(code)] = n
	}
	startedAt := s.startedAt
	s.mu.Unlock()

	sent := s.totalSent.Load()
	var rate float64
	if secs := time.Since(startedAt).Seconds(); secs > 0 {
		rate = float64(sent) / secs
	}
	return SpamStats{
		IsRunning: s.isRunning.Load(),
		TotalSent: sent,
		Failed:    s.failed.Load(),
		ByStatus:  byStatus,
		Rate:      rate,
	}
}

func (s *Spammer) Close() {
	s.StopSpam()
}

// maxRate keeps the ticker interval above zero.
const maxRate = 10000

func newControlRouter(spammer *Spammer, target string) http.Handler {
	r := chi.NewRouter()

	r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
		var req SpamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
			return
		}

		if req.Rate <= 0 {
			req.Rate = 10
		}
		if req.Rate > maxRate {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rate must not exceed " + strconv.Itoa(maxRate)})
			return
		}
		if len(req.IDs) == 0 {
			req.IDs = []string{"1", "2", "3", "4", "5", "6", "7"}
		}
		if req.BuyRatio < 0 || req.BuyRatio > 1 {
			req.BuyRatio = 0.5
		}

		duration, err := time.ParseDuration(req.Duration)
		if err != nil || duration <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid duration format"})
			return
		}

		if !spammer.StartSpam(req, duration) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "already running"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "started",
			"target":   target,
			"rate":     req.Rate,
			"duration": duration.String(),
		})
	})

	r.Post("/stop", func(w http.ResponseWriter, r *http.Request) {
		spammer.StopSpam()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "stopped",
			"total_sent": spammer.totalSent.Load(),
		})
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, spammer.GetStats())
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	logger, err := observability.NewLogger(os.Getenv("LOG_FORMAT"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	target := "http://localhost:9000"
	if env := os.Getenv("FRONTEND_URL"); env != "" {
		target = env
	}

	spammer := NewSpammer(target, 5*time.Second, logger)
	defer spammer.Close()

	r := newControlRouter(spammer, target)

	port := ":8082"
	if envPort := os.Getenv("SPAMMER_PORT"); envPort != "" {
		port = ":" + envPort
	}

	logger.Info("Spammer server started",
		zap.String("addr", port),
		zap.String("target", target),
		zap.Strings("endpoints", []string{"POST /start", "POST /stop", "GET /stats"}),
	)
	if err := http.ListenAndServe(port, r); err != nil {
		logger.Fatal("Spammer server failed", zap.Error(err))
	}
}
