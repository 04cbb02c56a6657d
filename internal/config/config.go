package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Service string

const (
	Catalog  Service = "catalog"
	Order    Service = "order"
	Frontend Service = "frontend"
)

var defaultPorts = map[Service]string{
	Catalog:  "5000",
	Order:    "7000",
	Frontend: "9000",
}

type Kafka struct {
	Brokers []string
	Topic   string
	Group   string
	Workers int
}

func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

type Postgres struct {
	Host     string
	Port     string
	DB       string
	User     string
	Password string
	SSLMode  string
	Table    string
}

func (p Postgres) Enabled() bool { return p.Host != "" }

type Breaker struct {
	Threshold   uint32
	OpenTimeout time.Duration
	MaxHalfOpen uint32
}

type Retry struct {
	Attempts     int
	Base         time.Duration
	Max          time.Duration
	JitterFactor float64
}

type Config struct {
	Service   Service
	HTTPAddr  string
	LogFormat string

	CatalogFile        string
	ReplicaID          string
	Peers              []string
	ReplicationWorkers int

	CatalogReplicas []string
	OrderReplicas   []string
	UpstreamTimeout time.Duration
	AtomicDecrement bool

	CacheCap     int
	CacheWarmIDs []string

	Pg      Postgres
	Kafka   Kafka
	Breaker Breaker
	Retry   Retry
}

// Load fatals on error for simplicity in main(). args are the positional
// command-line arguments; the first one, when present, is the listen port.
func Load(svc Service, args []string) Config {
	cfg, err := load(svc, args)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	return cfg
}

func load(svc Service, args []string) (Config, error) {
	_ = godotenv.Load("env/.env")

	port, ok := defaultPorts[svc]
	if !ok {
		return Config{}, fmt.Errorf("unknown service %q", svc)
	}

	cfg := Config{
		Service:   svc,
		HTTPAddr:  envDefault("HTTP_ADDR", ":"+port),
		LogFormat: envDefault("LOG_FORMAT", "console"),

		CatalogFile:        envDefault("CATALOG_FILE", "data/catalog.csv"),
		ReplicaID:          strings.TrimSpace(os.Getenv("REPLICA_ID")),
		Peers:              splitCSV(strings.TrimSpace(os.Getenv("REPLICA_PEERS"))),
		ReplicationWorkers: envInt("REPLICATION_WORKERS", 4),

		CatalogReplicas: splitCSV(envDefault("CATALOG_REPLICAS", "http://localhost:5000")),
		OrderReplicas:   splitCSV(envDefault("ORDER_REPLICAS", "http://localhost:7000")),
		UpstreamTimeout: envDurationMS("UPSTREAM_TIMEOUT", 5*time.Second),
		AtomicDecrement: envBool("ORDER_ATOMIC_DECREMENT", false),

		CacheCap:     envInt("CACHE_CAP", 1000),
		CacheWarmIDs: splitCSV(strings.TrimSpace(os.Getenv("CACHE_WARM_IDS"))),

		Pg: Postgres{
			Host:     strings.TrimSpace(os.Getenv("PG_HOST")),
			Port:     strings.TrimSpace(envDefault("PG_PORT", "5432")),
			DB:       strings.TrimSpace(os.Getenv("PG_DB")),
			User:     strings.TrimSpace(os.Getenv("PG_USER")),
			Password: strings.TrimSpace(os.Getenv("PG_PASSWORD")),
			SSLMode:  strings.TrimSpace(envDefault("PG_SSLMODE", "disable")),
			Table:    strings.TrimSpace(envDefault("LEDGER_TABLE", "order_ledger")),
		},

		Kafka: Kafka{
			Brokers: splitCSV(strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))),
			Topic:   strings.TrimSpace(envDefault("KAFKA_TOPIC", "catalog.updates")),
			Group:   strings.TrimSpace(envDefault("KAFKA_GROUP", "catalog")),
			Workers: envInt("KAFKA_WORKERS", 4),
		},

		Breaker: Breaker{
			Threshold:   envUint32("BREAKER_THRESHOLD", 5),
			OpenTimeout: envDurationMS("BREAKER_OPENTIMEOUT", 10*time.Second),
			MaxHalfOpen: envUint32("BREAKER_MAXHALFOPEN", 3),
		},

		Retry: Retry{
			Attempts:     envInt("RETRY_ATTEMPTS", 5),
			Base:         envDurationMS("RETRY_BASE", 100*time.Millisecond),
			Max:          envDurationMS("RETRY_MAX", 5*time.Second),
			JitterFactor: envFloat64("RETRY_JITTERFACTOR", 0.3),
		},
	}

	// The positional port wins over HTTP_ADDR.
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		p, err := parsePort(args[0])
		if err != nil {
			return Config{}, err
		}
		cfg.HTTPAddr = ":" + p
	}
	if cfg.ReplicaID == "" {
		cfg.ReplicaID = svcReplicaID(svc, cfg.HTTPAddr)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	req := map[string]string{}

	switch c.Service {
	case Catalog:
		req["CATALOG_FILE"] = c.CatalogFile
	case Order:
		req["CATALOG_REPLICAS"] = strings.Join(c.CatalogReplicas, ",")
	case Frontend:
		req["CATALOG_REPLICAS"] = strings.Join(c.CatalogReplicas, ",")
		req["ORDER_REPLICAS"] = strings.Join(c.OrderReplicas, ",")
	}
	if c.Pg.Enabled() {
		req["PG_DB"] = c.Pg.DB
		req["PG_USER"] = c.Pg.User
		req["PG_PASSWORD"] = c.Pg.Password
	}
	if c.Kafka.Enabled() {
		req["KAFKA_TOPIC"] = c.Kafka.Topic
		req["KAFKA_GROUP"] = c.Kafka.Group
	}

	for k, v := range req {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &missingEnvError{Keys: missing}
	}
	return nil
}

func (c *Config) normalize() {
	if c.CacheCap <= 0 {
		log.Printf("CACHE_CAP is %d, adjusting to 1", c.CacheCap)
		c.CacheCap = 1
	}
	if c.UpstreamTimeout <= 0 {
		log.Printf("UPSTREAM_TIMEOUT is %v, adjusting to 5s", c.UpstreamTimeout)
		c.UpstreamTimeout = 5 * time.Second
	}
	if c.ReplicationWorkers < 1 {
		c.ReplicationWorkers = 1
	}
	if c.Retry.Attempts < 0 {
		log.Printf("RETRY_ATTEMPTS is %d, adjusting to 0", c.Retry.Attempts)
		c.Retry.Attempts = 0
	}
	if c.Retry.Base <= 0 {
		log.Printf("RETRY_BASE is %v, adjusting to 100ms", c.Retry.Base)
		c.Retry.Base = 100 * time.Millisecond
	}
	if c.Retry.Max < c.Retry.Base {
		log.Printf("RETRY_MAX (%v) < RETRY_BASE (%v), adjusting max to base", c.Retry.Max, c.Retry.Base)
		c.Retry.Max = c.Retry.Base
	}
	for i, r := range c.CatalogReplicas {
		c.CatalogReplicas[i] = strings.TrimRight(r, "/")
	}
	for i, r := range c.OrderReplicas {
		c.OrderReplicas[i] = strings.TrimRight(r, "/")
	}
	for i, r := range c.Peers {
		c.Peers[i] = strings.TrimRight(r, "/")
	}
}

type missingEnvError struct{ Keys []string }

func (e *missingEnvError) Error() string {
	return "missing required envs: " + strings.Join(e.Keys, ", ")
}

// DSN builds a proper Postgres URL, safely escaping user/pass and query.
func (c Config) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Pg.User, c.Pg.Password),
		Host:   net.JoinHostPort(c.Pg.Host, c.Pg.Port),
		Path:   "/" + c.Pg.DB,
	}
	q := url.Values{}
	if c.Pg.SSLMode != "" {
		q.Set("sslmode", c.Pg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func parsePort(s string) (string, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), ":")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 65535 {
		return "", fmt.Errorf("invalid port argument %q", s)
	}
	return strconv.Itoa(n), nil
}

func svcReplicaID(svc Service, addr string) string {
	return string(svc) + addr
}

func envDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return n
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %t: %v", k, v, def, err)
		return def
	}
	return b
}

func envUint32(k string, def uint32) uint32 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	u, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return uint32(u)
}

func envFloat64(k string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %.3f: %v", k, v, def, err)
		return def
	}
	return f
}

// envDurationMS supports either plain integer milliseconds ("1500") or
// Go duration strings ("1.5s", "250ms", "2m").
func envDurationMS(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
			return def
		}
		return d
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
