package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/Foodshareclub/foodshare-ops/internal/resilience/circuitbreaker"
)

// Persisted state layout: two Redis keys holding JSON. The services key is a
// hash keyed by service name; the metrics key is a single string value.
const (
	servicesKey = "health:services"
	metricsKey  = "health:metrics"
)

// Store persists health records and cumulative metrics. Implementations must
// be safe for concurrent use. Reads of missing records report found=false
// rather than an error.
type Store interface {
	GetService(ctx context.Context, name string) (ServiceHealth, bool, error)
	PutService(ctx context.Context, record ServiceHealth) error
	ListServices(ctx context.Context) ([]ServiceHealth, error)
	GetMetrics(ctx context.Context) (Metrics, error)
	PutMetrics(ctx context.Context, m Metrics) error

	// Ping verifies connectivity to the backing store. It doubles as the
	// exemplar probe target.
	Ping(ctx context.Context) error
}

// RedisStore is the production Store. Every Redis call runs through a
// gobreaker circuit so a dead Redis fails fast instead of stalling the
// health endpoint.
type RedisStore struct {
	client  redis.UniversalClient
	breaker *circuitbreaker.CircuitBreaker
}

// NewRedisStore wraps the given client. The circuit breaker uses the
// KV-store profile.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client:  client,
		breaker: circuitbreaker.New(circuitbreaker.KVStoreConfig()),
	}
}

// decodeRecord parses a stored JSON record. The KV store is a trust
// boundary: a malformed blob falls back to a zeroed default for the service
// instead of failing the whole read.
func decodeRecord(name string, raw []byte) ServiceHealth {
	var rec ServiceHealth
	if err := json.Unmarshal(raw, &rec); err != nil {
		slog.Warn("malformed health record, using zeroed default",
			slog.String("service", name),
			slog.Any("error", err))
		return ServiceHealth{Name: name, Status: StatusDegraded}
	}
	if rec.Name == "" {
		rec.Name = name
	}
	if rec.ConsecutiveFailures < 0 {
		rec.ConsecutiveFailures = 0
	}
	return rec
}

func (s *RedisStore) GetService(ctx context.Context, name string) (ServiceHealth, bool, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		raw, err := s.client.HGet(ctx, servicesKey, name).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return ServiceHealth{}, false, fmt.Errorf("get service %q: %w", name, err)
	}
	raw, ok := result.([]byte)
	if !ok || raw == nil {
		return ServiceHealth{}, false, nil
	}
	return decodeRecord(name, raw), true, nil
}

func (s *RedisStore) PutService(ctx context.Context, record ServiceHealth) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal service %q: %w", record.Name, err)
	}
	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.HSet(ctx, servicesKey, record.Name, raw).Err()
	})
	if err != nil {
		return fmt.Errorf("put service %q: %w", record.Name, err)
	}
	return nil
}

func (s *RedisStore) ListServices(ctx context.Context) ([]ServiceHealth, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.client.HGetAll(ctx, servicesKey).Result()
	})
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	entries := result.(map[string]string)
	records := make([]ServiceHealth, 0, len(entries))
	for name, raw := range entries {
		records = append(records, decodeRecord(name, []byte(raw)))
	}
	return records, nil
}

func (s *RedisStore) GetMetrics(ctx context.Context) (Metrics, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		raw, err := s.client.Get(ctx, metricsKey).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return Metrics{}, fmt.Errorf("get metrics: %w", err)
	}

	raw, ok := result.([]byte)
	if !ok || raw == nil {
		// Lazily created with zero defaults.
		return Metrics{}, nil
	}

	var m Metrics
	if err := json.Unmarshal(raw, &m); err != nil {
		slog.Warn("malformed metrics record, using zeroed default", slog.Any("error", err))
		return Metrics{}, nil
	}
	return m, nil
}

func (s *RedisStore) PutMetrics(ctx context.Context, m Metrics) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.Set(ctx, metricsKey, raw, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("put metrics: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.Ping(ctx).Err()
	})
	return err
}

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	services map[string]ServiceHealth
	metrics  Metrics

	// PingErr, when set, makes Ping fail. Used to simulate store outages.
	PingErr error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{services: make(map[string]ServiceHealth)}
}

func (s *MemoryStore) GetService(ctx context.Context, name string) (ServiceHealth, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.services[name]
	return rec, ok, nil
}

func (s *MemoryStore) PutService(ctx context.Context, record ServiceHealth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[record.Name] = record
	return nil
}

func (s *MemoryStore) ListServices(ctx context.Context) ([]ServiceHealth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]ServiceHealth, 0, len(s.services))
	for _, rec := range s.services {
		records = append(records, rec)
	}
	return records, nil
}

func (s *MemoryStore) GetMetrics(ctx context.Context) (Metrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics, nil
}

func (s *MemoryStore) PutMetrics(ctx context.Context, m Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PingErr
}
