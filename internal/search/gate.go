package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisGatePrefix     = "streamverse:search:gate:"
	defaultRedisGateTTL = 60 * time.Second
	redisGateOpTimeout  = 2 * time.Second
	releaseScriptSource = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`
)

var releaseScript = redis.NewScript(releaseScriptSource)

// Gate enforces one in-flight search per key (Idle -> Searching -> Idle).
// TryAcquire never waits: ok is false when the key is already held. The
// returned release must be called exactly once.
type Gate interface {
	TryAcquire(ctx context.Context, key string) (release func(), ok bool)
}

// MemoryGate is the in-process gate.
type MemoryGate struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryGate() *MemoryGate {
	return &MemoryGate{held: make(map[string]struct{})}
}

func (g *MemoryGate) TryAcquire(_ context.Context, key string) (func(), bool) {
	key = normalizeGateKey(key)
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return func() {}, false
	}
	g.held[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, true
}

// Held reports whether key is currently in the Searching state.
func (g *MemoryGate) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.held[normalizeGateKey(key)]
	return busy
}

// RedisGate shares the gate between service instances with SET NX PX. The TTL
// bounds how long a crashed holder can block a key. When Redis is unreachable
// the in-process gate takes over so a single instance stays correct.
type RedisGate struct {
	client   redis.UniversalClient
	ttl      time.Duration
	fallback *MemoryGate
	logger   *slog.Logger
}

func NewRedisGate(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisGate {
	if ttl <= 0 {
		ttl = defaultRedisGateTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisGate{
		client:   client,
		ttl:      ttl,
		fallback: NewMemoryGate(),
		logger:   logger,
	}
}

// NewRedisGateFromURL parses a redis:// URL and pings the server.
func NewRedisGateFromURL(ctx context.Context, rawURL string, ttl time.Duration, logger *slog.Logger) (*RedisGate, error) {
	options, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(options)
	pingCtx, cancel := context.WithTimeout(ctx, redisGateOpTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisGate(client, ttl, logger), nil
}

func (g *RedisGate) TryAcquire(ctx context.Context, key string) (func(), bool) {
	redisKey := redisGatePrefix + normalizeGateKey(key)
	token := uuid.NewString()

	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisGateOpTimeout)
	defer cancel()
	acquired, err := g.client.SetNX(opCtx, redisKey, token, g.ttl).Result()
	if err != nil {
		g.logger.Warn("redis gate unavailable, using local gate",
			slog.String("key", redisKey),
			slog.String("error", err.Error()),
		)
		return g.fallback.TryAcquire(ctx, key)
	}
	if !acquired {
		return func() {}, false
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), redisGateOpTimeout)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, g.client, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				g.logger.Warn("redis gate release failed",
					slog.String("key", redisKey),
					slog.String("error", err.Error()),
				)
			}
		})
	}, true
}

func (g *RedisGate) Close() error {
	return g.client.Close()
}

func normalizeGateKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return SharedGateKey
	}
	return key
}
