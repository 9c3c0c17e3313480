package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ProviderConfig holds the configuration needed to create a cache instance.
type ProviderConfig struct {
	// Size is the maximum number of entries.
	Size int

	// TTL is the time-to-live for entries.
	TTL time.Duration

	// RedisAddress is the Redis server address, e.g. "localhost:6379".
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// KeyPrefix namespaces Redis keys. Defaults to "vidbrief:".
	KeyPrefix string

	// Group, when non-empty, wraps the cache with Prometheus instrumentation
	// labelled cache=Group.
	Group string

	onEvict func(key string)
}

// Provider is a constructor function that creates a Cache from config.
type Provider func(cfg ProviderConfig) (Cache, error)

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register registers a cache provider under the given name.
// It panics if the name is already registered or the provider is nil.
func Register(name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()

	if p == nil {
		panic("cache: Register provider is nil")
	}
	if _, exists := providers[name]; exists {
		panic(fmt.Sprintf("cache: provider %q already registered", name))
	}
	providers[name] = p
}

// New creates a Cache using the named provider.
func New(name string, cfg ProviderConfig) (Cache, error) {
	mu.RLock()
	p, ok := providers[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("cache: unknown provider %q (registered: %v)", name, RegisteredProviders())
	}
	if cfg.Group == "" {
		return p(cfg)
	}

	group := cfg.Group
	cfg.onEvict = func(string) { EvictionsTotal.WithLabelValues(group).Inc() }
	inner, err := p(cfg)
	if err != nil {
		return nil, err
	}
	return &instrumentedCache{inner: inner, group: group}, nil
}

// RegisteredProviders returns a sorted list of registered provider names.
func RegisteredProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
