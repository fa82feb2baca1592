package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu    sync.Mutex
	cache = make(map[reflect.Type]any)

	// .env loading happens at most once, before the first parse.
	loadDotEnv = sync.OnceFunc(func() {
		// Missing .env files are expected outside local development.
		_ = godotenv.Load()
	})
)

// Load populates cfg from the environment, caching the result per concrete
// type. cfg must be a non-nil pointer to a struct with `env` tags.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return fmt.Errorf("config: nil target of type %T", cfg)
	}

	loadDotEnv()

	mu.Lock()
	defer mu.Unlock()

	typ := reflect.TypeOf(*cfg)
	if cached, ok := cache[typ]; ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", typ, err)
	}

	cache[typ] = *cfg
	return nil
}

// MustLoad is Load that panics on failure. Intended for application startup
// where a missing required variable should stop the process.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
