package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu     sync.RWMutex
	loaded = make(map[string]any)

	dotenvOnce sync.Once
)

// Load parses environment variables into the provided configuration struct
// based on its `env` field tags. The first call loads the default .env file
// if one exists; a missing file is not an error. Each configuration type is
// parsed at most once per process and subsequent calls return the cached
// value, so every component sees the same configuration.
//
// Example:
//
//	type JWTConfig struct {
//		AccessSecret string        `env:"JWT_ACCESS_SECRET,required"`
//		AccessTTL    time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
//	}
//
//	var cfg JWTConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	key := typeName[T]()

	mu.RLock()
	cached, ok := loaded[key]
	mu.RUnlock()
	if ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	mu.Lock()
	// Another goroutine may have raced the parse; keep the first result so
	// all callers observe identical configuration.
	if cached, ok := loaded[key]; ok {
		*v = cached.(T)
	} else {
		loaded[key] = *v
	}
	mu.Unlock()

	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
// Intended for startup-critical configuration where a missing variable
// should prevent the process from starting at all.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: failed to load %s: %v", typeName[T](), err))
	}
}

func typeName[T any]() string {
	var zero T
	if t := reflect.TypeOf(zero); t != nil {
		return t.String()
	}
	return fmt.Sprintf("%T", *new(T))
}
