// Package env holds the environment handed to launched programs.
package env

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// EnvironFetcher is anything that can list KEY=VALUE pairs.
type EnvironFetcher interface {
	Environ() []string
}

// Getenver looks up single variables.
type Getenver interface {
	Getenv(key string) string
}

// Setenver stores single variables.
type Setenver interface {
	Setenv(key, value string) error
}

// CopyEnv copies all the environment variables from src to dst.
func CopyEnv(dst Setenver, src EnvironFetcher) error {
	for _, e := range src.Environ() {
		key, value := splitEntry(e)
		if err := dst.Setenv(key, value); err != nil {
			return err
		}
	}

	return nil
}

// NewMapEnv creates a new environment backed by a map.
func NewMapEnv() *MapEnv {
	return &MapEnv{}
}

// NewMapEnvFromEnvList creates an environment from KEY=VALUE entries. Later
// duplicates win, matching how exec treats them.
func NewMapEnvFromEnvList(environ []string) *MapEnv {
	out := &MapEnv{}

	for _, e := range environ {
		key, value := splitEntry(e)
		// Ignore error, it will never be set for MapEnv.
		_ = out.Setenv(key, value)
	}

	return out
}

// NewProcessEnv copies the environment of the running process.
func NewProcessEnv() *MapEnv {
	return NewMapEnvFromEnvList(os.Environ())
}

func splitEntry(e string) (string, string) {
	split := strings.SplitN(e, "=", 2)
	key, value := split[0], ""
	if len(split) > 1 {
		value = split[1]
	}
	return key, value
}

// MapEnv is an in-memory, concurrency safe environment.
type MapEnv struct {
	rw  sync.RWMutex
	env map[string]string
}

// Unsetenv removes key.
func (m *MapEnv) Unsetenv(key string) error {
	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env != nil {
		delete(m.env, key)
	}
	return nil
}

// Setenv sets key to value.
func (m *MapEnv) Setenv(key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\x00") {
		return fmt.Errorf("invalid environment variable name %q", key)
	}

	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
	return nil
}

// LookupEnv returns the value of key and whether it was set.
func (m *MapEnv) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv returns the value of key or the empty string.
func (m *MapEnv) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// Environ lists the variables as KEY=VALUE, sorted by key.
func (m *MapEnv) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	env := make([]string, 0, len(m.env))
	for k, v := range m.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)

	return env
}

// Clone returns an independent copy.
func (m *MapEnv) Clone() *MapEnv {
	return NewMapEnvFromEnvList(m.Environ())
}

// Source is the read side of an environment, all a launcher needs.
type Source interface {
	EnvironFetcher
	Getenver
}

var _ Source = (*MapEnv)(nil)
