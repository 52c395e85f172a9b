package memory

import (
	"maps"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings keys in memory. It stands in for the TOML
// store in tests.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore returns an empty store.
func NewConfigStore() *ConfigStore {
	return NewConfigStoreFrom(nil)
}

// NewConfigStoreFrom returns a store seeded with a copy of values, keyed
// the same way as the config file ("retrieval.max_chunks").
func NewConfigStoreFrom(values map[string]any) *ConfigStore {
	seeded := make(map[string]any, len(values))
	maps.Copy(seeded, values)
	return &ConfigStore{values: seeded}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt accepts the integer and float forms a TOML decode produces.
func (s *ConfigStore) GetInt(key string) int {
	f, ok := s.number(key)
	if !ok {
		return 0
	}
	return int(f)
}

func (s *ConfigStore) GetFloat(key string) float64 {
	f, _ := s.number(key)
	return f
}

func (s *ConfigStore) number(key string) (float64, bool) {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func (s *ConfigStore) GetBool(key string) bool {
	val, _ := s.Get(key)
	b, _ := val.(bool)
	return b
}

// GetStringSlice drops non-string items of a mixed array.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *ConfigStore) Save() error { return nil }

func (s *ConfigStore) Load() error { return nil }

func (s *ConfigStore) Path() string { return ":memory:" }
