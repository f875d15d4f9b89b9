// Package memory is an in-process storage.KV used by the memory backend and
// by tests.
package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type KV struct {
	mu   sync.RWMutex
	data map[string][]byte
	// failWrites lets tests simulate a broken disk.
	failWrites error
}

func New() *KV {
	return &KV{data: map[string][]byte{}}
}

// NewFromDir seeds the store from <key>.json files in dir. Missing or
// unreadable directories yield an empty store.
func NewFromDir(dir string) *KV {
	kv := New()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return kv
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		kv.data[strings.TrimSuffix(name, ".json")] = b
	}
	return kv
}

func (s *KV) Read(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *KV) Write(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// FailWrites makes every later Write return err. Pass nil to recover.
func (s *KV) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = err
}

func (s *KV) Ping(context.Context) error { return nil }

func (s *KV) Close() error { return nil }
