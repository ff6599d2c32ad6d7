package memstore

// Package memstore provides an in-process KeyValueStore for development and tests.

import (
	"context"
	"sync"

	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
)

// Store keeps namespaces in memory. Contents are lost on restart.
type Store struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: make(map[string]map[string]string)}
}

func (s *Store) Get(_ context.Context, namespace, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[namespace][key]
	if !ok {
		return "", ports.ErrNotFound
	}
	return v, nil
}

func (s *Store) GetMany(_ context.Context, namespace string, keys []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(keys))
	ns := s.data[namespace]
	for _, k := range keys {
		if v, ok := ns[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *Store) SetMany(_ context.Context, namespace string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.data[namespace]
	if !ok {
		ns = make(map[string]string, len(values))
		s.data[namespace] = ns
	}
	for k, v := range values {
		ns[k] = v
	}
	return nil
}

func (s *Store) Delete(_ context.Context, namespace string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.data[namespace]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(ns, k)
	}
	if len(ns) == 0 {
		delete(s.data, namespace)
	}
	return nil
}

// Len reports how many keys a namespace holds.
func (s *Store) Len(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[namespace])
}
