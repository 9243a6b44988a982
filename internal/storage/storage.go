// Package storage provides the string-valued key-value persistence the sketch
// session writes its snapshots to: an in-memory store for tests and
// single-run sessions, and a JSON file store that survives restarts.
package storage

import (
	"context"
	"errors"
	"sync"
)

// Keys written by the sketch session.
const (
	KeyStrokes    = "drawPaths"
	KeyShapes     = "drawShapes"
	KeyBackground = "backgroundColor"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// Memory is a map-backed store. The zero value is ready to use.
type Memory struct {
	mu     sync.RWMutex
	m      map[string]string
	closed bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{m: map[string]string{}}
}

// Get returns the value under key and whether it was present.
func (s *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.m[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.m == nil {
		s.m = map[string]string{}
	}
	s.m[key] = value
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Memory) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.m, key)
	return nil
}

// Close marks the store closed.
func (s *Memory) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
