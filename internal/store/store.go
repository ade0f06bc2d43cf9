package store

import (
	"context"
	"sync"
)

// Keys under which the portal persists its collections.
const (
	KeyUsers              = "users"
	KeyCourses            = "courses"
	KeyAttendance         = "attendance"
	KeyResults            = "results"
	KeyAttendanceSettings = "attendanceSettings"
	KeyGradeSettings      = "gradeSettings"
)

// Store is the key/value collaborator holding serialised collections.
// Writes to different keys are independent and never atomic as a group.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
