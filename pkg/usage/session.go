package usage

import (
	"context"
	"sync"
)

// Registry is everything a Session needs from the registry.
type Registry interface {
	Client
	Catalog(ctx context.Context) ([]string, error)
	DeleteImage(ctx context.Context, repository, digest string) error
}

// Session fetches a snapshot of a registry once and keeps it until Refresh is called.
type Session struct {
	registry Registry
	builder  *Builder

	mu       sync.Mutex
	snapshot *Snapshot
}

func NewSession(reg Registry, opt ...Option) *Session {
	return &Session{
		registry: reg,
		builder:  NewBuilder(reg, opt...),
	}
}

// Snapshot returns the cached snapshot, fetching it first if there is none.
func (s *Session) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		return s.snapshot, nil
	}
	return s.fetch(ctx)
}

// Refresh drops the cached snapshot and fetches a new one.
func (s *Session) Refresh(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	return s.fetch(ctx)
}

func (s *Session) fetch(ctx context.Context) (*Snapshot, error) {
	catalog, err := s.registry.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.builder.Build(ctx, catalog)
	if err != nil {
		return nil, err
	}
	s.snapshot = snap
	return snap, nil
}

// DeleteImage deletes a manifest from the registry. The cached snapshot is
// left alone; call Refresh to see the effect.
func (s *Session) DeleteImage(ctx context.Context, repository, digest string) error {
	return s.registry.DeleteImage(ctx, repository, digest)
}
