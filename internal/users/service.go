package users

import (
	"context"
	"fmt"
)

const (
	defaultDirectoryLimit = 200
	maxDirectoryLimit     = 1000
)

// Store lists directory users.
type Store interface {
	ListUsers(ctx context.Context, limit int) ([]User, error)
}

// Service serves the user directory.
type Service struct {
	store Store
}

// NewService constructs the service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Directory returns up to limit users, clamped to a sane window.
func (s *Service) Directory(ctx context.Context, limit int) ([]User, error) {
	if s.store == nil {
		return nil, fmt.Errorf("users: store not configured")
	}
	if limit <= 0 {
		limit = defaultDirectoryLimit
	}
	if limit > maxDirectoryLimit {
		limit = maxDirectoryLimit
	}
	return s.store.ListUsers(ctx, limit)
}
