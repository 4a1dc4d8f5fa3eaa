package in_mem

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/DjordjeVuckovic/modelcfg/internal/check"
	"github.com/DjordjeVuckovic/modelcfg/internal/storage"
	"github.com/DjordjeVuckovic/modelcfg/pkg/pagination"
	"github.com/google/uuid"
)

type Store struct {
	storageLock sync.RWMutex
	storage     map[uuid.UUID]check.Result
}

func NewStore() *Store {
	return &Store{
		storage: make(map[uuid.UUID]check.Result),
	}
}

func (s *Store) Save(ctx context.Context, r check.Result) error {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.storage[r.ID] = r
	slog.DebugContext(ctx, "saved check result", "id", r.ID, "path", r.Path, "status", r.Status)
	return nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (check.Result, error) {
	s.storageLock.RLock()
	defer s.storageLock.RUnlock()

	r, ok := s.storage[id]
	if !ok {
		return check.Result{}, storage.NotFound(id)
	}
	return r, nil
}

func (s *Store) List(_ context.Context, f storage.Filter) ([]check.Result, error) {
	page := pagination.OffsetRequest{Limit: f.Limit, Offset: f.Offset}
	page.Normalize()

	s.storageLock.RLock()
	matched := make([]check.Result, 0, len(s.storage))
	for _, r := range s.storage {
		if f.Match(r) {
			matched = append(matched, r)
		}
	}
	s.storageLock.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CheckedAt.Equal(matched[j].CheckedAt) {
			return matched[i].CheckedAt.After(matched[j].CheckedAt)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})

	if page.Offset >= len(matched) {
		return []check.Result{}, nil
	}
	matched = matched[page.Offset:]
	if len(matched) > page.Limit {
		matched = matched[:page.Limit]
	}
	return matched, nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}
