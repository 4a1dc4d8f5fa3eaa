// Package storage persists check results behind a backend-neutral Store.
package storage

import (
	"context"
	"fmt"

	"github.com/DjordjeVuckovic/modelcfg/internal/apperr"
	"github.com/DjordjeVuckovic/modelcfg/internal/check"
	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor"
	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no result has the requested id.
var ErrNotFound = apperr.ErrNotFound

type Store interface {
	Save(ctx context.Context, r check.Result) error
	Get(ctx context.Context, id uuid.UUID) (check.Result, error)
	List(ctx context.Context, f Filter) ([]check.Result, error)
	Ping(ctx context.Context) error
	Close() error
}

// Filter narrows List. Zero fields match everything; results come newest first.
type Filter struct {
	Kind   descriptor.Kind
	Status check.Status
	Name   string
	Limit  int
	Offset int
}

// Match reports whether r passes the filter's field conditions.
func (f Filter) Match(r check.Result) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Name != "" && r.Name != f.Name {
		return false
	}
	return true
}

type Type string

const (
	ES    Type = "es"
	PG    Type = "pg"
	InMem Type = "in_mem"
)

var Types = []Type{ES, PG, InMem}

type StorerError string

const (
	ErrUnsupportedStorer StorerError = "unsupported storer type: %s"
)

func (e StorerError) Error() string {
	return string(e)
}

func NotFound(id uuid.UUID) error {
	return fmt.Errorf("check result %s: %w", id, ErrNotFound)
}
