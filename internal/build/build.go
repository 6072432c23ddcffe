// Package build manages build configuration: the network domains hosts are
// built into, the OS and variant catalog, per-server build records, their
// allocated addresses and SSH keys, and the cloud-init seed derived from all
// of these.
package build

import (
	"context"
	"errors"
	"fmt"

	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/store"
	"github.com/jbweber/ailsa/internal/value"
)

// ErrExhausted is returned when a build domain has no free address left.
var ErrExhausted = errors.New("no free address in build domain")

type executor interface {
	Basic(ctx context.Context, id query.ID) (*value.List, error)
	Argument(ctx context.Context, id query.ID, args ...value.Value) (*value.List, error)
	Write(ctx context.Context, f query.Family, id query.ID, args ...value.Value) (int64, error)
	LookupID(ctx context.Context, id query.ID, args ...value.Value) (int64, error)
}

// Service provides build configuration operations over a store.
type Service struct {
	db  executor
	now func() value.Timestamp
}

// New returns a Service backed by db.
func New(db *store.DB) *Service {
	return newWithDeps(db)
}

func newWithDeps(db executor) *Service {
	return &Service{db: db, now: value.Now}
}

func (s *Service) rows(ctx context.Context, f query.Family, id query.ID, args ...value.Value) ([][]value.Value, error) {
	var (
		res *value.List
		err error
	)
	if f == query.Basic {
		res, err = s.db.Basic(ctx, id)
	} else {
		res, err = s.db.Argument(ctx, id, args...)
	}
	if err != nil {
		return nil, err
	}
	return query.Rows(query.MustLookup(f, id), res)
}

func (s *Service) serverID(ctx context.Context, name string) (int64, error) {
	id, err := s.db.LookupID(ctx, query.ServerIDOnName, value.Text(name))
	if err != nil {
		return 0, fmt.Errorf("server %s: %w", name, err)
	}
	return id, nil
}

// exists reports whether a LookupID call found a row, passing through any
// error other than ErrNotFound.
func exists(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
