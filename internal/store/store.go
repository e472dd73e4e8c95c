// Package store persists structured acts and discovered act records.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/estatuto/internal/model"
)

// ErrNotFound is returned when no act is stored under a key
var ErrNotFound = errors.New("act not found")

// ActStore is the persistence collaborator of the pipeline: it reads an
// existing act by key and writes the durable copy of a run
type ActStore interface {
	FetchAct(ctx context.Context, key model.ActKey) (*model.StructuredAct, error)
	SaveAct(ctx context.Context, act *model.StructuredAct) error
	// SaveRecords upserts listing records and returns how many were written
	SaveRecords(ctx context.Context, records []model.ActRecord) (int, error)
	Close() error
}

// Open picks a backend: Postgres when a database URL is configured, JSON
// files when an output directory is, memory otherwise
func Open(ctx context.Context, cfg model.StoreConfig) (ActStore, error) {
	switch {
	case cfg.DatabaseURL != "":
		s, err := NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	case cfg.OutputDir != "":
		return NewFileStore(cfg.OutputDir)
	default:
		return NewMemoryStore(), nil
	}
}

func validKey(key model.ActKey) error {
	if key.Type == "" || key.Number == "" {
		return fmt.Errorf("incomplete act key %q", key.String())
	}
	return nil
}

// clone copies an act deeply enough that callers cannot alias stored slices
func clone(act *model.StructuredAct) *model.StructuredAct {
	out := *act
	out.Elements = append([]model.DocumentElement(nil), act.Elements...)
	out.Verdicts = append([]model.ValidationVerdict(nil), act.Verdicts...)
	out.Conditions = append([]model.Condition(nil), act.Conditions...)
	if act.Fetch != nil {
		meta := *act.Fetch
		out.Fetch = &meta
	}
	return &out
}

// keepEmenta carries a previously stored ementa into an act whose run
// found none
func keepEmenta(act, existing *model.StructuredAct) {
	if act.Ementa == "" && existing != nil && existing.Ementa != "" {
		act.Ementa = existing.Ementa
	}
}
