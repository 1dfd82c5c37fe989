package repository

import (
	"context"
	"sync"

	"gazetteer-data/internal/domain"
)

// MemoryLookupsRepository keeps lookup tables in process, for development and tests.
type MemoryLookupsRepository struct {
	mu     sync.RWMutex
	tables domain.LookupTables
}

func NewMemoryLookupsRepository(seed domain.LookupTables) *MemoryLookupsRepository {
	return &MemoryLookupsRepository{tables: seed}
}

func (r *MemoryLookupsRepository) ListPostTowns(context.Context) ([]domain.LinkedReference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.LinkedReference{}, r.tables.PostTowns...), nil
}

func (r *MemoryLookupsRepository) ListSubLocalities(context.Context) ([]domain.LinkedReference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.LinkedReference{}, r.tables.SubLocalities...), nil
}

func (r *MemoryLookupsRepository) ListPostcodes(context.Context) ([]domain.Postcode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Postcode{}, r.tables.Postcodes...), nil
}

func (r *MemoryLookupsRepository) ListStreetDescriptors(context.Context) ([]domain.StreetDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.StreetDescriptor{}, r.tables.StreetDescriptors...), nil
}

func (r *MemoryLookupsRepository) UpsertLinkedReferences(_ context.Context, kind LookupKind, rows []domain.LinkedReference) (int, error) {
	if _, err := linkedTable(kind); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	target := &r.tables.PostTowns
	if kind == LookupSubLocality {
		target = &r.tables.SubLocalities
	}
	for _, row := range rows {
		replaced := false
		for i, cur := range *target {
			if cur.Ref == row.Ref && cur.Language == row.Language {
				(*target)[i] = row
				replaced = true
				break
			}
		}
		if !replaced {
			*target = append(*target, row)
		}
	}
	return len(rows), nil
}

func (r *MemoryLookupsRepository) UpsertPostcodes(_ context.Context, rows []domain.Postcode) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		replaced := false
		for i, cur := range r.tables.Postcodes {
			if cur.Ref == row.Ref {
				r.tables.Postcodes[i] = row
				replaced = true
				break
			}
		}
		if !replaced {
			r.tables.Postcodes = append(r.tables.Postcodes, row)
		}
	}
	return len(rows), nil
}

func (r *MemoryLookupsRepository) UpsertStreetDescriptors(_ context.Context, rows []domain.StreetDescriptor) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		replaced := false
		for i, cur := range r.tables.StreetDescriptors {
			if cur.Usrn == row.Usrn && cur.Language == row.Language {
				r.tables.StreetDescriptors[i] = row
				replaced = true
				break
			}
		}
		if !replaced {
			r.tables.StreetDescriptors = append(r.tables.StreetDescriptors, row)
		}
	}
	return len(rows), nil
}
