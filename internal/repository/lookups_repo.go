package repository

import (
	"context"
	"fmt"

	"gazetteer-data/internal/domain"
)

// LookupKind names an importable lookup table.
type LookupKind string

const (
	LookupPostTown         LookupKind = "post_town"
	LookupSubLocality      LookupKind = "sub_locality"
	LookupPostcode         LookupKind = "postcode"
	LookupStreetDescriptor LookupKind = "street_descriptor"
)

// ParseLookupKind validates a kind taken from a request.
func ParseLookupKind(s string) (LookupKind, error) {
	switch k := LookupKind(s); k {
	case LookupPostTown, LookupSubLocality, LookupPostcode, LookupStreetDescriptor:
		return k, nil
	}
	return "", fmt.Errorf("unknown lookup kind: %q", s)
}

// LookupsRepository reads and bulk-loads the reference tables behind the address wizard.
type LookupsRepository interface {
	ListPostTowns(ctx context.Context) ([]domain.LinkedReference, error)
	ListSubLocalities(ctx context.Context) ([]domain.LinkedReference, error)
	ListPostcodes(ctx context.Context) ([]domain.Postcode, error)
	ListStreetDescriptors(ctx context.Context) ([]domain.StreetDescriptor, error)

	// UpsertLinkedReferences accepts LookupPostTown or LookupSubLocality.
	UpsertLinkedReferences(ctx context.Context, kind LookupKind, rows []domain.LinkedReference) (int, error)
	UpsertPostcodes(ctx context.Context, rows []domain.Postcode) (int, error)
	UpsertStreetDescriptors(ctx context.Context, rows []domain.StreetDescriptor) (int, error)
}

// LoadLookupTables reads all four tables into one snapshot.
func LoadLookupTables(ctx context.Context, repo LookupsRepository) (domain.LookupTables, error) {
	var t domain.LookupTables
	var err error
	if t.PostTowns, err = repo.ListPostTowns(ctx); err != nil {
		return t, fmt.Errorf("list post towns: %w", err)
	}
	if t.SubLocalities, err = repo.ListSubLocalities(ctx); err != nil {
		return t, fmt.Errorf("list sub-localities: %w", err)
	}
	if t.Postcodes, err = repo.ListPostcodes(ctx); err != nil {
		return t, fmt.Errorf("list postcodes: %w", err)
	}
	if t.StreetDescriptors, err = repo.ListStreetDescriptors(ctx); err != nil {
		return t, fmt.Errorf("list street descriptors: %w", err)
	}
	return t, nil
}
