package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gazetteer-data/internal/domain"
	"gazetteer-data/internal/repository"
	"gazetteer-data/internal/store"

	"go.uber.org/zap"
)

const lookupsCacheKey = "gazetteer:lookups"

// LookupService serves the wizard's reference tables, cached in Redis.
type LookupService struct {
	repo   repository.LookupsRepository
	kv     store.KV // optional
	ttl    time.Duration
	logger *zap.Logger
}

func NewLookupService(repo repository.LookupsRepository, kv store.KV, ttl time.Duration, logger *zap.Logger) *LookupService {
	return &LookupService{repo: repo, kv: kv, ttl: ttl, logger: logger}
}

// Lookups returns the current tables. Cache failures fall through to the repository.
func (s *LookupService) Lookups(ctx context.Context) (domain.LookupTables, error) {
	if s.kv != nil {
		raw, err := s.kv.Get(ctx, lookupsCacheKey)
		switch {
		case err == nil:
			var t domain.LookupTables
			if err := json.Unmarshal([]byte(raw), &t); err == nil {
				return t, nil
			}
			s.logger.Warn("Discarding corrupt lookups cache entry")
		case !errors.Is(err, store.ErrMiss):
			s.logger.Warn("Lookups cache read failed", zap.Error(err))
		}
	}

	t, err := repository.LoadLookupTables(ctx, s.repo)
	if err != nil {
		s.logger.Error("Failed to load lookup tables", zap.Error(err))
		return domain.LookupTables{}, fmt.Errorf("failed to load lookups: %w", err)
	}

	if s.kv != nil {
		if b, err := json.Marshal(t); err == nil {
			if err := s.kv.Set(ctx, lookupsCacheKey, string(b), s.ttl); err != nil {
				s.logger.Warn("Lookups cache write failed", zap.Error(err))
			}
		}
	}
	return t, nil
}

// ImportLookupsRequest carries rows parsed from an uploaded sheet. Only the
// slice matching Kind is read.
type ImportLookupsRequest struct {
	Kind              repository.LookupKind
	LinkedReferences  []domain.LinkedReference
	Postcodes         []domain.Postcode
	StreetDescriptors []domain.StreetDescriptor
}

// ImportLookupsResponse reports how many rows were written.
type ImportLookupsResponse struct {
	Kind     repository.LookupKind `json:"kind"`
	Imported int                   `json:"imported"`
}

// ImportLookups upserts rows of one kind and invalidates the cache.
func (s *LookupService) ImportLookups(ctx context.Context, req ImportLookupsRequest) (*ImportLookupsResponse, error) {
	if req.Kind == "" {
		return nil, fmt.Errorf("kind is required")
	}

	var n int
	var err error
	switch req.Kind {
	case repository.LookupPostTown, repository.LookupSubLocality:
		for _, row := range req.LinkedReferences {
			if !row.Language.IsValid() {
				return nil, fmt.Errorf("invalid language %q for ref %d", row.Language, row.Ref)
			}
		}
		n, err = s.repo.UpsertLinkedReferences(ctx, req.Kind, req.LinkedReferences)
	case repository.LookupPostcode:
		n, err = s.repo.UpsertPostcodes(ctx, req.Postcodes)
	case repository.LookupStreetDescriptor:
		for _, row := range req.StreetDescriptors {
			if !row.Language.IsValid() {
				return nil, fmt.Errorf("invalid language %q for usrn %d", row.Language, row.Usrn)
			}
		}
		n, err = s.repo.UpsertStreetDescriptors(ctx, req.StreetDescriptors)
	default:
		return nil, fmt.Errorf("unknown lookup kind: %q", req.Kind)
	}
	if err != nil {
		s.logger.Error("Failed to import lookups", zap.String("kind", string(req.Kind)), zap.Error(err))
		return nil, fmt.Errorf("failed to import lookups: %w", err)
	}

	if s.kv != nil {
		if err := s.kv.Del(ctx, lookupsCacheKey); err != nil {
			s.logger.Warn("Lookups cache invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("Imported lookups", zap.String("kind", string(req.Kind)), zap.Int("rows", n))
	return &ImportLookupsResponse{Kind: req.Kind, Imported: n}, nil
}
