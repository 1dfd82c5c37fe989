package repository

import (
	"context"
	"errors"

	"gazetteer-data/internal/domain"
)

// ErrPropertyNotFound is returned when the anchor UPRN of a related list does not exist.
var ErrPropertyNotFound = errors.New("property not found")

// PropertySource supplies the related-properties lists. Implemented by the
// Postgres and memory repositories and by the gazetteer REST client.
type PropertySource interface {
	// ListByStreet returns every property addressed on the street.
	ListByStreet(ctx context.Context, usrn int64) ([]domain.PropertyNode, error)
	// ListRelated returns the parent/child family containing uprn.
	ListRelated(ctx context.Context, uprn int64) ([]domain.PropertyNode, error)
}
