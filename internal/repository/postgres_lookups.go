package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gazetteer-data/internal/domain"
)

type PostgresLookupsRepository struct {
	db *sql.DB
}

func NewPostgresLookupsRepository(db *sql.DB) *PostgresLookupsRepository {
	return &PostgresLookupsRepository{db: db}
}

func linkedTable(kind LookupKind) (string, error) {
	switch kind {
	case LookupPostTown:
		return "post_towns", nil
	case LookupSubLocality:
		return "sub_localities", nil
	}
	return "", fmt.Errorf("lookup kind %q has no linked reference table", kind)
}

func (r *PostgresLookupsRepository) ListPostTowns(ctx context.Context) ([]domain.LinkedReference, error) {
	return r.listLinked(ctx, LookupPostTown)
}

func (r *PostgresLookupsRepository) ListSubLocalities(ctx context.Context) ([]domain.LinkedReference, error) {
	return r.listLinked(ctx, LookupSubLocality)
}

func (r *PostgresLookupsRepository) listLinked(ctx context.Context, kind LookupKind) ([]domain.LinkedReference, error) {
	table, err := linkedTable(kind)
	if err != nil {
		return nil, err
	}
	q := `
		SELECT ref, language, linked_ref, value
		FROM ` + table + `
		ORDER BY ref, language
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.LinkedReference{}
	for rows.Next() {
		var row domain.LinkedReference
		var lang string
		var linked sql.NullInt64
		if err := rows.Scan(&row.Ref, &lang, &linked, &row.Value); err != nil {
			return nil, err
		}
		row.Language = domain.Language(lang)
		if linked.Valid {
			row.LinkedRef = linked.Int64
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PostgresLookupsRepository) ListPostcodes(ctx context.Context) ([]domain.Postcode, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ref, value FROM postcodes ORDER BY ref`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Postcode{}
	for rows.Next() {
		var p domain.Postcode
		if err := rows.Scan(&p.Ref, &p.Value); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresLookupsRepository) ListStreetDescriptors(ctx context.Context) ([]domain.StreetDescriptor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT usrn, language, descriptor
		FROM street_descriptors
		ORDER BY usrn, language
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.StreetDescriptor{}
	for rows.Next() {
		var s domain.StreetDescriptor
		var lang string
		if err := rows.Scan(&s.Usrn, &lang, &s.Descriptor); err != nil {
			return nil, err
		}
		s.Language = domain.Language(lang)
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertLinkedReferences inserts or updates rows keyed by (ref, language) in one transaction.
func (r *PostgresLookupsRepository) UpsertLinkedReferences(ctx context.Context, kind LookupKind, rows []domain.LinkedReference) (int, error) {
	table, err := linkedTable(kind)
	if err != nil {
		return 0, err
	}
	q := `
		INSERT INTO ` + table + ` (ref, language, linked_ref, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ref, language)
		DO UPDATE SET linked_ref = EXCLUDED.linked_ref, value = EXCLUDED.value
	`
	return r.inTx(ctx, len(rows), func(tx *sql.Tx) error {
		for _, row := range rows {
			var linked sql.NullInt64
			if row.LinkedRef != 0 {
				linked = sql.NullInt64{Int64: row.LinkedRef, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, q, row.Ref, string(row.Language), linked, row.Value); err != nil {
				return fmt.Errorf("upsert %s ref=%d: %w", table, row.Ref, err)
			}
		}
		return nil
	})
}

func (r *PostgresLookupsRepository) UpsertPostcodes(ctx context.Context, rows []domain.Postcode) (int, error) {
	return r.inTx(ctx, len(rows), func(tx *sql.Tx) error {
		for _, row := range rows {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO postcodes (ref, value) VALUES ($1, $2)
				ON CONFLICT (ref) DO UPDATE SET value = EXCLUDED.value
			`, row.Ref, row.Value); err != nil {
				return fmt.Errorf("upsert postcode ref=%d: %w", row.Ref, err)
			}
		}
		return nil
	})
}

func (r *PostgresLookupsRepository) UpsertStreetDescriptors(ctx context.Context, rows []domain.StreetDescriptor) (int, error) {
	return r.inTx(ctx, len(rows), func(tx *sql.Tx) error {
		for _, row := range rows {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO street_descriptors (usrn, language, descriptor) VALUES ($1, $2, $3)
				ON CONFLICT (usrn, language) DO UPDATE SET descriptor = EXCLUDED.descriptor
			`, row.Usrn, string(row.Language), row.Descriptor); err != nil {
				return fmt.Errorf("upsert street descriptor usrn=%d: %w", row.Usrn, err)
			}
		}
		return nil
	})
}

func (r *PostgresLookupsRepository) inTx(ctx context.Context, n int, fn func(tx *sql.Tx) error) (int, error) {
	if n == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
