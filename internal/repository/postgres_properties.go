package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gazetteer-data/internal/domain"

	"github.com/lib/pq"
)

type PostgresPropertiesRepository struct {
	db *sql.DB
}

func NewPostgresPropertiesRepository(db *sql.DB) *PostgresPropertiesRepository {
	return &PostgresPropertiesRepository{db: db}
}

func (r *PostgresPropertiesRepository) ListByStreet(ctx context.Context, usrn int64) ([]domain.PropertyNode, error) {
	if usrn <= 0 {
		return nil, fmt.Errorf("usrn is required")
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT uprn, parent_uprn, classification_code, easting, northing
		FROM properties
		WHERE usrn = $1
		ORDER BY uprn
	`, usrn)
	if err != nil {
		return nil, err
	}
	nodes, err := scanProperties(rows)
	if err != nil {
		return nil, err
	}
	return r.attachLPIs(ctx, nodes)
}

// ListRelated climbs to the topmost ancestor of uprn and returns it with all of
// its descendants. Hop and UNION limits keep corrupt parent cycles finite.
func (r *PostgresPropertiesRepository) ListRelated(ctx context.Context, uprn int64) ([]domain.PropertyNode, error) {
	if uprn <= 0 {
		return nil, fmt.Errorf("uprn is required")
	}
	var exists int64
	err := r.db.QueryRowContext(ctx, `SELECT uprn FROM properties WHERE uprn = $1`, uprn).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		WITH RECURSIVE ancestors AS (
			SELECT uprn, parent_uprn, 0 AS hops FROM properties WHERE uprn = $1
			UNION
			SELECT p.uprn, p.parent_uprn, a.hops + 1
			FROM properties p
			JOIN ancestors a ON p.uprn = a.parent_uprn
			WHERE a.hops < 64
		), top AS (
			SELECT uprn FROM ancestors ORDER BY hops DESC LIMIT 1
		), family AS (
			SELECT uprn FROM top
			UNION
			SELECT p.uprn FROM properties p JOIN family f ON p.parent_uprn = f.uprn
		)
		SELECT uprn, parent_uprn, classification_code, easting, northing
		FROM properties
		WHERE uprn IN (SELECT uprn FROM family)
		ORDER BY uprn
	`, uprn)
	if err != nil {
		return nil, err
	}
	nodes, err := scanProperties(rows)
	if err != nil {
		return nil, err
	}
	return r.attachLPIs(ctx, nodes)
}

func scanProperties(rows *sql.Rows) ([]domain.PropertyNode, error) {
	defer rows.Close()
	out := []domain.PropertyNode{}
	for rows.Next() {
		var n domain.PropertyNode
		var parent sql.NullInt64
		var class sql.NullString
		if err := rows.Scan(&n.Uprn, &parent, &class, &n.Easting, &n.Northing); err != nil {
			return nil, err
		}
		if parent.Valid {
			p := parent.Int64
			n.ParentUprn = &p
		}
		n.ClassificationCode = class.String
		out = append(out, n)
	}
	return out, rows.Err()
}

// attachLPIs loads all LPIs for the nodes in one query and splits them into
// primary and additional.
func (r *PostgresPropertiesRepository) attachLPIs(ctx context.Context, nodes []domain.PropertyNode) ([]domain.PropertyNode, error) {
	if len(nodes) == 0 {
		return nodes, nil
	}
	uprns := make([]int64, len(nodes))
	index := make(map[int64]int, len(nodes))
	for i, n := range nodes {
		uprns[i] = n.Uprn
		index[n.Uprn] = i
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT uprn, language, address, logical_status, COALESCE(postcode, ''), is_primary
		FROM lpis
		WHERE uprn = ANY($1)
		ORDER BY uprn, is_primary DESC, language
	`, pq.Array(uprns))
	if err != nil {
		return nil, fmt.Errorf("list lpis: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var uprn int64
		var lang string
		var primary bool
		var l domain.LPI
		if err := rows.Scan(&uprn, &lang, &l.Address, &l.LogicalStatus, &l.Postcode, &primary); err != nil {
			return nil, err
		}
		l.Language = domain.Language(lang)
		i, ok := index[uprn]
		if !ok {
			continue
		}
		if primary {
			nodes[i].PrimaryLPI = l
		} else {
			nodes[i].AdditionalLPIs = append(nodes[i].AdditionalLPIs, l)
		}
	}
	return nodes, rows.Err()
}
