package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// NextProformaNumber reserves a sequential number of the form PF-<year>-<seq>.
func (s *PostgresStore) NextProformaNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT nextval('proforma_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("next proforma number: %w", err)
	}
	return fmt.Sprintf("PF-%d-%04d", time.Now().Year(), seq), nil
}

const proformaColumns = `p.id, p.number, p.client_id, c.name, p.status, p.notes, p.items, p.total_cents, p.created_by, p.created_at, p.updated_at`

func (s *PostgresStore) ListProformas(ctx context.Context) ([]Proforma, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+proformaColumns+`
		FROM proformas p
		JOIN clients c ON c.id = p.client_id
		ORDER BY p.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list proformas: %w", err)
	}
	defer rows.Close()

	items := make([]Proforma, 0)
	for rows.Next() {
		item, err := scanProforma(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proformas: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProforma(ctx context.Context, proformaID string) (Proforma, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+proformaColumns+`
		FROM proformas p
		JOIN clients c ON c.id = p.client_id
		WHERE p.id=$1
	`, proformaID)
	return scanProforma(row.Scan)
}

func scanProforma(scan func(...any) error) (Proforma, error) {
	var item Proforma
	var itemsRaw []byte
	if err := scan(
		&item.ID,
		&item.Number,
		&item.ClientID,
		&item.ClientName,
		&item.Status,
		&item.Notes,
		&itemsRaw,
		&item.TotalCents,
		&item.CreatedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return Proforma{}, err
	}
	if err := json.Unmarshal(itemsRaw, &item.Items); err != nil {
		return Proforma{}, fmt.Errorf("unmarshal proforma items: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) InsertProforma(ctx context.Context, proforma Proforma) error {
	encoded, err := json.Marshal(proforma.Items)
	if err != nil {
		return fmt.Errorf("marshal proforma items: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO proformas (id, number, client_id, status, notes, items, total_cents, created_by)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)
	`, proforma.ID, proforma.Number, proforma.ClientID, proforma.Status, proforma.Notes, string(encoded), proforma.TotalCents, proforma.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert proforma: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProforma(ctx context.Context, proforma Proforma) error {
	encoded, err := json.Marshal(proforma.Items)
	if err != nil {
		return fmt.Errorf("marshal proforma items: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE proformas
		SET status=$2, notes=$3, items=$4::jsonb, total_cents=$5, updated_at=NOW()
		WHERE id=$1
	`, proforma.ID, proforma.Status, proforma.Notes, string(encoded), proforma.TotalCents)
	if err != nil {
		return fmt.Errorf("update proforma: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteProforma(ctx context.Context, proformaID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM proformas WHERE id=$1`, proformaID)
	if err != nil {
		return fmt.Errorf("delete proforma: %w", err)
	}
	return nil
}
