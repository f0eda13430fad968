package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrInsufficientStock = errors.New("insufficient stock")

const stockColumns = `id, name, description, cost_cents, quantity, low_quantity_threshold, assigned_to, created_at, updated_at`

func (s *PostgresStore) ListStockItems(ctx context.Context) ([]StockItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+stockColumns+`
		FROM stock_items
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list stock items: %w", err)
	}
	defer rows.Close()

	items := make([]StockItem, 0)
	for rows.Next() {
		var item StockItem
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.CostCents,
			&item.Quantity,
			&item.LowQuantityThreshold,
			&item.AssignedTo,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetStockItem(ctx context.Context, itemID string) (StockItem, error) {
	var item StockItem
	err := s.db.QueryRowContext(ctx, `
		SELECT `+stockColumns+`
		FROM stock_items
		WHERE id=$1
	`, itemID).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.CostCents,
		&item.Quantity,
		&item.LowQuantityThreshold,
		&item.AssignedTo,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return StockItem{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertStockItem(ctx context.Context, item StockItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_items (id, name, description, cost_cents, quantity, low_quantity_threshold, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.Name, item.Description, item.CostCents, item.Quantity, item.LowQuantityThreshold, item.AssignedTo)
	if err != nil {
		return fmt.Errorf("insert stock item: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateStockItem(ctx context.Context, item StockItem) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE stock_items
		SET name=$2, description=$3, cost_cents=$4, low_quantity_threshold=$5, assigned_to=$6, updated_at=NOW()
		WHERE id=$1
	`, item.ID, item.Name, item.Description, item.CostCents, item.LowQuantityThreshold, item.AssignedTo)
	if err != nil {
		return fmt.Errorf("update stock item: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteStockItem(ctx context.Context, itemID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM stock_items WHERE id=$1`, itemID)
	if err != nil {
		return fmt.Errorf("delete stock item: %w", err)
	}
	return nil
}

// AdjustStockQuantity applies the delta and records the movement in one
// transaction. Returns the resulting quantity. A delta that would push the
// quantity negative returns ErrInsufficientStock and changes nothing.
func (s *PostgresStore) AdjustStockQuantity(ctx context.Context, movement StockMovement) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin stock adjust: %w", err)
	}

	var quantity int
	err = tx.QueryRowContext(ctx, `
		UPDATE stock_items
		SET quantity = quantity + $2, updated_at=NOW()
		WHERE id=$1 AND quantity + $2 >= 0
		RETURNING quantity
	`, movement.ItemID, movement.Delta).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		// Distinguish a missing item from an underflow.
		var exists bool
		if checkErr := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM stock_items WHERE id=$1)`, movement.ItemID).Scan(&exists); checkErr != nil {
			return 0, fmt.Errorf("check stock item: %w", checkErr)
		}
		if !exists {
			return 0, sql.ErrNoRows
		}
		return 0, ErrInsufficientStock
	}
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("adjust stock quantity: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stock_movements (id, item_id, delta, reason, performed_by)
		VALUES ($1, $2, $3, $4, $5)
	`, movement.ID, movement.ItemID, movement.Delta, movement.Reason, movement.PerformedBy); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert stock movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit stock adjust: %w", err)
	}
	return quantity, nil
}

func (s *PostgresStore) ListStockMovements(ctx context.Context, itemID string, limit int) ([]StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, delta, reason, performed_by, created_at
		FROM stock_movements
		WHERE item_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	items := make([]StockMovement, 0)
	for rows.Next() {
		var item StockMovement
		if err := rows.Scan(&item.ID, &item.ItemID, &item.Delta, &item.Reason, &item.PerformedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock movements: %w", err)
	}
	return items, nil
}
