package store

import (
	"context"
	"fmt"
	"time"
)

func (s *PostgresStore) ListExpenses(ctx context.Context, limit int) ([]Expense, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, amount_cents, category, incurred_on, recorded_by, created_at
		FROM expenses
		ORDER BY incurred_on DESC, created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	items := make([]Expense, 0)
	for rows.Next() {
		var item Expense
		if err := rows.Scan(&item.ID, &item.Description, &item.AmountCents, &item.Category, &item.IncurredOn, &item.RecordedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetExpense(ctx context.Context, expenseID string) (Expense, error) {
	var item Expense
	err := s.db.QueryRowContext(ctx, `
		SELECT id, description, amount_cents, category, incurred_on, recorded_by, created_at
		FROM expenses
		WHERE id=$1
	`, expenseID).Scan(&item.ID, &item.Description, &item.AmountCents, &item.Category, &item.IncurredOn, &item.RecordedBy, &item.CreatedAt)
	if err != nil {
		return Expense{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertExpense(ctx context.Context, expense Expense) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, description, amount_cents, category, incurred_on, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, expense.ID, expense.Description, expense.AmountCents, expense.Category, expense.IncurredOn, expense.RecordedBy)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateExpense(ctx context.Context, expense Expense) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET description=$2, amount_cents=$3, category=$4, incurred_on=$5
		WHERE id=$1
	`, expense.ID, expense.Description, expense.AmountCents, expense.Category, expense.IncurredOn)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteExpense(ctx context.Context, expenseID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id=$1`, expenseID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// MonthlyExpenseSummary totals expenses per category for the month containing day.
func (s *PostgresStore) MonthlyExpenseSummary(ctx context.Context, day time.Time) ([]CategoryTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COALESCE(SUM(amount_cents), 0)
		FROM expenses
		WHERE date_trunc('month', incurred_on) = date_trunc('month', $1::date)
		GROUP BY category
		ORDER BY category ASC
	`, day)
	if err != nil {
		return nil, fmt.Errorf("monthly expense summary: %w", err)
	}
	defer rows.Close()

	items := make([]CategoryTotal, 0)
	for rows.Next() {
		var item CategoryTotal
		if err := rows.Scan(&item.Category, &item.TotalCents); err != nil {
			return nil, fmt.Errorf("scan expense summary: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense summary: %w", err)
	}
	return items, nil
}
