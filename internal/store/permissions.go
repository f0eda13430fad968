package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (s *PostgresStore) GetPermission(ctx context.Context, userID, feature string) (Permission, error) {
	var item Permission
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, feature, can_view, can_manage, can_adjust, can_delete
		FROM feature_permissions
		WHERE user_id=$1 AND feature=$2
	`, userID, feature).Scan(&item.UserID, &item.Feature, &item.CanView, &item.CanManage, &item.CanAdjust, &item.CanDelete)
	if errors.Is(err, sql.ErrNoRows) {
		// No row means no access; the feature gates default closed.
		return Permission{UserID: userID, Feature: feature}, nil
	}
	if err != nil {
		return Permission{}, fmt.Errorf("get permission: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListPermissions(ctx context.Context, feature string) ([]Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, feature, can_view, can_manage, can_adjust, can_delete
		FROM feature_permissions
		WHERE feature=$1
		ORDER BY user_id ASC
	`, feature)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	items := make([]Permission, 0)
	for rows.Next() {
		var item Permission
		if err := rows.Scan(&item.UserID, &item.Feature, &item.CanView, &item.CanManage, &item.CanAdjust, &item.CanDelete); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) SavePermission(ctx context.Context, perm Permission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feature_permissions (user_id, feature, can_view, can_manage, can_adjust, can_delete)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, feature) DO UPDATE SET
			can_view=EXCLUDED.can_view,
			can_manage=EXCLUDED.can_manage,
			can_adjust=EXCLUDED.can_adjust,
			can_delete=EXCLUDED.can_delete,
			updated_at=NOW()
	`, perm.UserID, perm.Feature, perm.CanView, perm.CanManage, perm.CanAdjust, perm.CanDelete)
	if err != nil {
		return fmt.Errorf("save permission: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeletePermission(ctx context.Context, userID, feature string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM feature_permissions WHERE user_id=$1 AND feature=$2
	`, userID, feature)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	return nil
}

// ListManagers returns ids of users holding can_manage on a feature.
// Used for stock-alert fan-out.
func (s *PostgresStore) ListManagers(ctx context.Context, feature string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM feature_permissions WHERE feature=$1 AND can_manage
		UNION
		SELECT id FROM users WHERE is_admin AND deactivated_at IS NULL
	`, feature)
	if err != nil {
		return nil, fmt.Errorf("list managers: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan manager: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate managers: %w", err)
	}
	return ids, nil
}
