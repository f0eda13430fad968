package store

import (
	"context"
	"fmt"
)

func (s *PostgresStore) InsertEmailNotification(ctx context.Context, n EmailNotification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_notifications (id, user_id, kind, subject, body_html, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
	`, n.ID, n.UserID, n.Kind, n.Subject, n.BodyHTML)
	if err != nil {
		return fmt.Errorf("insert email notification: %w", err)
	}
	return nil
}

// ClaimPendingNotifications returns the oldest pending rows joined with the
// recipient's email address. Claiming does not change status; the worker is
// the only consumer.
func (s *PostgresStore) ClaimPendingNotifications(ctx context.Context, limit int) ([]PendingNotification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.user_id, u.email, n.subject, n.body_html
		FROM email_notifications n
		JOIN users u ON u.id = n.user_id
		WHERE n.status='pending'
		ORDER BY n.created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim pending notifications: %w", err)
	}
	defer rows.Close()

	items := make([]PendingNotification, 0)
	for rows.Next() {
		var item PendingNotification
		if err := rows.Scan(&item.ID, &item.UserID, &item.Email, &item.Subject, &item.BodyHTML); err != nil {
			return nil, fmt.Errorf("scan pending notification: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending notifications: %w", err)
	}
	return items, nil
}

type PendingNotification struct {
	ID       string
	UserID   string
	Email    string
	Subject  string
	BodyHTML string
}

func (s *PostgresStore) MarkNotificationSent(ctx context.Context, notificationID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE email_notifications SET status='sent', sent_at=NOW()
		WHERE id=$1 AND status='pending'
	`, notificationID)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkNotificationFailed(ctx context.Context, notificationID, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE email_notifications SET status='failed', failure_reason=$2
		WHERE id=$1 AND status='pending'
	`, notificationID, reason)
	if err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListNotifications(ctx context.Context, userID string, limit int) ([]EmailNotification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, kind, subject, body_html, status, failure_reason, read, created_at, sent_at
		FROM email_notifications
		WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]EmailNotification, 0)
	for rows.Next() {
		var item EmailNotification
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Kind,
			&item.Subject,
			&item.BodyHTML,
			&item.Status,
			&item.FailureReason,
			&item.Read,
			&item.CreatedAt,
			&item.SentAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM email_notifications WHERE user_id=$1 AND NOT read
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE email_notifications SET read=TRUE WHERE id=$1 AND user_id=$2
	`, notificationID, userID)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark notification read rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE email_notifications SET read=TRUE WHERE user_id=$1 AND NOT read
	`, userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
