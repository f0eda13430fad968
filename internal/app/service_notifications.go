package app

import (
	"context"
	"database/sql"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/search"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
)

func (s *Service) ListNotifications(ctx context.Context, session Session, limit int) ([]store.EmailNotification, error) {
	return s.store.ListNotifications(ctx, session.UserID, limit)
}

func (s *Service) UnreadNotificationCount(ctx context.Context, session Session) (int, error) {
	return s.store.UnreadNotificationCount(ctx, session.UserID)
}

func (s *Service) MarkNotificationRead(ctx context.Context, session Session, notificationID string) error {
	marked, err := s.store.MarkNotificationRead(ctx, session.UserID, notificationID)
	if err != nil {
		return err
	}
	if !marked {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, session Session) error {
	return s.store.MarkAllNotificationsRead(ctx, session.UserID)
}

// Search runs a cross-entity search. Results are not permission-filtered
// beyond requiring a session; tasks, clients, and group messages are all
// visible to signed-in team members.
func (s *Service) Search(ctx context.Context, q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(ctx, q)
}
