package store

import (
	"context"
	"fmt"
)

func (s *PostgresStore) InsertDirectMessage(ctx context.Context, message DirectMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO direct_messages (id, sender_id, recipient_id, body)
		VALUES ($1, $2, $3, $4)
	`, message.ID, message.SenderID, message.RecipientID, message.Body)
	if err != nil {
		return fmt.Errorf("insert direct message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDirectMessages(ctx context.Context, userID, partnerID string, limit int) ([]DirectMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, recipient_id, body, read_at, created_at
		FROM direct_messages
		WHERE (sender_id=$1 AND recipient_id=$2) OR (sender_id=$2 AND recipient_id=$1)
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, partnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list direct messages: %w", err)
	}
	defer rows.Close()

	items := make([]DirectMessage, 0)
	for rows.Next() {
		var item DirectMessage
		if err := rows.Scan(&item.ID, &item.SenderID, &item.RecipientID, &item.Body, &item.ReadAt, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan direct message: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate direct messages: %w", err)
	}
	// Reverse into chronological order; the query reads newest-first to apply the limit.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

func (s *PostgresStore) MarkDirectMessagesRead(ctx context.Context, userID, partnerID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE direct_messages SET read_at=NOW()
		WHERE recipient_id=$1 AND sender_id=$2 AND read_at IS NULL
	`, userID, partnerID)
	if err != nil {
		return fmt.Errorf("mark direct messages read: %w", err)
	}
	return nil
}

// ListConversations returns one row per messaging partner with the latest
// exchanged message and that partner's unread count.
func (s *PostgresStore) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH partners AS (
			SELECT DISTINCT CASE WHEN sender_id=$1 THEN recipient_id ELSE sender_id END AS partner_id
			FROM direct_messages
			WHERE sender_id=$1 OR recipient_id=$1
		)
		SELECT
			p.partner_id,
			u.username,
			dm.body,
			dm.created_at,
			(SELECT COUNT(*) FROM direct_messages
				WHERE recipient_id=$1 AND sender_id=p.partner_id AND read_at IS NULL) AS unread
		FROM partners p
		JOIN users u ON u.id = p.partner_id
		JOIN LATERAL (
			SELECT body, created_at
			FROM direct_messages
			WHERE (sender_id=$1 AND recipient_id=p.partner_id) OR (sender_id=p.partner_id AND recipient_id=$1)
			ORDER BY created_at DESC
			LIMIT 1
		) dm ON TRUE
		ORDER BY dm.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	items := make([]Conversation, 0)
	for rows.Next() {
		var item Conversation
		if err := rows.Scan(&item.PartnerID, &item.PartnerName, &item.LastBody, &item.LastAt, &item.Unread); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertChannel(ctx context.Context, channel Channel) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert channel: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO group_channels (id, name, description, created_by)
		VALUES ($1, $2, $3, $4)
	`, channel.ID, channel.Name, channel.Description, channel.CreatedBy); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert channel: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO group_members (channel_id, user_id, is_admin)
		VALUES ($1, $2, TRUE)
	`, channel.ID, channel.CreatedBy); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert channel creator: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert channel: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetChannel(ctx context.Context, channelID string) (Channel, error) {
	var item Channel
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_by, created_at
		FROM group_channels
		WHERE id=$1
	`, channelID).Scan(&item.ID, &item.Name, &item.Description, &item.CreatedBy, &item.CreatedAt)
	if err != nil {
		return Channel{}, err
	}
	return item, nil
}

func (s *PostgresStore) ListUserChannels(ctx context.Context, userID string) ([]Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.created_by, c.created_at
		FROM group_channels c
		JOIN group_members m ON m.channel_id = c.id
		WHERE m.user_id=$1
		ORDER BY c.name ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user channels: %w", err)
	}
	defer rows.Close()

	items := make([]Channel, 0)
	for rows.Next() {
		var item Channel
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.CreatedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) AddChannelMember(ctx context.Context, channelID, userID string, isAdmin bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO group_members (channel_id, user_id, is_admin)
		VALUES ($1, $2, $3)
		ON CONFLICT (channel_id, user_id) DO NOTHING
	`, channelID, userID, isAdmin)
	if err != nil {
		return fmt.Errorf("add channel member: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveChannelMember(ctx context.Context, channelID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM group_members WHERE channel_id=$1 AND user_id=$2
	`, channelID, userID)
	if err != nil {
		return fmt.Errorf("remove channel member: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListChannelMembers(ctx context.Context, channelID string) ([]ChannelMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.channel_id, m.user_id, u.username, m.is_admin, m.joined_at
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.channel_id=$1
		ORDER BY u.username ASC
	`, channelID)
	if err != nil {
		return nil, fmt.Errorf("list channel members: %w", err)
	}
	defer rows.Close()

	items := make([]ChannelMember, 0)
	for rows.Next() {
		var item ChannelMember
		if err := rows.Scan(&item.ChannelID, &item.UserID, &item.Username, &item.IsAdmin, &item.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan channel member: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channel members: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) IsChannelMember(ctx context.Context, channelID, userID string) (bool, error) {
	var member bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM group_members WHERE channel_id=$1 AND user_id=$2)
	`, channelID, userID).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("check channel member: %w", err)
	}
	return member, nil
}

func (s *PostgresStore) IsChannelAdmin(ctx context.Context, channelID, userID string) (bool, error) {
	var admin bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM group_members WHERE channel_id=$1 AND user_id=$2 AND is_admin)
	`, channelID, userID).Scan(&admin)
	if err != nil {
		return false, fmt.Errorf("check channel admin: %w", err)
	}
	return admin, nil
}

func (s *PostgresStore) InsertGroupMessage(ctx context.Context, message GroupMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO group_messages (id, channel_id, sender_id, body)
		VALUES ($1, $2, $3, $4)
	`, message.ID, message.ChannelID, message.SenderID, message.Body)
	if err != nil {
		return fmt.Errorf("insert group message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListGroupMessages(ctx context.Context, channelID string, limit int) ([]GroupMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT gm.id, gm.channel_id, gm.sender_id, u.username, gm.body, gm.created_at
		FROM group_messages gm
		JOIN users u ON u.id = gm.sender_id
		WHERE gm.channel_id=$1
		ORDER BY gm.created_at DESC
		LIMIT $2
	`, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("list group messages: %w", err)
	}
	defer rows.Close()

	items := make([]GroupMessage, 0)
	for rows.Next() {
		var item GroupMessage
		if err := rows.Scan(&item.ID, &item.ChannelID, &item.SenderID, &item.SenderName, &item.Body, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan group message: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group messages: %w", err)
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}
