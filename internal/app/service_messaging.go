package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/search"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/util"
)

func (s *Service) ListConversations(ctx context.Context, session Session) ([]store.Conversation, error) {
	return s.store.ListConversations(ctx, session.UserID)
}

func (s *Service) ListDirectMessages(ctx context.Context, session Session, partnerID string, limit int) ([]store.DirectMessage, error) {
	if _, err := s.store.GetUserByID(ctx, partnerID); err != nil {
		return nil, err
	}
	return s.store.ListDirectMessages(ctx, session.UserID, partnerID, limit)
}

func (s *Service) SendDirectMessage(ctx context.Context, session Session, recipientID, body string) (store.DirectMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return store.DirectMessage{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body is required", nil)
	}
	if recipientID == session.UserID {
		return store.DirectMessage{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "cannot message yourself", nil)
	}
	if _, err := s.store.GetUserByID(ctx, recipientID); err != nil {
		return store.DirectMessage{}, err
	}

	message := store.DirectMessage{
		ID:          util.NewID("msg"),
		SenderID:    session.UserID,
		RecipientID: recipientID,
		Body:        body,
	}
	if err := s.store.InsertDirectMessage(ctx, message); err != nil {
		return store.DirectMessage{}, err
	}

	s.broadcastTo(recipientID, "message:direct", map[string]any{
		"id":         message.ID,
		"senderId":   session.UserID,
		"senderName": session.UserName,
		"body":       body,
	})
	// Offline recipients get the email instead of the live event.
	if !s.userOnline(recipientID) {
		s.notify(ctx, recipientID, "direct-message",
			fmt.Sprintf("New message from %s", session.UserName),
			"New direct message",
			fmt.Sprintf("%s sent you a message.", session.UserName),
			"/messages/"+session.UserID)
	}
	return message, nil
}

func (s *Service) MarkDirectMessagesRead(ctx context.Context, session Session, partnerID string) error {
	return s.store.MarkDirectMessagesRead(ctx, session.UserID, partnerID)
}

func (s *Service) CreateChannel(ctx context.Context, session Session, name, description string) (store.Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Channel{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	channel := store.Channel{
		ID:          util.NewID("chn"),
		Name:        name,
		Description: description,
		CreatedBy:   session.UserID,
	}
	if err := s.store.InsertChannel(ctx, channel); err != nil {
		return store.Channel{}, err
	}
	return channel, nil
}

func (s *Service) ListMyChannels(ctx context.Context, session Session) ([]store.Channel, error) {
	return s.store.ListUserChannels(ctx, session.UserID)
}

func (s *Service) GetChannel(ctx context.Context, session Session, channelID string) (store.Channel, []store.ChannelMember, error) {
	if err := s.requireChannelMember(ctx, session, channelID); err != nil {
		return store.Channel{}, nil, err
	}
	channel, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		return store.Channel{}, nil, err
	}
	members, err := s.store.ListChannelMembers(ctx, channelID)
	if err != nil {
		return store.Channel{}, nil, err
	}
	return channel, members, nil
}

func (s *Service) AddChannelMember(ctx context.Context, session Session, channelID, userID string) error {
	if err := s.requireChannelAdmin(ctx, session, channelID); err != nil {
		return err
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return err
	}
	if err := s.store.AddChannelMember(ctx, channelID, userID, false); err != nil {
		return err
	}
	channel, err := s.store.GetChannel(ctx, channelID)
	if err == nil {
		s.broadcastTo(userID, "channel:added", map[string]any{
			"channelId": channelID,
			"name":      channel.Name,
		})
	}
	return nil
}

func (s *Service) RemoveChannelMember(ctx context.Context, session Session, channelID, userID string) error {
	// Members may leave on their own; removing someone else needs admin.
	if userID != session.UserID {
		if err := s.requireChannelAdmin(ctx, session, channelID); err != nil {
			return err
		}
	}
	return s.store.RemoveChannelMember(ctx, channelID, userID)
}

func (s *Service) ListGroupMessages(ctx context.Context, session Session, channelID string, limit int) ([]store.GroupMessage, error) {
	if err := s.requireChannelMember(ctx, session, channelID); err != nil {
		return nil, err
	}
	return s.store.ListGroupMessages(ctx, channelID, limit)
}

func (s *Service) PostGroupMessage(ctx context.Context, session Session, channelID, body string) (store.GroupMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return store.GroupMessage{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body is required", nil)
	}
	if err := s.requireChannelMember(ctx, session, channelID); err != nil {
		return store.GroupMessage{}, err
	}
	channel, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		return store.GroupMessage{}, err
	}

	message := store.GroupMessage{
		ID:        util.NewID("gms"),
		ChannelID: channelID,
		SenderID:  session.UserID,
		Body:      body,
	}
	if err := s.store.InsertGroupMessage(ctx, message); err != nil {
		return store.GroupMessage{}, err
	}
	message.SenderName = session.UserName

	members, err := s.store.ListChannelMembers(ctx, channelID)
	if err == nil {
		targets := make([]string, 0, len(members))
		for _, m := range members {
			if m.UserID != session.UserID {
				targets = append(targets, m.UserID)
			}
		}
		s.broadcast(targets, "message:group", map[string]any{
			"id":         message.ID,
			"channelId":  channelID,
			"senderId":   session.UserID,
			"senderName": session.UserName,
			"body":       body,
		})
		for _, userID := range targets {
			if s.userOnline(userID) {
				continue
			}
			s.notify(ctx, userID, "group-message",
				"New message in "+channel.Name,
				"New group message",
				fmt.Sprintf("%s posted in a channel you belong to.", session.UserName),
				"/channels/"+channelID)
		}
	}

	if s.search != nil {
		s.search.IndexMessage(search.MessageRecord{
			ID:         message.ID,
			Body:       body,
			ChannelID:  channelID,
			SenderName: session.UserName,
		})
	}
	return message, nil
}

func (s *Service) requireChannelMember(ctx context.Context, session Session, channelID string) error {
	if session.IsAdmin {
		return nil
	}
	member, err := s.store.IsChannelMember(ctx, channelID, session.UserID)
	if err != nil {
		return err
	}
	if !member {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Not a channel member", nil)
	}
	return nil
}

func (s *Service) requireChannelAdmin(ctx context.Context, session Session, channelID string) error {
	if session.IsAdmin {
		return nil
	}
	admin, err := s.store.IsChannelAdmin(ctx, channelID, session.UserID)
	if err != nil {
		return err
	}
	if !admin {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Channel admin required", nil)
	}
	return nil
}
