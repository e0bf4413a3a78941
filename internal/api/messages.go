package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/solemarket/solechat/internal/model"
	"github.com/solemarket/solechat/internal/rest"
)

// MessageService wraps the /messages endpoints.
type MessageService struct {
	client *rest.Client
	logger *zap.Logger
}

// NewMessageService creates a message service over the transport client.
func NewMessageService(client *rest.Client, logger *zap.Logger) *MessageService {
	return &MessageService{client: client, logger: logger}
}

// Partners fetches the conversation partner list. Records missing an id or
// username are dropped here so malformed server data never reaches the cache.
func (s *MessageService) Partners(ctx context.Context) ([]model.Partner, error) {
	var raw []model.Partner
	if err := s.client.Do(ctx, http.MethodGet, "/messages/partners", nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch partners: %w", err)
	}

	valid := make([]model.Partner, 0, len(raw))
	for i := range raw {
		if raw[i].Valid() {
			valid = append(valid, raw[i])
		} else if s.logger != nil {
			s.logger.Warn("dropping malformed partner record", zap.Int64("id", raw[i].ID))
		}
	}
	return valid, nil
}

// Conversation fetches the thread with partnerID, oldest first (server
// ordering is trusted, never re-sorted). A 404 means no conversation yet and
// yields an empty thread. Malformed records are dropped.
func (s *MessageService) Conversation(ctx context.Context, partnerID int64) ([]model.Message, error) {
	var raw []model.Message
	err := s.client.Do(ctx, http.MethodGet, fmt.Sprintf("/messages/conversation/%d", partnerID), nil, &raw)
	if errors.Is(err, rest.ErrNotFound) {
		return []model.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch conversation %d: %w", partnerID, err)
	}

	valid := make([]model.Message, 0, len(raw))
	for i := range raw {
		if raw[i].Valid() {
			valid = append(valid, raw[i])
		} else if s.logger != nil {
			s.logger.Warn("dropping malformed message record", zap.Int64("id", raw[i].ID))
		}
	}
	return valid, nil
}

// MarkRead marks every message from partnerID to the signed-in user as read.
func (s *MessageService) MarkRead(ctx context.Context, partnerID int64) error {
	path := fmt.Sprintf("/messages/conversation/%d/read", partnerID)
	if err := s.client.Do(ctx, http.MethodPatch, path, nil, nil); err != nil {
		return fmt.Errorf("mark read %d: %w", partnerID, err)
	}
	return nil
}

// SendRequest is the outgoing message payload. Media fields are set only for
// attachment sends; MediaURL carries the inline-encoded payload.
type SendRequest struct {
	ReceiverID    int64             `json:"receiverId"`
	Content       string            `json:"content"`
	MessageType   model.MessageType `json:"messageType,omitempty"`
	MediaURL      string            `json:"mediaUrl,omitempty"`
	MediaFileName string            `json:"mediaFileName,omitempty"`
	MediaMimeType string            `json:"mediaMimeType,omitempty"`
	MediaSize     int64             `json:"mediaSize,omitempty"`
}

// Send posts a new message and returns the server-confirmed record.
func (s *MessageService) Send(ctx context.Context, req SendRequest) (*model.Message, error) {
	var msg model.Message
	if err := s.client.Do(ctx, http.MethodPost, "/messages", req, &msg); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &msg, nil
}

// UnreadCount fetches the total unread count for the navigation badge.
func (s *MessageService) UnreadCount(ctx context.Context) (int, error) {
	var payload struct {
		Count int `json:"count"`
	}
	if err := s.client.Do(ctx, http.MethodGet, "/messages/unread-count", nil, &payload); err != nil {
		return 0, fmt.Errorf("fetch unread count: %w", err)
	}
	return payload.Count, nil
}
