// Package readsync pushes read receipts to the server and mirrors them into
// the local conversation state. Failures are logged and dropped: a receipt
// that does not land is retried implicitly the next time the conversation is
// opened, so nothing here surfaces errors to the caller.
package readsync

import (
	"context"

	"go.uber.org/zap"
)

// API is the slice of the messages service the synchronizer needs.
type API interface {
	MarkRead(ctx context.Context, partnerID int64) error
}

// Target receives the local side of a confirmed read receipt.
type Target interface {
	MarkThreadRead(partnerID int64)
}

// Synchronizer marks conversations as read, fire-and-forget.
type Synchronizer struct {
	msgs   API
	logger *zap.Logger
}

func New(msgs API, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{msgs: msgs, logger: logger}
}

// Sync tells the server the conversation with partnerID has been read, then
// updates the local thread and unread counters on success. On failure the
// local state is left untouched so the unread badge stays accurate.
func (s *Synchronizer) Sync(ctx context.Context, partnerID int64, target Target) {
	if err := s.msgs.MarkRead(ctx, partnerID); err != nil {
		s.logger.Warn("mark read failed", zap.Int64("partner_id", partnerID), zap.Error(err))
		return
	}
	target.MarkThreadRead(partnerID)
	s.logger.Debug("conversation marked read", zap.Int64("partner_id", partnerID))
}
