// Package notification defines the fire-and-forget user notification
// boundary. Delivery failures must never affect the operation that
// triggered them; callers log and swallow errors from Notify.
package notification

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Kinds of notifications the wallet emits.
const (
	KindSwapCompleted     = "SWAP_COMPLETED"
	KindTransferReceived  = "TRANSFER_RECEIVED"
	KindWithdrawalPending = "WITHDRAWAL_PENDING"
	KindDepositCompleted  = "DEPOSIT_COMPLETED"
)

// Sink delivers user notifications.
type Sink interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, message, link string) error
}

// SlogSink logs notifications instead of delivering them. Useful in
// development and tests.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a logging sink.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Notify implements Sink.
func (s *SlogSink) Notify(
	_ context.Context,
	userID uuid.UUID,
	kind, title, message, link string,
) error {
	s.logger.Info("notification",
		"user_id", userID,
		"kind", kind,
		"title", title,
		"message", message,
		"link", link,
	)
	return nil
}
