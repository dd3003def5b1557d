package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StubSender implements Sender without sending anything. It logs the message
// and returns a synthetic ID. Used when no SMTP relay is configured.
type StubSender struct {
	logger *slog.Logger
}

// Compile-time check that StubSender implements Sender.
var _ Sender = (*StubSender)(nil)

// NewStubSender creates a no-op email sender.
func NewStubSender(logger *slog.Logger) *StubSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubSender{logger: logger}
}

// Send logs the message and acknowledges it without dispatching.
func (s *StubSender) Send(ctx context.Context, email *Email) (string, error) {
	messageID := fmt.Sprintf("stub-%d", time.Now().UnixNano())

	s.logger.Info("email stub: message accepted without dispatch",
		"to", email.To,
		"subject", email.Subject,
		"message_id", messageID,
	)

	return messageID, nil
}
