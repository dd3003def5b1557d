package messaging

import (
	"context"
	"fmt"
)

// MockProvider is a mock WhatsApp provider for testing.
// Records every send without calling an external API.
type MockProvider struct {
	// SendTextFunc allows customizing text send behavior
	SendTextFunc func(ctx context.Context, to, body string) (*Message, error)

	// SendMediaFunc allows customizing media send behavior
	SendMediaFunc func(ctx context.Context, to, body, mediaURL string) (*Message, error)

	// Sent stores all accepted messages in order
	Sent []SentMessage

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// SentMessage captures the arguments of a single provider call.
type SentMessage struct {
	To       string
	Body     string
	MediaURL string
}

// Compile-time check that MockProvider implements Provider.
var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a new mock WhatsApp provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Sent:    []SentMessage{},
		CallLog: []string{},
	}
}

// SendText records a text send.
func (m *MockProvider) SendText(ctx context.Context, to, body string) (*Message, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("SendText(%s)", to))

	if m.SendTextFunc != nil {
		return m.SendTextFunc(ctx, to, body)
	}

	m.Sent = append(m.Sent, SentMessage{To: FormatWhatsAppNumber(to), Body: body})
	return &Message{
		ID:     fmt.Sprintf("SM_mock_%d", len(m.Sent)),
		Status: "queued",
	}, nil
}

// SendMedia records a media send.
func (m *MockProvider) SendMedia(ctx context.Context, to, body, mediaURL string) (*Message, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("SendMedia(%s, %s)", to, mediaURL))

	if m.SendMediaFunc != nil {
		return m.SendMediaFunc(ctx, to, body, mediaURL)
	}

	m.Sent = append(m.Sent, SentMessage{To: FormatWhatsAppNumber(to), Body: body, MediaURL: mediaURL})
	return &Message{
		ID:     fmt.Sprintf("MM_mock_%d", len(m.Sent)),
		Status: "queued",
	}, nil
}
