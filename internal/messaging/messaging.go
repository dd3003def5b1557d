// Package messaging provides outbound WhatsApp delivery through a provider
// abstraction. The production implementation uses Twilio.
package messaging

import (
	"context"
	"regexp"
	"strings"
)

// Message is the provider acknowledgement for a single accepted message.
type Message struct {
	ID     string
	Status string
}

// Provider sends WhatsApp messages. Recipients may be given in any common
// human format; implementations normalize before dialing the provider.
type Provider interface {
	// SendText sends a plain text message.
	SendText(ctx context.Context, to, body string) (*Message, error)

	// SendMedia sends a message carrying a media attachment by URL.
	SendMedia(ctx context.Context, to, body, mediaURL string) (*Message, error)
}

var sugarPattern = regexp.MustCompile(`[()\s-]+`)

// FormatWhatsAppNumber normalizes a phone number into the canonical
// "whatsapp:+<digits>" form. Formatting sugar (spaces, dashes, parentheses)
// is stripped, an existing channel prefix is honored, and a missing leading
// "+" is added. Two sugar variants of the same number normalize identically.
func FormatWhatsAppNumber(number string) string {
	n := sugarPattern.ReplaceAllString(number, "")
	n = strings.TrimPrefix(n, "whatsapp:")
	if !strings.HasPrefix(n, "+") {
		n = "+" + n
	}
	return "whatsapp:" + n
}
