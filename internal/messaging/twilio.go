package messaging

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioProvider implements Provider using the Twilio WhatsApp API.
type TwilioProvider struct {
	client *twilio.RestClient
	from   string
}

// Compile-time check that TwilioProvider implements Provider.
var _ Provider = (*TwilioProvider)(nil)

// NewTwilioProvider creates a Twilio-backed WhatsApp provider.
// from is the sending number, e.g. "whatsapp:+14155238886".
func NewTwilioProvider(accountSID, authToken, from string) (*TwilioProvider, error) {
	if accountSID == "" || authToken == "" {
		return nil, fmt.Errorf("twilio credentials are required")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioProvider{
		client: client,
		from:   FormatWhatsAppNumber(from),
	}, nil
}

// SendText sends a plain text WhatsApp message.
func (p *TwilioProvider) SendText(ctx context.Context, to, body string) (*Message, error) {
	params := &api.CreateMessageParams{}
	params.SetTo(FormatWhatsAppNumber(to))
	params.SetFrom(p.from)
	params.SetBody(body)

	resp, err := p.client.Api.CreateMessage(params)
	if err != nil {
		return nil, fmt.Errorf("failed to send WhatsApp message: %w", err)
	}

	return messageFromResponse(resp), nil
}

// SendMedia sends a WhatsApp message with a media attachment.
func (p *TwilioProvider) SendMedia(ctx context.Context, to, body, mediaURL string) (*Message, error) {
	params := &api.CreateMessageParams{}
	params.SetTo(FormatWhatsAppNumber(to))
	params.SetFrom(p.from)
	params.SetBody(body)
	params.SetMediaUrl([]string{mediaURL})

	resp, err := p.client.Api.CreateMessage(params)
	if err != nil {
		return nil, fmt.Errorf("failed to send WhatsApp media message: %w", err)
	}

	return messageFromResponse(resp), nil
}

func messageFromResponse(resp *api.ApiV2010Message) *Message {
	msg := &Message{}
	if resp.Sid != nil {
		msg.ID = *resp.Sid
	}
	if resp.Status != nil {
		msg.Status = *resp.Status
	}
	return msg
}
