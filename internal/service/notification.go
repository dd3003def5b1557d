package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/billwave/billwave/internal/domain"
	"github.com/billwave/billwave/internal/email"
	"github.com/billwave/billwave/internal/messaging"
)

// Notification-specific errors
var (
	ErrMessageRequired   = domain.Errorf(domain.EINVALID, "", "Message text is required")
	ErrNoRecipientMail   = domain.Errorf(domain.EINVALID, "", "Recipient email is required")
	ErrSubjectRequired   = domain.Errorf(domain.EINVALID, "", "Email subject is required")
	ErrEmailBodyRequired = domain.Errorf(domain.EINVALID, "", "Email body is required")
)

type notificationService struct {
	store    domain.InvoiceStore
	provider messaging.Provider
	mail     email.Sender
	logger   *slog.Logger
}

// NewNotificationService creates a new NotificationService instance.
func NewNotificationService(
	store domain.InvoiceStore,
	provider messaging.Provider,
	mail email.Sender,
	logger *slog.Logger,
) domain.NotificationService {
	return &notificationService{
		store:    store,
		provider: provider,
		mail:     mail,
		logger:   logger.With("service", "notification"),
	}
}

// SendInvoiceWhatsApp sends the rendered PDF as a WhatsApp media message.
// The artifact must exist before any provider traffic happens; the delivery
// outcome is recorded on the invoice either way.
func (s *notificationService) SendInvoiceWhatsApp(ctx context.Context, invoiceID string, params domain.SendInvoiceParams, principal *domain.Principal) (*domain.DeliveryReceipt, error) {
	inv, err := s.fetchAuthorized(ctx, invoiceID, principal)
	if err != nil {
		return nil, err
	}

	if inv.PDFURL == nil {
		return nil, domain.ErrPDFNotGenerated
	}

	to := params.To
	if to == "" {
		to = inv.CustomerPhone
	}
	if to == "" {
		return nil, domain.ErrNoCustomerPhone
	}

	message := params.Message
	if message == "" {
		message = defaultInvoiceMessage(inv)
	}

	msg, err := s.provider.SendMedia(ctx, to, message, *inv.PDFURL)
	if err != nil {
		s.recordDelivery(ctx, inv, domain.StatusFailed, domain.MethodWhatsApp)
		return nil, domain.Dependency(err, "notification.send_invoice", "Failed to send WhatsApp message")
	}

	s.recordDelivery(ctx, inv, domain.StatusSent, domain.MethodWhatsApp)

	return &domain.DeliveryReceipt{MessageID: msg.ID, Status: msg.Status}, nil
}

// SendText sends a freeform WhatsApp text. When linked to an invoice, the
// invoice's delivery status records the outcome.
func (s *notificationService) SendText(ctx context.Context, params domain.SendTextParams) (*domain.DeliveryReceipt, error) {
	if params.To == "" {
		return nil, domain.ErrNoRecipient
	}
	if params.Message == "" {
		return nil, ErrMessageRequired
	}

	var linked *domain.Invoice
	if params.InvoiceID != "" {
		inv, err := s.fetch(ctx, params.InvoiceID)
		if err != nil {
			return nil, err
		}
		linked = inv
	}

	msg, err := s.provider.SendText(ctx, params.To, params.Message)
	if err != nil {
		if linked != nil {
			s.recordDelivery(ctx, linked, domain.StatusFailed, domain.MethodWhatsApp)
		}
		return nil, domain.Dependency(err, "notification.send_text", "Failed to send WhatsApp message")
	}

	if linked != nil {
		s.recordDelivery(ctx, linked, domain.StatusSent, domain.MethodWhatsApp)
	}

	return &domain.DeliveryReceipt{MessageID: msg.ID, Status: msg.Status}, nil
}

// SendComplete performs the combined notification: a text message first,
// then, when an artifact exists, the PDF as a media message. The media leg
// runs only after a successful text leg. A media failure leaves the invoice
// partial and surfaces as an error alongside the partial result.
func (s *notificationService) SendComplete(ctx context.Context, invoiceID string, message string, principal *domain.Principal) (*domain.CombinedResult, error) {
	inv, err := s.fetchAuthorized(ctx, invoiceID, principal)
	if err != nil {
		return nil, err
	}

	if inv.CustomerPhone == "" {
		return nil, domain.ErrNoCustomerPhone
	}

	if message == "" {
		message = defaultInvoiceMessage(inv)
	}

	result := &domain.CombinedResult{InvoiceNumber: inv.InvoiceNumber}

	textMsg, err := s.provider.SendText(ctx, inv.CustomerPhone, message)
	if err != nil {
		s.recordDelivery(ctx, inv, domain.StatusFailed, domain.MethodComplete)
		return result, domain.Dependency(err, "notification.send_complete", "Failed to send WhatsApp message")
	}
	result.TextSent = true
	result.Text = &domain.DeliveryReceipt{MessageID: textMsg.ID, Status: textMsg.Status}

	if inv.PDFURL == nil {
		// Nothing to attach; the text alone counts as a full send.
		s.recordDelivery(ctx, inv, domain.StatusSent, domain.MethodComplete)
		return result, nil
	}

	mediaMsg, err := s.provider.SendMedia(ctx, inv.CustomerPhone, fmt.Sprintf("Invoice %s", inv.InvoiceNumber), *inv.PDFURL)
	if err != nil {
		s.recordDelivery(ctx, inv, domain.StatusPartial, domain.MethodComplete)
		return result, domain.Dependency(err, "notification.send_complete", "Invoice text sent but PDF delivery failed")
	}
	result.PDFSent = true
	result.Media = &domain.DeliveryReceipt{MessageID: mediaMsg.ID, Status: mediaMsg.Status}

	s.recordDelivery(ctx, inv, domain.StatusSent, domain.MethodComplete)

	return result, nil
}

// SendInvoiceEmail validates and acknowledges an email send. No invoice
// state is mutated by the email channel.
func (s *notificationService) SendInvoiceEmail(ctx context.Context, invoiceID string, params domain.SendEmailParams, principal *domain.Principal) error {
	inv, err := s.fetchAuthorized(ctx, invoiceID, principal)
	if err != nil {
		return err
	}

	to := params.To
	if to == "" {
		to = inv.CustomerEmail
	}
	if to == "" {
		return ErrNoRecipientMail
	}

	if params.Subject == "" {
		return ErrSubjectRequired
	}
	if params.HTML == "" {
		return ErrEmailBodyRequired
	}

	msgID, err := s.mail.Send(ctx, &email.Email{
		To:       []string{to},
		Subject:  params.Subject,
		HTMLBody: params.HTML,
	})
	if err != nil {
		return domain.Dependency(err, "notification.send_email", "Failed to send invoice email")
	}

	s.logger.Info("invoice email accepted",
		"invoice_id", inv.ID,
		"to", to,
		"message_id", msgID)

	return nil
}

// recordDelivery writes the delivery outcome onto the invoice. Transitions
// the state machine does not allow are logged and applied anyway;
// last write wins.
func (s *notificationService) recordDelivery(ctx context.Context, inv *domain.Invoice, status domain.WhatsAppStatus, method domain.NotificationMethod) {
	if !inv.WhatsAppStatus.CanTransition(status) {
		s.logger.Warn("unexpected delivery status transition",
			"invoice_id", inv.ID,
			"from", inv.WhatsAppStatus,
			"to", status)
	}

	now := time.Now()
	if _, err := s.store.UpdateDelivery(ctx, inv.ID, domain.DeliveryUpdate{
		WhatsAppStatus:     &status,
		LastNotification:   &now,
		NotificationMethod: &method,
	}); err != nil {
		s.logger.Error("failed to record delivery outcome",
			"invoice_id", inv.ID,
			"status", status,
			"error", err)
	}
}

func (s *notificationService) fetch(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return fetchInvoice(ctx, s.store, invoiceID)
}

func (s *notificationService) fetchAuthorized(ctx context.Context, invoiceID string, principal *domain.Principal) (*domain.Invoice, error) {
	inv, err := s.fetch(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := authorizeInvoice(inv, principal); err != nil {
		return nil, err
	}
	return inv, nil
}

// defaultInvoiceMessage composes the standard notification text.
func defaultInvoiceMessage(inv *domain.Invoice) string {
	return fmt.Sprintf("Invoice %s for %.2f is ready. Due: %s.",
		inv.InvoiceNumber, inv.TotalAmount, inv.DueDate.Format("02 Jan 2006"))
}
