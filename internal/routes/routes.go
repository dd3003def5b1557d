package routes

import (
	"net/http"

	"github.com/billwave/billwave/internal/handler"
	"github.com/billwave/billwave/internal/handler/webhook"
	"github.com/billwave/billwave/internal/middleware"
	"github.com/billwave/billwave/internal/router"
)

// Deps contains the handlers and middleware the route table wires together.
type Deps struct {
	Invoices      *handler.InvoiceHandler
	Notifications *handler.NotificationHandler
	Auth          *handler.AuthHandler
	Payments      *handler.PaymentHandler
	StripeWebhook *webhook.StripeHandler

	Metrics *middleware.Metrics

	// StaticDir serves stored PDFs when local storage is configured.
	// Empty disables the route.
	StaticDir string
}

// Register wires the full route table onto the router.
func Register(r *router.Router, deps Deps) {
	// Health and observability
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		handler.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Handle("GET", "/metrics", deps.Metrics.Handler())
	}

	// Auth
	r.Post("/api/auth/register", deps.Auth.Register)
	r.Post("/api/auth/login", deps.Auth.Login)
	r.Post("/api/auth/logout", deps.Auth.Logout)

	// Invoices
	r.Post("/api/invoices", deps.Invoices.Create)
	r.Get("/api/invoices", deps.Invoices.List)
	r.Get("/api/invoices/{id}", deps.Invoices.Get)
	r.Post("/api/invoices/{id}/pdf", deps.Invoices.RenderPDF)
	r.Get("/api/invoices/{id}/download", deps.Invoices.DownloadPDF)

	// Notifications
	r.Post("/api/invoices/{id}/whatsapp", deps.Notifications.SendInvoiceWhatsApp)
	r.Post("/api/invoices/{id}/email", deps.Notifications.SendInvoiceEmail)
	r.Post("/api/notifications/send", deps.Notifications.SendText)
	r.Post("/api/notifications/send-complete", deps.Notifications.SendComplete)

	// Payments
	r.Post("/api/payments/checkout", deps.Payments.CreateCheckout)
	r.Post("/webhooks/stripe", deps.StripeWebhook.HandleWebhook)

	// Stored invoice PDFs when local storage is in use
	if deps.StaticDir != "" {
		r.Static("/public", deps.StaticDir)
	}
}
