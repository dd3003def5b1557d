package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/billwave/billwave/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InvoiceStore implements domain.InvoiceStore using PostgreSQL.
type InvoiceStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that InvoiceStore implements domain.InvoiceStore.
var _ domain.InvoiceStore = (*InvoiceStore)(nil)

// NewInvoiceStore creates a new PostgreSQL-backed invoice store.
func NewInvoiceStore(pool *pgxpool.Pool) *InvoiceStore {
	return &InvoiceStore{pool: pool}
}

const invoiceColumns = `id, invoice_number, client_name, customer_phone, customer_email,
	client_address, items, sub_total, total_tax, total_discount, total_amount,
	language, payment_status, status, due_date, invoice_date, payment_terms, notes,
	pdf_url, whatsapp_status, last_notification, notification_method, created_by,
	created_at, updated_at`

// Create persists a new invoice and returns the stored row.
func (s *InvoiceStore) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return nil, domain.Internal(err, "invoice.create", "failed to encode line items")
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO invoices (
			invoice_number, client_name, customer_phone, customer_email,
			client_address, items, sub_total, total_tax, total_discount, total_amount,
			language, payment_status, status, due_date, invoice_date, payment_terms,
			notes, pdf_url, whatsapp_status, created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		RETURNING `+invoiceColumns,
		inv.InvoiceNumber, inv.ClientName, inv.CustomerPhone, inv.CustomerEmail,
		inv.ClientAddress, itemsJSON, inv.SubTotal, inv.TotalTax, inv.TotalDiscount,
		inv.TotalAmount, inv.Language, inv.PaymentStatus, inv.Status, inv.DueDate,
		inv.InvoiceDate, inv.PaymentTerms, inv.Notes, inv.PDFURL, inv.WhatsAppStatus,
		inv.CreatedBy,
	)

	created, err := scanInvoice(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrDuplicateInvoice
		}
		return nil, domain.Internal(err, "invoice.create", "failed to create invoice")
	}

	return created, nil
}

// GetByID retrieves an invoice by its ID.
func (s *InvoiceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)

	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, domain.Internal(err, "invoice.get", "failed to get invoice")
	}

	return inv, nil
}

// NumberExists reports whether an invoice with the given number already exists.
func (s *InvoiceStore) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE invoice_number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, domain.Internal(err, "invoice.number_exists", "failed to check invoice number")
	}
	return exists, nil
}

// List returns invoices matching the filter, newest first.
func (s *InvoiceStore) List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`

	var conditions []string
	var args []any

	if filter.InvoiceNumber != "" {
		args = append(args, filter.InvoiceNumber)
		conditions = append(conditions, fmt.Sprintf("invoice_number = $%d", len(args)))
	}
	if filter.ClientName != "" {
		args = append(args, filter.ClientName)
		conditions = append(conditions, fmt.Sprintf("client_name ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if filter.CustomerEmail != "" {
		args = append(args, filter.CustomerEmail)
		conditions = append(conditions, fmt.Sprintf("customer_email ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal(err, "invoice.list", "failed to list invoices")
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, domain.Internal(err, "invoice.list", "failed to scan invoice")
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "invoice.list", "failed to read invoices")
	}

	return invoices, nil
}

// UpdateDelivery applies a partial update of delivery and payment fields.
// Only non-nil fields are written.
func (s *InvoiceStore) UpdateDelivery(ctx context.Context, id uuid.UUID, update domain.DeliveryUpdate) (*domain.Invoice, error) {
	var sets []string
	var args []any

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.PDFURL != nil {
		addSet("pdf_url", *update.PDFURL)
	}
	if update.WhatsAppStatus != nil {
		addSet("whatsapp_status", *update.WhatsAppStatus)
	}
	if update.LastNotification != nil {
		addSet("last_notification", *update.LastNotification)
	}
	if update.NotificationMethod != nil {
		addSet("notification_method", *update.NotificationMethod)
	}
	if update.PaymentStatus != nil {
		addSet("payment_status", *update.PaymentStatus)
	}
	if update.Status != nil {
		addSet("status", *update.Status)
	}

	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`UPDATE invoices SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), invoiceColumns,
	), args...)

	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, domain.Internal(err, "invoice.update_delivery", "failed to update invoice")
	}

	return inv, nil
}

// scanInvoice reads a single invoice row. Works for both QueryRow and rows.Next.
func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	var itemsJSON []byte

	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.ClientName, &inv.CustomerPhone,
		&inv.CustomerEmail, &inv.ClientAddress, &itemsJSON, &inv.SubTotal,
		&inv.TotalTax, &inv.TotalDiscount, &inv.TotalAmount, &inv.Language,
		&inv.PaymentStatus, &inv.Status, &inv.DueDate, &inv.InvoiceDate,
		&inv.PaymentTerms, &inv.Notes, &inv.PDFURL, &inv.WhatsAppStatus,
		&inv.LastNotification, &inv.NotificationMethod, &inv.CreatedBy,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &inv.Items); err != nil {
			return nil, fmt.Errorf("failed to decode line items: %w", err)
		}
	}

	return &inv, nil
}
