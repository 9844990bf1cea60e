package ar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/odyssey-erp/billing/internal/billing"
	"github.com/odyssey-erp/billing/internal/platform/db"
)

var invoiceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:odyssey-erp:billing:invoice"))

// InvoiceReference derives the stable public reference of an invoice number.
func InvoiceReference(number string) uuid.UUID {
	return uuid.NewSHA1(invoiceNamespace, []byte("INV:"+number))
}

// Invalidator drops derived report data after receivable writes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Recorder observes receivable writes.
type Recorder interface {
	InvoiceCreated(status string)
	InvoiceNumberRetry()
}

// Config carries the engine settings resolved at process start.
type Config struct {
	Rounding      billing.RoundingConfig
	Numbering     billing.InvoiceNumberConfig
	NumberRetries int
}

// Service handles receivable business logic.
type Service struct {
	repo        Repository
	cfg         Config
	invalidator Invalidator
	recorder    Recorder
	logger      *slog.Logger
	validate    *validator.Validate
	now         func() time.Time
}

// NewService builds Service instance. invalidator, recorder and logger may be nil.
func NewService(repo Repository, cfg Config, invalidator Invalidator, recorder Recorder, logger *slog.Logger) *Service {
	if cfg.NumberRetries <= 0 {
		cfg.NumberRetries = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		cfg:         cfg,
		invalidator: invalidator,
		recorder:    recorder,
		logger:      logger,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// CreateInvoice prices the requested lines and stores the invoice. Without a
// caller supplied number the next number of the issue date's series is allocated
// in the same transaction, retrying when a concurrent writer took it.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	if err := s.check(input); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = billing.StatusIssued
	}
	issueDate := input.IssueDate
	if issueDate.IsZero() {
		issueDate = s.now()
	}
	issueDate = issueDate.UTC()

	totals, err := billing.CalculateInvoiceTotals(totalsInput(input), s.cfg.Rounding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	inv := &Invoice{
		InvoiceNo:       strings.TrimSpace(input.InvoiceNo),
		CustomerID:      input.CustomerID,
		IssueDate:       issueDate,
		Status:          input.Status,
		SubTotalCents:   totals.SubTotalCents,
		DiscountCents:   totals.DiscountCents,
		TaxCents:        totals.TaxCents,
		GrandTotalCents: totals.GrandTotalCents,
		Notes:           optionalText(input.Notes),
	}
	for _, line := range totals.Items {
		inv.Items = append(inv.Items, InvoiceItem{
			ProductID:      line.Meta.ProductID,
			Description:    line.Meta.Description,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: line.LineTotalCents,
		})
	}

	generated := inv.InvoiceNo == ""
	attempts := 1
	if generated {
		attempts = s.cfg.NumberRetries
	}

	for attempt := 1; ; attempt++ {
		err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			if _, err := repo.GetCustomer(ctx, inv.CustomerID); err != nil {
				if errors.Is(err, ErrNotFound) {
					return fmt.Errorf("%w: %d", ErrInvalidCustomer, inv.CustomerID)
				}
				return err
			}
			if generated {
				series := billing.SeriesKey(issueDate, s.cfg.Numbering)
				seq, err := repo.NextSequence(ctx, series)
				if err != nil {
					return err
				}
				inv.InvoiceNo, err = billing.BuildInvoiceNumber(seq, issueDate, s.cfg.Numbering)
				if err != nil {
					return err
				}
			}
			inv.Reference = InvoiceReference(inv.InvoiceNo)
			return repo.InsertInvoice(ctx, inv)
		})
		if err == nil {
			break
		}
		if attempt >= attempts || !(errors.Is(err, ErrNumberConflict) || db.IsRetryable(err)) {
			return nil, err
		}
		s.logger.Warn("invoice insert failed, retrying",
			slog.String("invoice_no", inv.InvoiceNo),
			slog.Int("attempt", attempt),
			slog.Any("error", err))
		if s.recorder != nil {
			s.recorder.InvoiceNumberRetry()
		}
		if generated && errors.Is(err, ErrNumberConflict) {
			series := billing.SeriesKey(issueDate, s.cfg.Numbering)
			if err := s.inTx(ctx, func(ctx context.Context, repo Repository) error {
				return repo.SyncSequence(ctx, series)
			}); err != nil {
				return nil, err
			}
		}
		resetInvoice(inv)
		if generated {
			inv.InvoiceNo = ""
		}
	}

	if s.recorder != nil {
		s.recorder.InvoiceCreated(string(inv.Status))
	}
	s.logger.Info("invoice created",
		slog.Int64("invoice_id", inv.ID),
		slog.String("invoice_no", inv.InvoiceNo),
		slog.Int64("grand_total_cents", inv.GrandTotalCents))
	s.invalidate(ctx)
	return inv, nil
}

func resetInvoice(inv *Invoice) {
	inv.ID = 0
	inv.CreatedAt = time.Time{}
	for i := range inv.Items {
		inv.Items[i].ID = 0
		inv.Items[i].InvoiceID = 0
	}
}

func totalsInput(input CreateInvoiceInput) billing.InvoiceTotalsInput[ItemMeta] {
	items := make([]billing.InvoiceLineInput[ItemMeta], 0, len(input.Items))
	for _, item := range input.Items {
		meta := ItemMeta{Description: optionalText(item.Description)}
		if item.ProductID != nil {
			meta.ProductID = pgtype.Int8{Int64: *item.ProductID, Valid: true}
		}
		items = append(items, billing.InvoiceLineInput[ItemMeta]{
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			Meta:           meta,
		})
	}
	return billing.InvoiceTotalsInput[ItemMeta]{
		Items:         items,
		DiscountCents: input.DiscountCents,
		TaxRate:       input.TaxRate,
		TaxCents:      input.TaxCents,
	}
}

// RegisterPayment records a payment and settles the status of the invoice it is applied to.
func (s *Service) RegisterPayment(ctx context.Context, input CreatePaymentInput) (*Payment, error) {
	if err := s.check(input); err != nil {
		return nil, err
	}
	paidAt := s.now()
	if input.PaidAt != nil && !input.PaidAt.IsZero() {
		paidAt = *input.PaidAt
	}

	payment := &Payment{
		CustomerID:  input.CustomerID,
		AmountCents: input.AmountCents,
		Method:      input.Method,
		PaidAt:      paidAt.UTC(),
		Note:        optionalText(input.Note),
	}
	if input.InvoiceID != nil {
		payment.InvoiceID = pgtype.Int8{Int64: *input.InvoiceID, Valid: true}
	}

	err := s.inTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.GetCustomer(ctx, payment.CustomerID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: %d", ErrInvalidCustomer, payment.CustomerID)
			}
			return err
		}
		var inv *Invoice
		if payment.InvoiceID.Valid {
			var err error
			inv, err = repo.GetInvoice(ctx, payment.InvoiceID.Int64)
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: %d", ErrInvalidInvoice, payment.InvoiceID.Int64)
			}
			if err != nil {
				return err
			}
			if inv.CustomerID != payment.CustomerID {
				return fmt.Errorf("%w: invoice %d", ErrInvoiceCustomerMismatch, inv.ID)
			}
		}
		payment.ID = 0
		if err := repo.InsertPayment(ctx, payment); err != nil {
			return err
		}
		if inv == nil {
			return nil
		}
		paid, err := repo.InvoicePaidCents(ctx, inv.ID)
		if err != nil {
			return err
		}
		next := billing.SettleStatus(inv.Status, inv.GrandTotalCents, paid)
		if next == inv.Status {
			return nil
		}
		return repo.UpdateInvoiceStatus(ctx, inv.ID, next)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment registered",
		slog.Int64("payment_id", payment.ID),
		slog.Int64("customer_id", payment.CustomerID),
		slog.Int64("amount_cents", payment.AmountCents))
	s.invalidate(ctx)
	return payment, nil
}

// IssueInvoice moves a draft invoice to issued.
func (s *Service) IssueInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.transition(ctx, id, billing.StatusIssued, billing.StatusDraft)
}

// VoidInvoice cancels a draft or issued invoice. Invoices with payments cannot be voided.
func (s *Service) VoidInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.transition(ctx, id, billing.StatusVoid, billing.StatusDraft, billing.StatusIssued)
}

func (s *Service) transition(ctx context.Context, id int64, to billing.InvoiceStatus, from ...billing.InvoiceStatus) (*Invoice, error) {
	var inv *Invoice
	err := s.inTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		inv, err = repo.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		allowed := false
		for _, status := range from {
			if inv.Status == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %s to %s", ErrInvalidStatus, inv.Status, to)
		}
		if err := repo.UpdateInvoiceStatus(ctx, id, to); err != nil {
			return err
		}
		inv.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return inv, nil
}

// GetInvoice returns an invoice with its items and payments.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.GetInvoiceWithDetails(ctx, id)
}

// ListInvoices returns invoices ordered newest first.
func (s *Service) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	if req.Status != "" && !req.Status.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, billing.ErrUnknownStatus)
	}
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return s.repo.ListInvoices(ctx, req)
}

// CustomerDue returns the outstanding balance of a customer.
func (s *Service) CustomerDue(ctx context.Context, customerID int64) (CustomerDue, error) {
	if _, err := s.repo.GetCustomer(ctx, customerID); err != nil {
		return CustomerDue{}, err
	}
	invoiced, paid, err := s.repo.CustomerTotals(ctx, customerID)
	if err != nil {
		return CustomerDue{}, err
	}
	balance, err := billing.CalculateCustomerDueCents(float64(invoiced), float64(paid), s.cfg.Rounding)
	if err != nil {
		return CustomerDue{}, err
	}
	return CustomerDue{
		CustomerID:    customerID,
		InvoicedCents: invoiced,
		PaidCents:     paid,
		BalanceCents:  balance,
	}, nil
}

// CreateCustomer stores a new customer.
func (s *Service) CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.check(input); err != nil {
		return nil, err
	}
	c := &Customer{Name: input.Name}
	if err := s.repo.InsertCustomer(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("customer created", slog.Int64("customer_id", c.ID))
	return c, nil
}

// RenameCustomer changes the name of an existing customer. Cached reports
// carry customer names, so they are invalidated.
func (s *Service) RenameCustomer(ctx context.Context, id int64, input CustomerInput) (*Customer, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.check(input); err != nil {
		return nil, err
	}
	c := &Customer{ID: id, Name: input.Name}
	if err := s.repo.UpdateCustomer(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return c, nil
}

// GetCustomer returns a customer by id.
func (s *Service) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// ListCustomers returns customers ordered by name.
func (s *Service) ListCustomers(ctx context.Context, req ListCustomersRequest) ([]Customer, error) {
	req.Search = strings.TrimSpace(req.Search)
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return s.repo.ListCustomers(ctx, req)
}

func (s *Service) inTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	var err error
	for attempt := 1; attempt <= s.cfg.NumberRetries; attempt++ {
		err = s.repo.WithTx(ctx, fn)
		if err == nil || !db.IsRetryable(err) {
			return err
		}
	}
	return err
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("report cache invalidation failed", slog.Any("error", err))
	}
}

func (s *Service) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s failed %s", ErrInvalidInput, fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func optionalText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
