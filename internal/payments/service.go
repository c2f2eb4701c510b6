package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lazani-bestileo/bestileo-erp/internal/invoices"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// InvoiceDirectory resolves the invoice a payment settles.
type InvoiceDirectory interface {
	Get(ctx context.Context, id int64) (*invoices.Invoice, error)
}

// Service wraps payment business rules.
type Service struct {
	repo     Repository
	invoices InvoiceDirectory
}

// NewService constructs a Service.
func NewService(repo Repository, invoiceDir InvoiceDirectory) *Service {
	return &Service{repo: repo, invoices: invoiceDir}
}

func (s *Service) List(ctx context.Context) ([]Payment, error) {
	return s.repo.List(ctx)
}

// ListByInvoice returns every payment recorded against an invoice.
func (s *Service) ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error) {
	if _, err := s.invoices.Get(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.repo.ListByInvoice(ctx, invoiceID)
}

func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	return s.repo.Get(ctx, id)
}

// newReference generates a payment reference, e.g. PAY-3F2A9C41.
func newReference() string {
	return "PAY-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *Service) Create(ctx context.Context, req CreatePaymentRequest) (*Payment, error) {
	invoice, err := s.invoices.Get(ctx, req.FactureID)
	if err != nil {
		return nil, err
	}

	date := shared.Today()
	if req.DatePaiement != nil && !req.DatePaiement.IsZero() {
		date = *req.DatePaiement
	}
	reference := req.ReferencePaiement
	if reference == nil || *reference == "" {
		generated := newReference()
		reference = &generated
	}

	p := Payment{
		FactureID:         req.FactureID,
		DatePaiement:      date,
		Montant:           req.Montant,
		ModePaiement:      req.ModePaiement,
		ReferencePaiement: reference,
		Notes:             req.Notes,
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		paymentID, err := repo.Insert(ctx, p)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		id = paymentID

		// Once payments cover the TTC amount the invoice becomes payee.
		paid, err := repo.SumByInvoice(ctx, req.FactureID)
		if err != nil {
			return err
		}
		if paid >= invoice.MontantTTC && invoice.Statut != invoices.StatusPaid {
			return repo.MarkInvoicePaid(ctx, req.FactureID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdatePaymentRequest) (*Payment, error) {
	updates := make(map[string]any)
	if req.DatePaiement != nil {
		updates["date_paiement"] = *req.DatePaiement
	}
	if req.Montant != nil {
		updates["montant"] = *req.Montant
	}
	if req.ModePaiement != nil {
		updates["mode_paiement"] = *req.ModePaiement
	}
	if req.ReferencePaiement != nil {
		updates["reference_paiement"] = *req.ReferencePaiement
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Stats aggregates the payment ledger; the independent aggregates run
// concurrently.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := s.repo.Count(ctx)
		stats.Total = total
		return err
	})
	g.Go(func() error {
		sum, err := s.repo.SumMontant(ctx)
		stats.MontantTotal = sum
		return err
	})
	g.Go(func() error {
		byMode, err := s.repo.TotalsByMode(ctx)
		stats.ParMode = byMode
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
