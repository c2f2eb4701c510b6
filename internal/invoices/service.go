package invoices

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lazani-bestileo/bestileo-erp/internal/clients"
	"github.com/lazani-bestileo/bestileo-erp/internal/numbering"
	"github.com/lazani-bestileo/bestileo-erp/internal/platform/db"
	"github.com/lazani-bestileo/bestileo-erp/internal/products"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// DefaultTauxTVA is the VAT rate applied when the caller does not set one.
const DefaultTauxTVA = 20.0

// ClientDirectory resolves the client an invoice is billed to.
type ClientDirectory interface {
	Get(ctx context.Context, id int64) (*clients.Client, error)
}

// ProductDirectory resolves the products referenced by invoice lines.
type ProductDirectory interface {
	Get(ctx context.Context, id int64) (*products.Product, error)
}

// Service wraps invoice business rules: per-month numbering and the
// HT/TVA/TTC amount derivation.
type Service struct {
	repo     Repository
	clients  ClientDirectory
	products ProductDirectory
	numbers  *numbering.Generator
}

// NewService constructs a Service.
func NewService(repo Repository, clients ClientDirectory, products ProductDirectory, numbers *numbering.Generator) *Service {
	return &Service{repo: repo, clients: clients, products: products, numbers: numbers}
}

// resolveProducts checks that every line references an existing product
// before anything is written.
func (s *Service) resolveProducts(ctx context.Context, reqs []LineRequest) error {
	for _, lr := range reqs {
		if _, err := s.products.Get(ctx, lr.ProduitID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]Invoice, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Invoice, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListByStatus(ctx, status)
}

func (s *Service) ListByClient(ctx context.Context, clientID int64) ([]Invoice, error) {
	if _, err := s.clients.Get(ctx, clientID); err != nil {
		return nil, err
	}
	return s.repo.ListByClient(ctx, clientID)
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

func buildLines(reqs []LineRequest) ([]InvoiceLine, float64) {
	lines := make([]InvoiceLine, 0, len(reqs))
	var sum float64
	for _, lr := range reqs {
		lineTotal := shared.LineTotal(lr.Quantite, lr.PrixUnitaire)
		lines = append(lines, InvoiceLine{
			ProduitID:    lr.ProduitID,
			Quantite:     lr.Quantite,
			PrixUnitaire: lr.PrixUnitaire,
			PrixTotal:    lineTotal,
		})
		sum += lineTotal
	}
	return lines, sum
}

func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	if len(req.Details) == 0 {
		return nil, ErrNoLines
	}
	if _, err := s.clients.Get(ctx, req.ClientID); err != nil {
		return nil, err
	}
	if err := s.resolveProducts(ctx, req.Details); err != nil {
		return nil, err
	}

	date := shared.Today()
	if req.DateFacture != nil && !req.DateFacture.IsZero() {
		date = *req.DateFacture
	}
	tauxTVA := DefaultTauxTVA
	if req.TauxTVA != nil {
		tauxTVA = *req.TauxTVA
	}

	lines, lineSum := buildLines(req.Details)
	ht, tva, ttc := shared.InvoiceAmounts(lineSum, req.Remise, tauxTVA)

	inv := Invoice{
		ClientID:     req.ClientID,
		CommandeID:   req.CommandeID,
		DateFacture:  date,
		DateEcheance: req.DateEcheance,
		MontantHT:    ht,
		TauxTVA:      tauxTVA,
		MontantTVA:   tva,
		MontantTTC:   ttc,
		Remise:       req.Remise,
		Statut:       req.Statut,
		Notes:        req.Notes,
	}
	if inv.Statut == "" {
		inv.Statut = StatusDraft
	}

	countMonth := func(ctx context.Context) (int64, error) {
		return s.repo.CountByMonth(ctx, date.Time)
	}

	var id int64
	for attempt := 0; attempt < 2; attempt++ {
		seq, err := s.numbers.Next(ctx, numbering.InvoiceScope(date.Time), countMonth)
		if err != nil {
			return nil, fmt.Errorf("invoice number: %w", err)
		}
		inv.NumeroFacture = numbering.InvoiceNumber(date.Time, seq)

		err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			invoiceID, err := repo.Insert(ctx, inv)
			if err != nil {
				return err
			}
			for i := range lines {
				lines[i].FactureID = invoiceID
				if _, err := repo.InsertLine(ctx, lines[i]); err != nil {
					return fmt.Errorf("insert line: %w", err)
				}
			}
			id = invoiceID
			return nil
		})
		if err == nil {
			break
		}
		if db.IsUniqueViolation(err) {
			if attempt == 0 {
				continue
			}
			return nil, ErrDuplicateNumber
		}
		return nil, err
	}

	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateInvoiceRequest) (*Invoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ClientID != nil {
		if _, err := s.clients.Get(ctx, *req.ClientID); err != nil {
			return nil, err
		}
	}

	updates := make(map[string]any)
	if req.ClientID != nil {
		updates["client_id"] = *req.ClientID
	}
	if req.CommandeID != nil {
		updates["commande_id"] = *req.CommandeID
	}
	if req.DateFacture != nil {
		updates["date_facture"] = *req.DateFacture
	}
	if req.DateEcheance != nil {
		updates["date_echeance"] = *req.DateEcheance
	}
	if req.Statut != nil {
		updates["statut"] = *req.Statut
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	// A change to the lines, the discount or the VAT rate re-derives the
	// three amounts from scratch.
	tauxTVA := existing.TauxTVA
	if req.TauxTVA != nil {
		tauxTVA = *req.TauxTVA
		updates["taux_tva"] = tauxTVA
	}
	remise := existing.Remise
	if req.Remise != nil {
		remise = *req.Remise
		updates["remise"] = remise
	}

	var lines []InvoiceLine
	recompute := req.Details != nil || req.TauxTVA != nil || req.Remise != nil
	if recompute {
		lineSum := 0.0
		if req.Details != nil {
			if len(*req.Details) == 0 {
				return nil, ErrNoLines
			}
			if err := s.resolveProducts(ctx, *req.Details); err != nil {
				return nil, err
			}
			lines, lineSum = buildLines(*req.Details)
		} else {
			for _, l := range existing.Details {
				lineSum += l.PrixTotal
			}
		}
		ht, tva, ttc := shared.InvoiceAmounts(lineSum, remise, tauxTVA)
		updates["montant_ht"] = ht
		updates["montant_tva"] = tva
		updates["montant_ttc"] = ttc
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, id, updates); err != nil {
			return err
		}
		if req.Details == nil {
			return nil
		}
		if err := repo.DeleteLines(ctx, id); err != nil {
			return fmt.Errorf("delete lines: %w", err)
		}
		for i := range lines {
			lines[i].FactureID = id
			if _, err := repo.InsertLine(ctx, lines[i]); err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes an invoice and its lines in one transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteLines(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
}

// UpdateStatus moves an invoice to any valid status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (*Invoice, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := s.repo.Update(ctx, id, map[string]any{"statut": status}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Stats aggregates invoice counts and revenue; the independent aggregates
// run concurrently.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var (
		stats    Stats
		byStatus map[Status]int64
	)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := s.repo.Count(ctx)
		stats.Total = total
		return err
	})
	g.Go(func() error {
		var err error
		byStatus, err = s.repo.CountByStatut(ctx)
		return err
	})
	g.Go(func() error {
		total, month, paid, err := s.repo.Revenue(ctx)
		stats.CATotal = total
		stats.CAMois = month
		stats.CAPaye = paid
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats.Brouillon = byStatus[StatusDraft]
	stats.Emises = byStatus[StatusIssued]
	stats.Payees = byStatus[StatusPaid]
	stats.Annulees = byStatus[StatusCancelled]
	return &stats, nil
}
