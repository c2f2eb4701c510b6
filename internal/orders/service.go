package orders

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

// ClientDirectory resolves the client an order belongs to.
type ClientDirectory interface {
	Get(ctx context.Context, id int64) (*clients.Client, error)
}

// ProductDirectory resolves the products referenced by order lines.
type ProductDirectory interface {
	Get(ctx context.Context, id int64) (*products.Product, error)
}

// Service wraps order business rules: numbering, totals and the composite
// parent-plus-lines writes.
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

func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListByStatus(ctx, status)
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// buildLines recomputes every line total and returns the lines with the
// order's overall amount. Caller-supplied totals are never trusted.
func buildLines(reqs []LineRequest) ([]OrderLine, float64) {
	lines := make([]OrderLine, 0, len(reqs))
	var total float64
	for _, lr := range reqs {
		lineTotal := shared.LineTotal(lr.Quantite, lr.PrixUnitaire)
		lines = append(lines, OrderLine{
			ProduitID:    lr.ProduitID,
			Quantite:     lr.Quantite,
			PrixUnitaire: lr.PrixUnitaire,
			PrixTotal:    lineTotal,
		})
		total += lineTotal
	}
	return lines, total
}

func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
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
	if req.DateCommande != nil && !req.DateCommande.IsZero() {
		date = *req.DateCommande
	}
	lines, total := buildLines(req.Details)

	o := Order{
		ClientID:            req.ClientID,
		DateCommande:        date,
		DateLivraisonPrevue: req.DateLivraisonPrevue,
		Statut:              req.Statut,
		MontantTotal:        total,
		TVA:                 req.TVA,
		Remise:              req.Remise,
		Notes:               req.Notes,
	}
	if o.Statut == "" {
		o.Statut = StatusPending
	}

	var id int64
	// Two attempts: a concurrent creation on the count-based fallback path
	// can collide on numero_commande; the unique constraint surfaces it and
	// the second attempt picks a fresh sequence.
	for attempt := 0; attempt < 2; attempt++ {
		seq, err := s.numbers.Next(ctx, numbering.ScopeOrder, s.repo.Count)
		if err != nil {
			return nil, fmt.Errorf("order number: %w", err)
		}
		o.NumeroCommande = numbering.OrderNumber(date.Time, seq)

		err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			orderID, err := repo.Insert(ctx, o)
			if err != nil {
				return err
			}
			for i := range lines {
				lines[i].CommandeID = orderID
				if _, err := repo.InsertLine(ctx, lines[i]); err != nil {
					return fmt.Errorf("insert line: %w", err)
				}
			}
			id = orderID
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

func (s *Service) Update(ctx context.Context, id int64, req UpdateOrderRequest) (*Order, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
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
	if req.DateCommande != nil {
		updates["date_commande"] = *req.DateCommande
	}
	if req.DateLivraisonPrevue != nil {
		updates["date_livraison_prevue"] = *req.DateLivraisonPrevue
	}
	if req.Statut != nil {
		updates["statut"] = *req.Statut
	}
	if req.TVA != nil {
		updates["tva"] = *req.TVA
	}
	if req.Remise != nil {
		updates["remise"] = *req.Remise
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var lines []OrderLine
	if req.Details != nil {
		if len(*req.Details) == 0 {
			return nil, ErrNoLines
		}
		if err := s.resolveProducts(ctx, *req.Details); err != nil {
			return nil, err
		}
		var total float64
		lines, total = buildLines(*req.Details)
		updates["montant_total"] = total
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
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
			lines[i].CommandeID = id
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

// Delete removes an order and its lines in one transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteLines(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
}

// UpdateStatus moves an order to any valid status. No transition graph is
// enforced; corrections back and forth are allowed.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := s.repo.Update(ctx, id, map[string]any{"statut": status}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Stats aggregates the order book; the independent aggregates run concurrently.
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
		sum, err := s.repo.SumMontantTotal(ctx)
		stats.MontantTotal = sum
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats.EnAttente = byStatus[StatusPending]
	stats.Confirmees = byStatus[StatusConfirmed]
	stats.Preparees = byStatus[StatusPrepared]
	stats.Livrees = byStatus[StatusDelivered]
	stats.Annulees = byStatus[StatusCancelled]
	return &stats, nil
}
