package deliveries

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lazani-bestileo/bestileo-erp/internal/numbering"
	"github.com/lazani-bestileo/bestileo-erp/internal/orders"
	"github.com/lazani-bestileo/bestileo-erp/internal/platform/db"
	"github.com/lazani-bestileo/bestileo-erp/internal/products"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// OrderDirectory resolves the order a delivery note belongs to.
type OrderDirectory interface {
	Get(ctx context.Context, id int64) (*orders.Order, error)
}

// ProductDirectory resolves the products referenced by delivery lines.
type ProductDirectory interface {
	Get(ctx context.Context, id int64) (*products.Product, error)
}

// Service wraps delivery note business rules.
type Service struct {
	repo     Repository
	orders   OrderDirectory
	products ProductDirectory
	numbers  *numbering.Generator
}

// NewService constructs a Service.
func NewService(repo Repository, orderDir OrderDirectory, products ProductDirectory, numbers *numbering.Generator) *Service {
	return &Service{repo: repo, orders: orderDir, products: products, numbers: numbers}
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

func (s *Service) List(ctx context.Context) ([]Delivery, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Delivery, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListByStatus(ctx, status)
}

// ListByOrder returns every delivery note issued against an order.
func (s *Service) ListByOrder(ctx context.Context, orderID int64) ([]Delivery, error) {
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListByOrder(ctx, orderID)
}

func (s *Service) Get(ctx context.Context, id int64) (*Delivery, error) {
	return s.repo.Get(ctx, id)
}

func buildLines(reqs []LineRequest) ([]DeliveryLine, error) {
	lines := make([]DeliveryLine, 0, len(reqs))
	for _, lr := range reqs {
		if lr.QuantiteLivree > lr.QuantiteCommandee {
			return nil, ErrInvalidQuantity
		}
		lines = append(lines, DeliveryLine{
			ProduitID:         lr.ProduitID,
			QuantiteCommandee: lr.QuantiteCommandee,
			QuantiteLivree:    lr.QuantiteLivree,
		})
	}
	return lines, nil
}

func (s *Service) Create(ctx context.Context, req CreateDeliveryRequest) (*Delivery, error) {
	if len(req.Details) == 0 {
		return nil, ErrNoLines
	}
	if _, err := s.orders.Get(ctx, req.CommandeID); err != nil {
		return nil, err
	}
	if err := s.resolveProducts(ctx, req.Details); err != nil {
		return nil, err
	}
	lines, err := buildLines(req.Details)
	if err != nil {
		return nil, err
	}

	date := shared.Today()
	if req.DateLivraison != nil && !req.DateLivraison.IsZero() {
		date = *req.DateLivraison
	}

	d := Delivery{
		CommandeID:       req.CommandeID,
		DateLivraison:    date,
		AdresseLivraison: req.AdresseLivraison,
		Transporteur:     req.Transporteur,
		NumeroSuivi:      req.NumeroSuivi,
		Statut:           req.Statut,
		Notes:            req.Notes,
	}
	if d.Statut == "" {
		d.Statut = StatusPreparing
	}

	var id int64
	for attempt := 0; attempt < 2; attempt++ {
		seq, err := s.numbers.Next(ctx, numbering.ScopeDelivery, s.repo.Count)
		if err != nil {
			return nil, fmt.Errorf("delivery number: %w", err)
		}
		d.NumeroBon = numbering.DeliveryNumber(date.Time, seq)

		err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			deliveryID, err := repo.Insert(ctx, d)
			if err != nil {
				return err
			}
			for i := range lines {
				lines[i].BonLivraisonID = deliveryID
				if _, err := repo.InsertLine(ctx, lines[i]); err != nil {
					return fmt.Errorf("insert line: %w", err)
				}
			}
			id = deliveryID
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

func (s *Service) Update(ctx context.Context, id int64, req UpdateDeliveryRequest) (*Delivery, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.DateLivraison != nil {
		updates["date_livraison"] = *req.DateLivraison
	}
	if req.DateLivraisonEffective != nil {
		updates["date_livraison_effective"] = *req.DateLivraisonEffective
	}
	if req.AdresseLivraison != nil {
		updates["adresse_livraison"] = *req.AdresseLivraison
	}
	if req.Transporteur != nil {
		updates["transporteur"] = *req.Transporteur
	}
	if req.NumeroSuivi != nil {
		updates["numero_suivi"] = *req.NumeroSuivi
	}
	if req.Statut != nil {
		updates["statut"] = *req.Statut
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var lines []DeliveryLine
	if req.Details != nil {
		if len(*req.Details) == 0 {
			return nil, ErrNoLines
		}
		if err := s.resolveProducts(ctx, *req.Details); err != nil {
			return nil, err
		}
		var err error
		lines, err = buildLines(*req.Details)
		if err != nil {
			return nil, err
		}
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
			lines[i].BonLivraisonID = id
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

// Delete removes a delivery note and its lines in one transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteLines(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
}

// UpdateStatus moves a delivery note to any valid status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (*Delivery, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := s.repo.Update(ctx, id, map[string]any{"statut": status}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Stats aggregates delivery notes by status.
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

	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats.EnPreparation = byStatus[StatusPreparing]
	stats.Expedie = byStatus[StatusShipped]
	stats.EnTransit = byStatus[StatusInTransit]
	stats.Livre = byStatus[StatusDelivered]
	stats.Retour = byStatus[StatusReturned]
	return &stats, nil
}
