package products

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Service wraps product and stock business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	p := Product{
		Nom:             req.Nom,
		Description:     req.Description,
		LotProductionID: req.LotProductionID,
		TypeVin:         req.TypeVin,
		Millesime:       req.Millesime,
		DegreAlcool:     req.DegreAlcool,
		VolumeBouteille: req.VolumeBouteille,
		PrixUnitaire:    req.PrixUnitaire,
		StockActuel:     req.StockActuel,
		StockMinimum:    req.StockMinimum,
		CodeProduit:     req.CodeProduit,
		Statut:          req.Statut,
	}
	if p.Statut == "" {
		p.Statut = StatusActive
	}

	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) (*Product, error) {
	updates := make(map[string]any)
	if req.Nom != nil {
		updates["nom"] = *req.Nom
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.LotProductionID != nil {
		updates["lot_production_id"] = *req.LotProductionID
	}
	if req.TypeVin != nil {
		updates["type_vin"] = *req.TypeVin
	}
	if req.Millesime != nil {
		updates["millesime"] = *req.Millesime
	}
	if req.DegreAlcool != nil {
		updates["degre_alcool"] = *req.DegreAlcool
	}
	if req.VolumeBouteille != nil {
		updates["volume_bouteille"] = *req.VolumeBouteille
	}
	if req.PrixUnitaire != nil {
		updates["prix_unitaire"] = *req.PrixUnitaire
	}
	if req.StockActuel != nil {
		updates["stock_actuel"] = *req.StockActuel
	}
	if req.StockMinimum != nil {
		updates["stock_minimum"] = *req.StockMinimum
	}
	if req.CodeProduit != nil {
		updates["code_produit"] = *req.CodeProduit
	}
	if req.Statut != nil {
		updates["statut"] = *req.Statut
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// RecordMovement inserts a stock movement and adjusts the product's stock
// level in the same transaction.
func (s *Service) RecordMovement(ctx context.Context, productID int64, req CreateMovementRequest) (*StockMovement, error) {
	product, err := s.repo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	newStock := product.StockActuel
	switch req.TypeMouvement {
	case MovementIn:
		newStock += req.Quantite
	case MovementOut:
		newStock -= req.Quantite
		if newStock < 0 {
			return nil, ErrInsufficientStock
		}
	case MovementAdjustment:
		newStock = req.Quantite
	}

	movement := StockMovement{
		ProduitID:     productID,
		TypeMouvement: req.TypeMouvement,
		Quantite:      req.Quantite,
		DateMouvement: time.Now(),
		Motif:         req.Motif,
		Reference:     req.Reference,
		Notes:         req.Notes,
	}
	if req.DateMouvement != nil {
		movement.DateMouvement = *req.DateMouvement
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.InsertMovement(ctx, movement)
		if err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
		movement.ID = id
		if err := repo.SetStock(ctx, productID, newStock); err != nil {
			return fmt.Errorf("set stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (s *Service) ListMovements(ctx context.Context, productID int64) ([]StockMovement, error) {
	if _, err := s.repo.Get(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, productID)
}

// Stats aggregates the catalog; the independent aggregates run concurrently.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := s.repo.CountAll(ctx)
		stats.Total = total
		return err
	})
	g.Go(func() error {
		byStatus, err := s.repo.CountByStatut(ctx)
		stats.ParStatut = byStatus
		return err
	})
	g.Go(func() error {
		byType, err := s.repo.CountByType(ctx)
		stats.ParType = byType
		return err
	})
	g.Go(func() error {
		low, err := s.repo.CountLowStock(ctx)
		stats.StockFaible = low
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
