package cellar

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
	"github.com/lazani-bestileo/bestileo-erp/internal/vineyard"
)

// HarvestDirectory resolves harvests owned by the vineyard package.
type HarvestDirectory interface {
	GetHarvest(ctx context.Context, id int64) (*vineyard.Harvest, error)
}

// Service implements vat, lot and analysis use cases.
type Service struct {
	repo     Repository
	harvests HarvestDirectory
}

// NewService constructs the cellar service.
func NewService(repo Repository, harvests HarvestDirectory) *Service {
	return &Service{repo: repo, harvests: harvests}
}

func (s *Service) ListVats(ctx context.Context) ([]Vat, error) {
	return s.repo.ListVats(ctx)
}

func (s *Service) GetVat(ctx context.Context, id int64) (*Vat, error) {
	return s.repo.GetVat(ctx, id)
}

func (s *Service) CreateVat(ctx context.Context, req CreateVatRequest) (*Vat, error) {
	statut := req.Statut
	if statut == "" {
		statut = VatAvailable
	}

	id, err := s.repo.CreateVat(ctx, Vat{
		Nom:                 req.Nom,
		CapaciteLitres:      req.CapaciteLitres,
		Materiau:            req.Materiau,
		TypeBassin:          req.TypeBassin,
		Statut:              statut,
		TemperatureOptimale: req.TemperatureOptimale,
		LastCleaning:        req.LastCleaning,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetVat(ctx, id)
}

func (s *Service) UpdateVat(ctx context.Context, id int64, req UpdateVatRequest) (*Vat, error) {
	updates := map[string]any{}
	if req.Nom != nil {
		updates["nom"] = *req.Nom
	}
	if req.CapaciteLitres != nil {
		updates["capacite_litres"] = *req.CapaciteLitres
	}
	if req.Materiau != nil {
		updates["materiau"] = *req.Materiau
	}
	if req.TypeBassin != nil {
		updates["type_bassin"] = *req.TypeBassin
	}
	if req.Statut != nil {
		updates["statut"] = *req.Statut
	}
	if req.TemperatureOptimale != nil {
		updates["temperature_optimale"] = *req.TemperatureOptimale
	}
	if req.LastCleaning != nil {
		updates["last_cleaning"] = *req.LastCleaning
	}

	if err := s.repo.UpdateVat(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.GetVat(ctx, id)
}

func (s *Service) DeleteVat(ctx context.Context, id int64) error {
	return s.repo.DeleteVat(ctx, id)
}

func (s *Service) VatStats(ctx context.Context) (*VatStats, error) {
	var stats VatStats

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, capacite, err := s.repo.CountVats(ctx)
		stats.Total, stats.CapaciteTotale = n, capacite
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.VatsByStatut(ctx)
		stats.ParStatut = counts
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.VatsByGroup(ctx, "type_bassin")
		stats.ParType = counts
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.VatsByGroup(ctx, "materiau")
		stats.ParMateriau = counts
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Service) ListLots(ctx context.Context) ([]Lot, error) {
	return s.repo.ListLots(ctx)
}

func (s *Service) ListLotsByStatus(ctx context.Context, status LotStatus) ([]Lot, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListLotsByStatus(ctx, status)
}

func (s *Service) GetLot(ctx context.Context, id int64) (*Lot, error) {
	return s.repo.GetLot(ctx, id)
}

// CreateLot registers a production batch. When a vat is assigned it is
// claimed in the same transaction, so the lot never lands in a vat that is
// under maintenance or already holds another lot.
func (s *Service) CreateLot(ctx context.Context, req CreateLotRequest) (*Lot, error) {
	if req.RecolteID != nil {
		if _, err := s.harvests.GetHarvest(ctx, *req.RecolteID); err != nil {
			return nil, err
		}
	}

	statut := req.Statut
	if statut == "" {
		statut = LotFermenting
	}
	debut := shared.Today()
	if req.DateDebutProduction != nil {
		debut = *req.DateDebutProduction
	}

	lot := Lot{
		NumeroLot:           req.NumeroLot,
		RecolteID:           req.RecolteID,
		BassinID:            req.BassinID,
		DateDebutProduction: debut,
		TypeVin:             req.TypeVin,
		VolumeInitialLitres: req.VolumeInitialLitres,
		DegreAlcool:         req.DegreAlcool,
		Statut:              statut,
		NotesProduction:     req.NotesProduction,
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if req.BassinID != nil {
			if err := tx.OccupyVat(ctx, *req.BassinID); err != nil {
				return err
			}
		}
		var err error
		id, err = tx.CreateLot(ctx, lot)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetLot(ctx, id)
}

func (s *Service) UpdateLot(ctx context.Context, id int64, req UpdateLotRequest) (*Lot, error) {
	current, err := s.repo.GetLot(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.RecolteID != nil {
		if _, err := s.harvests.GetHarvest(ctx, *req.RecolteID); err != nil {
			return nil, err
		}
	}

	updates := map[string]any{}
	if req.NumeroLot != nil {
		updates["numero_lot"] = *req.NumeroLot
	}
	if req.RecolteID != nil {
		updates["recolte_id"] = *req.RecolteID
	}
	if req.BassinID != nil {
		updates["bassin_id"] = *req.BassinID
	}
	if req.DateDebutProduction != nil {
		updates["date_debut_production"] = *req.DateDebutProduction
	}
	if req.DateFinProduction != nil {
		updates["date_fin_production"] = *req.DateFinProduction
	}
	if req.TypeVin != nil {
		updates["type_vin"] = *req.TypeVin
	}
	if req.VolumeInitialLitres != nil {
		updates["volume_initial_litres"] = *req.VolumeInitialLitres
	}
	if req.VolumeFinalLitres != nil {
		updates["volume_final_litres"] = *req.VolumeFinalLitres
	}
	if req.DegreAlcool != nil {
		updates["degre_alcool"] = *req.DegreAlcool
	}
	if req.Statut != nil {
		if !req.Statut.Valid() {
			return nil, ErrInvalidStatus
		}
		updates["statut"] = *req.Statut
	}
	if req.NotesProduction != nil {
		updates["notes_production"] = *req.NotesProduction
	}

	moving := req.BassinID != nil &&
		(current.BassinID == nil || *current.BassinID != *req.BassinID)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if moving {
			if err := tx.OccupyVat(ctx, *req.BassinID); err != nil {
				return err
			}
			if current.BassinID != nil {
				if err := tx.ReleaseVat(ctx, *current.BassinID); err != nil {
					return err
				}
			}
		}
		return tx.UpdateLot(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetLot(ctx, id)
}

func (s *Service) UpdateLotStatus(ctx context.Context, id int64, statut LotStatus) (*Lot, error) {
	if !statut.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := s.repo.UpdateLot(ctx, id, map[string]any{"statut": statut}); err != nil {
		return nil, err
	}
	return s.repo.GetLot(ctx, id)
}

// DeleteLot removes a lot and frees its vat in the same transaction.
func (s *Service) DeleteLot(ctx context.Context, id int64) error {
	lot, err := s.repo.GetLot(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := tx.DeleteLot(ctx, id); err != nil {
			return err
		}
		if lot.BassinID != nil {
			return tx.ReleaseVat(ctx, *lot.BassinID)
		}
		return nil
	})
}

func (s *Service) LotStats(ctx context.Context) (*LotStats, error) {
	var stats LotStats

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, vol, err := s.repo.CountLots(ctx)
		stats.Total, stats.VolumeTotal = n, vol
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.LotsByStatut(ctx)
		stats.ParStatut = counts
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.LotsByType(ctx)
		stats.ParType = counts
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Service) ListAnalyses(ctx context.Context, lotID int64) ([]Analysis, error) {
	if _, err := s.repo.GetLot(ctx, lotID); err != nil {
		return nil, err
	}
	return s.repo.ListAnalyses(ctx, lotID)
}

func (s *Service) CreateAnalysis(ctx context.Context, lotID int64, req CreateAnalysisRequest) (*Analysis, error) {
	if _, err := s.repo.GetLot(ctx, lotID); err != nil {
		return nil, err
	}

	date := shared.Today()
	if req.DateAnalyse != nil {
		date = *req.DateAnalyse
	}
	conforme := true
	if req.Conforme != nil {
		conforme = *req.Conforme
	}

	id, err := s.repo.CreateAnalysis(ctx, Analysis{
		LotProductionID:  lotID,
		DateAnalyse:      date,
		TypeAnalyse:      req.TypeAnalyse,
		PH:               req.PH,
		Acidite:          req.Acidite,
		DegreAlcool:      req.DegreAlcool,
		SucreResiduel:    req.SucreResiduel,
		SO2Libre:         req.SO2Libre,
		SO2Total:         req.SO2Total,
		NotesDegustation: req.NotesDegustation,
		Conforme:         conforme,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetAnalysis(ctx, id)
}

func (s *Service) DeleteAnalysis(ctx context.Context, id int64) error {
	return s.repo.DeleteAnalysis(ctx, id)
}
