package vineyard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// Service wraps parcel and harvest business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListParcels(ctx context.Context) ([]Parcel, error) {
	return s.repo.ListParcels(ctx)
}

func (s *Service) GetParcel(ctx context.Context, id int64) (*Parcel, error) {
	return s.repo.GetParcel(ctx, id)
}

func (s *Service) CreateParcel(ctx context.Context, req CreateParcelRequest) (*Parcel, error) {
	p := Parcel{
		Nom:               req.Nom,
		Superficie:        req.Superficie,
		Localisation:      req.Localisation,
		TypeSol:           req.TypeSol,
		Exposition:        req.Exposition,
		Altitude:          req.Altitude,
		Pente:             req.Pente,
		DatePlantation:    req.DatePlantation,
		Cepage:            req.Cepage,
		DensitePlantation: req.DensitePlantation,
		Certification:     req.Certification,
		Statut:            req.Statut,
	}
	if p.Statut == "" {
		p.Statut = ParcelActive
	}

	id, err := s.repo.CreateParcel(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.repo.GetParcel(ctx, id)
}

func (s *Service) UpdateParcel(ctx context.Context, id int64, req UpdateParcelRequest) (*Parcel, error) {
	updates := make(map[string]any)
	if req.Nom != nil {
		updates["nom"] = *req.Nom
	}
	if req.Superficie != nil {
		updates["superficie"] = *req.Superficie
	}
	if req.Localisation != nil {
		updates["localisation"] = *req.Localisation
	}
	if req.TypeSol != nil {
		updates["type_sol"] = *req.TypeSol
	}
	if req.Exposition != nil {
		updates["exposition"] = *req.Exposition
	}
	if req.Altitude != nil {
		updates["altitude"] = *req.Altitude
	}
	if req.Pente != nil {
		updates["pente"] = *req.Pente
	}
	if req.DatePlantation != nil {
		updates["date_plantation"] = *req.DatePlantation
	}
	if req.Cepage != nil {
		updates["cepage"] = *req.Cepage
	}
	if req.DensitePlantation != nil {
		updates["densite_plantation"] = *req.DensitePlantation
	}
	if req.Certification != nil {
		updates["certification"] = *req.Certification
	}
	if req.Statut != nil {
		updates["statut"] = *req.Statut
	}

	if err := s.repo.UpdateParcel(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.GetParcel(ctx, id)
}

func (s *Service) DeleteParcel(ctx context.Context, id int64) error {
	return s.repo.DeleteParcel(ctx, id)
}

// ParcelStats aggregates the vineyard layout; the independent aggregates run
// concurrently.
func (s *Service) ParcelStats(ctx context.Context) (*ParcelStats, error) {
	var stats ParcelStats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, superficie, err := s.repo.CountParcels(ctx)
		stats.Total = total
		stats.SuperficieTotale = superficie
		return err
	})
	g.Go(func() error {
		byStatus, err := s.repo.ParcelsByStatut(ctx)
		stats.ParStatut = byStatus
		return err
	})
	g.Go(func() error {
		byCepage, err := s.repo.ParcelsByCepage(ctx)
		stats.ParCepage = byCepage
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Service) ListHarvests(ctx context.Context) ([]Harvest, error) {
	return s.repo.ListHarvests(ctx)
}

// ListHarvestsByParcel returns the harvest log of one parcel.
func (s *Service) ListHarvestsByParcel(ctx context.Context, parcelID int64) ([]Harvest, error) {
	if _, err := s.repo.GetParcel(ctx, parcelID); err != nil {
		return nil, err
	}
	return s.repo.ListHarvestsByParcel(ctx, parcelID)
}

func (s *Service) ListHarvestsByDate(ctx context.Context, raw string) ([]Harvest, error) {
	date, err := shared.ParseDate(raw)
	if err != nil {
		return nil, ErrInvalidDateFilter
	}
	return s.repo.ListHarvestsByDate(ctx, date)
}

func (s *Service) GetHarvest(ctx context.Context, id int64) (*Harvest, error) {
	return s.repo.GetHarvest(ctx, id)
}

func (s *Service) CreateHarvest(ctx context.Context, req CreateHarvestRequest) (*Harvest, error) {
	if _, err := s.repo.GetParcel(ctx, req.ParcelleID); err != nil {
		return nil, err
	}

	date := shared.Today()
	if req.DateRecolte != nil && !req.DateRecolte.IsZero() {
		date = *req.DateRecolte
	}

	h := Harvest{
		ParcelleID:      req.ParcelleID,
		DateRecolte:     date,
		QuantiteKg:      req.QuantiteKg,
		QualiteRaisin:   req.QualiteRaisin,
		TauxSucre:       req.TauxSucre,
		Acidite:         req.Acidite,
		PHRaisin:        req.PHRaisin,
		ConditionsMeteo: req.ConditionsMeteo,
		Notes:           req.Notes,
	}

	id, err := s.repo.CreateHarvest(ctx, h)
	if err != nil {
		return nil, err
	}
	return s.repo.GetHarvest(ctx, id)
}

func (s *Service) UpdateHarvest(ctx context.Context, id int64, req UpdateHarvestRequest) (*Harvest, error) {
	if req.ParcelleID != nil {
		if _, err := s.repo.GetParcel(ctx, *req.ParcelleID); err != nil {
			return nil, err
		}
	}

	updates := make(map[string]any)
	if req.ParcelleID != nil {
		updates["parcelle_id"] = *req.ParcelleID
	}
	if req.DateRecolte != nil {
		updates["date_recolte"] = *req.DateRecolte
	}
	if req.QuantiteKg != nil {
		updates["quantite_kg"] = *req.QuantiteKg
	}
	if req.QualiteRaisin != nil {
		updates["qualite_raisin"] = *req.QualiteRaisin
	}
	if req.TauxSucre != nil {
		updates["taux_sucre"] = *req.TauxSucre
	}
	if req.Acidite != nil {
		updates["acidite"] = *req.Acidite
	}
	if req.PHRaisin != nil {
		updates["ph_raisin"] = *req.PHRaisin
	}
	if req.ConditionsMeteo != nil {
		updates["conditions_meteo"] = *req.ConditionsMeteo
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if err := s.repo.UpdateHarvest(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.GetHarvest(ctx, id)
}

func (s *Service) DeleteHarvest(ctx context.Context, id int64) error {
	return s.repo.DeleteHarvest(ctx, id)
}

// HarvestStats aggregates the harvest log.
func (s *Service) HarvestStats(ctx context.Context) (*HarvestStats, error) {
	var stats HarvestStats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, kg, err := s.repo.CountHarvests(ctx)
		stats.Total = total
		stats.QuantiteTotaleKg = kg
		return err
	})
	g.Go(func() error {
		byQuality, err := s.repo.HarvestsByQuality(ctx)
		stats.ParQualite = byQuality
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
