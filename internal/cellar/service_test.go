package cellar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lazani-bestileo/bestileo-erp/internal/vineyard"
)

type fakeRepo struct {
	vats     map[int64]*Vat
	lots     map[int64]*Lot
	analyses map[int64]*Analysis

	nextVatID      int64
	nextLotID      int64
	nextAnalysisID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		vats:     map[int64]*Vat{},
		lots:     map[int64]*Lot{},
		analyses: map[int64]*Analysis{},
	}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) ListVats(context.Context) ([]Vat, error) {
	out := make([]Vat, 0, len(f.vats))
	for _, v := range f.vats {
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeRepo) GetVat(_ context.Context, id int64) (*Vat, error) {
	v, ok := f.vats[id]
	if !ok {
		return nil, ErrVatNotFound
	}
	copied := *v
	return &copied, nil
}

func (f *fakeRepo) CreateVat(_ context.Context, v Vat) (int64, error) {
	f.nextVatID++
	v.ID = f.nextVatID
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	f.vats[v.ID] = &v
	return v.ID, nil
}

func (f *fakeRepo) UpdateVat(_ context.Context, id int64, updates map[string]any) error {
	v, ok := f.vats[id]
	if !ok {
		return ErrVatNotFound
	}
	for field, value := range updates {
		switch field {
		case "statut":
			v.Statut = value.(VatStatus)
		case "capacite_litres":
			v.CapaciteLitres = value.(float64)
		}
	}
	return nil
}

func (f *fakeRepo) DeleteVat(_ context.Context, id int64) error {
	if _, ok := f.vats[id]; !ok {
		return ErrVatNotFound
	}
	delete(f.vats, id)
	return nil
}

func (f *fakeRepo) OccupyVat(_ context.Context, id int64) error {
	v, ok := f.vats[id]
	if !ok {
		return ErrVatNotFound
	}
	if v.Statut != VatAvailable {
		return ErrVatUnavailable
	}
	v.Statut = VatOccupied
	return nil
}

func (f *fakeRepo) ReleaseVat(_ context.Context, id int64) error {
	if v, ok := f.vats[id]; ok && v.Statut == VatOccupied {
		v.Statut = VatAvailable
	}
	return nil
}

func (f *fakeRepo) CountVats(context.Context) (int64, float64, error) {
	var sum float64
	for _, v := range f.vats {
		sum += v.CapaciteLitres
	}
	return int64(len(f.vats)), sum, nil
}

func (f *fakeRepo) VatsByStatut(context.Context) ([]VatStatusCount, error) {
	byStatus := map[VatStatus]*VatStatusCount{}
	for _, v := range f.vats {
		c, ok := byStatus[v.Statut]
		if !ok {
			c = &VatStatusCount{Statut: v.Statut}
			byStatus[v.Statut] = c
		}
		c.Count++
		c.Capacite += v.CapaciteLitres
	}
	var out []VatStatusCount
	for _, c := range byStatus {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeRepo) VatsByGroup(_ context.Context, column string) ([]VatGroupCount, error) {
	byLabel := map[string]*VatGroupCount{}
	for _, v := range f.vats {
		label := v.TypeBassin
		if column == "materiau" {
			label = v.Materiau
		}
		c, ok := byLabel[label]
		if !ok {
			c = &VatGroupCount{Label: label}
			byLabel[label] = c
		}
		c.Count++
		c.Capacite += v.CapaciteLitres
	}
	var out []VatGroupCount
	for _, c := range byLabel {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeRepo) ListLots(context.Context) ([]Lot, error) {
	out := make([]Lot, 0, len(f.lots))
	for _, l := range f.lots {
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeRepo) ListLotsByStatus(_ context.Context, status LotStatus) ([]Lot, error) {
	var out []Lot
	for _, l := range f.lots {
		if l.Statut == status {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetLot(_ context.Context, id int64) (*Lot, error) {
	l, ok := f.lots[id]
	if !ok {
		return nil, ErrLotNotFound
	}
	copied := *l
	return &copied, nil
}

func (f *fakeRepo) CreateLot(_ context.Context, l Lot) (int64, error) {
	for _, existing := range f.lots {
		if existing.NumeroLot == l.NumeroLot {
			return 0, ErrDuplicateLotNumber
		}
	}
	f.nextLotID++
	l.ID = f.nextLotID
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	f.lots[l.ID] = &l
	return l.ID, nil
}

func (f *fakeRepo) UpdateLot(_ context.Context, id int64, updates map[string]any) error {
	l, ok := f.lots[id]
	if !ok {
		return ErrLotNotFound
	}
	for field, value := range updates {
		switch field {
		case "statut":
			l.Statut = value.(LotStatus)
		case "bassin_id":
			v := value.(int64)
			l.BassinID = &v
		case "volume_final_litres":
			v := value.(float64)
			l.VolumeFinalLitres = &v
		}
	}
	return nil
}

func (f *fakeRepo) DeleteLot(_ context.Context, id int64) error {
	if _, ok := f.lots[id]; !ok {
		return ErrLotNotFound
	}
	delete(f.lots, id)
	return nil
}

func (f *fakeRepo) CountLots(context.Context) (int64, float64, error) {
	var sum float64
	for _, l := range f.lots {
		sum += l.VolumeInitialLitres
	}
	return int64(len(f.lots)), sum, nil
}

func (f *fakeRepo) LotsByStatut(context.Context) ([]LotStatusCount, error) {
	byStatus := map[LotStatus]int64{}
	for _, l := range f.lots {
		byStatus[l.Statut]++
	}
	var out []LotStatusCount
	for s, n := range byStatus {
		out = append(out, LotStatusCount{Statut: s, Count: n})
	}
	return out, nil
}

func (f *fakeRepo) LotsByType(context.Context) ([]LotTypeCount, error) {
	byType := map[string]int64{}
	for _, l := range f.lots {
		byType[l.TypeVin]++
	}
	var out []LotTypeCount
	for t, n := range byType {
		out = append(out, LotTypeCount{TypeVin: t, Count: n})
	}
	return out, nil
}

func (f *fakeRepo) ListAnalyses(_ context.Context, lotID int64) ([]Analysis, error) {
	var out []Analysis
	for _, a := range f.analyses {
		if a.LotProductionID == lotID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateAnalysis(_ context.Context, a Analysis) (int64, error) {
	f.nextAnalysisID++
	a.ID = f.nextAnalysisID
	a.CreatedAt = time.Now()
	f.analyses[a.ID] = &a
	return a.ID, nil
}

func (f *fakeRepo) GetAnalysis(_ context.Context, id int64) (*Analysis, error) {
	a, ok := f.analyses[id]
	if !ok {
		return nil, ErrAnalysisNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeRepo) DeleteAnalysis(_ context.Context, id int64) error {
	if _, ok := f.analyses[id]; !ok {
		return ErrAnalysisNotFound
	}
	delete(f.analyses, id)
	return nil
}

type fakeHarvests struct {
	ids map[int64]bool
}

func (f *fakeHarvests) GetHarvest(_ context.Context, id int64) (*vineyard.Harvest, error) {
	if !f.ids[id] {
		return nil, vineyard.ErrHarvestNotFound
	}
	return &vineyard.Harvest{ID: id}, nil
}

func newTestService(repo *fakeRepo, harvestIDs ...int64) *Service {
	ids := map[int64]bool{}
	for _, id := range harvestIDs {
		ids[id] = true
	}
	return NewService(repo, &fakeHarvests{ids: ids})
}

func seedVat(t *testing.T, repo *fakeRepo, statut VatStatus) int64 {
	t.Helper()
	id, err := repo.CreateVat(context.Background(), Vat{
		Nom:            "Cuve inox",
		CapaciteLitres: 5000,
		Materiau:       "inox",
		TypeBassin:     "fermentation",
		Statut:         statut,
	})
	require.NoError(t, err)
	return id
}

func TestCreateLotOccupiesVat(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)
	vatID := seedVat(t, repo, VatAvailable)
	harvestID := int64(1)

	lot, err := svc.CreateLot(context.Background(), CreateLotRequest{
		NumeroLot:           "LOT-2026-001",
		RecolteID:           &harvestID,
		BassinID:            &vatID,
		TypeVin:             "rouge",
		VolumeInitialLitres: 4200,
	})
	require.NoError(t, err)
	require.Equal(t, LotFermenting, lot.Statut)
	require.NotNil(t, lot.BassinID)

	vat, err := repo.GetVat(context.Background(), vatID)
	require.NoError(t, err)
	require.Equal(t, VatOccupied, vat.Statut)
}

func TestCreateLotVatUnavailable(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	vatID := seedVat(t, repo, VatOccupied)

	_, err := svc.CreateLot(context.Background(), CreateLotRequest{
		NumeroLot:           "LOT-2026-002",
		BassinID:            &vatID,
		TypeVin:             "blanc",
		VolumeInitialLitres: 1000,
	})
	require.ErrorIs(t, err, ErrVatUnavailable)
	require.Empty(t, repo.lots)
}

func TestCreateLotUnknownHarvest(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	harvestID := int64(42)

	_, err := svc.CreateLot(context.Background(), CreateLotRequest{
		NumeroLot:           "LOT-2026-003",
		RecolteID:           &harvestID,
		TypeVin:             "rouge",
		VolumeInitialLitres: 800,
	})
	require.ErrorIs(t, err, vineyard.ErrHarvestNotFound)
}

func TestCreateLotDuplicateNumber(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.CreateLot(context.Background(), CreateLotRequest{
		NumeroLot:           "LOT-2026-004",
		TypeVin:             "rouge",
		VolumeInitialLitres: 500,
	})
	require.NoError(t, err)

	_, err = svc.CreateLot(context.Background(), CreateLotRequest{
		NumeroLot:           "LOT-2026-004",
		TypeVin:             "rose",
		VolumeInitialLitres: 700,
	})
	require.ErrorIs(t, err, ErrDuplicateLotNumber)
}

func TestUpdateLotMovesVat(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	oldVat := seedVat(t, repo, VatAvailable)
	newVat := seedVat(t, repo, VatAvailable)

	lot, err := svc.CreateLot(context.Background(), CreateLotRequest{
		NumeroLot:           "LOT-2026-005",
		BassinID:            &oldVat,
		TypeVin:             "rouge",
		VolumeInitialLitres: 3000,
	})
	require.NoError(t, err)

	_, err = svc.UpdateLot(context.Background(), lot.ID, UpdateLotRequest{BassinID: &newVat})
	require.NoError(t, err)

	freed, err := repo.GetVat(context.Background(), oldVat)
	require.NoError(t, err)
	require.Equal(t, VatAvailable, freed.Statut)

	claimed, err := repo.GetVat(context.Background(), newVat)
	require.NoError(t, err)
	require.Equal(t, VatOccupied, claimed.Statut)
}

func TestDeleteLotReleasesVat(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	vatID := seedVat(t, repo, VatAvailable)

	lot, err := svc.CreateLot(context.Background(), CreateLotRequest{
		NumeroLot:           "LOT-2026-006",
		BassinID:            &vatID,
		TypeVin:             "blanc",
		VolumeInitialLitres: 2500,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLot(context.Background(), lot.ID))

	vat, err := repo.GetVat(context.Background(), vatID)
	require.NoError(t, err)
	require.Equal(t, VatAvailable, vat.Statut)
	require.Empty(t, repo.lots)
}

func TestUpdateLotStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	lot, err := svc.CreateLot(context.Background(), CreateLotRequest{
		NumeroLot:           "LOT-2026-007",
		TypeVin:             "rouge",
		VolumeInitialLitres: 1200,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateLotStatus(context.Background(), lot.ID, LotAging)
	require.NoError(t, err)
	require.Equal(t, LotAging, updated.Statut)

	_, err = svc.UpdateLotStatus(context.Background(), lot.ID, LotStatus("carbonise"))
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCreateAnalysisDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	lot, err := svc.CreateLot(context.Background(), CreateLotRequest{
		NumeroLot:           "LOT-2026-008",
		TypeVin:             "rouge",
		VolumeInitialLitres: 900,
	})
	require.NoError(t, err)

	analysis, err := svc.CreateAnalysis(context.Background(), lot.ID, CreateAnalysisRequest{
		TypeAnalyse: AnalysisFermentation,
	})
	require.NoError(t, err)
	require.True(t, analysis.Conforme)
	require.False(t, analysis.DateAnalyse.IsZero())

	_, err = svc.CreateAnalysis(context.Background(), 999, CreateAnalysisRequest{
		TypeAnalyse: AnalysisFinal,
	})
	require.ErrorIs(t, err, ErrLotNotFound)
}

func TestVatStats(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	seedVat(t, repo, VatAvailable)
	seedVat(t, repo, VatAvailable)
	seedVat(t, repo, VatMaintenance)

	stats, err := svc.VatStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Total)
	require.Equal(t, float64(15000), stats.CapaciteTotale)
	require.Len(t, stats.ParStatut, 2)
}
