package vineyard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

type fakeRepo struct {
	parcels       map[int64]*Parcel
	harvests      map[int64]*Harvest
	nextParcelID  int64
	nextHarvestID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{parcels: map[int64]*Parcel{}, harvests: map[int64]*Harvest{}}
}

func (f *fakeRepo) ListParcels(context.Context) ([]Parcel, error) {
	out := make([]Parcel, 0, len(f.parcels))
	for _, p := range f.parcels {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeRepo) GetParcel(_ context.Context, id int64) (*Parcel, error) {
	p, ok := f.parcels[id]
	if !ok {
		return nil, ErrParcelNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeRepo) CreateParcel(_ context.Context, p Parcel) (int64, error) {
	f.nextParcelID++
	p.ID = f.nextParcelID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.parcels[p.ID] = &p
	return p.ID, nil
}

func (f *fakeRepo) UpdateParcel(_ context.Context, id int64, updates map[string]any) error {
	p, ok := f.parcels[id]
	if !ok {
		return ErrParcelNotFound
	}
	for field, value := range updates {
		switch field {
		case "statut":
			p.Statut = value.(ParcelStatus)
		case "superficie":
			p.Superficie = value.(float64)
		}
	}
	return nil
}

func (f *fakeRepo) DeleteParcel(_ context.Context, id int64) error {
	if _, ok := f.parcels[id]; !ok {
		return ErrParcelNotFound
	}
	delete(f.parcels, id)
	return nil
}

func (f *fakeRepo) CountParcels(context.Context) (int64, float64, error) {
	var sum float64
	for _, p := range f.parcels {
		sum += p.Superficie
	}
	return int64(len(f.parcels)), sum, nil
}

func (f *fakeRepo) ParcelsByStatut(context.Context) ([]StatusCount, error) {
	byStatus := map[ParcelStatus]int64{}
	for _, p := range f.parcels {
		byStatus[p.Statut]++
	}
	var out []StatusCount
	for s, n := range byStatus {
		out = append(out, StatusCount{Statut: s, Count: n})
	}
	return out, nil
}

func (f *fakeRepo) ParcelsByCepage(context.Context) ([]CepageStat, error) {
	byCepage := map[string]*CepageStat{}
	for _, p := range f.parcels {
		c, ok := byCepage[p.Cepage]
		if !ok {
			c = &CepageStat{Cepage: p.Cepage}
			byCepage[p.Cepage] = c
		}
		c.Count++
		c.Superficie += p.Superficie
	}
	var out []CepageStat
	for _, c := range byCepage {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeRepo) ListHarvests(context.Context) ([]Harvest, error) {
	out := make([]Harvest, 0, len(f.harvests))
	for _, h := range f.harvests {
		out = append(out, *h)
	}
	return out, nil
}

func (f *fakeRepo) ListHarvestsByParcel(_ context.Context, parcelID int64) ([]Harvest, error) {
	var out []Harvest
	for _, h := range f.harvests {
		if h.ParcelleID == parcelID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListHarvestsByDate(_ context.Context, date shared.Date) ([]Harvest, error) {
	var out []Harvest
	for _, h := range f.harvests {
		if h.DateRecolte.Equal(date.Time) {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetHarvest(_ context.Context, id int64) (*Harvest, error) {
	h, ok := f.harvests[id]
	if !ok {
		return nil, ErrHarvestNotFound
	}
	copied := *h
	return &copied, nil
}

func (f *fakeRepo) CreateHarvest(_ context.Context, h Harvest) (int64, error) {
	f.nextHarvestID++
	h.ID = f.nextHarvestID
	h.CreatedAt = time.Now()
	f.harvests[h.ID] = &h
	return h.ID, nil
}

func (f *fakeRepo) UpdateHarvest(_ context.Context, id int64, updates map[string]any) error {
	h, ok := f.harvests[id]
	if !ok {
		return ErrHarvestNotFound
	}
	for field, value := range updates {
		switch field {
		case "quantite_kg":
			h.QuantiteKg = value.(float64)
		case "qualite_raisin":
			h.QualiteRaisin = value.(string)
		}
	}
	return nil
}

func (f *fakeRepo) DeleteHarvest(_ context.Context, id int64) error {
	if _, ok := f.harvests[id]; !ok {
		return ErrHarvestNotFound
	}
	delete(f.harvests, id)
	return nil
}

func (f *fakeRepo) CountHarvests(context.Context) (int64, float64, error) {
	var sum float64
	for _, h := range f.harvests {
		sum += h.QuantiteKg
	}
	return int64(len(f.harvests)), sum, nil
}

func (f *fakeRepo) HarvestsByQuality(context.Context) ([]QualityStat, error) {
	byQuality := map[string]*QualityStat{}
	for _, h := range f.harvests {
		q, ok := byQuality[h.QualiteRaisin]
		if !ok {
			q = &QualityStat{Qualite: h.QualiteRaisin}
			byQuality[h.QualiteRaisin] = q
		}
		q.Count++
		q.QuantiteKg += h.QuantiteKg
	}
	var out []QualityStat
	for _, q := range byQuality {
		out = append(out, *q)
	}
	return out, nil
}

func seedParcel(t *testing.T, svc *Service, superficie float64, cepage string) *Parcel {
	t.Helper()
	p, err := svc.CreateParcel(context.Background(), CreateParcelRequest{
		Nom:        "Parcelle " + cepage,
		Superficie: superficie,
		Cepage:     cepage,
	})
	require.NoError(t, err)
	return p
}

func TestCreateParcelDefaultsToActive(t *testing.T) {
	svc := NewService(newFakeRepo())

	p := seedParcel(t, svc, 2.5, "Petit Bouschet")
	require.Equal(t, ParcelActive, p.Statut)
}

func TestCreateHarvestRequiresExistingParcel(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.CreateHarvest(context.Background(), CreateHarvestRequest{
		ParcelleID:    42,
		QuantiteKg:    500,
		QualiteRaisin: "excellente",
	})
	require.ErrorIs(t, err, ErrParcelNotFound)
}

func TestListHarvestsByDateRejectsBadFormat(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.ListHarvestsByDate(context.Background(), "15/01/2025")
	require.ErrorIs(t, err, ErrInvalidDateFilter)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestListHarvestsByDate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	p := seedParcel(t, svc, 1.2, "Varamena")

	date, err := shared.ParseDate("2025-09-10")
	require.NoError(t, err)
	_, err = svc.CreateHarvest(context.Background(), CreateHarvestRequest{
		ParcelleID:    p.ID,
		DateRecolte:   &date,
		QuantiteKg:    300,
		QualiteRaisin: "bonne",
	})
	require.NoError(t, err)

	out, err := svc.ListHarvestsByDate(context.Background(), "2025-09-10")
	require.NoError(t, err)
	require.Len(t, out, 1)

	out, err = svc.ListHarvestsByDate(context.Background(), "2025-09-11")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestParcelStats(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	seedParcel(t, svc, 2.0, "Petit Bouschet")
	seedParcel(t, svc, 3.0, "Petit Bouschet")
	seedParcel(t, svc, 1.5, "Varamena")

	stats, err := svc.ParcelStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Total)
	require.Equal(t, 6.5, stats.SuperficieTotale)
	require.Len(t, stats.ParCepage, 2)
}

func TestHarvestStats(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	p := seedParcel(t, svc, 2.0, "Varamena")

	for _, kg := range []float64{200, 300} {
		_, err := svc.CreateHarvest(context.Background(), CreateHarvestRequest{
			ParcelleID:    p.ID,
			QuantiteKg:    kg,
			QualiteRaisin: "bonne",
		})
		require.NoError(t, err)
	}

	stats, err := svc.HarvestStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Total)
	require.Equal(t, 500.0, stats.QuantiteTotaleKg)
	require.Len(t, stats.ParQualite, 1)
}
