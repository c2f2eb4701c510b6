package deliveries

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/lazani-bestileo/bestileo-erp/internal/numbering"
	"github.com/lazani-bestileo/bestileo-erp/internal/orders"
	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/products"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

type fakeRepo struct {
	notes      map[int64]*Delivery
	lines      map[int64][]DeliveryLine
	nextID     int64
	nextLineID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{notes: map[int64]*Delivery{}, lines: map[int64][]DeliveryLine{}}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) List(ctx context.Context) ([]Delivery, error) {
	out := make([]Delivery, 0, len(f.notes))
	for id := range f.notes {
		d, _ := f.Get(ctx, id)
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeRepo) ListByStatus(ctx context.Context, status Status) ([]Delivery, error) {
	var out []Delivery
	for id, d := range f.notes {
		if d.Statut == status {
			got, _ := f.Get(ctx, id)
			out = append(out, *got)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByOrder(ctx context.Context, orderID int64) ([]Delivery, error) {
	var out []Delivery
	for id, d := range f.notes {
		if d.CommandeID == orderID {
			got, _ := f.Get(ctx, id)
			out = append(out, *got)
		}
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Delivery, error) {
	d, ok := f.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *d
	copied.Details = append([]DeliveryLine{}, f.lines[id]...)
	copied.Commande = &OrderRef{ID: d.CommandeID}
	return &copied, nil
}

func (f *fakeRepo) Insert(_ context.Context, d Delivery) (int64, error) {
	f.nextID++
	d.ID = f.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	f.notes[d.ID] = &d
	return d.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, updates map[string]any) error {
	d, ok := f.notes[id]
	if !ok {
		return ErrNotFound
	}
	for field, value := range updates {
		switch field {
		case "statut":
			d.Statut = value.(Status)
		case "adresse_livraison":
			d.AdresseLivraison = value.(string)
		case "date_livraison_effective":
			date := value.(shared.Date)
			d.DateLivraisonEffective = &date
		}
	}
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.notes[id]; !ok {
		return ErrNotFound
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeRepo) InsertLine(_ context.Context, l DeliveryLine) (int64, error) {
	f.nextLineID++
	l.ID = f.nextLineID
	f.lines[l.BonLivraisonID] = append(f.lines[l.BonLivraisonID], l)
	return l.ID, nil
}

func (f *fakeRepo) DeleteLines(_ context.Context, deliveryID int64) error {
	delete(f.lines, deliveryID)
	return nil
}

func (f *fakeRepo) Count(context.Context) (int64, error) {
	return int64(len(f.notes)), nil
}

func (f *fakeRepo) CountByStatut(context.Context) (map[Status]int64, error) {
	out := map[Status]int64{}
	for _, d := range f.notes {
		out[d.Statut]++
	}
	return out, nil
}

type fakeOrders struct {
	known map[int64]bool
}

func (f fakeOrders) Get(_ context.Context, id int64) (*orders.Order, error) {
	if !f.known[id] {
		return nil, orders.ErrNotFound
	}
	return &orders.Order{ID: id}, nil
}

type fakeProducts struct {
	missing map[int64]bool
}

func (f fakeProducts) Get(_ context.Context, id int64) (*products.Product, error) {
	if f.missing[id] {
		return nil, products.ErrNotFound
	}
	return &products.Product{ID: id}, nil
}

func newTestService(repo Repository, orderIDs ...int64) *Service {
	known := map[int64]bool{}
	for _, id := range orderIDs {
		known[id] = true
	}
	return NewService(repo, fakeOrders{known: known}, fakeProducts{}, numbering.New(nil))
}

func TestCreateGeneratesNumber(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	d, err := svc.Create(context.Background(), CreateDeliveryRequest{
		CommandeID:       1,
		AdresseLivraison: "Lot II A 54, Ambalavao",
		Details:          []LineRequest{{ProduitID: 2, QuantiteCommandee: 10, QuantiteLivree: 10}},
	})
	require.NoError(t, err)

	want := fmt.Sprintf("BL-%s-0001", time.Now().Format("20060102"))
	require.Equal(t, want, d.NumeroBon)
	require.Equal(t, StatusPreparing, d.Statut)
	require.Len(t, d.Details, 1)
}

func TestCreateRejectsUnknownOrder(t *testing.T) {
	svc := newTestService(newFakeRepo(), 1)

	_, err := svc.Create(context.Background(), CreateDeliveryRequest{
		CommandeID:       9,
		AdresseLivraison: "Ambalavao",
		Details:          []LineRequest{{ProduitID: 2, QuantiteCommandee: 1}},
	})
	require.ErrorIs(t, err, orders.ErrNotFound)
}

func TestCreateRejectsDeliveredOverOrdered(t *testing.T) {
	svc := newTestService(newFakeRepo(), 1)

	_, err := svc.Create(context.Background(), CreateDeliveryRequest{
		CommandeID:       1,
		AdresseLivraison: "Ambalavao",
		Details:          []LineRequest{{ProduitID: 2, QuantiteCommandee: 5, QuantiteLivree: 8}},
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateReplacesLines(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	d, err := svc.Create(context.Background(), CreateDeliveryRequest{
		CommandeID:       1,
		AdresseLivraison: "Ambalavao",
		Details: []LineRequest{
			{ProduitID: 2, QuantiteCommandee: 10, QuantiteLivree: 0},
			{ProduitID: 3, QuantiteCommandee: 4, QuantiteLivree: 0},
		},
	})
	require.NoError(t, err)
	require.Len(t, d.Details, 2)

	details := []LineRequest{{ProduitID: 2, QuantiteCommandee: 10, QuantiteLivree: 10}}
	updated, err := svc.Update(context.Background(), d.ID, UpdateDeliveryRequest{Details: &details})
	require.NoError(t, err)
	require.Len(t, updated.Details, 1)
	require.Equal(t, 10, updated.Details[0].QuantiteLivree)
}

func TestDeleteCascadesLines(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	d, err := svc.Create(context.Background(), CreateDeliveryRequest{
		CommandeID:       1,
		AdresseLivraison: "Ambalavao",
		Details: []LineRequest{
			{ProduitID: 2, QuantiteCommandee: 1},
			{ProduitID: 3, QuantiteCommandee: 1},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), d.ID))
	_, err = svc.Get(context.Background(), d.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, repo.lines[d.ID])
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	_, err := svc.UpdateStatus(context.Background(), 1, Status("perdu"))
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStats(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	for i := 0; i < 2; i++ {
		_, err := svc.Create(context.Background(), CreateDeliveryRequest{
			CommandeID:       1,
			AdresseLivraison: "Ambalavao",
			Details:          []LineRequest{{ProduitID: 2, QuantiteCommandee: 1}},
		})
		require.NoError(t, err)
	}
	_, err := svc.UpdateStatus(context.Background(), 1, StatusDelivered)
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Total)
	require.Equal(t, int64(1), stats.EnPreparation)
	require.Equal(t, int64(1), stats.Livre)
}

// alwaysCollideRepo rejects every insert with a unique violation.
type alwaysCollideRepo struct {
	*fakeRepo
}

func (f *alwaysCollideRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, f)
}

func (f *alwaysCollideRepo) Insert(context.Context, Delivery) (int64, error) {
	return 0, &pgconn.PgError{Code: "23505", ConstraintName: "bons_livraison_numero_bon_key"}
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeOrders{known: map[int64]bool{1: true}},
		fakeProducts{missing: map[int64]bool{42: true}}, numbering.New(nil))

	_, err := svc.Create(context.Background(), CreateDeliveryRequest{
		CommandeID:       1,
		AdresseLivraison: "Ambalavao",
		Details:          []LineRequest{{ProduitID: 42, QuantiteCommandee: 1}},
	})
	require.ErrorIs(t, err, products.ErrNotFound)
	require.Empty(t, repo.notes)
}

func TestCreateExhaustedNumberCollisionIsConflict(t *testing.T) {
	repo := &alwaysCollideRepo{fakeRepo: newFakeRepo()}
	svc := newTestService(repo, 1)

	_, err := svc.Create(context.Background(), CreateDeliveryRequest{
		CommandeID:       1,
		AdresseLivraison: "Ambalavao",
		Details:          []LineRequest{{ProduitID: 2, QuantiteCommandee: 1}},
	})
	require.ErrorIs(t, err, ErrDuplicateNumber)
	require.ErrorIs(t, err, httpx.ErrConflict)
}
