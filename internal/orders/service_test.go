package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/lazani-bestileo/bestileo-erp/internal/clients"
	"github.com/lazani-bestileo/bestileo-erp/internal/numbering"
	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/products"
)

type fakeRepo struct {
	orders     map[int64]*Order
	lines      map[int64][]OrderLine
	nextID     int64
	nextLineID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[int64]*Order{}, lines: map[int64][]OrderLine{}}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) List(ctx context.Context) ([]Order, error) {
	out := make([]Order, 0, len(f.orders))
	for id := range f.orders {
		o, _ := f.Get(ctx, id)
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeRepo) ListByStatus(ctx context.Context, status Status) ([]Order, error) {
	var out []Order
	for id, o := range f.orders {
		if o.Statut == status {
			got, _ := f.Get(ctx, id)
			out = append(out, *got)
		}
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *o
	copied.Details = append([]OrderLine{}, f.lines[id]...)
	copied.Client = &clients.Client{ID: o.ClientID}
	return &copied, nil
}

func (f *fakeRepo) Insert(_ context.Context, o Order) (int64, error) {
	for _, existing := range f.orders {
		if existing.NumeroCommande == o.NumeroCommande {
			return 0, &pgconn.PgError{Code: "23505", ConstraintName: "commandes_numero_commande_key"}
		}
	}
	f.nextID++
	o.ID = f.nextID
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	f.orders[o.ID] = &o
	return o.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, updates map[string]any) error {
	o, ok := f.orders[id]
	if !ok {
		return ErrNotFound
	}
	for field, value := range updates {
		switch field {
		case "statut":
			o.Statut = value.(Status)
		case "montant_total":
			o.MontantTotal = value.(float64)
		case "client_id":
			o.ClientID = value.(int64)
		case "tva":
			o.TVA = value.(float64)
		case "remise":
			o.Remise = value.(float64)
		case "notes":
			notes := value.(string)
			o.Notes = &notes
		}
	}
	o.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.orders[id]; !ok {
		return ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

func (f *fakeRepo) InsertLine(_ context.Context, l OrderLine) (int64, error) {
	f.nextLineID++
	l.ID = f.nextLineID
	f.lines[l.CommandeID] = append(f.lines[l.CommandeID], l)
	return l.ID, nil
}

func (f *fakeRepo) DeleteLines(_ context.Context, orderID int64) error {
	delete(f.lines, orderID)
	return nil
}

func (f *fakeRepo) Count(context.Context) (int64, error) {
	return int64(len(f.orders)), nil
}

func (f *fakeRepo) CountByStatut(context.Context) (map[Status]int64, error) {
	out := map[Status]int64{}
	for _, o := range f.orders {
		out[o.Statut]++
	}
	return out, nil
}

func (f *fakeRepo) SumMontantTotal(context.Context) (float64, error) {
	var sum float64
	for _, o := range f.orders {
		sum += o.MontantTotal
	}
	return sum, nil
}

type fakeClients struct {
	known map[int64]bool
}

func (f fakeClients) Get(_ context.Context, id int64) (*clients.Client, error) {
	if !f.known[id] {
		return nil, clients.ErrNotFound
	}
	return &clients.Client{ID: id}, nil
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

func newTestService(repo Repository, clientIDs ...int64) *Service {
	known := map[int64]bool{}
	for _, id := range clientIDs {
		known[id] = true
	}
	return NewService(repo, fakeClients{known: known}, fakeProducts{}, numbering.New(nil))
}

func seedOrders(t *testing.T, svc *Service, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := svc.Create(context.Background(), CreateOrderRequest{
			ClientID: 1,
			Details:  []LineRequest{{ProduitID: 5, Quantite: 1, PrixUnitaire: 1000}},
		})
		require.NoError(t, err)
	}
}

func TestCreateComputesNumberAndTotal(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)
	seedOrders(t, svc, 3)

	o, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 1,
		Details:  []LineRequest{{ProduitID: 5, Quantite: 2, PrixUnitaire: 15000}},
	})
	require.NoError(t, err)

	want := fmt.Sprintf("CMD-%s-0004", time.Now().Format("20060102"))
	require.Equal(t, want, o.NumeroCommande)
	require.Equal(t, 30000.0, o.MontantTotal)
	require.Equal(t, StatusPending, o.Statut)
	require.Len(t, o.Details, 1)
	require.Equal(t, 30000.0, o.Details[0].PrixTotal)
}

func TestCreateSumsAllLines(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	o, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 1,
		Details: []LineRequest{
			{ProduitID: 2, Quantite: 3, PrixUnitaire: 1000},
			{ProduitID: 3, Quantite: 2, PrixUnitaire: 2500},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 8000.0, o.MontantTotal)
	require.Len(t, o.Details, 2)
}

func TestCreateRejectsUnknownClient(t *testing.T) {
	svc := newTestService(newFakeRepo(), 1)

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 42,
		Details:  []LineRequest{{ProduitID: 5, Quantite: 1, PrixUnitaire: 100}},
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateRejectsEmptyDetails(t *testing.T) {
	svc := newTestService(newFakeRepo(), 1)

	_, err := svc.Create(context.Background(), CreateOrderRequest{ClientID: 1})
	require.ErrorIs(t, err, ErrNoLines)
}

func TestUpdateReplacesLinesAndRecomputesTotal(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	o, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 1,
		Details: []LineRequest{
			{ProduitID: 2, Quantite: 1, PrixUnitaire: 1000},
			{ProduitID: 3, Quantite: 1, PrixUnitaire: 2000},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 3000.0, o.MontantTotal)

	details := []LineRequest{{ProduitID: 4, Quantite: 5, PrixUnitaire: 400}}
	updated, err := svc.Update(context.Background(), o.ID, UpdateOrderRequest{Details: &details})
	require.NoError(t, err)
	require.Equal(t, 2000.0, updated.MontantTotal)
	require.Len(t, updated.Details, 1)
	require.Equal(t, int64(4), updated.Details[0].ProduitID)
}

func TestUpdateUnknownOrder(t *testing.T) {
	svc := newTestService(newFakeRepo(), 1)

	_, err := svc.Update(context.Background(), 99, UpdateOrderRequest{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCascadesLines(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	o, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 1,
		Details:  []LineRequest{{ProduitID: 5, Quantite: 1, PrixUnitaire: 100}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), o.ID))
	_, err = svc.Get(context.Background(), o.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, repo.lines[o.ID])
}

func TestUpdateStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	o, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 1,
		Details:  []LineRequest{{ProduitID: 5, Quantite: 1, PrixUnitaire: 100}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, o.Statut)

	updated, err := svc.UpdateStatus(context.Background(), o.ID, StatusDelivered)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, updated.Statut)

	// Corrections back to an earlier status are allowed.
	updated, err = svc.UpdateStatus(context.Background(), o.ID, StatusPending)
	require.NoError(t, err)
	require.Equal(t, StatusPending, updated.Statut)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)
	seedOrders(t, svc, 1)

	_, err := svc.UpdateStatus(context.Background(), 1, Status("expediee"))
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestStats(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)
	seedOrders(t, svc, 3)

	_, err := svc.UpdateStatus(context.Background(), 1, StatusDelivered)
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Total)
	require.Equal(t, int64(2), stats.EnAttente)
	require.Equal(t, int64(1), stats.Livrees)
	require.Equal(t, 3000.0, stats.MontantTotal)
}

// collideOnceRepo fails the first insert with a unique violation, as a
// concurrent creation racing the same sequence would.
type collideOnceRepo struct {
	*fakeRepo
	collisions int
}

func (f *collideOnceRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, f)
}

func (f *collideOnceRepo) Insert(ctx context.Context, o Order) (int64, error) {
	if f.collisions > 0 {
		f.collisions--
		return 0, &pgconn.PgError{Code: "23505", ConstraintName: "commandes_numero_commande_key"}
	}
	return f.fakeRepo.Insert(ctx, o)
}

// alwaysCollideRepo rejects every insert with a unique violation.
type alwaysCollideRepo struct {
	*fakeRepo
}

func (f *alwaysCollideRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, f)
}

func (f *alwaysCollideRepo) Insert(context.Context, Order) (int64, error) {
	return 0, &pgconn.PgError{Code: "23505", ConstraintName: "commandes_numero_commande_key"}
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeClients{known: map[int64]bool{1: true}},
		fakeProducts{missing: map[int64]bool{42: true}}, numbering.New(nil))

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 1,
		Details:  []LineRequest{{ProduitID: 42, Quantite: 1, PrixUnitaire: 100}},
	})
	require.ErrorIs(t, err, products.ErrNotFound)
	require.Empty(t, repo.orders)
}

func TestUpdateRejectsUnknownProduct(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeClients{known: map[int64]bool{1: true}},
		fakeProducts{missing: map[int64]bool{42: true}}, numbering.New(nil))

	o, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 1,
		Details:  []LineRequest{{ProduitID: 5, Quantite: 1, PrixUnitaire: 100}},
	})
	require.NoError(t, err)

	details := []LineRequest{{ProduitID: 42, Quantite: 1, PrixUnitaire: 100}}
	_, err = svc.Update(context.Background(), o.ID, UpdateOrderRequest{Details: &details})
	require.ErrorIs(t, err, products.ErrNotFound)
	require.Len(t, repo.lines[o.ID], 1)
}

func TestCreateRetriesOnNumberCollision(t *testing.T) {
	repo := &collideOnceRepo{fakeRepo: newFakeRepo(), collisions: 1}
	svc := newTestService(repo, 1)

	o, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 1,
		Details:  []LineRequest{{ProduitID: 5, Quantite: 1, PrixUnitaire: 100}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, o.NumeroCommande)
}

func TestCreateExhaustedNumberCollisionIsConflict(t *testing.T) {
	repo := &alwaysCollideRepo{fakeRepo: newFakeRepo()}
	svc := newTestService(repo, 1)

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		ClientID: 1,
		Details:  []LineRequest{{ProduitID: 5, Quantite: 1, PrixUnitaire: 100}},
	})
	require.ErrorIs(t, err, ErrDuplicateNumber)
	require.ErrorIs(t, err, httpx.ErrConflict)
}
