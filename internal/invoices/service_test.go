package invoices

import (
	"context"
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
	invoices   map[int64]*Invoice
	lines      map[int64][]InvoiceLine
	nextID     int64
	nextLineID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{invoices: map[int64]*Invoice{}, lines: map[int64][]InvoiceLine{}}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) List(ctx context.Context) ([]Invoice, error) {
	out := make([]Invoice, 0, len(f.invoices))
	for id := range f.invoices {
		inv, _ := f.Get(ctx, id)
		out = append(out, *inv)
	}
	return out, nil
}

func (f *fakeRepo) ListByStatus(ctx context.Context, status Status) ([]Invoice, error) {
	var out []Invoice
	for id, inv := range f.invoices {
		if inv.Statut == status {
			got, _ := f.Get(ctx, id)
			out = append(out, *got)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByClient(ctx context.Context, clientID int64) ([]Invoice, error) {
	var out []Invoice
	for id, inv := range f.invoices {
		if inv.ClientID == clientID {
			got, _ := f.Get(ctx, id)
			out = append(out, *got)
		}
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *inv
	copied.Details = append([]InvoiceLine{}, f.lines[id]...)
	copied.Client = &clients.Client{ID: inv.ClientID}
	return &copied, nil
}

func (f *fakeRepo) Insert(_ context.Context, inv Invoice) (int64, error) {
	f.nextID++
	inv.ID = f.nextID
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	f.invoices[inv.ID] = &inv
	return inv.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, updates map[string]any) error {
	inv, ok := f.invoices[id]
	if !ok {
		return ErrNotFound
	}
	for field, value := range updates {
		switch field {
		case "statut":
			inv.Statut = value.(Status)
		case "montant_ht":
			inv.MontantHT = value.(float64)
		case "montant_tva":
			inv.MontantTVA = value.(float64)
		case "montant_ttc":
			inv.MontantTTC = value.(float64)
		case "remise":
			inv.Remise = value.(float64)
		case "taux_tva":
			inv.TauxTVA = value.(float64)
		}
	}
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.invoices[id]; !ok {
		return ErrNotFound
	}
	delete(f.invoices, id)
	return nil
}

func (f *fakeRepo) InsertLine(_ context.Context, l InvoiceLine) (int64, error) {
	f.nextLineID++
	l.ID = f.nextLineID
	f.lines[l.FactureID] = append(f.lines[l.FactureID], l)
	return l.ID, nil
}

func (f *fakeRepo) DeleteLines(_ context.Context, invoiceID int64) error {
	delete(f.lines, invoiceID)
	return nil
}

func (f *fakeRepo) Count(context.Context) (int64, error) {
	return int64(len(f.invoices)), nil
}

func (f *fakeRepo) CountByMonth(_ context.Context, month time.Time) (int64, error) {
	var n int64
	for _, inv := range f.invoices {
		if inv.DateFacture.Format("200601") == month.Format("200601") {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) CountByStatut(context.Context) (map[Status]int64, error) {
	out := map[Status]int64{}
	for _, inv := range f.invoices {
		out[inv.Statut]++
	}
	return out, nil
}

func (f *fakeRepo) Revenue(context.Context) (total, month, paid float64, err error) {
	now := time.Now().Format("200601")
	for _, inv := range f.invoices {
		if inv.Statut == StatusCancelled {
			continue
		}
		total += inv.MontantTTC
		if inv.DateFacture.Format("200601") == now {
			month += inv.MontantTTC
		}
		if inv.Statut == StatusPaid {
			paid += inv.MontantTTC
		}
	}
	return total, month, paid, nil
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

func TestCreateDerivesAmounts(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID: 1,
		Remise:   1000,
		Details: []LineRequest{
			{ProduitID: 2, Quantite: 4, PrixUnitaire: 5000},
			{ProduitID: 3, Quantite: 2, PrixUnitaire: 3000},
		},
	})
	require.NoError(t, err)

	// lines 26000 - remise 1000 = 25000 HT, 20% VAT
	require.Equal(t, 25000.0, inv.MontantHT)
	require.Equal(t, 5000.0, inv.MontantTVA)
	require.Equal(t, 30000.0, inv.MontantTTC)
	require.Equal(t, DefaultTauxTVA, inv.TauxTVA)
	require.Equal(t, StatusDraft, inv.Statut)
}

func TestCreateNumbersWithinMonth(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	for i := 0; i < 2; i++ {
		_, err := svc.Create(context.Background(), CreateInvoiceRequest{
			ClientID: 1,
			Details:  []LineRequest{{ProduitID: 2, Quantite: 1, PrixUnitaire: 100}},
		})
		require.NoError(t, err)
	}

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID: 1,
		Details:  []LineRequest{{ProduitID: 2, Quantite: 1, PrixUnitaire: 100}},
	})
	require.NoError(t, err)

	want := fmt.Sprintf("FACT%s0003", time.Now().Format("200601"))
	require.Equal(t, want, inv.NumeroFacture)
}

func TestCreateRejectsUnknownClient(t *testing.T) {
	svc := newTestService(newFakeRepo(), 1)

	_, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID: 77,
		Details:  []LineRequest{{ProduitID: 2, Quantite: 1, PrixUnitaire: 100}},
	})
	require.ErrorIs(t, err, clients.ErrNotFound)
}

func TestUpdateRecomputesAmountsOnDiscountChange(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID: 1,
		Details:  []LineRequest{{ProduitID: 2, Quantite: 10, PrixUnitaire: 1000}},
	})
	require.NoError(t, err)
	require.Equal(t, 10000.0, inv.MontantHT)

	remise := 2000.0
	updated, err := svc.Update(context.Background(), inv.ID, UpdateInvoiceRequest{Remise: &remise})
	require.NoError(t, err)
	require.Equal(t, 8000.0, updated.MontantHT)
	require.Equal(t, 9600.0, updated.MontantTTC)
}

func TestUpdateReplacesLines(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID: 1,
		Details: []LineRequest{
			{ProduitID: 2, Quantite: 1, PrixUnitaire: 1000},
			{ProduitID: 3, Quantite: 1, PrixUnitaire: 2000},
		},
	})
	require.NoError(t, err)

	details := []LineRequest{{ProduitID: 4, Quantite: 2, PrixUnitaire: 500}}
	updated, err := svc.Update(context.Background(), inv.ID, UpdateInvoiceRequest{Details: &details})
	require.NoError(t, err)
	require.Len(t, updated.Details, 1)
	require.Equal(t, 1000.0, updated.MontantHT)
}

func TestDiscountLargerThanLinesClampsToZero(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID: 1,
		Remise:   5000,
		Details:  []LineRequest{{ProduitID: 2, Quantite: 1, PrixUnitaire: 1000}},
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, inv.MontantHT)
	require.Equal(t, 0.0, inv.MontantTTC)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	svc := newTestService(newFakeRepo(), 1)

	_, err := svc.UpdateStatus(context.Background(), 1, Status("perdue"))
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStats(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), CreateInvoiceRequest{
			ClientID: 1,
			Details:  []LineRequest{{ProduitID: 2, Quantite: 1, PrixUnitaire: 1000}},
		})
		require.NoError(t, err)
	}
	_, err := svc.UpdateStatus(context.Background(), 1, StatusPaid)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), 2, StatusCancelled)
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Total)
	require.Equal(t, int64(1), stats.Payees)
	require.Equal(t, int64(1), stats.Annulees)
	require.Equal(t, 2400.0, stats.CATotal)
	require.Equal(t, 1200.0, stats.CAPaye)
}

func TestRenderPDF(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 1)

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID: 1,
		Details:  []LineRequest{{ProduitID: 2, Quantite: 2, PrixUnitaire: 15000}},
	})
	require.NoError(t, err)

	doc, err := RenderPDF(inv)
	require.NoError(t, err)
	require.NotEmpty(t, doc)
	require.Equal(t, "%PDF", string(doc[:4]))
}

// alwaysCollideRepo rejects every insert with a unique violation.
type alwaysCollideRepo struct {
	*fakeRepo
}

func (f *alwaysCollideRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, f)
}

func (f *alwaysCollideRepo) Insert(context.Context, Invoice) (int64, error) {
	return 0, &pgconn.PgError{Code: "23505", ConstraintName: "factures_numero_facture_key"}
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeClients{known: map[int64]bool{1: true}},
		fakeProducts{missing: map[int64]bool{42: true}}, numbering.New(nil))

	_, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID: 1,
		Details:  []LineRequest{{ProduitID: 42, Quantite: 1, PrixUnitaire: 100}},
	})
	require.ErrorIs(t, err, products.ErrNotFound)
	require.Empty(t, repo.invoices)
}

func TestCreateExhaustedNumberCollisionIsConflict(t *testing.T) {
	repo := &alwaysCollideRepo{fakeRepo: newFakeRepo()}
	svc := newTestService(repo, 1)

	_, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ClientID: 1,
		Details:  []LineRequest{{ProduitID: 2, Quantite: 1, PrixUnitaire: 100}},
	})
	require.ErrorIs(t, err, ErrDuplicateNumber)
	require.ErrorIs(t, err, httpx.ErrConflict)
}
