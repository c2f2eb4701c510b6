package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lazani-bestileo/bestileo-erp/internal/clients"
	"github.com/lazani-bestileo/bestileo-erp/internal/platform/db"
)

// Repository defines persistence operations for invoices and their lines.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context) ([]Invoice, error)
	ListByStatus(ctx context.Context, status Status) ([]Invoice, error)
	ListByClient(ctx context.Context, clientID int64) ([]Invoice, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	Insert(ctx context.Context, inv Invoice) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error

	InsertLine(ctx context.Context, l InvoiceLine) (int64, error)
	DeleteLines(ctx context.Context, invoiceID int64) error

	Count(ctx context.Context) (int64, error)
	CountByMonth(ctx context.Context, month time.Time) (int64, error)
	CountByStatut(ctx context.Context) (map[Status]int64, error)
	Revenue(ctx context.Context) (total, month, paid float64, err error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const invoiceSelect = `
	SELECT f.id, f.numero_facture, f.client_id, f.commande_id, f.date_facture,
		f.date_echeance, f.montant_ht, f.taux_tva, f.montant_tva, f.montant_ttc,
		f.remise, f.statut, f.notes, f.created_at, f.updated_at,
		c.id, c.nom, c.prenom, c.entreprise, c.email, c.telephone, c.adresse, c.ville,
		c.code_postal, c.pays, c.type_client, c.statut, c.created_at, c.updated_at
	FROM factures f
	JOIN clients c ON c.id = f.client_id`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv Invoice
		c   clients.Client
	)
	err := row.Scan(&inv.ID, &inv.NumeroFacture, &inv.ClientID, &inv.CommandeID,
		&inv.DateFacture, &inv.DateEcheance, &inv.MontantHT, &inv.TauxTVA,
		&inv.MontantTVA, &inv.MontantTTC, &inv.Remise, &inv.Statut, &inv.Notes,
		&inv.CreatedAt, &inv.UpdatedAt,
		&c.ID, &c.Nom, &c.Prenom, &c.Entreprise, &c.Email, &c.Telephone,
		&c.Adresse, &c.Ville, &c.CodePostal, &c.Pays, &c.Type, &c.Statut,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	inv.Client = &c
	return &inv, nil
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.attachLines(ctx, out)
}

func (r *repository) attachLines(ctx context.Context, invoices []Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	ids := make([]int64, len(invoices))
	index := make(map[int64]*Invoice, len(invoices))
	for i := range invoices {
		ids[i] = invoices[i].ID
		index[invoices[i].ID] = &invoices[i]
		invoices[i].Details = []InvoiceLine{}
	}

	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.facture_id, d.produit_id, d.quantite, d.prix_unitaire,
			d.prix_total, d.created_at,
			p.id, p.nom, p.type_vin, p.millesime
		FROM facture_details d
		JOIN produits p ON p.id = d.produit_id
		WHERE d.facture_id = ANY($1)
		ORDER BY d.id ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l InvoiceLine
			p LineProduct
		)
		if err := rows.Scan(&l.ID, &l.FactureID, &l.ProduitID, &l.Quantite,
			&l.PrixUnitaire, &l.PrixTotal, &l.CreatedAt,
			&p.ID, &p.Nom, &p.TypeVin, &p.Millesime); err != nil {
			return err
		}
		l.Produit = &p
		if inv, ok := index[l.FactureID]; ok {
			inv.Details = append(inv.Details, l)
		}
	}
	return rows.Err()
}

func (r *repository) List(ctx context.Context) ([]Invoice, error) {
	return r.list(ctx, invoiceSelect+` ORDER BY f.created_at DESC`)
}

func (r *repository) ListByStatus(ctx context.Context, status Status) ([]Invoice, error) {
	return r.list(ctx, invoiceSelect+` WHERE f.statut = $1 ORDER BY f.created_at DESC`, status)
}

func (r *repository) ListByClient(ctx context.Context, clientID int64) ([]Invoice, error) {
	return r.list(ctx, invoiceSelect+` WHERE f.client_id = $1 ORDER BY f.created_at DESC`, clientID)
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, invoiceSelect+` WHERE f.id = $1`, id))
	if err != nil {
		return nil, err
	}
	single := []Invoice{*inv}
	if err := r.attachLines(ctx, single); err != nil {
		return nil, err
	}
	return &single[0], nil
}

func (r *repository) Insert(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO factures (numero_facture, client_id, commande_id, date_facture,
			date_echeance, montant_ht, taux_tva, montant_tva, montant_ttc,
			remise, statut, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		inv.NumeroFacture, inv.ClientID, inv.CommandeID, inv.DateFacture,
		inv.DateEcheance, inv.MontantHT, inv.TauxTVA, inv.MontantTVA,
		inv.MontantTTC, inv.Remise, inv.Statut, inv.Notes,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(updates)+1)
	args := make([]any, 0, len(updates)+2)
	argPos := 1
	for field, value := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argPos))
		args = append(args, value)
		argPos++
	}
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now())
	argPos++
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE factures SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM factures WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertLine(ctx context.Context, l InvoiceLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO facture_details (facture_id, produit_id, quantite, prix_unitaire, prix_total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		l.FactureID, l.ProduitID, l.Quantite, l.PrixUnitaire, l.PrixTotal,
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteLines(ctx context.Context, invoiceID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM facture_details WHERE facture_id = $1`, invoiceID)
	return err
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM factures`).Scan(&n)
	return n, err
}

// CountByMonth counts the invoices dated in the same calendar month as month.
func (r *repository) CountByMonth(ctx context.Context, month time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM factures
		WHERE date_trunc('month', date_facture) = date_trunc('month', $1::date)`,
		month).Scan(&n)
	return n, err
}

func (r *repository) CountByStatut(ctx context.Context) (map[Status]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT statut, count(*) FROM factures GROUP BY statut`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Status]int64)
	for rows.Next() {
		var (
			s Status
			n int64
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

// Revenue sums invoiced amounts: everything except cancelled invoices, the
// current calendar month, and paid invoices only.
func (r *repository) Revenue(ctx context.Context) (total, month, paid float64, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(montant_ttc) FILTER (WHERE statut <> 'annulee'), 0),
			COALESCE(SUM(montant_ttc) FILTER (WHERE statut <> 'annulee'
				AND date_trunc('month', date_facture) = date_trunc('month', CURRENT_DATE)), 0),
			COALESCE(SUM(montant_ttc) FILTER (WHERE statut = 'payee'), 0)
		FROM factures`).Scan(&total, &month, &paid)
	return total, month, paid, err
}
