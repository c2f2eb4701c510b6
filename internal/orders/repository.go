package orders

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

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context) ([]Order, error)
	ListByStatus(ctx context.Context, status Status) ([]Order, error)
	Get(ctx context.Context, id int64) (*Order, error)
	Insert(ctx context.Context, o Order) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error

	InsertLine(ctx context.Context, l OrderLine) (int64, error)
	DeleteLines(ctx context.Context, orderID int64) error

	Count(ctx context.Context) (int64, error)
	CountByStatut(ctx context.Context) (map[Status]int64, error)
	SumMontantTotal(ctx context.Context) (float64, error)
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

const orderSelect = `
	SELECT o.id, o.numero_commande, o.client_id, o.date_commande, o.date_livraison_prevue,
		o.statut, o.montant_total, o.tva, o.remise, o.notes, o.created_at, o.updated_at,
		c.id, c.nom, c.prenom, c.entreprise, c.email, c.telephone, c.adresse, c.ville,
		c.code_postal, c.pays, c.type_client, c.statut, c.created_at, c.updated_at
	FROM commandes o
	JOIN clients c ON c.id = o.client_id`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o Order
		c clients.Client
	)
	err := row.Scan(&o.ID, &o.NumeroCommande, &o.ClientID, &o.DateCommande,
		&o.DateLivraisonPrevue, &o.Statut, &o.MontantTotal, &o.TVA, &o.Remise,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt,
		&c.ID, &c.Nom, &c.Prenom, &c.Entreprise, &c.Email, &c.Telephone,
		&c.Adresse, &c.Ville, &c.CodePostal, &c.Pays, &c.Type, &c.Statut,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o.Client = &c
	return &o, nil
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.attachLines(ctx, out)
}

// attachLines loads the line items of every order in one query.
func (r *repository) attachLines(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]*Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = &orders[i]
		orders[i].Details = []OrderLine{}
	}

	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.commande_id, d.produit_id, d.quantite, d.prix_unitaire,
			d.prix_total, d.created_at,
			p.id, p.nom, p.type_vin, p.millesime, p.prix_unitaire
		FROM commande_details d
		JOIN produits p ON p.id = d.produit_id
		WHERE d.commande_id = ANY($1)
		ORDER BY d.id ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l OrderLine
			p LineProduct
		)
		if err := rows.Scan(&l.ID, &l.CommandeID, &l.ProduitID, &l.Quantite,
			&l.PrixUnitaire, &l.PrixTotal, &l.CreatedAt,
			&p.ID, &p.Nom, &p.TypeVin, &p.Millesime, &p.Prix); err != nil {
			return err
		}
		l.Produit = &p
		if o, ok := index[l.CommandeID]; ok {
			o.Details = append(o.Details, l)
		}
	}
	return rows.Err()
}

func (r *repository) List(ctx context.Context) ([]Order, error) {
	return r.list(ctx, orderSelect+` ORDER BY o.created_at DESC`)
}

func (r *repository) ListByStatus(ctx context.Context, status Status) ([]Order, error) {
	return r.list(ctx, orderSelect+` WHERE o.statut = $1 ORDER BY o.created_at DESC`, status)
}

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		return nil, err
	}
	single := []Order{*o}
	if err := r.attachLines(ctx, single); err != nil {
		return nil, err
	}
	return &single[0], nil
}

func (r *repository) Insert(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO commandes (numero_commande, client_id, date_commande,
			date_livraison_prevue, statut, montant_total, tva, remise, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		o.NumeroCommande, o.ClientID, o.DateCommande, o.DateLivraisonPrevue,
		o.Statut, o.MontantTotal, o.TVA, o.Remise, o.Notes,
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

	query := fmt.Sprintf(`UPDATE commandes SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)
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
	tag, err := r.db.Exec(ctx, `DELETE FROM commandes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertLine(ctx context.Context, l OrderLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO commande_details (commande_id, produit_id, quantite, prix_unitaire, prix_total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		l.CommandeID, l.ProduitID, l.Quantite, l.PrixUnitaire, l.PrixTotal,
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteLines(ctx context.Context, orderID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM commande_details WHERE commande_id = $1`, orderID)
	return err
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM commandes`).Scan(&n)
	return n, err
}

func (r *repository) CountByStatut(ctx context.Context) (map[Status]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT statut, count(*) FROM commandes GROUP BY statut`)
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

func (r *repository) SumMontantTotal(ctx context.Context) (float64, error) {
	var sum float64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(montant_total), 0) FROM commandes`).Scan(&sum)
	return sum, err
}
