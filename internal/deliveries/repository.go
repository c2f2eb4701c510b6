package deliveries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/db"
)

// Repository defines persistence operations for delivery notes.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context) ([]Delivery, error)
	ListByStatus(ctx context.Context, status Status) ([]Delivery, error)
	ListByOrder(ctx context.Context, orderID int64) ([]Delivery, error)
	Get(ctx context.Context, id int64) (*Delivery, error)
	Insert(ctx context.Context, d Delivery) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error

	InsertLine(ctx context.Context, l DeliveryLine) (int64, error)
	DeleteLines(ctx context.Context, deliveryID int64) error

	Count(ctx context.Context) (int64, error)
	CountByStatut(ctx context.Context) (map[Status]int64, error)
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

const deliverySelect = `
	SELECT b.id, b.numero_bon, b.commande_id, b.date_livraison, b.date_livraison_effective,
		b.adresse_livraison, b.transporteur, b.numero_suivi, b.statut, b.notes,
		b.created_at, b.updated_at,
		o.id, o.numero_commande, o.client_id
	FROM bons_livraison b
	JOIN commandes o ON o.id = b.commande_id`

func scanDelivery(row pgx.Row) (*Delivery, error) {
	var (
		d   Delivery
		ref OrderRef
	)
	err := row.Scan(&d.ID, &d.NumeroBon, &d.CommandeID, &d.DateLivraison,
		&d.DateLivraisonEffective, &d.AdresseLivraison, &d.Transporteur,
		&d.NumeroSuivi, &d.Statut, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
		&ref.ID, &ref.NumeroCommande, &ref.ClientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.Commande = &ref
	return &d, nil
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Delivery, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.attachLines(ctx, out)
}

func (r *repository) attachLines(ctx context.Context, notes []Delivery) error {
	if len(notes) == 0 {
		return nil
	}
	ids := make([]int64, len(notes))
	index := make(map[int64]*Delivery, len(notes))
	for i := range notes {
		ids[i] = notes[i].ID
		index[notes[i].ID] = &notes[i]
		notes[i].Details = []DeliveryLine{}
	}

	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.bon_livraison_id, d.produit_id, d.quantite_commandee,
			d.quantite_livree, d.created_at,
			p.id, p.nom, p.type_vin, p.millesime
		FROM bon_livraison_details d
		JOIN produits p ON p.id = d.produit_id
		WHERE d.bon_livraison_id = ANY($1)
		ORDER BY d.id ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l DeliveryLine
			p LineProduct
		)
		if err := rows.Scan(&l.ID, &l.BonLivraisonID, &l.ProduitID,
			&l.QuantiteCommandee, &l.QuantiteLivree, &l.CreatedAt,
			&p.ID, &p.Nom, &p.TypeVin, &p.Millesime); err != nil {
			return err
		}
		l.Produit = &p
		if d, ok := index[l.BonLivraisonID]; ok {
			d.Details = append(d.Details, l)
		}
	}
	return rows.Err()
}

func (r *repository) List(ctx context.Context) ([]Delivery, error) {
	return r.list(ctx, deliverySelect+` ORDER BY b.created_at DESC`)
}

func (r *repository) ListByStatus(ctx context.Context, status Status) ([]Delivery, error) {
	return r.list(ctx, deliverySelect+` WHERE b.statut = $1 ORDER BY b.created_at DESC`, status)
}

func (r *repository) ListByOrder(ctx context.Context, orderID int64) ([]Delivery, error) {
	return r.list(ctx, deliverySelect+` WHERE b.commande_id = $1 ORDER BY b.created_at DESC`, orderID)
}

func (r *repository) Get(ctx context.Context, id int64) (*Delivery, error) {
	d, err := scanDelivery(r.db.QueryRow(ctx, deliverySelect+` WHERE b.id = $1`, id))
	if err != nil {
		return nil, err
	}
	single := []Delivery{*d}
	if err := r.attachLines(ctx, single); err != nil {
		return nil, err
	}
	return &single[0], nil
}

func (r *repository) Insert(ctx context.Context, d Delivery) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO bons_livraison (numero_bon, commande_id, date_livraison,
			date_livraison_effective, adresse_livraison, transporteur,
			numero_suivi, statut, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		d.NumeroBon, d.CommandeID, d.DateLivraison, d.DateLivraisonEffective,
		d.AdresseLivraison, d.Transporteur, d.NumeroSuivi, d.Statut, d.Notes,
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

	query := fmt.Sprintf(`UPDATE bons_livraison SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)
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
	tag, err := r.db.Exec(ctx, `DELETE FROM bons_livraison WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertLine(ctx context.Context, l DeliveryLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO bon_livraison_details (bon_livraison_id, produit_id,
			quantite_commandee, quantite_livree)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		l.BonLivraisonID, l.ProduitID, l.QuantiteCommandee, l.QuantiteLivree,
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteLines(ctx context.Context, deliveryID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM bon_livraison_details WHERE bon_livraison_id = $1`, deliveryID)
	return err
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM bons_livraison`).Scan(&n)
	return n, err
}

func (r *repository) CountByStatut(ctx context.Context) (map[Status]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT statut, count(*) FROM bons_livraison GROUP BY statut`)
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
