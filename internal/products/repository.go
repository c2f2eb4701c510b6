package products

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

// Repository defines persistence operations for products and their stock
// movements.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p Product) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error

	SetStock(ctx context.Context, id int64, stock int) error
	InsertMovement(ctx context.Context, m StockMovement) (int64, error)
	ListMovements(ctx context.Context, productID int64) ([]StockMovement, error)

	CountAll(ctx context.Context) (int64, error)
	CountByStatut(ctx context.Context) ([]StatusCount, error)
	CountByType(ctx context.Context) ([]TypeCount, error)
	CountLowStock(ctx context.Context) (int64, error)
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

const productColumns = `id, nom, description, lot_production_id, type_vin, millesime,
	degre_alcool, volume_bouteille, prix_unitaire, stock_actuel, stock_minimum,
	code_produit, statut, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Nom, &p.Description, &p.LotProductionID, &p.TypeVin,
		&p.Millesime, &p.DegreAlcool, &p.VolumeBouteille, &p.PrixUnitaire,
		&p.StockActuel, &p.StockMinimum, &p.CodeProduit, &p.Statut,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM produits ORDER BY nom ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Product, error) {
	return scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM produits WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO produits (nom, description, lot_production_id, type_vin, millesime,
			degre_alcool, volume_bouteille, prix_unitaire, stock_actuel, stock_minimum,
			code_produit, statut)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		p.Nom, p.Description, p.LotProductionID, p.TypeVin, p.Millesime,
		p.DegreAlcool, p.VolumeBouteille, p.PrixUnitaire, p.StockActuel,
		p.StockMinimum, p.CodeProduit, p.Statut,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrDuplicateCode
		}
		return 0, err
	}
	return id, nil
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

	query := fmt.Sprintf(`UPDATE produits SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM produits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetStock(ctx context.Context, id int64, stock int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE produits SET stock_actuel = $1, updated_at = $2 WHERE id = $3`,
		stock, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertMovement(ctx context.Context, m StockMovement) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO mouvements_stock (produit_id, type_mouvement, quantite,
			date_mouvement, motif, reference, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		m.ProduitID, m.TypeMouvement, m.Quantite, m.DateMouvement,
		m.Motif, m.Reference, m.Notes,
	).Scan(&id)
	return id, err
}

func (r *repository) ListMovements(ctx context.Context, productID int64) ([]StockMovement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, produit_id, type_mouvement, quantite, date_mouvement,
			motif, reference, notes, created_at
		FROM mouvements_stock
		WHERE produit_id = $1
		ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.ProduitID, &m.TypeMouvement, &m.Quantite,
			&m.DateMouvement, &m.Motif, &m.Reference, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM produits`).Scan(&n)
	return n, err
}

func (r *repository) CountByStatut(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.db.Query(ctx, `SELECT statut, count(*) FROM produits GROUP BY statut`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Statut, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) CountByType(ctx context.Context) ([]TypeCount, error) {
	rows, err := r.db.Query(ctx, `SELECT type_vin, count(*) FROM produits GROUP BY type_vin`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TypeCount
	for rows.Next() {
		var c TypeCount
		if err := rows.Scan(&c.TypeVin, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) CountLowStock(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM produits WHERE stock_actuel <= stock_minimum`).Scan(&n)
	return n, err
}
