package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/db"
)

// Repository defines persistence operations for payments.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context) ([]Payment, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error)
	Get(ctx context.Context, id int64) (*Payment, error)
	Insert(ctx context.Context, p Payment) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error

	SumByInvoice(ctx context.Context, invoiceID int64) (float64, error)
	MarkInvoicePaid(ctx context.Context, invoiceID int64) error

	Count(ctx context.Context) (int64, error)
	SumMontant(ctx context.Context) (float64, error)
	TotalsByMode(ctx context.Context) ([]ModeTotal, error)
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

const paymentSelect = `
	SELECT p.id, p.facture_id, p.date_paiement, p.montant, p.mode_paiement,
		p.reference_paiement, p.notes, p.created_at,
		f.id, f.numero_facture, f.client_id, f.montant_ttc
	FROM paiements p
	JOIN factures f ON f.id = p.facture_id`

func scanPayment(row pgx.Row) (*Payment, error) {
	var (
		p   Payment
		ref InvoiceRef
	)
	err := row.Scan(&p.ID, &p.FactureID, &p.DatePaiement, &p.Montant,
		&p.ModePaiement, &p.ReferencePaiement, &p.Notes, &p.CreatedAt,
		&ref.ID, &ref.NumeroFacture, &ref.ClientID, &ref.MontantTTC)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Facture = &ref
	return &p, nil
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Payment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context) ([]Payment, error) {
	return r.list(ctx, paymentSelect+` ORDER BY p.created_at DESC`)
}

func (r *repository) ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error) {
	return r.list(ctx, paymentSelect+` WHERE p.facture_id = $1 ORDER BY p.created_at DESC`, invoiceID)
}

func (r *repository) Get(ctx context.Context, id int64) (*Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, paymentSelect+` WHERE p.id = $1`, id))
}

func (r *repository) Insert(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO paiements (facture_id, date_paiement, montant, mode_paiement,
			reference_paiement, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		p.FactureID, p.DatePaiement, p.Montant, p.ModePaiement,
		p.ReferencePaiement, p.Notes,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(updates))
	args := make([]any, 0, len(updates)+1)
	argPos := 1
	for field, value := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argPos))
		args = append(args, value)
		argPos++
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE paiements SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)
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
	tag, err := r.db.Exec(ctx, `DELETE FROM paiements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SumByInvoice(ctx context.Context, invoiceID int64) (float64, error) {
	var sum float64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(montant), 0) FROM paiements WHERE facture_id = $1`,
		invoiceID).Scan(&sum)
	return sum, err
}

// MarkInvoicePaid flips the invoice to payee once its payments cover the
// TTC amount.
func (r *repository) MarkInvoicePaid(ctx context.Context, invoiceID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE factures SET statut = 'payee', updated_at = NOW() WHERE id = $1`,
		invoiceID)
	return err
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM paiements`).Scan(&n)
	return n, err
}

func (r *repository) SumMontant(ctx context.Context) (float64, error) {
	var sum float64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(montant), 0) FROM paiements`).Scan(&sum)
	return sum, err
}

func (r *repository) TotalsByMode(ctx context.Context) ([]ModeTotal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT mode_paiement, count(*), COALESCE(SUM(montant), 0)
		FROM paiements
		GROUP BY mode_paiement
		ORDER BY mode_paiement`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ModeTotal
	for rows.Next() {
		var m ModeTotal
		if err := rows.Scan(&m.Mode, &m.Count, &m.Montant); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
