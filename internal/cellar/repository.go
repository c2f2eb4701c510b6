package cellar

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

// Repository defines persistence operations for vats, lots and analyses.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	ListVats(ctx context.Context) ([]Vat, error)
	GetVat(ctx context.Context, id int64) (*Vat, error)
	CreateVat(ctx context.Context, v Vat) (int64, error)
	UpdateVat(ctx context.Context, id int64, updates map[string]any) error
	DeleteVat(ctx context.Context, id int64) error
	OccupyVat(ctx context.Context, id int64) error
	ReleaseVat(ctx context.Context, id int64) error
	CountVats(ctx context.Context) (int64, float64, error)
	VatsByStatut(ctx context.Context) ([]VatStatusCount, error)
	VatsByGroup(ctx context.Context, column string) ([]VatGroupCount, error)

	ListLots(ctx context.Context) ([]Lot, error)
	ListLotsByStatus(ctx context.Context, status LotStatus) ([]Lot, error)
	GetLot(ctx context.Context, id int64) (*Lot, error)
	CreateLot(ctx context.Context, l Lot) (int64, error)
	UpdateLot(ctx context.Context, id int64, updates map[string]any) error
	DeleteLot(ctx context.Context, id int64) error
	CountLots(ctx context.Context) (int64, float64, error)
	LotsByStatut(ctx context.Context) ([]LotStatusCount, error)
	LotsByType(ctx context.Context) ([]LotTypeCount, error)

	ListAnalyses(ctx context.Context, lotID int64) ([]Analysis, error)
	CreateAnalysis(ctx context.Context, a Analysis) (int64, error)
	GetAnalysis(ctx context.Context, id int64) (*Analysis, error)
	DeleteAnalysis(ctx context.Context, id int64) error
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

const vatColumns = `id, nom, capacite_litres, materiau, type_bassin, statut,
	temperature_optimale, last_cleaning, created_at, updated_at`

func scanVat(row pgx.Row) (*Vat, error) {
	var v Vat
	err := row.Scan(&v.ID, &v.Nom, &v.CapaciteLitres, &v.Materiau, &v.TypeBassin,
		&v.Statut, &v.TemperatureOptimale, &v.LastCleaning,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVatNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *repository) ListVats(ctx context.Context) ([]Vat, error) {
	rows, err := r.db.Query(ctx, `SELECT `+vatColumns+` FROM bassins ORDER BY nom ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vat
	for rows.Next() {
		v, err := scanVat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (r *repository) GetVat(ctx context.Context, id int64) (*Vat, error) {
	return scanVat(r.db.QueryRow(ctx, `SELECT `+vatColumns+` FROM bassins WHERE id = $1`, id))
}

func (r *repository) CreateVat(ctx context.Context, v Vat) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO bassins (nom, capacite_litres, materiau, type_bassin, statut,
			temperature_optimale, last_cleaning)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		v.Nom, v.CapaciteLitres, v.Materiau, v.TypeBassin, v.Statut,
		v.TemperatureOptimale, v.LastCleaning,
	).Scan(&id)
	return id, err
}

func (r *repository) UpdateVat(ctx context.Context, id int64, updates map[string]any) error {
	return r.update(ctx, "bassins", ErrVatNotFound, id, updates)
}

func (r *repository) DeleteVat(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bassins WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVatNotFound
	}
	return nil
}

// OccupyVat claims a vat for a lot. The status check runs inside the UPDATE
// so two concurrent claims cannot both win.
func (r *repository) OccupyVat(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE bassins SET statut = 'occupe', updated_at = NOW()
		WHERE id = $1 AND statut = 'disponible'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetVat(ctx, id); err != nil {
			return err
		}
		return ErrVatUnavailable
	}
	return nil
}

func (r *repository) ReleaseVat(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bassins SET statut = 'disponible', updated_at = NOW()
		WHERE id = $1 AND statut = 'occupe'`, id)
	return err
}

func (r *repository) CountVats(ctx context.Context) (int64, float64, error) {
	var (
		n   int64
		sum float64
	)
	err := r.db.QueryRow(ctx,
		`SELECT count(*), COALESCE(SUM(capacite_litres), 0) FROM bassins`).Scan(&n, &sum)
	return n, sum, err
}

func (r *repository) VatsByStatut(ctx context.Context) ([]VatStatusCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT statut, count(*), COALESCE(SUM(capacite_litres), 0)
		FROM bassins GROUP BY statut`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VatStatusCount
	for rows.Next() {
		var c VatStatusCount
		if err := rows.Scan(&c.Statut, &c.Count, &c.Capacite); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// VatsByGroup aggregates vats by type_bassin or materiau.
func (r *repository) VatsByGroup(ctx context.Context, column string) ([]VatGroupCount, error) {
	if column != "type_bassin" && column != "materiau" {
		return nil, fmt.Errorf("unsupported vat grouping %q", column)
	}
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s, count(*), COALESCE(SUM(capacite_litres), 0)
		FROM bassins GROUP BY %s ORDER BY %s`, column, column, column))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VatGroupCount
	for rows.Next() {
		var c VatGroupCount
		if err := rows.Scan(&c.Label, &c.Count, &c.Capacite); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const lotSelect = `
	SELECT l.id, l.numero_lot, l.recolte_id, l.bassin_id, l.date_debut_production,
		l.date_fin_production, l.type_vin, l.volume_initial_litres,
		l.volume_final_litres, l.degre_alcool, l.statut, l.notes_production,
		l.created_at, l.updated_at,
		b.id, b.nom, b.materiau
	FROM lots_production l
	LEFT JOIN bassins b ON b.id = l.bassin_id`

func scanLot(row pgx.Row) (*Lot, error) {
	var (
		l           Lot
		refID       *int64
		refNom      *string
		refMateriau *string
	)
	err := row.Scan(&l.ID, &l.NumeroLot, &l.RecolteID, &l.BassinID,
		&l.DateDebutProduction, &l.DateFinProduction, &l.TypeVin,
		&l.VolumeInitialLitres, &l.VolumeFinalLitres, &l.DegreAlcool,
		&l.Statut, &l.NotesProduction, &l.CreatedAt, &l.UpdatedAt,
		&refID, &refNom, &refMateriau)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLotNotFound
		}
		return nil, err
	}
	if refID != nil {
		l.Bassin = &VatRef{ID: *refID, Nom: *refNom, Materiau: *refMateriau}
	}
	return &l, nil
}

func (r *repository) listLots(ctx context.Context, query string, args ...any) ([]Lot, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *repository) ListLots(ctx context.Context) ([]Lot, error) {
	return r.listLots(ctx, lotSelect+` ORDER BY l.created_at DESC`)
}

func (r *repository) ListLotsByStatus(ctx context.Context, status LotStatus) ([]Lot, error) {
	return r.listLots(ctx, lotSelect+` WHERE l.statut = $1 ORDER BY l.created_at DESC`, status)
}

func (r *repository) GetLot(ctx context.Context, id int64) (*Lot, error) {
	return scanLot(r.db.QueryRow(ctx, lotSelect+` WHERE l.id = $1`, id))
}

func (r *repository) CreateLot(ctx context.Context, l Lot) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO lots_production (numero_lot, recolte_id, bassin_id,
			date_debut_production, type_vin, volume_initial_litres,
			degre_alcool, statut, notes_production)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		l.NumeroLot, l.RecolteID, l.BassinID, l.DateDebutProduction,
		l.TypeVin, l.VolumeInitialLitres, l.DegreAlcool, l.Statut,
		l.NotesProduction,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrDuplicateLotNumber
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateLot(ctx context.Context, id int64, updates map[string]any) error {
	err := r.update(ctx, "lots_production", ErrLotNotFound, id, updates)
	if err != nil && db.IsUniqueViolation(err) {
		return ErrDuplicateLotNumber
	}
	return err
}

func (r *repository) DeleteLot(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM lots_production WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLotNotFound
	}
	return nil
}

func (r *repository) CountLots(ctx context.Context) (int64, float64, error) {
	var (
		n   int64
		sum float64
	)
	err := r.db.QueryRow(ctx,
		`SELECT count(*), COALESCE(SUM(volume_initial_litres), 0) FROM lots_production`).Scan(&n, &sum)
	return n, sum, err
}

func (r *repository) LotsByStatut(ctx context.Context) ([]LotStatusCount, error) {
	rows, err := r.db.Query(ctx, `SELECT statut, count(*) FROM lots_production GROUP BY statut`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LotStatusCount
	for rows.Next() {
		var c LotStatusCount
		if err := rows.Scan(&c.Statut, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) LotsByType(ctx context.Context) ([]LotTypeCount, error) {
	rows, err := r.db.Query(ctx, `SELECT type_vin, count(*) FROM lots_production GROUP BY type_vin`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LotTypeCount
	for rows.Next() {
		var c LotTypeCount
		if err := rows.Scan(&c.TypeVin, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const analysisColumns = `id, lot_production_id, date_analyse, type_analyse, ph, acidite,
	degre_alcool, sucre_residuel, so2_libre, so2_total, notes_degustation,
	conforme, created_at`

func scanAnalysis(row pgx.Row) (*Analysis, error) {
	var a Analysis
	err := row.Scan(&a.ID, &a.LotProductionID, &a.DateAnalyse, &a.TypeAnalyse,
		&a.PH, &a.Acidite, &a.DegreAlcool, &a.SucreResiduel, &a.SO2Libre,
		&a.SO2Total, &a.NotesDegustation, &a.Conforme, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListAnalyses(ctx context.Context, lotID int64) ([]Analysis, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+analysisColumns+` FROM analyses_qualite
		WHERE lot_production_id = $1
		ORDER BY date_analyse DESC, id DESC`, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *repository) CreateAnalysis(ctx context.Context, a Analysis) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO analyses_qualite (lot_production_id, date_analyse, type_analyse,
			ph, acidite, degre_alcool, sucre_residuel, so2_libre, so2_total,
			notes_degustation, conforme)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		a.LotProductionID, a.DateAnalyse, a.TypeAnalyse, a.PH, a.Acidite,
		a.DegreAlcool, a.SucreResiduel, a.SO2Libre, a.SO2Total,
		a.NotesDegustation, a.Conforme,
	).Scan(&id)
	return id, err
}

func (r *repository) GetAnalysis(ctx context.Context, id int64) (*Analysis, error) {
	return scanAnalysis(r.db.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM analyses_qualite WHERE id = $1`, id))
}

func (r *repository) DeleteAnalysis(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM analyses_qualite WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

func (r *repository) update(ctx context.Context, table string, notFound error, id int64, updates map[string]any) error {
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

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`, table, strings.Join(setClauses, ", "), argPos)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
