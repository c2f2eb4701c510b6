package vineyard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// Repository defines persistence operations for parcels and harvests.
type Repository interface {
	ListParcels(ctx context.Context) ([]Parcel, error)
	GetParcel(ctx context.Context, id int64) (*Parcel, error)
	CreateParcel(ctx context.Context, p Parcel) (int64, error)
	UpdateParcel(ctx context.Context, id int64, updates map[string]any) error
	DeleteParcel(ctx context.Context, id int64) error
	CountParcels(ctx context.Context) (int64, float64, error)
	ParcelsByStatut(ctx context.Context) ([]StatusCount, error)
	ParcelsByCepage(ctx context.Context) ([]CepageStat, error)

	ListHarvests(ctx context.Context) ([]Harvest, error)
	ListHarvestsByParcel(ctx context.Context, parcelID int64) ([]Harvest, error)
	ListHarvestsByDate(ctx context.Context, date shared.Date) ([]Harvest, error)
	GetHarvest(ctx context.Context, id int64) (*Harvest, error)
	CreateHarvest(ctx context.Context, h Harvest) (int64, error)
	UpdateHarvest(ctx context.Context, id int64, updates map[string]any) error
	DeleteHarvest(ctx context.Context, id int64) error
	CountHarvests(ctx context.Context) (int64, float64, error)
	HarvestsByQuality(ctx context.Context) ([]QualityStat, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const parcelColumns = `id, nom, superficie, localisation, type_sol, exposition, altitude,
	pente, date_plantation, cepage, densite_plantation, certification, statut,
	created_at, updated_at`

func scanParcel(row pgx.Row) (*Parcel, error) {
	var p Parcel
	err := row.Scan(&p.ID, &p.Nom, &p.Superficie, &p.Localisation, &p.TypeSol,
		&p.Exposition, &p.Altitude, &p.Pente, &p.DatePlantation, &p.Cepage,
		&p.DensitePlantation, &p.Certification, &p.Statut,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrParcelNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListParcels(ctx context.Context) ([]Parcel, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+parcelColumns+` FROM parcelles ORDER BY nom ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Parcel
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repository) GetParcel(ctx context.Context, id int64) (*Parcel, error) {
	return scanParcel(r.pool.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcelles WHERE id = $1`, id))
}

func (r *repository) CreateParcel(ctx context.Context, p Parcel) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO parcelles (nom, superficie, localisation, type_sol, exposition,
			altitude, pente, date_plantation, cepage, densite_plantation,
			certification, statut)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		p.Nom, p.Superficie, p.Localisation, p.TypeSol, p.Exposition,
		p.Altitude, p.Pente, p.DatePlantation, p.Cepage, p.DensitePlantation,
		p.Certification, p.Statut,
	).Scan(&id)
	return id, err
}

func (r *repository) UpdateParcel(ctx context.Context, id int64, updates map[string]any) error {
	return r.update(ctx, "parcelles", ErrParcelNotFound, id, updates, true)
}

func (r *repository) DeleteParcel(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM parcelles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrParcelNotFound
	}
	return nil
}

func (r *repository) CountParcels(ctx context.Context) (int64, float64, error) {
	var (
		n   int64
		sum float64
	)
	err := r.pool.QueryRow(ctx,
		`SELECT count(*), COALESCE(SUM(superficie), 0) FROM parcelles`).Scan(&n, &sum)
	return n, sum, err
}

func (r *repository) ParcelsByStatut(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT statut, count(*) FROM parcelles GROUP BY statut`)
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

func (r *repository) ParcelsByCepage(ctx context.Context) ([]CepageStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cepage, count(*), COALESCE(SUM(superficie), 0)
		FROM parcelles
		GROUP BY cepage
		ORDER BY cepage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CepageStat
	for rows.Next() {
		var c CepageStat
		if err := rows.Scan(&c.Cepage, &c.Count, &c.Superficie); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const harvestSelect = `
	SELECT h.id, h.parcelle_id, h.date_recolte, h.quantite_kg, h.qualite_raisin,
		h.taux_sucre, h.acidite, h.ph_raisin, h.conditions_meteo, h.notes, h.created_at,
		p.id, p.nom, p.cepage
	FROM recoltes h
	JOIN parcelles p ON p.id = h.parcelle_id`

func scanHarvest(row pgx.Row) (*Harvest, error) {
	var (
		h   Harvest
		ref ParcelRef
	)
	err := row.Scan(&h.ID, &h.ParcelleID, &h.DateRecolte, &h.QuantiteKg,
		&h.QualiteRaisin, &h.TauxSucre, &h.Acidite, &h.PHRaisin,
		&h.ConditionsMeteo, &h.Notes, &h.CreatedAt,
		&ref.ID, &ref.Nom, &ref.Cepage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHarvestNotFound
		}
		return nil, err
	}
	h.Parcelle = &ref
	return &h, nil
}

func (r *repository) listHarvests(ctx context.Context, query string, args ...any) ([]Harvest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Harvest
	for rows.Next() {
		h, err := scanHarvest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

func (r *repository) ListHarvests(ctx context.Context) ([]Harvest, error) {
	return r.listHarvests(ctx, harvestSelect+` ORDER BY h.date_recolte DESC`)
}

func (r *repository) ListHarvestsByParcel(ctx context.Context, parcelID int64) ([]Harvest, error) {
	return r.listHarvests(ctx, harvestSelect+` WHERE h.parcelle_id = $1 ORDER BY h.date_recolte DESC`, parcelID)
}

func (r *repository) ListHarvestsByDate(ctx context.Context, date shared.Date) ([]Harvest, error) {
	return r.listHarvests(ctx, harvestSelect+` WHERE h.date_recolte = $1 ORDER BY h.id ASC`, date)
}

func (r *repository) GetHarvest(ctx context.Context, id int64) (*Harvest, error) {
	return scanHarvest(r.pool.QueryRow(ctx, harvestSelect+` WHERE h.id = $1`, id))
}

func (r *repository) CreateHarvest(ctx context.Context, h Harvest) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO recoltes (parcelle_id, date_recolte, quantite_kg, qualite_raisin,
			taux_sucre, acidite, ph_raisin, conditions_meteo, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		h.ParcelleID, h.DateRecolte, h.QuantiteKg, h.QualiteRaisin,
		h.TauxSucre, h.Acidite, h.PHRaisin, h.ConditionsMeteo, h.Notes,
	).Scan(&id)
	return id, err
}

func (r *repository) UpdateHarvest(ctx context.Context, id int64, updates map[string]any) error {
	return r.update(ctx, "recoltes", ErrHarvestNotFound, id, updates, false)
}

func (r *repository) DeleteHarvest(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM recoltes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrHarvestNotFound
	}
	return nil
}

func (r *repository) CountHarvests(ctx context.Context) (int64, float64, error) {
	var (
		n   int64
		sum float64
	)
	err := r.pool.QueryRow(ctx,
		`SELECT count(*), COALESCE(SUM(quantite_kg), 0) FROM recoltes`).Scan(&n, &sum)
	return n, sum, err
}

func (r *repository) HarvestsByQuality(ctx context.Context) ([]QualityStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT qualite_raisin, count(*), COALESCE(SUM(quantite_kg), 0)
		FROM recoltes
		GROUP BY qualite_raisin
		ORDER BY qualite_raisin`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QualityStat
	for rows.Next() {
		var q QualityStat
		if err := rows.Scan(&q.Qualite, &q.Count, &q.QuantiteKg); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// update builds the SET clause from the updates map. withTimestamp also
// touches updated_at; recoltes has no such column.
func (r *repository) update(ctx context.Context, table string, notFound error, id int64, updates map[string]any, withTimestamp bool) error {
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
	if withTimestamp {
		setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argPos))
		args = append(args, time.Now())
		argPos++
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`, table, strings.Join(setClauses, ", "), argPos)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
