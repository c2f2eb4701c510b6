// Package vineyard manages the estate's parcels and grape harvests.
package vineyard

import (
	"time"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// ParcelStatus enumerates parcel states.
type ParcelStatus string

const (
	ParcelActive     ParcelStatus = "active"
	ParcelInactive   ParcelStatus = "inactive"
	ParcelRenovation ParcelStatus = "renovation"
)

// Valid reports whether s is one of the known parcel statuses.
func (s ParcelStatus) Valid() bool {
	switch s {
	case ParcelActive, ParcelInactive, ParcelRenovation:
		return true
	}
	return false
}

// Domain errors.
var (
	ErrParcelNotFound    = httpx.NotFound("Parcelle non trouvée")
	ErrHarvestNotFound   = httpx.NotFound("Récolte non trouvée")
	ErrInvalidStatus     = httpx.Invalid("Statut invalide")
	ErrInvalidDateFilter = httpx.Invalid("Date invalide, format attendu AAAA-MM-JJ")
)

// Parcel is one plot of the vineyard.
type Parcel struct {
	ID                int64        `json:"id"`
	Nom               string       `json:"nom"`
	Superficie        float64      `json:"superficie"`
	Localisation      *string      `json:"localisation"`
	TypeSol           *string      `json:"type_sol"`
	Exposition        *string      `json:"exposition"`
	Altitude          *int         `json:"altitude"`
	Pente             *float64     `json:"pente"`
	DatePlantation    *shared.Date `json:"date_plantation"`
	Cepage            string       `json:"cepage"`
	DensitePlantation *int         `json:"densite_plantation"`
	Certification     *string      `json:"certification"`
	Statut            ParcelStatus `json:"statut"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// Harvest is one picking of a parcel.
type Harvest struct {
	ID              int64       `json:"id"`
	ParcelleID      int64       `json:"parcelle_id"`
	DateRecolte     shared.Date `json:"date_recolte"`
	QuantiteKg      float64     `json:"quantite_kg"`
	QualiteRaisin   string      `json:"qualite_raisin"`
	TauxSucre       *float64    `json:"taux_sucre"`
	Acidite         *float64    `json:"acidite"`
	PHRaisin        *float64    `json:"ph_raisin"`
	ConditionsMeteo *string     `json:"conditions_meteo"`
	Notes           *string     `json:"notes"`
	CreatedAt       time.Time   `json:"created_at"`

	Parcelle *ParcelRef `json:"parcelle,omitempty"`
}

// ParcelRef is the parcel projection attached to a harvest.
type ParcelRef struct {
	ID     int64  `json:"id"`
	Nom    string `json:"nom"`
	Cepage string `json:"cepage"`
}

// StatusCount is a per-status aggregate.
type StatusCount struct {
	Statut ParcelStatus `json:"statut"`
	Count  int64        `json:"count"`
}

// CepageStat aggregates parcels of one grape variety.
type CepageStat struct {
	Cepage     string  `json:"cepage"`
	Count      int64   `json:"count"`
	Superficie float64 `json:"superficie"`
}

// ParcelStats aggregates the vineyard layout.
type ParcelStats struct {
	Total            int64         `json:"total"`
	SuperficieTotale float64       `json:"superficieTotale"`
	ParStatut        []StatusCount `json:"parStatut"`
	ParCepage        []CepageStat  `json:"parCepage"`
}

// QualityStat aggregates harvests of one grape quality grade.
type QualityStat struct {
	Qualite    string  `json:"qualite_raisin"`
	Count      int64   `json:"count"`
	QuantiteKg float64 `json:"quantiteKg"`
}

// HarvestStats aggregates the harvest log.
type HarvestStats struct {
	Total            int64         `json:"total"`
	QuantiteTotaleKg float64       `json:"quantiteTotaleKg"`
	ParQualite       []QualityStat `json:"parQualite"`
}

// CreateParcelRequest is the POST /api/parcelles payload.
type CreateParcelRequest struct {
	Nom               string       `json:"nom" validate:"required"`
	Superficie        float64      `json:"superficie" validate:"required,gt=0"`
	Localisation      *string      `json:"localisation"`
	TypeSol           *string      `json:"type_sol"`
	Exposition        *string      `json:"exposition"`
	Altitude          *int         `json:"altitude"`
	Pente             *float64     `json:"pente"`
	DatePlantation    *shared.Date `json:"date_plantation"`
	Cepage            string       `json:"cepage" validate:"required"`
	DensitePlantation *int         `json:"densite_plantation"`
	Certification     *string      `json:"certification"`
	Statut            ParcelStatus `json:"statut" validate:"omitempty,oneof=active inactive renovation"`
}

// UpdateParcelRequest is the PUT /api/parcelles/{id} payload; nil fields are
// left unchanged.
type UpdateParcelRequest struct {
	Nom               *string       `json:"nom"`
	Superficie        *float64      `json:"superficie" validate:"omitempty,gt=0"`
	Localisation      *string       `json:"localisation"`
	TypeSol           *string       `json:"type_sol"`
	Exposition        *string       `json:"exposition"`
	Altitude          *int          `json:"altitude"`
	Pente             *float64      `json:"pente"`
	DatePlantation    *shared.Date  `json:"date_plantation"`
	Cepage            *string       `json:"cepage"`
	DensitePlantation *int          `json:"densite_plantation"`
	Certification     *string       `json:"certification"`
	Statut            *ParcelStatus `json:"statut" validate:"omitempty,oneof=active inactive renovation"`
}

// CreateHarvestRequest is the POST /api/recoltes payload.
type CreateHarvestRequest struct {
	ParcelleID      int64        `json:"parcelle_id" validate:"required"`
	DateRecolte     *shared.Date `json:"date_recolte"`
	QuantiteKg      float64      `json:"quantite_kg" validate:"required,gt=0"`
	QualiteRaisin   string       `json:"qualite_raisin" validate:"required"`
	TauxSucre       *float64     `json:"taux_sucre"`
	Acidite         *float64     `json:"acidite"`
	PHRaisin        *float64     `json:"ph_raisin"`
	ConditionsMeteo *string      `json:"conditions_meteo"`
	Notes           *string      `json:"notes"`
}

// UpdateHarvestRequest is the PUT /api/recoltes/{id} payload; nil fields are
// left unchanged.
type UpdateHarvestRequest struct {
	ParcelleID      *int64       `json:"parcelle_id"`
	DateRecolte     *shared.Date `json:"date_recolte"`
	QuantiteKg      *float64     `json:"quantite_kg" validate:"omitempty,gt=0"`
	QualiteRaisin   *string      `json:"qualite_raisin"`
	TauxSucre       *float64     `json:"taux_sucre"`
	Acidite         *float64     `json:"acidite"`
	PHRaisin        *float64     `json:"ph_raisin"`
	ConditionsMeteo *string      `json:"conditions_meteo"`
	Notes           *string      `json:"notes"`
}
