// Package cellar manages the winemaking side of the estate: vats, production
// lots and quality analyses.
package cellar

import (
	"time"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// VatStatus enumerates vat states. A vat holds at most one active lot.
type VatStatus string

const (
	VatAvailable   VatStatus = "disponible"
	VatOccupied    VatStatus = "occupe"
	VatMaintenance VatStatus = "maintenance"
)

// Valid reports whether s is one of the known vat statuses.
func (s VatStatus) Valid() bool {
	switch s {
	case VatAvailable, VatOccupied, VatMaintenance:
		return true
	}
	return false
}

// LotStatus enumerates production lot states.
type LotStatus string

const (
	LotFermenting LotStatus = "en_fermentation"
	LotAging      LotStatus = "en_vieillissement"
	LotReady      LotStatus = "pret"
	LotBottled    LotStatus = "embouteille"
)

// Valid reports whether s is one of the known lot statuses.
func (s LotStatus) Valid() bool {
	switch s {
	case LotFermenting, LotAging, LotReady, LotBottled:
		return true
	}
	return false
}

// AnalysisType enumerates quality analysis stages.
type AnalysisType string

const (
	AnalysisFermentation AnalysisType = "fermentation"
	AnalysisAging        AnalysisType = "vieillissement"
	AnalysisFinal        AnalysisType = "final"
)

// Domain errors.
var (
	ErrVatNotFound        = httpx.NotFound("Bassin non trouvé")
	ErrLotNotFound        = httpx.NotFound("Lot de production non trouvé")
	ErrAnalysisNotFound   = httpx.NotFound("Analyse non trouvée")
	ErrVatUnavailable     = httpx.Conflict("Le bassin n'est pas disponible")
	ErrDuplicateLotNumber = httpx.Conflict("Un lot avec ce numéro existe déjà")
	ErrInvalidStatus      = httpx.Invalid("Statut invalide")
)

// Vat is one fermentation or storage vessel.
type Vat struct {
	ID                  int64        `json:"id"`
	Nom                 string       `json:"nom"`
	CapaciteLitres      float64      `json:"capacite_litres"`
	Materiau            string       `json:"materiau"`
	TypeBassin          string       `json:"type_bassin"`
	Statut              VatStatus    `json:"statut"`
	TemperatureOptimale *float64     `json:"temperature_optimale"`
	LastCleaning        *shared.Date `json:"last_cleaning"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// Lot is a production batch, possibly tied to a harvest and a vat.
type Lot struct {
	ID                  int64        `json:"id"`
	NumeroLot           string       `json:"numero_lot"`
	RecolteID           *int64       `json:"recolte_id"`
	BassinID            *int64       `json:"bassin_id"`
	DateDebutProduction shared.Date  `json:"date_debut_production"`
	DateFinProduction   *shared.Date `json:"date_fin_production"`
	TypeVin             string       `json:"type_vin"`
	VolumeInitialLitres float64      `json:"volume_initial_litres"`
	VolumeFinalLitres   *float64     `json:"volume_final_litres"`
	DegreAlcool         *float64     `json:"degre_alcool"`
	Statut              LotStatus    `json:"statut"`
	NotesProduction     *string      `json:"notes_production"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`

	Bassin *VatRef `json:"bassin,omitempty"`
}

// VatRef is the vat projection attached to a lot.
type VatRef struct {
	ID       int64  `json:"id"`
	Nom      string `json:"nom"`
	Materiau string `json:"materiau"`
}

// Analysis is one quality analysis of a lot.
type Analysis struct {
	ID               int64        `json:"id"`
	LotProductionID  int64        `json:"lot_production_id"`
	DateAnalyse      shared.Date  `json:"date_analyse"`
	TypeAnalyse      AnalysisType `json:"type_analyse"`
	PH               *float64     `json:"ph"`
	Acidite          *float64     `json:"acidite"`
	DegreAlcool      *float64     `json:"degre_alcool"`
	SucreResiduel    *float64     `json:"sucre_residuel"`
	SO2Libre         *float64     `json:"so2_libre"`
	SO2Total         *float64     `json:"so2_total"`
	NotesDegustation *string      `json:"notes_degustation"`
	Conforme         bool         `json:"conforme"`
	CreatedAt        time.Time    `json:"created_at"`
}

// VatStatusCount is a per-status aggregate with summed capacity.
type VatStatusCount struct {
	Statut   VatStatus `json:"statut"`
	Count    int64     `json:"count"`
	Capacite float64   `json:"capacite"`
}

// VatGroupCount is a per-type or per-material aggregate with summed capacity.
type VatGroupCount struct {
	Label    string  `json:"label"`
	Count    int64   `json:"count"`
	Capacite float64 `json:"capacite"`
}

// VatStats aggregates the vat park.
type VatStats struct {
	Total          int64            `json:"total"`
	CapaciteTotale float64          `json:"capaciteTotale"`
	ParStatut      []VatStatusCount `json:"parStatut"`
	ParType        []VatGroupCount  `json:"parType"`
	ParMateriau    []VatGroupCount  `json:"parMateriau"`
}

// LotStatusCount is a per-status lot aggregate.
type LotStatusCount struct {
	Statut LotStatus `json:"statut"`
	Count  int64     `json:"count"`
}

// LotTypeCount is a per-wine-type lot aggregate.
type LotTypeCount struct {
	TypeVin string `json:"type_vin"`
	Count   int64  `json:"count"`
}

// LotStats aggregates production lots.
type LotStats struct {
	Total       int64            `json:"total"`
	VolumeTotal float64          `json:"volumeTotal"`
	ParStatut   []LotStatusCount `json:"parStatut"`
	ParType     []LotTypeCount   `json:"parType"`
}

// CreateVatRequest is the POST /api/bassins payload.
type CreateVatRequest struct {
	Nom                 string       `json:"nom" validate:"required"`
	CapaciteLitres      float64      `json:"capacite_litres" validate:"required,gt=0"`
	Materiau            string       `json:"materiau" validate:"required"`
	TypeBassin          string       `json:"type_bassin" validate:"required"`
	Statut              VatStatus    `json:"statut" validate:"omitempty,oneof=disponible occupe maintenance"`
	TemperatureOptimale *float64     `json:"temperature_optimale"`
	LastCleaning        *shared.Date `json:"last_cleaning"`
}

// UpdateVatRequest is the PUT /api/bassins/{id} payload; nil fields are left
// unchanged.
type UpdateVatRequest struct {
	Nom                 *string      `json:"nom"`
	CapaciteLitres      *float64     `json:"capacite_litres" validate:"omitempty,gt=0"`
	Materiau            *string      `json:"materiau"`
	TypeBassin          *string      `json:"type_bassin"`
	Statut              *VatStatus   `json:"statut" validate:"omitempty,oneof=disponible occupe maintenance"`
	TemperatureOptimale *float64     `json:"temperature_optimale"`
	LastCleaning        *shared.Date `json:"last_cleaning"`
}

// CreateLotRequest is the POST /api/lots payload.
type CreateLotRequest struct {
	NumeroLot           string       `json:"numero_lot" validate:"required"`
	RecolteID           *int64       `json:"recolte_id"`
	BassinID            *int64       `json:"bassin_id"`
	DateDebutProduction *shared.Date `json:"date_debut_production"`
	TypeVin             string       `json:"type_vin" validate:"required"`
	VolumeInitialLitres float64      `json:"volume_initial_litres" validate:"required,gt=0"`
	DegreAlcool         *float64     `json:"degre_alcool"`
	Statut              LotStatus    `json:"statut" validate:"omitempty,oneof=en_fermentation en_vieillissement pret embouteille"`
	NotesProduction     *string      `json:"notes_production"`
}

// UpdateLotRequest is the PUT /api/lots/{id} payload; nil fields are left
// unchanged. Changing BassinID moves the lot: the new vat is occupied and
// the previous one freed.
type UpdateLotRequest struct {
	NumeroLot           *string      `json:"numero_lot"`
	RecolteID           *int64       `json:"recolte_id"`
	BassinID            *int64       `json:"bassin_id"`
	DateDebutProduction *shared.Date `json:"date_debut_production"`
	DateFinProduction   *shared.Date `json:"date_fin_production"`
	TypeVin             *string      `json:"type_vin"`
	VolumeInitialLitres *float64     `json:"volume_initial_litres" validate:"omitempty,gt=0"`
	VolumeFinalLitres   *float64     `json:"volume_final_litres" validate:"omitempty,gt=0"`
	DegreAlcool         *float64     `json:"degre_alcool"`
	Statut              *LotStatus   `json:"statut" validate:"omitempty,oneof=en_fermentation en_vieillissement pret embouteille"`
	NotesProduction     *string      `json:"notes_production"`
}

// UpdateLotStatusRequest is the PUT /api/lots/{id}/status payload.
type UpdateLotStatusRequest struct {
	Statut LotStatus `json:"statut" validate:"required"`
}

// CreateAnalysisRequest is the POST /api/lots/{id}/analyses payload.
type CreateAnalysisRequest struct {
	DateAnalyse      *shared.Date `json:"date_analyse"`
	TypeAnalyse      AnalysisType `json:"type_analyse" validate:"required,oneof=fermentation vieillissement final"`
	PH               *float64     `json:"ph"`
	Acidite          *float64     `json:"acidite"`
	DegreAlcool      *float64     `json:"degre_alcool"`
	SucreResiduel    *float64     `json:"sucre_residuel"`
	SO2Libre         *float64     `json:"so2_libre"`
	SO2Total         *float64     `json:"so2_total"`
	NotesDegustation *string      `json:"notes_degustation"`
	Conforme         *bool        `json:"conforme"`
}
