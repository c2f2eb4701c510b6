// Package products manages the wine catalog and its stock.
package products

import (
	"time"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
)

// WineType enumerates the wine families the estate bottles.
type WineType string

const (
	WineRed       WineType = "rouge"
	WineWhite     WineType = "blanc"
	WineRose      WineType = "rose"
	WineSparkling WineType = "petillant"
)

// Status enumerates product availability states.
type Status string

const (
	StatusActive     Status = "actif"
	StatusInactive   Status = "inactif"
	StatusOutOfStock Status = "rupture"
)

// MovementType enumerates stock movement kinds.
type MovementType string

const (
	MovementIn         MovementType = "entree"
	MovementOut        MovementType = "sortie"
	MovementAdjustment MovementType = "ajustement"
)

// Domain errors.
var (
	ErrNotFound          = httpx.NotFound("Produit non trouvé")
	ErrDuplicateCode     = httpx.Conflict("Un produit avec ce code existe déjà")
	ErrInsufficientStock = httpx.Invalid("Stock insuffisant pour ce mouvement")
)

// Product is a bottled wine reference.
type Product struct {
	ID              int64     `json:"id"`
	Nom             string    `json:"nom"`
	Description     *string   `json:"description"`
	LotProductionID *int64    `json:"lot_production_id"`
	TypeVin         WineType  `json:"type_vin"`
	Millesime       int       `json:"millesime"`
	DegreAlcool     *float64  `json:"degre_alcool"`
	VolumeBouteille *float64  `json:"volume_bouteille"`
	PrixUnitaire    float64   `json:"prix_unitaire"`
	StockActuel     int       `json:"stock_actuel"`
	StockMinimum    int       `json:"stock_minimum"`
	CodeProduit     *string   `json:"code_produit"`
	Statut          Status    `json:"statut"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StockMovement records a stock entry, exit or adjustment for a product.
type StockMovement struct {
	ID            int64        `json:"id"`
	ProduitID     int64        `json:"produit_id"`
	TypeMouvement MovementType `json:"type_mouvement"`
	Quantite      int          `json:"quantite"`
	DateMouvement time.Time    `json:"date_mouvement"`
	Motif         *string      `json:"motif"`
	Reference     *string      `json:"reference"`
	Notes         *string      `json:"notes"`
	CreatedAt     time.Time    `json:"created_at"`
}

// CreateProductRequest is the POST /api/produits payload.
type CreateProductRequest struct {
	Nom             string   `json:"nom" validate:"required"`
	Description     *string  `json:"description"`
	LotProductionID *int64   `json:"lot_production_id"`
	TypeVin         WineType `json:"type_vin" validate:"required,oneof=rouge blanc rose petillant"`
	Millesime       int      `json:"millesime" validate:"required"`
	DegreAlcool     *float64 `json:"degre_alcool"`
	VolumeBouteille *float64 `json:"volume_bouteille"`
	PrixUnitaire    float64  `json:"prix_unitaire" validate:"required,gt=0"`
	StockActuel     int      `json:"stock_actuel" validate:"gte=0"`
	StockMinimum    int      `json:"stock_minimum" validate:"gte=0"`
	CodeProduit     *string  `json:"code_produit"`
	Statut          Status   `json:"statut" validate:"omitempty,oneof=actif inactif rupture"`
}

// UpdateProductRequest is the PUT /api/produits/{id} payload.
type UpdateProductRequest struct {
	Nom             *string   `json:"nom"`
	Description     *string   `json:"description"`
	LotProductionID *int64    `json:"lot_production_id"`
	TypeVin         *WineType `json:"type_vin" validate:"omitempty,oneof=rouge blanc rose petillant"`
	Millesime       *int      `json:"millesime"`
	DegreAlcool     *float64  `json:"degre_alcool"`
	VolumeBouteille *float64  `json:"volume_bouteille"`
	PrixUnitaire    *float64  `json:"prix_unitaire" validate:"omitempty,gt=0"`
	StockActuel     *int      `json:"stock_actuel" validate:"omitempty,gte=0"`
	StockMinimum    *int      `json:"stock_minimum" validate:"omitempty,gte=0"`
	CodeProduit     *string   `json:"code_produit"`
	Statut          *Status   `json:"statut" validate:"omitempty,oneof=actif inactif rupture"`
}

// CreateMovementRequest is the POST /api/produits/{id}/mouvements payload.
// entree adds to stock, sortie subtracts (and must not drive it negative),
// ajustement sets the absolute level.
type CreateMovementRequest struct {
	TypeMouvement MovementType `json:"type_mouvement" validate:"required,oneof=entree sortie ajustement"`
	Quantite      int          `json:"quantite" validate:"gte=0"`
	DateMouvement *time.Time   `json:"date_mouvement"`
	Motif         *string      `json:"motif"`
	Reference     *string      `json:"reference"`
	Notes         *string      `json:"notes"`
}

// StatusCount is a per-status aggregate row.
type StatusCount struct {
	Statut Status `json:"statut"`
	Count  int64  `json:"count"`
}

// TypeCount is a per-wine-type aggregate row.
type TypeCount struct {
	TypeVin WineType `json:"type_vin"`
	Count   int64    `json:"count"`
}

// Stats aggregates the product table.
type Stats struct {
	Total       int64         `json:"total"`
	ParStatut   []StatusCount `json:"parStatut"`
	ParType     []TypeCount   `json:"parType"`
	StockFaible int64         `json:"stockFaible"`
}
