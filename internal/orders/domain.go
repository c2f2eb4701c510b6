// Package orders manages sales orders and their line items.
package orders

import (
	"time"

	"github.com/lazani-bestileo/bestileo-erp/internal/clients"
	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// Status enumerates order lifecycle states.
type Status string

const (
	StatusPending   Status = "en_attente"
	StatusConfirmed Status = "confirmee"
	StatusPrepared  Status = "preparee"
	StatusDelivered Status = "livree"
	StatusCancelled Status = "annulee"
)

// Valid reports whether s is one of the known order statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPrepared, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Domain errors.
var (
	ErrNotFound        = httpx.NotFound("Commande non trouvée")
	ErrNoLines         = httpx.Invalid("Une commande doit contenir au moins un produit")
	ErrInvalidStatus   = httpx.Invalid("Statut invalide")
	ErrDuplicateNumber = httpx.Conflict("Numéro de commande déjà utilisé")
)

// Order is a sales order with its client and line items.
type Order struct {
	ID                  int64        `json:"id"`
	NumeroCommande      string       `json:"numero_commande"`
	ClientID            int64        `json:"client_id"`
	DateCommande        shared.Date  `json:"date_commande"`
	DateLivraisonPrevue *shared.Date `json:"date_livraison_prevue"`
	Statut              Status       `json:"statut"`
	MontantTotal        float64      `json:"montant_total"`
	TVA                 float64      `json:"tva"`
	Remise              float64      `json:"remise"`
	Notes               *string      `json:"notes"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`

	Client  *clients.Client `json:"client,omitempty"`
	Details []OrderLine     `json:"details"`
}

// OrderLine is one product line of an order.
type OrderLine struct {
	ID           int64     `json:"id"`
	CommandeID   int64     `json:"commande_id"`
	ProduitID    int64     `json:"produit_id"`
	Quantite     int       `json:"quantite"`
	PrixUnitaire float64   `json:"prix_unitaire"`
	PrixTotal    float64   `json:"prix_total"`
	CreatedAt    time.Time `json:"created_at"`

	Produit *LineProduct `json:"produit,omitempty"`
}

// LineProduct is the product projection attached to a line.
type LineProduct struct {
	ID        int64   `json:"id"`
	Nom       string  `json:"nom"`
	TypeVin   string  `json:"type_vin"`
	Millesime int     `json:"millesime"`
	Prix      float64 `json:"prix_unitaire"`
}

// Stats aggregates the order book.
type Stats struct {
	Total        int64   `json:"total"`
	EnAttente    int64   `json:"enAttente"`
	Confirmees   int64   `json:"confirmees"`
	Preparees    int64   `json:"preparees"`
	Livrees      int64   `json:"livrees"`
	Annulees     int64   `json:"annulees"`
	MontantTotal float64 `json:"montantTotal"`
}

// LineRequest is one line of a create or update payload. Any prix_total sent
// by the caller is ignored; totals are always recomputed here.
type LineRequest struct {
	ProduitID    int64   `json:"produit_id" validate:"required"`
	Quantite     int     `json:"quantite" validate:"required,gt=0"`
	PrixUnitaire float64 `json:"prix_unitaire" validate:"gte=0"`
}

// CreateOrderRequest is the POST /api/commandes payload.
type CreateOrderRequest struct {
	ClientID            int64         `json:"client_id" validate:"required"`
	DateCommande        *shared.Date  `json:"date_commande"`
	DateLivraisonPrevue *shared.Date  `json:"date_livraison_prevue"`
	Statut              Status        `json:"statut" validate:"omitempty,oneof=en_attente confirmee preparee livree annulee"`
	TVA                 float64       `json:"tva" validate:"gte=0"`
	Remise              float64       `json:"remise" validate:"gte=0"`
	Notes               *string       `json:"notes"`
	Details             []LineRequest `json:"details" validate:"required,min=1,dive"`
}

// UpdateOrderRequest is the PUT /api/commandes/{id} payload; nil fields are
// left unchanged. A non-nil Details replaces every existing line.
type UpdateOrderRequest struct {
	ClientID            *int64         `json:"client_id"`
	DateCommande        *shared.Date   `json:"date_commande"`
	DateLivraisonPrevue *shared.Date   `json:"date_livraison_prevue"`
	Statut              *Status        `json:"statut" validate:"omitempty,oneof=en_attente confirmee preparee livree annulee"`
	TVA                 *float64       `json:"tva" validate:"omitempty,gte=0"`
	Remise              *float64       `json:"remise" validate:"omitempty,gte=0"`
	Notes               *string        `json:"notes"`
	Details             *[]LineRequest `json:"details" validate:"omitempty,min=1,dive"`
}

// UpdateStatusRequest is the PUT /api/commandes/{id}/status payload.
type UpdateStatusRequest struct {
	Statut Status `json:"statut" validate:"required"`
}
