// Package deliveries manages delivery notes (bons de livraison) issued
// against orders.
package deliveries

import (
	"time"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// Status enumerates delivery note lifecycle states.
type Status string

const (
	StatusPreparing Status = "en_preparation"
	StatusShipped   Status = "expedie"
	StatusInTransit Status = "en_transit"
	StatusDelivered Status = "livre"
	StatusReturned  Status = "retour"
)

// Valid reports whether s is one of the known delivery statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPreparing, StatusShipped, StatusInTransit, StatusDelivered, StatusReturned:
		return true
	}
	return false
}

// Domain errors.
var (
	ErrNotFound        = httpx.NotFound("Bon de livraison non trouvé")
	ErrOrderNotFound   = httpx.NotFound("Commande non trouvée")
	ErrNoLines         = httpx.Invalid("Un bon de livraison doit contenir au moins un produit")
	ErrInvalidStatus   = httpx.Invalid("Statut invalide")
	ErrInvalidQuantity = httpx.Invalid("La quantité livrée ne peut pas dépasser la quantité commandée")
	ErrDuplicateNumber = httpx.Conflict("Numéro de bon de livraison déjà utilisé")
)

// OrderRef is the order projection attached to a delivery note.
type OrderRef struct {
	ID             int64  `json:"id"`
	NumeroCommande string `json:"numero_commande"`
	ClientID       int64  `json:"client_id"`
}

// Delivery is a delivery note with its lines.
type Delivery struct {
	ID                     int64        `json:"id"`
	NumeroBon              string       `json:"numero_bon"`
	CommandeID             int64        `json:"commande_id"`
	DateLivraison          shared.Date  `json:"date_livraison"`
	DateLivraisonEffective *shared.Date `json:"date_livraison_effective"`
	AdresseLivraison       string       `json:"adresse_livraison"`
	Transporteur           *string      `json:"transporteur"`
	NumeroSuivi            *string      `json:"numero_suivi"`
	Statut                 Status       `json:"statut"`
	Notes                  *string      `json:"notes"`
	CreatedAt              time.Time    `json:"created_at"`
	UpdatedAt              time.Time    `json:"updated_at"`

	Commande *OrderRef      `json:"commande,omitempty"`
	Details  []DeliveryLine `json:"details"`
}

// DeliveryLine tracks ordered versus delivered quantities for one product.
type DeliveryLine struct {
	ID                int64     `json:"id"`
	BonLivraisonID    int64     `json:"bon_livraison_id"`
	ProduitID         int64     `json:"produit_id"`
	QuantiteCommandee int       `json:"quantite_commandee"`
	QuantiteLivree    int       `json:"quantite_livree"`
	CreatedAt         time.Time `json:"created_at"`

	Produit *LineProduct `json:"produit,omitempty"`
}

// LineProduct is the product projection attached to a line.
type LineProduct struct {
	ID        int64  `json:"id"`
	Nom       string `json:"nom"`
	TypeVin   string `json:"type_vin"`
	Millesime int    `json:"millesime"`
}

// Stats aggregates delivery notes by status.
type Stats struct {
	Total         int64 `json:"total"`
	EnPreparation int64 `json:"enPreparation"`
	Expedie       int64 `json:"expedie"`
	EnTransit     int64 `json:"enTransit"`
	Livre         int64 `json:"livre"`
	Retour        int64 `json:"retour"`
}

// LineRequest is one line of a create or update payload.
type LineRequest struct {
	ProduitID         int64 `json:"produit_id" validate:"required"`
	QuantiteCommandee int   `json:"quantite_commandee" validate:"required,gt=0"`
	QuantiteLivree    int   `json:"quantite_livree" validate:"gte=0"`
}

// CreateDeliveryRequest is the POST /api/bons-livraison payload.
type CreateDeliveryRequest struct {
	CommandeID       int64         `json:"commande_id" validate:"required"`
	DateLivraison    *shared.Date  `json:"date_livraison"`
	AdresseLivraison string        `json:"adresse_livraison" validate:"required"`
	Transporteur     *string       `json:"transporteur"`
	NumeroSuivi      *string       `json:"numero_suivi"`
	Statut           Status        `json:"statut" validate:"omitempty,oneof=en_preparation expedie en_transit livre retour"`
	Notes            *string       `json:"notes"`
	Details          []LineRequest `json:"details" validate:"required,min=1,dive"`
}

// UpdateDeliveryRequest is the PUT /api/bons-livraison/{id} payload; nil
// fields are left unchanged. A non-nil Details replaces every existing line.
type UpdateDeliveryRequest struct {
	DateLivraison          *shared.Date   `json:"date_livraison"`
	DateLivraisonEffective *shared.Date   `json:"date_livraison_effective"`
	AdresseLivraison       *string        `json:"adresse_livraison"`
	Transporteur           *string        `json:"transporteur"`
	NumeroSuivi            *string        `json:"numero_suivi"`
	Statut                 *Status        `json:"statut" validate:"omitempty,oneof=en_preparation expedie en_transit livre retour"`
	Notes                  *string        `json:"notes"`
	Details                *[]LineRequest `json:"details" validate:"omitempty,min=1,dive"`
}

// UpdateStatusRequest is the PUT /api/bons-livraison/{id}/status payload.
type UpdateStatusRequest struct {
	Statut Status `json:"statut" validate:"required"`
}
