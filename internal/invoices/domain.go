// Package invoices manages customer invoices and their PDF rendition.
package invoices

import (
	"time"

	"github.com/lazani-bestileo/bestileo-erp/internal/clients"
	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// Status enumerates invoice lifecycle states.
type Status string

const (
	StatusDraft     Status = "brouillon"
	StatusIssued    Status = "emise"
	StatusPaid      Status = "payee"
	StatusCancelled Status = "annulee"
)

// Valid reports whether s is one of the known invoice statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusIssued, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Domain errors.
var (
	ErrNotFound        = httpx.NotFound("Facture non trouvée")
	ErrNoLines         = httpx.Invalid("Une facture doit contenir au moins un produit")
	ErrInvalidStatus   = httpx.Invalid("Statut invalide")
	ErrDuplicateNumber = httpx.Conflict("Numéro de facture déjà utilisé")
)

// Invoice is a customer invoice with its client and lines. The HT, TVA and
// TTC amounts are always derived from the lines, never taken from a caller.
type Invoice struct {
	ID            int64        `json:"id"`
	NumeroFacture string       `json:"numero_facture"`
	ClientID      int64        `json:"client_id"`
	CommandeID    *int64       `json:"commande_id"`
	DateFacture   shared.Date  `json:"date_facture"`
	DateEcheance  *shared.Date `json:"date_echeance"`
	MontantHT     float64      `json:"montant_ht"`
	TauxTVA       float64      `json:"taux_tva"`
	MontantTVA    float64      `json:"montant_tva"`
	MontantTTC    float64      `json:"montant_ttc"`
	Remise        float64      `json:"remise"`
	Statut        Status       `json:"statut"`
	Notes         *string      `json:"notes"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	Client  *clients.Client `json:"client,omitempty"`
	Details []InvoiceLine   `json:"details"`
}

// InvoiceLine is one product line of an invoice.
type InvoiceLine struct {
	ID           int64     `json:"id"`
	FactureID    int64     `json:"facture_id"`
	ProduitID    int64     `json:"produit_id"`
	Quantite     int       `json:"quantite"`
	PrixUnitaire float64   `json:"prix_unitaire"`
	PrixTotal    float64   `json:"prix_total"`
	CreatedAt    time.Time `json:"created_at"`

	Produit *LineProduct `json:"produit,omitempty"`
}

// LineProduct is the product projection attached to a line.
type LineProduct struct {
	ID        int64  `json:"id"`
	Nom       string `json:"nom"`
	TypeVin   string `json:"type_vin"`
	Millesime int    `json:"millesime"`
}

// Stats aggregates the invoice ledger and revenue figures.
type Stats struct {
	Total     int64   `json:"total"`
	Brouillon int64   `json:"brouillon"`
	Emises    int64   `json:"emises"`
	Payees    int64   `json:"payees"`
	Annulees  int64   `json:"annulees"`
	CATotal   float64 `json:"ca_total"`
	CAMois    float64 `json:"ca_mois"`
	CAPaye    float64 `json:"ca_paye"`
}

// LineRequest is one line of a create or update payload.
type LineRequest struct {
	ProduitID    int64   `json:"produit_id" validate:"required"`
	Quantite     int     `json:"quantite" validate:"required,gt=0"`
	PrixUnitaire float64 `json:"prix_unitaire" validate:"gte=0"`
}

// CreateInvoiceRequest is the POST /api/factures payload.
type CreateInvoiceRequest struct {
	ClientID     int64         `json:"client_id" validate:"required"`
	CommandeID   *int64        `json:"commande_id"`
	DateFacture  *shared.Date  `json:"date_facture"`
	DateEcheance *shared.Date  `json:"date_echeance"`
	TauxTVA      *float64      `json:"taux_tva" validate:"omitempty,gte=0"`
	Remise       float64       `json:"remise" validate:"gte=0"`
	Statut       Status        `json:"statut" validate:"omitempty,oneof=brouillon emise payee annulee"`
	Notes        *string       `json:"notes"`
	Details      []LineRequest `json:"details" validate:"required,min=1,dive"`
}

// UpdateInvoiceRequest is the PUT /api/factures/{id} payload; nil fields are
// left unchanged. A non-nil Details replaces every existing line and the
// amounts are recomputed.
type UpdateInvoiceRequest struct {
	ClientID     *int64         `json:"client_id"`
	CommandeID   *int64         `json:"commande_id"`
	DateFacture  *shared.Date   `json:"date_facture"`
	DateEcheance *shared.Date   `json:"date_echeance"`
	TauxTVA      *float64       `json:"taux_tva" validate:"omitempty,gte=0"`
	Remise       *float64       `json:"remise" validate:"omitempty,gte=0"`
	Statut       *Status        `json:"statut" validate:"omitempty,oneof=brouillon emise payee annulee"`
	Notes        *string        `json:"notes"`
	Details      *[]LineRequest `json:"details" validate:"omitempty,min=1,dive"`
}

// UpdateStatusRequest is the PUT /api/factures/{id}/status payload.
type UpdateStatusRequest struct {
	Statut Status `json:"statut" validate:"required"`
}
