// Package payments manages payments recorded against invoices.
package payments

import (
	"time"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// Mode enumerates accepted payment modes.
type Mode string

const (
	ModeCash        Mode = "especes"
	ModeCheque      Mode = "cheque"
	ModeTransfer    Mode = "virement"
	ModeCard        Mode = "carte_bancaire"
	ModeMobileMoney Mode = "mobile_money"
)

// Domain errors.
var (
	ErrNotFound = httpx.NotFound("Paiement non trouvé")
)

// InvoiceRef is the invoice projection attached to a payment.
type InvoiceRef struct {
	ID            int64   `json:"id"`
	NumeroFacture string  `json:"numero_facture"`
	ClientID      int64   `json:"client_id"`
	MontantTTC    float64 `json:"montant_ttc"`
}

// Payment is one payment received against an invoice.
type Payment struct {
	ID                int64       `json:"id"`
	FactureID         int64       `json:"facture_id"`
	DatePaiement      shared.Date `json:"date_paiement"`
	Montant           float64     `json:"montant"`
	ModePaiement      Mode        `json:"mode_paiement"`
	ReferencePaiement *string     `json:"reference_paiement"`
	Notes             *string     `json:"notes"`
	CreatedAt         time.Time   `json:"created_at"`

	Facture *InvoiceRef `json:"facture,omitempty"`
}

// ModeTotal is the per-mode aggregate of the stats endpoint.
type ModeTotal struct {
	Mode    Mode    `json:"mode_paiement"`
	Count   int64   `json:"count"`
	Montant float64 `json:"montant"`
}

// Stats aggregates the payment ledger.
type Stats struct {
	Total        int64       `json:"total"`
	MontantTotal float64     `json:"montantTotal"`
	ParMode      []ModeTotal `json:"parMode"`
}

// CreatePaymentRequest is the POST /api/paiements payload. When no payment
// reference is given one is generated.
type CreatePaymentRequest struct {
	FactureID         int64        `json:"facture_id" validate:"required"`
	DatePaiement      *shared.Date `json:"date_paiement"`
	Montant           float64      `json:"montant" validate:"required,gt=0"`
	ModePaiement      Mode         `json:"mode_paiement" validate:"required,oneof=especes cheque virement carte_bancaire mobile_money"`
	ReferencePaiement *string      `json:"reference_paiement"`
	Notes             *string      `json:"notes"`
}

// UpdatePaymentRequest is the PUT /api/paiements/{id} payload; nil fields
// are left unchanged.
type UpdatePaymentRequest struct {
	DatePaiement      *shared.Date `json:"date_paiement"`
	Montant           *float64     `json:"montant" validate:"omitempty,gt=0"`
	ModePaiement      *Mode        `json:"mode_paiement" validate:"omitempty,oneof=especes cheque virement carte_bancaire mobile_money"`
	ReferencePaiement *string      `json:"reference_paiement"`
	Notes             *string      `json:"notes"`
}
