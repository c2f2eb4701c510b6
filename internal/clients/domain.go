// Package clients manages the winery's customer records.
package clients

import (
	"time"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
)

// Status enumerates client account states.
type Status string

const (
	StatusActive   Status = "actif"
	StatusInactive Status = "inactif"
)

// ClientType distinguishes individuals from companies.
type ClientType string

const (
	TypeIndividual ClientType = "particulier"
	TypeCompany    ClientType = "entreprise"
)

// Domain errors.
var (
	ErrNotFound       = httpx.NotFound("Client non trouvé")
	ErrDuplicateEmail = httpx.Conflict("Un client avec cet email existe déjà")
)

// Client is a customer of the winery.
type Client struct {
	ID         int64      `json:"id"`
	Nom        string     `json:"nom"`
	Prenom     string     `json:"prenom"`
	Entreprise *string    `json:"entreprise"`
	Email      string     `json:"email"`
	Telephone  string     `json:"telephone"`
	Adresse    string     `json:"adresse"`
	Ville      string     `json:"ville"`
	CodePostal *string    `json:"code_postal"`
	Pays       string     `json:"pays"`
	Type       ClientType `json:"type_client"`
	Statut     Status     `json:"statut"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CreateClientRequest is the POST /api/clients payload.
type CreateClientRequest struct {
	Nom        string     `json:"nom" validate:"required"`
	Prenom     string     `json:"prenom" validate:"required"`
	Entreprise *string    `json:"entreprise"`
	Email      string     `json:"email" validate:"required,email"`
	Telephone  string     `json:"telephone" validate:"required"`
	Adresse    string     `json:"adresse" validate:"required"`
	Ville      string     `json:"ville" validate:"required"`
	CodePostal *string    `json:"code_postal"`
	Pays       string     `json:"pays" validate:"required"`
	Type       ClientType `json:"type_client" validate:"omitempty,oneof=particulier entreprise"`
	Statut     Status     `json:"statut" validate:"omitempty,oneof=actif inactif"`
}

// UpdateClientRequest is the PUT /api/clients/{id} payload; nil fields are
// left unchanged.
type UpdateClientRequest struct {
	Nom        *string     `json:"nom"`
	Prenom     *string     `json:"prenom"`
	Entreprise *string     `json:"entreprise"`
	Email      *string     `json:"email" validate:"omitempty,email"`
	Telephone  *string     `json:"telephone"`
	Adresse    *string     `json:"adresse"`
	Ville      *string     `json:"ville"`
	CodePostal *string     `json:"code_postal"`
	Pays       *string     `json:"pays"`
	Type       *ClientType `json:"type_client" validate:"omitempty,oneof=particulier entreprise"`
	Statut     *Status     `json:"statut" validate:"omitempty,oneof=actif inactif"`
}
