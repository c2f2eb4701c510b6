package clients

import "context"

// Service wraps client business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Client, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateClientRequest) (*Client, error) {
	c := Client{
		Nom:        req.Nom,
		Prenom:     req.Prenom,
		Entreprise: req.Entreprise,
		Email:      req.Email,
		Telephone:  req.Telephone,
		Adresse:    req.Adresse,
		Ville:      req.Ville,
		CodePostal: req.CodePostal,
		Pays:       req.Pays,
		Type:       req.Type,
		Statut:     req.Statut,
	}
	if c.Type == "" {
		c.Type = TypeIndividual
	}
	if c.Statut == "" {
		c.Statut = StatusActive
	}

	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateClientRequest) (*Client, error) {
	updates := make(map[string]any)
	if req.Nom != nil {
		updates["nom"] = *req.Nom
	}
	if req.Prenom != nil {
		updates["prenom"] = *req.Prenom
	}
	if req.Entreprise != nil {
		updates["entreprise"] = *req.Entreprise
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Telephone != nil {
		updates["telephone"] = *req.Telephone
	}
	if req.Adresse != nil {
		updates["adresse"] = *req.Adresse
	}
	if req.Ville != nil {
		updates["ville"] = *req.Ville
	}
	if req.CodePostal != nil {
		updates["code_postal"] = *req.CodePostal
	}
	if req.Pays != nil {
		updates["pays"] = *req.Pays
	}
	if req.Type != nil {
		updates["type_client"] = *req.Type
	}
	if req.Statut != nil {
		updates["statut"] = *req.Statut
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
