package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"agencydesk_backend/platform/logger"
)

// Service converts won leads into client accounts and projects.
type Service struct {
	store Store
	log   *logger.Logger
}

// NewService creates the client conversion service.
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// AccountInput carries the lead fields needed to create the client side of
// a won deal.
type AccountInput struct {
	Company     string
	ContactName string
	Email       string
	Phone       string
}

// EnsureAccount finds or creates the client account for a contact. Matching
// is by email, case-insensitive, so converting two leads of the same contact
// reuses one account. Returns the account and whether it already existed.
func (s *Service) EnsureAccount(ctx context.Context, in AccountInput) (ClientAccount, bool, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return ClientAccount{}, false, errors.New("cannot convert a lead without a contact email")
	}

	account, err := s.store.FindByEmail(ctx, email)
	if err == nil {
		return account, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return ClientAccount{}, false, fmt.Errorf("ensure client account: %w", err)
	}

	account, err = s.store.Create(ctx, ClientAccount{
		CompanyName: in.Company,
		ContactName: in.ContactName,
		Email:       email,
		Phone:       in.Phone,
	})
	if err != nil {
		return ClientAccount{}, false, fmt.Errorf("ensure client account: %w", err)
	}
	return account, false, nil
}

// OpenProject creates the initial project of a converted deal. The caller
// treats a failure as non-fatal: the account link already happened and the
// project can be recreated by hand.
func (s *Service) OpenProject(ctx context.Context, clientID uuid.UUID, company string) (Project, error) {
	project, err := s.store.CreateProject(ctx, Project{
		ClientID: clientID,
		Name:     fmt.Sprintf("Projet %s", company),
	})
	if err != nil {
		return Project{}, fmt.Errorf("open project: %w", err)
	}

	s.log.Info("project opened for converted lead",
		"client_id", clientID.String(), "project_id", project.ID.String())
	return project, nil
}

// ListAccounts returns every client account.
func (s *Service) ListAccounts(ctx context.Context) ([]ClientAccount, error) {
	return s.store.List(ctx)
}

// ListProjects returns the projects of one account.
func (s *Service) ListProjects(ctx context.Context, clientID uuid.UUID) ([]Project, error) {
	return s.store.ListProjects(ctx, clientID)
}
