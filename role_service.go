package users

import (
	"context"
	"database/sql"

	goerrors "github.com/goliatone/go-errors"
)

// RoleService resolves and creates roles. Roles are immutable once created;
// there is no update or delete path.
type RoleService struct {
	repo   RepositoryManager
	logger Logger
}

// NewRoleService creates a new RoleService instance
func NewRoleService(repo RepositoryManager, logger Logger) *RoleService {
	if logger == nil {
		logger = defLogger{}
	}
	return &RoleService{repo: repo, logger: logger}
}

// CreateRole persists a new role. Duplicate names surface as a conflict.
func (s *RoleService) CreateRole(ctx context.Context, name string) (*Role, error) {
	s.logger.Info("createRole started", "name", name)

	role, err := s.repo.Roles().Create(ctx, &Role{Name: name})
	if err != nil {
		s.logger.Error("createRole failed", "name", name, "error", err)
		return nil, EnsureRichError(err)
	}

	return role, nil
}

// GetAllRoles returns every role in insertion order.
func (s *RoleService) GetAllRoles(ctx context.Context) ([]*Role, error) {
	s.logger.Info("getAllRoles started")

	roles, err := s.repo.Roles().All(ctx)
	if err != nil {
		s.logger.Error("getAllRoles failed", "error", err)
		return nil, EnsureRichError(err)
	}

	return roles, nil
}

// FindRoleByID returns the role or ErrRoleNotFound.
func (s *RoleService) FindRoleByID(ctx context.Context, id int64) (*Role, error) {
	s.logger.Info("findRoleById started", "id", id)

	role, err := s.repo.Roles().ByID(ctx, id)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("findRoleById role not found", "id", id)
			return nil, ErrRoleNotFound
		}
		s.logger.Error("findRoleById failed", "id", id, "error", err)
		return nil, EnsureRichError(err)
	}

	return role, nil
}

// FindRoleByName returns the role or ErrRoleNotFound.
func (s *RoleService) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	s.logger.Info("findRoleByName started", "name", name)

	role, err := s.repo.Roles().ByName(ctx, name)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("findRoleByName role not found", "name", name)
			return nil, ErrRoleNotFound
		}
		s.logger.Error("findRoleByName failed", "name", name, "error", err)
		return nil, EnsureRichError(err)
	}

	return role, nil
}
