package repository

import (
	"context"

	"github.com/goliatone/go-users"
	"github.com/uptrace/bun"
)

// RoleRepository implements users.RoleStore over Bun.
type RoleRepository struct {
	db *bun.DB
}

var _ users.RoleStore = (*RoleRepository)(nil)

// NewRoleRepository creates a new repository.
func NewRoleRepository(db *bun.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create persists a new role. A duplicate name violates the unique
// constraint and is surfaced as the conflict the caller expects.
func (r *RoleRepository) Create(ctx context.Context, role *users.Role) (*users.Role, error) {
	if _, err := r.db.NewInsert().
		Model(role).
		Returning("*").
		Exec(ctx); err != nil {
		if users.IsUniqueViolationError(err) {
			return nil, users.ErrRoleNameTaken
		}
		return nil, err
	}
	return role, nil
}

// All returns every role in insertion order.
func (r *RoleRepository) All(ctx context.Context) ([]*users.Role, error) {
	roles := make([]*users.Role, 0)
	if err := r.db.NewSelect().
		Model(&roles).
		Order("id ASC").
		Scan(ctx); err != nil {
		return nil, err
	}
	return roles, nil
}

// ByID returns the role or sql.ErrNoRows.
func (r *RoleRepository) ByID(ctx context.Context, id int64) (*users.Role, error) {
	return r.ByIDTx(ctx, r.db, id)
}

// ByIDTx is ByID within an enclosing transaction.
func (r *RoleRepository) ByIDTx(ctx context.Context, tx bun.IDB, id int64) (*users.Role, error) {
	role := &users.Role{}
	if err := tx.NewSelect().
		Model(role).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx); err != nil {
		return nil, err
	}
	return role, nil
}

// ByName returns the role or sql.ErrNoRows.
func (r *RoleRepository) ByName(ctx context.Context, name string) (*users.Role, error) {
	role := &users.Role{}
	if err := r.db.NewSelect().
		Model(role).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx); err != nil {
		return nil, err
	}
	return role, nil
}
