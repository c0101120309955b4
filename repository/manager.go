// Package repository implements the role and user stores over Bun.
package repository

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-users"
	"github.com/uptrace/bun"
)

type mngr struct {
	db    *bun.DB
	users users.UserStore
	roles users.RoleStore
}

// NewManager wires all repositories over one database handle.
func NewManager(db *bun.DB) users.RepositoryManager {
	return &mngr{
		db:    db,
		users: NewUserRepository(db),
		roles: NewRoleRepository(db),
	}
}

func (m *mngr) Users() users.UserStore {
	return m.users
}

func (m *mngr) Roles() users.RoleStore {
	return m.roles
}

func (m *mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// CreateSchema ensures the two tables exist. Unique constraints on role
// name and user username/email live at the storage level, covering all
// rows regardless of active state.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*users.Role)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	if _, err := db.NewCreateTable().
		Model((*users.User)(nil)).
		IfNotExists().
		ForeignKey(`("role_id") REFERENCES "roles" ("id")`).
		Exec(ctx); err != nil {
		return err
	}

	return nil
}
