package repository

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-users"
	"github.com/uptrace/bun"
)

// sortColumns whitelists the user listing sort targets. Anything else is a
// caller bug and surfaces as an internal error.
var sortColumns = map[string]string{
	"id":                "id",
	"username":          "username",
	"email":             "email",
	"description":       "description",
	"registrationDate":  "registration_date",
	"registration_date": "registration_date",
}

// UserRepository implements users.UserStore over Bun.
type UserRepository struct {
	db *bun.DB
}

var _ users.UserStore = (*UserRepository)(nil)

// NewUserRepository creates a new repository.
func NewUserRepository(db *bun.DB) *UserRepository {
	return &UserRepository{db: db}
}

// ByID returns the row regardless of active state, or sql.ErrNoRows.
func (r *UserRepository) ByID(ctx context.Context, id int64) (*users.User, error) {
	return r.ByIDTx(ctx, r.db, id)
}

// ByIDTx is ByID within an enclosing transaction.
func (r *UserRepository) ByIDTx(ctx context.Context, tx bun.IDB, id int64) (*users.User, error) {
	user := &users.User{}
	if err := tx.NewSelect().
		Model(user).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

// ByUsernameTx returns the row holding the username regardless of active
// state, or sql.ErrNoRows.
func (r *UserRepository) ByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*users.User, error) {
	user := &users.User{}
	if err := tx.NewSelect().
		Model(user).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

// ByEmailTx returns the row holding the email regardless of active state,
// or sql.ErrNoRows.
func (r *UserRepository) ByEmailTx(ctx context.Context, tx bun.IDB, email string) (*users.User, error) {
	user := &users.User{}
	if err := tx.NewSelect().
		Model(user).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

// InsertTx persists a new row, filling the generated id.
func (r *UserRepository) InsertTx(ctx context.Context, tx bun.IDB, user *users.User) (*users.User, error) {
	if _, err := tx.NewInsert().
		Model(user).
		Returning("*").
		Exec(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

// Update persists the full row.
func (r *UserRepository) Update(ctx context.Context, user *users.User) (*users.User, error) {
	return r.UpdateTx(ctx, r.db, user)
}

// UpdateTx is Update within an enclosing transaction.
func (r *UserRepository) UpdateTx(ctx context.Context, tx bun.IDB, user *users.User) (*users.User, error) {
	if _, err := tx.NewUpdate().
		Model(user).
		WherePK().
		Returning("*").
		Exec(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

// List returns the active-only projection, filtered, sorted, and paginated
// with a 1-based page. Substring filters are AND-ed when both are present.
func (r *UserRepository) List(ctx context.Context, params users.ListUsersParams) ([]users.UserListItem, error) {
	column, ok := sortColumns[params.SortBy]
	if !ok {
		return nil, goerrors.New("invalid sort column: "+params.SortBy, goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
	}

	direction := "DESC"
	if params.Order == "ASC" {
		direction = "ASC"
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = 10
	}

	q := r.db.NewSelect().
		Model((*users.User)(nil)).
		Column("username", "email", "description").
		Where("?TableAlias.active = ?", true)

	if params.Username != "" {
		q = q.Where("?TableAlias.username LIKE ?", "%"+params.Username+"%")
	}
	if params.Email != "" {
		q = q.Where("?TableAlias.email LIKE ?", "%"+params.Email+"%")
	}

	items := make([]users.UserListItem, 0)
	if err := q.
		OrderExpr("? ?", bun.Ident(column), bun.Safe(direction)).
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(ctx, &items); err != nil {
		return nil, err
	}

	return items, nil
}

// DetailsByID joins to the role table and returns the detail projection for
// an active row, or sql.ErrNoRows.
func (r *UserRepository) DetailsByID(ctx context.Context, id int64) (*users.UserDetails, error) {
	details := &users.UserDetails{}
	if err := r.db.NewSelect().
		Model((*users.User)(nil)).
		ColumnExpr("rol.name AS role_name").
		ColumnExpr("?TableAlias.registration_date AS registration_date").
		Join("JOIN roles AS rol ON rol.id = ?TableAlias.role_id").
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.active = ?", true).
		Scan(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

// UsernameExists reports whether any row, active or not, holds the username.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.db.NewSelect().
		Model((*users.User)(nil)).
		Where("?TableAlias.username = ?", username).
		Exists(ctx)
}
