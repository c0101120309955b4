package users

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the options the token issuer and auth gate need.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetContextKey() string
	GetAuthScheme() string
	GetIssuer() string
}

// AuthClaims is the identity recovered from a validated bearer token.
type AuthClaims interface {
	Subject() string
	UserID() int64
	UserName() string
	Expires() time.Time
	IssuedAt() time.Time
}

// TokenService signs and verifies bearer tokens carrying a user identity.
type TokenService interface {
	Generate(payload TokenPayload) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// RoleStore persists role rows. Lookups that miss return sql.ErrNoRows.
type RoleStore interface {
	Create(ctx context.Context, role *Role) (*Role, error)
	All(ctx context.Context) ([]*Role, error)
	ByID(ctx context.Context, id int64) (*Role, error)
	ByIDTx(ctx context.Context, tx bun.IDB, id int64) (*Role, error)
	ByName(ctx context.Context, name string) (*Role, error)
}

// UserStore persists user rows. Lookups that miss return sql.ErrNoRows; the
// By* lookups match rows regardless of active state.
type UserStore interface {
	ByID(ctx context.Context, id int64) (*User, error)
	ByIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error)
	ByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	ByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	InsertTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	List(ctx context.Context, params ListUsersParams) ([]UserListItem, error)
	DetailsByID(ctx context.Context, id int64) (*UserDetails, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Users() UserStore
	Roles() RoleStore
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Println(append([]any{"[ERR] USERS " + msg}, args...)...)
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Println(append([]any{"[WRN] USERS " + msg}, args...)...)
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Println(append([]any{"[INF] USERS " + msg}, args...)...)
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Println(append([]any{"[DBG] USERS " + msg}, args...)...)
}
