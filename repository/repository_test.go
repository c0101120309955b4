package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/goliatone/go-users"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteCreateRoles = `CREATE TABLE roles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name VARCHAR NOT NULL UNIQUE
);`
	sqliteCreateUsers = `CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username VARCHAR NOT NULL UNIQUE,
    email VARCHAR NOT NULL UNIQUE,
    description VARCHAR,
    role_id INTEGER NOT NULL,
    active BOOLEAN NOT NULL,
    registration_date TIMESTAMP NOT NULL,
    FOREIGN KEY (role_id) REFERENCES roles (id)
);`
)

func setupDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	_, err = bunDB.Exec(sqliteCreateRoles)
	require.NoError(t, err)
	_, err = bunDB.Exec(sqliteCreateUsers)
	require.NoError(t, err)

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return bunDB, cleanup
}

func seedRole(t *testing.T, db *bun.DB, name string) *users.Role {
	t.Helper()

	role, err := NewRoleRepository(db).Create(context.Background(), &users.Role{Name: name})
	require.NoError(t, err)
	require.NotZero(t, role.ID)
	return role
}

func seedUser(t *testing.T, db *bun.DB, username, email string, roleID int64, active bool) *users.User {
	t.Helper()

	user := &users.User{
		Username:         username,
		Email:            email,
		Description:      username + " description",
		RoleID:           roleID,
		Active:           active,
		RegistrationDate: time.Now(),
	}

	created, err := NewUserRepository(db).InsertTx(context.Background(), db, user)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	return created
}
