package users

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeRoleNotFound   = "ROLE_NOT_FOUND"
	textCodeRoleNameTaken  = "ROLE_NAME_TAKEN"
	textCodeUsernameTaken  = "USERNAME_TAKEN"
	textCodeEmailTaken     = "EMAIL_TAKEN"
	textCodeIdentitySplit  = "IDENTITY_SPLIT"
	textCodeUserNotFound   = "USER_NOT_FOUND"
	textCodeUserNotActive  = "USER_NOT_ACTIVE"
	textCodeTokenExpired   = "TOKEN_EXPIRED"
	textCodeTokenMalformed = "TOKEN_MALFORMED"
)

// ErrRoleNotFound is returned by role lookups that miss.
var ErrRoleNotFound = goerrors.New("Role not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeRoleNotFound).
	WithCode(goerrors.CodeBadRequest)

// ErrRoleMissingForUser is returned when a user submission references a role
// that does not exist.
var ErrRoleMissingForUser = goerrors.New("Role is not found in system", goerrors.CategoryNotFound).
	WithTextCode(textCodeRoleNotFound).
	WithCode(goerrors.CodeBadRequest)

// ErrRoleNameTaken is returned when creating a role whose name exists.
var ErrRoleNameTaken = goerrors.New("Role name is already in system", goerrors.CategoryConflict).
	WithTextCode(textCodeRoleNameTaken).
	WithCode(goerrors.CodeBadRequest)

// ErrUsernameTaken is returned when an active row holds the submitted username.
var ErrUsernameTaken = goerrors.New("Username is already in system", goerrors.CategoryConflict).
	WithTextCode(textCodeUsernameTaken).
	WithCode(goerrors.CodeBadRequest)

// ErrEmailTaken is returned when an active row holds the submitted email.
var ErrEmailTaken = goerrors.New("Email is already in system", goerrors.CategoryConflict).
	WithTextCode(textCodeEmailTaken).
	WithCode(goerrors.CodeBadRequest)

// ErrIdentitySplit is returned when the submitted username and email are held
// by two different inactive rows, so neither can be reactivated.
var ErrIdentitySplit = goerrors.New("Email and username already in system by two different users", goerrors.CategoryConflict).
	WithTextCode(textCodeIdentitySplit).
	WithCode(goerrors.CodeBadRequest)

// ErrUserNotFound is returned when an id resolves to no user row.
var ErrUserNotFound = goerrors.New("User doesn't exist", goerrors.CategoryNotFound).
	WithTextCode(textCodeUserNotFound).
	WithCode(goerrors.CodeBadRequest)

// ErrUserNotActive is returned when removing an already inactive user.
var ErrUserNotActive = goerrors.New("User is already not active", goerrors.CategoryConflict).
	WithTextCode(textCodeUserNotActive).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned when a bearer token is past its expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a bearer token cannot be parsed or its
// signature does not verify.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// EnsureRichError applies the propagation policy: deliberate rich errors pass
// through with their status preserved, anything else becomes a generic
// internal error.
func EnsureRichError(err error) *goerrors.Error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "Something went wrong").
		WithCode(goerrors.CodeInternal)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsUniqueViolationError detects unique-constraint failures from the drivers
// in use (pgdriver reports SQLSTATE 23505, sqlite its constraint message).
func IsUniqueViolationError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE=23505") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
