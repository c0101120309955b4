package users

import (
	"context"
	"database/sql"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RegisterUserMessage is a user registration submission.
type RegisterUserMessage struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Description string `json:"description"`
	RoleID      int64  `json:"roleId"`
}

// UserService owns the user lifecycle: registration reconciliation, listing,
// soft removal, availability checks, partial updates, and token issuance.
type UserService struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

// NewUserService creates a new UserService instance
func NewUserService(repo RepositoryManager, tokens TokenService, logger Logger) *UserService {
	if logger == nil {
		logger = defLogger{}
	}
	return &UserService{repo: repo, tokens: tokens, logger: logger}
}

// Register reconciles the submission against existing rows and either
// rejects, reactivates a previously removed account, or inserts a new one.
// The decision table, evaluated in order inside one transaction:
//   - an active row holds the username: conflict
//   - an active row holds the email: conflict
//   - two different inactive rows hold the username and the email: conflict
//   - one inactive row holds both: reactivate that row, keeping its stored
//     description and role
//   - otherwise: insert a new active row stamped with the current time
func (s *UserService) Register(ctx context.Context, msg RegisterUserMessage) (*User, error) {
	s.logger.Info("register started", "email", msg.Email)

	var result *User
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Roles().ByIDTx(ctx, tx, msg.RoleID); err != nil {
			if goerrors.Is(err, sql.ErrNoRows) {
				return ErrRoleMissingForUser
			}
			return err
		}

		byUsername, err := s.lookupTx(ctx, tx, func(ctx context.Context, tx bun.IDB) (*User, error) {
			return s.repo.Users().ByUsernameTx(ctx, tx, msg.Username)
		})
		if err != nil {
			return err
		}
		if byUsername != nil && byUsername.Active {
			return ErrUsernameTaken
		}

		byEmail, err := s.lookupTx(ctx, tx, func(ctx context.Context, tx bun.IDB) (*User, error) {
			return s.repo.Users().ByEmailTx(ctx, tx, msg.Email)
		})
		if err != nil {
			return err
		}
		if byEmail != nil && byEmail.Active {
			return ErrEmailTaken
		}

		if byUsername != nil && byEmail != nil && byUsername.ID != byEmail.ID {
			return ErrIdentitySplit
		}

		if byUsername != nil && byEmail != nil && !byEmail.Active && byUsername.ID == byEmail.ID {
			// Resurrect the removed account as it was. The submitted
			// description and role are deliberately ignored here.
			byEmail.Active = true
			result, err = s.repo.Users().UpdateTx(ctx, tx, byEmail)
			return err
		}

		user := &User{
			Username:         msg.Username,
			Email:            msg.Email,
			Description:      msg.Description,
			RoleID:           msg.RoleID,
			Active:           true,
			RegistrationDate: time.Now(),
		}

		result, err = s.repo.Users().InsertTx(ctx, tx, user)
		if err != nil {
			// A concurrent registration can win the race between the lookups
			// and this insert; the unique constraints are the last line of
			// defense and surface as the same conflicts.
			if IsUniqueViolationError(err) {
				return uniqueViolationConflict(err)
			}
			return err
		}
		return nil
	})

	if err != nil {
		s.logger.Error("register failed", "email", msg.Email, "error", err)
		return nil, EnsureRichError(err)
	}

	s.logger.Info("register done", "email", msg.Email, "id", result.ID)
	return result, nil
}

// GetUserList returns the projected listing of active users.
func (s *UserService) GetUserList(ctx context.Context, params ListUsersParams) ([]UserListItem, error) {
	s.logger.Info("getUserList started", "page", params.Page, "sort_by", params.SortBy)

	items, err := s.repo.Users().List(ctx, params)
	if err != nil {
		s.logger.Error("getUserList failed", "error", err)
		return nil, EnsureRichError(err)
	}

	return items, nil
}

// GetUserDetailsByID returns the role-joined detail view for an active user.
func (s *UserService) GetUserDetailsByID(ctx context.Context, id int64) (*UserDetails, error) {
	s.logger.Info("getUserDetailsById started", "id", id)

	details, err := s.repo.Users().DetailsByID(ctx, id)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, goerrors.New("User not found", goerrors.CategoryNotFound).
				WithTextCode(textCodeUserNotFound).
				WithCode(goerrors.CodeBadRequest)
		}
		s.logger.Error("getUserDetailsById failed", "id", id, "error", err)
		return nil, EnsureRichError(err)
	}

	return details, nil
}

// RemoveUser soft deletes: flips active to false and returns the row. The
// row keeps its unique username/email claims.
func (s *UserService) RemoveUser(ctx context.Context, id int64) (*User, error) {
	s.logger.Info("removeUser started", "id", id)

	user, err := s.repo.Users().ByID(ctx, id)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("removeUser failed", "id", id, "error", err)
		return nil, EnsureRichError(err)
	}

	if !user.Active {
		return nil, ErrUserNotActive
	}

	user.Active = false
	updated, err := s.repo.Users().Update(ctx, user)
	if err != nil {
		s.logger.Error("removeUser failed", "id", id, "error", err)
		return nil, EnsureRichError(err)
	}

	return updated, nil
}

// CheckUsernameAvailability reports whether no row at all holds the
// username. An inactive row still makes the name unavailable: the probe
// cannot know the email a caller would register with, so it cannot promise
// that the reactivation path would accept the name.
func (s *UserService) CheckUsernameAvailability(ctx context.Context, username string) (*UsernameAvailability, error) {
	s.logger.Info("checkAvailabilityOfUsername started", "username", username)

	exists, err := s.repo.Users().UsernameExists(ctx, username)
	if err != nil {
		s.logger.Error("checkAvailabilityOfUsername failed", "username", username, "error", err)
		return nil, EnsureRichError(err)
	}

	return &UsernameAvailability{Available: !exists}, nil
}

// UpdateUser merges the patch onto the stored row and persists it as one
// unit. Unset fields stay unchanged. Inactive users are updatable; removal
// does not freeze a row.
func (s *UserService) UpdateUser(ctx context.Context, id int64, patch UserPatch) (*User, error) {
	s.logger.Info("updateUser started", "id", id)

	user, err := s.repo.Users().ByID(ctx, id)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("updateUser failed", "id", id, "error", err)
		return nil, EnsureRichError(err)
	}

	if patch.RoleID != nil {
		if _, err := s.repo.Roles().ByID(ctx, *patch.RoleID); err != nil {
			if goerrors.Is(err, sql.ErrNoRows) {
				return nil, ErrRoleMissingForUser
			}
			s.logger.Error("updateUser failed", "id", id, "error", err)
			return nil, EnsureRichError(err)
		}
	}

	patch.Apply(user)

	updated, err := s.repo.Users().Update(ctx, user)
	if err != nil {
		s.logger.Error("updateUser failed", "id", id, "error", err)
		return nil, EnsureRichError(err)
	}

	return updated, nil
}

// GenerateToken issues a signed bearer token for the payload.
func (s *UserService) GenerateToken(payload TokenPayload) (string, error) {
	token, err := s.tokens.Generate(payload)
	if err != nil {
		s.logger.Error("generateToken failed", "user_id", payload.UserID, "error", err)
		return "", EnsureRichError(err)
	}
	return token, nil
}

func (s *UserService) lookupTx(ctx context.Context, tx bun.IDB, find func(context.Context, bun.IDB) (*User, error)) (*User, error) {
	user, err := find(ctx, tx)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func uniqueViolationConflict(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "email") {
		return ErrEmailTaken
	}
	if strings.Contains(msg, "username") {
		return ErrUsernameTaken
	}
	return goerrors.Wrap(err, goerrors.CategoryConflict, "User already in system").
		WithCode(goerrors.CodeBadRequest)
}
