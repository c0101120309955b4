package users_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-users"
	"github.com/goliatone/go-users/middleware/jwtware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type successEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type failureEnvelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func newTestApp(t *testing.T) (*fiber.App, string) {
	t.Helper()

	repo := newTestRepo(t)
	tokens := users.NewTokenService([]byte("test-secret"), 1, "go-users", nil)

	roleService := users.NewRoleService(repo, nil)
	userService := users.NewUserService(repo, tokens, nil)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          users.NewHTTPErrorHandler(nil),
	})

	gate := jwtware.New(jwtware.Config{
		ContextKey: "user",
		AuthScheme: "Bearer",
		TokenValidator: jwtware.TokenValidatorFunc(func(raw string) (jwtware.AuthClaims, error) {
			claims, err := tokens.Validate(raw)
			if err != nil {
				return nil, err
			}
			return claims, nil
		}),
	})

	users.RegisterRoutes(
		app,
		users.NewRoleController(roleService, nil),
		users.NewUserController(userService, nil),
		gate,
	)

	token, err := tokens.Generate(users.TokenPayload{UserID: 1, UserName: "tester"})
	require.NoError(t, err)

	return app, token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	res, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return res, raw
}

func decodeSuccess(t *testing.T, raw []byte) successEnvelope {
	t.Helper()
	var envelope successEnvelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope
}

func decodeFailure(t *testing.T, raw []byte) failureEnvelope {
	t.Helper()
	var envelope failureEnvelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope
}

func createRoleHTTP(t *testing.T, app *fiber.App, token, name string) int64 {
	t.Helper()

	res, raw := doJSON(t, app, fiber.MethodPost, "/role", token, fiber.Map{"name": name})
	require.Equal(t, fiber.StatusOK, res.StatusCode, string(raw))

	envelope := decodeSuccess(t, raw)
	require.Equal(t, "Role created successfully", envelope.Message)

	var role users.Role
	require.NoError(t, json.Unmarshal(envelope.Data, &role))
	require.NotZero(t, role.ID)
	return role.ID
}

func registerUserHTTP(t *testing.T, app *fiber.App, token, username, email string, roleID int64) users.User {
	t.Helper()

	res, raw := doJSON(t, app, fiber.MethodPost, "/user/register", token, fiber.Map{
		"username":    username,
		"email":       email,
		"description": username + " description",
		"roleId":      roleID,
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode, string(raw))

	envelope := decodeSuccess(t, raw)
	require.Equal(t, "User added successfully", envelope.Message)

	var user users.User
	require.NoError(t, json.Unmarshal(envelope.Data, &user))
	require.NotZero(t, user.ID)
	return user
}

func TestTokenEndpointIsOpen(t *testing.T) {
	app, _ := newTestApp(t)

	res, raw := doJSON(t, app, fiber.MethodPost, "/user/token", "", fiber.Map{
		"userId":   7,
		"userName": "alice",
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode, string(raw))

	envelope := decodeSuccess(t, raw)
	assert.Equal(t, "Token created successfully", envelope.Message)

	var token string
	require.NoError(t, json.Unmarshal(envelope.Data, &token))
	assert.NotEmpty(t, token)
}

func TestTokenEndpointValidatesBody(t *testing.T) {
	app, _ := newTestApp(t)

	res, raw := doJSON(t, app, fiber.MethodPost, "/user/token", "", fiber.Map{
		"userName": "alice",
	})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	envelope := decodeFailure(t, raw)
	assert.Equal(t, fiber.StatusBadRequest, envelope.Status)
	assert.NotEmpty(t, envelope.Message)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, _ := newTestApp(t)

	paths := []struct {
		method string
		path   string
	}{
		{fiber.MethodPost, "/role"},
		{fiber.MethodGet, "/role/all"},
		{fiber.MethodGet, "/role/1"},
		{fiber.MethodPost, "/user/register"},
		{fiber.MethodGet, "/user/"},
		{fiber.MethodGet, "/user/1"},
		{fiber.MethodDelete, "/user/1"},
		{fiber.MethodPut, "/user/1"},
		{fiber.MethodGet, "/user/available/alice"},
	}

	for _, p := range paths {
		res, raw := doJSON(t, app, p.method, p.path, "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode, "%s %s: %s", p.method, p.path, raw)

		envelope := decodeFailure(t, raw)
		assert.Equal(t, fiber.StatusUnauthorized, envelope.Status)
	}
}

func TestRejectedRegistrationLeavesNoRow(t *testing.T) {
	app, token := newTestApp(t)
	roleID := createRoleHTTP(t, app, token, "member")

	res, _ := doJSON(t, app, fiber.MethodPost, "/user/register", "", fiber.Map{
		"username":    "ghost",
		"email":       "ghost@example.com",
		"description": "d",
		"roleId":      roleID,
	})
	require.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	res, raw := doJSON(t, app, fiber.MethodGet, "/user/available/ghost", token, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	envelope := decodeSuccess(t, raw)
	var availability users.UsernameAvailability
	require.NoError(t, json.Unmarshal(envelope.Data, &availability))
	assert.True(t, availability.Available)
}

func TestRoleEndpoints(t *testing.T) {
	app, token := newTestApp(t)

	roleID := createRoleHTTP(t, app, token, "admin")

	res, raw := doJSON(t, app, fiber.MethodGet, "/role/all", token, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	envelope := decodeSuccess(t, raw)
	assert.Equal(t, "Roles found successfully", envelope.Message)

	res, raw = doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/role/%d", roleID), token, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	envelope = decodeSuccess(t, raw)
	assert.Equal(t, "Role found successfully", envelope.Message)

	res, raw = doJSON(t, app, fiber.MethodGet, "/role/username/admin", token, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	envelope = decodeSuccess(t, raw)

	var role users.Role
	require.NoError(t, json.Unmarshal(envelope.Data, &role))
	assert.Equal(t, roleID, role.ID)

	res, raw = doJSON(t, app, fiber.MethodGet, "/role/99", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	failure := decodeFailure(t, raw)
	assert.Equal(t, "Role not found", failure.Message)

	res, raw = doJSON(t, app, fiber.MethodPost, "/role", token, fiber.Map{"name": "admin"})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	failure = decodeFailure(t, raw)
	assert.Equal(t, "Role name is already in system", failure.Message)
}

func TestUserLifecycleOverHTTP(t *testing.T) {
	app, token := newTestApp(t)
	roleID := createRoleHTTP(t, app, token, "member")

	user := registerUserHTTP(t, app, token, "alice", "alice@example.com", roleID)
	assert.True(t, user.Active)

	// Listing shows the active user.
	res, raw := doJSON(t, app, fiber.MethodGet, "/user/?sortBy=username&order=ASC", token, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	envelope := decodeSuccess(t, raw)
	assert.Equal(t, "User found successfully", envelope.Message)

	var items []users.UserListItem
	require.NoError(t, json.Unmarshal(envelope.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "alice", items[0].Username)

	// Details join the role name in.
	res, raw = doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/user/%d", user.ID), token, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	envelope = decodeSuccess(t, raw)
	assert.Equal(t, "User details found successfully", envelope.Message)

	var details users.UserDetails
	require.NoError(t, json.Unmarshal(envelope.Data, &details))
	assert.Equal(t, "member", details.RoleName)

	// The name is taken while the account exists.
	res, raw = doJSON(t, app, fiber.MethodGet, "/user/available/alice", token, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	envelope = decodeSuccess(t, raw)
	assert.Equal(t, "Availability of username", envelope.Message)

	var availability users.UsernameAvailability
	require.NoError(t, json.Unmarshal(envelope.Data, &availability))
	assert.False(t, availability.Available)

	// Partial update.
	res, raw = doJSON(t, app, fiber.MethodPut, fmt.Sprintf("/user/%d", user.ID), token, fiber.Map{
		"description": "edited",
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	envelope = decodeSuccess(t, raw)
	assert.Equal(t, "User updated successfully", envelope.Message)

	var updated users.User
	require.NoError(t, json.Unmarshal(envelope.Data, &updated))
	assert.Equal(t, "edited", updated.Description)

	// Soft delete.
	res, raw = doJSON(t, app, fiber.MethodDelete, fmt.Sprintf("/user/%d", user.ID), token, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	envelope = decodeSuccess(t, raw)
	assert.Equal(t, "User deleted successfully", envelope.Message)

	var removed users.User
	require.NoError(t, json.Unmarshal(envelope.Data, &removed))
	assert.False(t, removed.Active)

	// The listing no longer shows the user, the name stays taken.
	res, raw = doJSON(t, app, fiber.MethodGet, "/user/", token, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	envelope = decodeSuccess(t, raw)
	require.NoError(t, json.Unmarshal(envelope.Data, &items))
	assert.Empty(t, items)

	res, raw = doJSON(t, app, fiber.MethodGet, "/user/available/alice", token, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	envelope = decodeSuccess(t, raw)
	require.NoError(t, json.Unmarshal(envelope.Data, &availability))
	assert.False(t, availability.Available)

	// Re-registering the same identity revives the same row.
	revived := registerUserHTTP(t, app, token, "alice", "alice@example.com", roleID)
	assert.Equal(t, user.ID, revived.ID)
	assert.True(t, revived.Active)
	assert.Equal(t, "edited", revived.Description)
}

func TestRegisterConflictsOverHTTP(t *testing.T) {
	app, token := newTestApp(t)
	roleID := createRoleHTTP(t, app, token, "member")

	registerUserHTTP(t, app, token, "alice", "alice@example.com", roleID)

	res, raw := doJSON(t, app, fiber.MethodPost, "/user/register", token, fiber.Map{
		"username":    "alice",
		"email":       "other@example.com",
		"description": "d",
		"roleId":      roleID,
	})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	failure := decodeFailure(t, raw)
	assert.Equal(t, "Username is already in system", failure.Message)

	res, raw = doJSON(t, app, fiber.MethodPost, "/user/register", token, fiber.Map{
		"username":    "other",
		"email":       "alice@example.com",
		"description": "d",
		"roleId":      roleID,
	})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	failure = decodeFailure(t, raw)
	assert.Equal(t, "Email is already in system", failure.Message)

	res, raw = doJSON(t, app, fiber.MethodPost, "/user/register", token, fiber.Map{
		"username":    "bob",
		"email":       "bob@example.com",
		"description": "d",
		"roleId":      99,
	})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	failure = decodeFailure(t, raw)
	assert.Equal(t, "Role is not found in system", failure.Message)
}

func TestRegisterValidation(t *testing.T) {
	app, token := newTestApp(t)
	roleID := createRoleHTTP(t, app, token, "member")

	res, raw := doJSON(t, app, fiber.MethodPost, "/user/register", token, fiber.Map{
		"username":    "alice",
		"email":       "not-an-email",
		"description": "d",
		"roleId":      roleID,
	})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	failure := decodeFailure(t, raw)
	assert.Equal(t, fiber.StatusBadRequest, failure.Status)
	assert.Contains(t, failure.Message, "email")
}

func TestBadUserIDParam(t *testing.T) {
	app, token := newTestApp(t)

	res, raw := doJSON(t, app, fiber.MethodDelete, "/user/abc", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	failure := decodeFailure(t, raw)
	assert.Equal(t, "Please provide user id", failure.Message)
}

func TestMissingUserOverHTTP(t *testing.T) {
	app, token := newTestApp(t)

	res, raw := doJSON(t, app, fiber.MethodGet, "/user/99", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	failure := decodeFailure(t, raw)
	assert.Equal(t, "User not found", failure.Message)

	res, raw = doJSON(t, app, fiber.MethodDelete, "/user/99", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	failure = decodeFailure(t, raw)
	assert.Equal(t, "User doesn't exist", failure.Message)
}

func TestListRejectsUnknownSortColumn(t *testing.T) {
	app, token := newTestApp(t)

	res, raw := doJSON(t, app, fiber.MethodGet, "/user/?sortBy=password", token, nil)
	assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)

	failure := decodeFailure(t, raw)
	assert.Equal(t, fiber.StatusInternalServerError, failure.Status)
}
