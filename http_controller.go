package users

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// ErrUnableToParseBody is returned when a request body cannot be decoded.
var ErrUnableToParseBody = goerrors.New("Unable to parse request body", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// CreateRoleRequest is the POST /role body.
type CreateRoleRequest struct {
	Name string `json:"name"`
}

func (r CreateRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
	)
}

// CreateUserRequest is the POST /user/register body.
type CreateUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Description string `json:"description"`
	RoleID      int64  `json:"roleId"`
}

func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Description, validation.Required),
		validation.Field(&r.RoleID, validation.Required),
	)
}

// UpdateUserRequest is the PUT /user/:id body. Absent fields leave the
// stored value unchanged.
type UpdateUserRequest struct {
	Description *string `json:"description"`
	RoleID      *int64  `json:"roleId"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Description, validation.NilOrNotEmpty),
	)
}

// TokenRequest is the POST /user/token body.
type TokenRequest struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
}

func (r TokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.UserName, validation.Required),
	)
}

// RoleController exposes the role store over HTTP.
type RoleController struct {
	Service *RoleService
	Logger  Logger
}

// NewRoleController creates a new RoleController instance
func NewRoleController(service *RoleService, logger Logger) *RoleController {
	if logger == nil {
		logger = defLogger{}
	}
	return &RoleController{Service: service, Logger: logger}
}

func (ctrl *RoleController) Create(c *fiber.Ctx) error {
	var req CreateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrUnableToParseBody
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	role, err := ctrl.Service.CreateRole(c.Context(), req.Name)
	if err != nil {
		return err
	}

	return respond(c, "Role created successfully", role)
}

func (ctrl *RoleController) All(c *fiber.Ctx) error {
	roles, err := ctrl.Service.GetAllRoles(c.Context())
	if err != nil {
		return err
	}

	return respond(c, "Roles found successfully", roles)
}

func (ctrl *RoleController) ByID(c *fiber.Ctx) error {
	id, err := paramID(c, "Please provide role id")
	if err != nil {
		return err
	}

	role, err := ctrl.Service.FindRoleByID(c.Context(), id)
	if err != nil {
		return err
	}

	return respond(c, "Role found successfully", role)
}

func (ctrl *RoleController) ByName(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return goerrors.New("Please provide role name", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	role, err := ctrl.Service.FindRoleByName(c.Context(), name)
	if err != nil {
		return err
	}

	return respond(c, "Role found successfully", role)
}

// UserController exposes the user lifecycle over HTTP.
type UserController struct {
	Service *UserService
	Logger  Logger
}

// NewUserController creates a new UserController instance
func NewUserController(service *UserService, logger Logger) *UserController {
	if logger == nil {
		logger = defLogger{}
	}
	return &UserController{Service: service, Logger: logger}
}

func (ctrl *UserController) Register(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrUnableToParseBody
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	user, err := ctrl.Service.Register(c.Context(), RegisterUserMessage{
		Username:    req.Username,
		Email:       req.Email,
		Description: req.Description,
		RoleID:      req.RoleID,
	})
	if err != nil {
		return err
	}

	return respond(c, "User added successfully", user)
}

func (ctrl *UserController) List(c *fiber.Ctx) error {
	params := ListUsersParams{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 10),
		SortBy:   c.Query("sortBy", "registrationDate"),
		Order:    strings.ToUpper(c.Query("order", "DESC")),
		Username: c.Query("username"),
		Email:    c.Query("email"),
	}

	items, err := ctrl.Service.GetUserList(c.Context(), params)
	if err != nil {
		return err
	}

	return respond(c, "User found successfully", items)
}

func (ctrl *UserController) Details(c *fiber.Ctx) error {
	id, err := paramID(c, "Please provide user id")
	if err != nil {
		return err
	}

	details, err := ctrl.Service.GetUserDetailsByID(c.Context(), id)
	if err != nil {
		return err
	}

	return respond(c, "User details found successfully", details)
}

func (ctrl *UserController) Remove(c *fiber.Ctx) error {
	id, err := paramID(c, "Please provide user id")
	if err != nil {
		return err
	}

	user, err := ctrl.Service.RemoveUser(c.Context(), id)
	if err != nil {
		return err
	}

	return respond(c, "User deleted successfully", user)
}

func (ctrl *UserController) Availability(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return goerrors.New("Please provide username", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	availability, err := ctrl.Service.CheckUsernameAvailability(c.Context(), username)
	if err != nil {
		return err
	}

	return respond(c, "Availability of username", availability)
}

func (ctrl *UserController) CreateToken(c *fiber.Ctx) error {
	var req TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrUnableToParseBody
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	token, err := ctrl.Service.GenerateToken(TokenPayload{
		UserID:   req.UserID,
		UserName: req.UserName,
	})
	if err != nil {
		return err
	}

	return respond(c, "Token created successfully", token)
}

func (ctrl *UserController) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "Please provide user id")
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrUnableToParseBody
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	user, err := ctrl.Service.UpdateUser(c.Context(), id, UserPatch{
		Description: req.Description,
		RoleID:      req.RoleID,
	})
	if err != nil {
		return err
	}

	return respond(c, "User updated successfully", user)
}

// RegisterRoutes mounts the role and user endpoints. Every route except
// token issuance sits behind the auth gate.
func RegisterRoutes(router fiber.Router, roles *RoleController, users *UserController, gate fiber.Handler) {
	role := router.Group("/role", gate)
	role.Post("/", roles.Create)
	role.Get("/all", roles.All)
	role.Get("/username/:name", roles.ByName)
	role.Get("/:id", roles.ByID)

	user := router.Group("/user")
	user.Post("/token", users.CreateToken)
	user.Post("/register", gate, users.Register)
	user.Get("/", gate, users.List)
	user.Get("/available/:username", gate, users.Availability)
	user.Get("/:id", gate, users.Details)
	user.Delete("/:id", gate, users.Remove)
	user.Put("/:id", gate, users.Update)
}

func paramID(c *fiber.Ctx, message string) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerrors.New(message, goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	return id, nil
}

func validationError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
		WithCode(goerrors.CodeBadRequest)
}
