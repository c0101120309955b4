// Package jwtware gates fiber routes behind a bearer token. The token is
// extracted from the Authorization header, validated through the configured
// TokenValidator, and the recovered claims are stored in request locals
// before any handler or repository runs.
package jwtware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrJWTMissingOrMalformed is returned when no usable token accompanies the
// request.
var ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")

// AuthClaims mirrors the claims interface from the root package to avoid an
// import cycle.
type AuthClaims interface {
	Subject() string
	UserID() int64
	UserName() string
}

// TokenValidator validates tokens and extracts claims without tying the
// middleware to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrJWTMissingOrMalformed
	}
	return f(tokenString)
}

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool
	// SuccessHandler runs after validation; defaults to c.Next().
	SuccessHandler fiber.Handler
	// ErrorHandler maps validation failures to a response; defaults to a
	// 401 JSON body.
	ErrorHandler fiber.ErrorHandler
	// TokenValidator is required for token validation.
	TokenValidator TokenValidator
	// ContextKey is the locals key the claims are stored under.
	ContextKey string
	// AuthScheme is the expected Authorization scheme prefix.
	AuthScheme string
}

// GetDefaultConfig fills the optional fields.
func GetDefaultConfig(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// New returns the auth gate middleware.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := ExtractRawToken(c, cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)

		return cfg.SuccessHandler(c)
	}
}

// ExtractRawToken pulls the bearer token out of the Authorization header.
func ExtractRawToken(c *fiber.Ctx, authScheme string) (string, error) {
	auth := c.Get(fiber.HeaderAuthorization)
	if auth == "" {
		return "", ErrJWTMissingOrMalformed
	}

	if authScheme == "" {
		return auth, nil
	}

	prefix := authScheme + " "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", ErrJWTMissingOrMalformed
	}

	token := strings.TrimSpace(auth[len(prefix):])
	if token == "" {
		return "", ErrJWTMissingOrMalformed
	}

	return token, nil
}

// ClaimsFromContext returns the claims a successful gate pass stored, if any.
func ClaimsFromContext(c *fiber.Ctx, contextKey string) (AuthClaims, bool) {
	claims, ok := c.Locals(contextKey).(AuthClaims)
	return claims, ok
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	message := "Invalid or expired token"
	if errors.Is(err, ErrJWTMissingOrMalformed) {
		message = ErrJWTMissingOrMalformed.Error()
	}

	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status":  fiber.StatusUnauthorized,
		"message": message,
	})
}
