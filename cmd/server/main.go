package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	users "github.com/goliatone/go-users"
	"github.com/goliatone/go-users/middleware/jwtware"
	"github.com/goliatone/go-users/repository"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("go-users"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)
	logger := lgr.GetLogger("server")

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found")
	}

	cfg, err := users.LoadConfig()
	if err != nil {
		logger.Error("unable to load configuration", "error", err)
		os.Exit(1)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN())))
	db := bun.NewDB(sqldb, pgdialect.New())

	ctx := context.Background()
	if err := repository.CreateSchema(ctx, db); err != nil {
		logger.Error("unable to ensure schema", "error", err)
		os.Exit(1)
	}

	repo := repository.NewManager(db)

	tokens := users.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		lgr.GetLogger("tokens"),
	)

	roleService := users.NewRoleService(repo, lgr.GetLogger("roles"))
	userService := users.NewUserService(repo, tokens, lgr.GetLogger("users"))

	app := fiber.New(fiber.Config{
		AppName:               "go-users",
		DisableStartupMessage: true,
		ErrorHandler:          users.NewHTTPErrorHandler(lgr.GetLogger("http")),
	})

	app.Use(users.RequestLogger(lgr.GetLogger("request")))

	gate := jwtware.New(jwtware.Config{
		ContextKey: cfg.GetContextKey(),
		AuthScheme: cfg.GetAuthScheme(),
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
		users.NewRoleController(roleService, lgr.GetLogger("roles")),
		users.NewUserController(userService, lgr.GetLogger("users")),
		gate,
	)

	go func() {
		if err := app.Listen(cfg.ListenAddress); err != nil {
			logger.Error("server stopped", "error", err)
		}
	}()

	logger.Info("server started", "address", cfg.ListenAddress, "config", cfg.String())

	WaitExitSignal()

	logger.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := db.Close(); err != nil {
		logger.Error("database close failed", "error", err)
	}
}

// WaitExitSignal blocks until the process receives an interrupt.
func WaitExitSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}
