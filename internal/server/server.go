// Package server assembles the Fiber application.
package server

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/internal/auth"
	"github.com/aldoetobex/lawcase-backend/internal/cases"
	"github.com/aldoetobex/lawcase-backend/internal/clients"
	"github.com/aldoetobex/lawcase-backend/internal/health"
	"github.com/aldoetobex/lawcase-backend/internal/identity"
	"github.com/aldoetobex/lawcase-backend/internal/metrics"
	"github.com/aldoetobex/lawcase-backend/internal/payments"
	"github.com/aldoetobex/lawcase-backend/internal/users"
	"github.com/aldoetobex/lawcase-backend/pkg/config"
	"github.com/aldoetobex/lawcase-backend/pkg/database"
)

type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Log    *zap.SugaredLogger
	Files  cases.FileService
}

// New builds the app with every route registered.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: auth.ErrorHandler(d.Log),
		AppName:      "lawcase-backend",
		ReadTimeout:  60 * time.Second,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: d.Config.Env == "dev"}))
	app.Use(requestid.New())
	app.Use(RequestLogger(d.Log))
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.Config.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	// Probes and metrics stay outside the rate limit.
	hh := health.NewHandler(func(ctx context.Context) error { return database.Ping(ctx, d.DB) })
	app.Get("/health", hh.Liveness)
	app.Get("/healthz", hh.Readiness)
	app.Get("/metrics", metrics.Handler())

	tokens := auth.NewTokens(d.Config.JWTSecret, d.Config.JWTTTL)
	ids := identity.NewService(d.DB)

	api := app.Group("/api",
		limiter.New(limiter.Config{
			Max:        d.Config.HTTP.RateLimitMax,
			Expiration: d.Config.HTTP.RateLimitWindow,
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "too many requests")
			},
		}),
		auth.Authenticate(tokens),
	)

	// Auth (never plan-gated)
	authH := auth.NewHandler(ids, tokens)
	planH := payments.NewHandler(d.DB)
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/login-user", authH.LoginUser)
	api.Post("/auth/setup-admin", authH.SetupAdmin)
	api.Post("/auth/update-plan", planH.UpdatePlan)
	api.Post("/auth/enable-free-plan", planH.EnableFreePlan)
	api.Post("/auth/change-password", authH.ChangePassword)
	api.Get("/auth/me", auth.RequireToken(), authH.Me)

	// Users
	userH := users.NewHandler(d.DB, ids)
	api.Get("/users", userH.List)
	api.Post("/users", userH.Create)
	api.Delete("/users/:id", userH.Delete)

	// Clients
	clientH := clients.NewHandler(d.DB)
	api.Get("/clients", clientH.List)
	api.Post("/clients", clientH.Create)
	api.Get("/clients/:id", clientH.Get)
	api.Patch("/clients/:id", clientH.Update)
	api.Delete("/clients/:id", clientH.Delete)

	// Cases
	caseH := cases.NewHandler(d.DB, d.Files)
	api.Get("/cases", caseH.List)
	api.Post("/cases", caseH.Create)
	api.Get("/cases/:id", caseH.Get)
	api.Patch("/cases/:id", caseH.Update)
	api.Delete("/cases/:id", caseH.Delete)

	api.Get("/cases/:id/stages", caseH.ListStages)
	api.Post("/cases/:id/stages", caseH.CreateStage)
	api.Patch("/cases/:id/stages/:stageId", caseH.UpdateStage)
	api.Delete("/cases/:id/stages/:stageId", caseH.DeleteStage)

	api.Get("/cases/:id/reminders", caseH.ListReminders)
	api.Post("/cases/:id/reminders", caseH.CreateReminder)
	api.Patch("/cases/:id/reminders/:reminderId", caseH.UpdateReminder)
	api.Delete("/cases/:id/reminders/:reminderId", caseH.DeleteReminder)

	api.Get("/cases/:id/folders", caseH.ListFolders)
	api.Post("/cases/:id/folders", caseH.CreateFolder)
	api.Delete("/cases/:id/folders/:folderId", caseH.DeleteFolder)

	// Files
	api.Get("/cases/:id/files", caseH.ListFiles)
	api.Post("/cases/:id/files/presign", caseH.PresignFile)
	api.Post("/files/confirm", caseH.ConfirmFile)
	api.Get("/files/:fileId/download", caseH.DownloadFile)

	return app
}

// RequestLogger writes one structured line per request.
func RequestLogger(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		fields := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
		}
		switch {
		case status >= 500:
			log.Errorw("http request", fields...)
		case strings.HasPrefix(c.Path(), "/health"), c.Path() == "/metrics":
			log.Debugw("http request", fields...)
		default:
			log.Infow("http request", fields...)
		}
		return err
	}
}
