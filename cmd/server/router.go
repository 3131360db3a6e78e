package main

import (
	"context"
	"time"

	"note-draft/cmd/server/handlers"
	"note-draft/cmd/server/handlers/httperr"
	notesHandlers "note-draft/cmd/server/handlers/notes"
	"note-draft/cmd/server/middlewares"
	"note-draft/internal/clients/mongo"
	"note-draft/internal/clients/ollama"
	"note-draft/internal/config"
	"note-draft/internal/draft"
	"note-draft/internal/logger"
	notesServices "note-draft/internal/services/notes"
	summarizeServices "note-draft/internal/services/summarize"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const (
	SummarizeRateExpiration = 1 * time.Minute
)

// setupRouter configures and returns a Fiber app with all routes
func setupRouter(ctx context.Context, cfg config.Config) *fiber.App {
	v := validator.New()

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true, // make Fiber copy all request-derived strings
	})

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Content-Type, Authorization",
	}))

	if cfg.RouteMetricsEnabled {
		middlewares.AttachMetrics(app)
	}

	// Health check endpoint, outside versioned API to appease scanners and to avoid logging
	app.Get("/healthz", handlers.Healthz)

	app.Static("/", "./web-ui", fiber.Static{
		Browse: false,
		Index:  "index.html",
	})

	var v1 fiber.Router
	if cfg.RequestLoggingEnabled {
		v1 = app.Group("/api/v1", fiberlogger.New())
		logger.L().Info("request logging enabled")
	} else {
		v1 = app.Group("/api/v1")
		logger.L().Info("request logging disabled")
	}

	jwtMiddleware := middlewares.JWT(cfg)

	// Notes routes
	notesRepo, err := mongo.NewNotesRepo(ctx, mongo.DB())
	if err != nil {
		logger.L().Error(notesServices.ErrCreateNotesRepo.Error(), "error", err)
		panic(err)
	}
	notesSvc := notesServices.NewService(notesRepo, logger.L())

	summaryProvider := ollama.NewClient(
		cfg.OllamaBaseURL,
		cfg.SummaryModel,
		time.Duration(cfg.SummaryTimeoutSec)*time.Second,
	)
	summarizeSvc := summarizeServices.NewService(notesSvc, summaryProvider, logger.L())

	notesH := notesHandlers.NewHandlers(notesSvc, summarizeSvc, v)

	notesGrp := v1.Group("/notes", jwtMiddleware)
	notesGrp.Post("/", notesH.Create)
	notesGrp.Get("/", notesH.List)
	notesGrp.Get("/:id", notesH.Get)
	notesGrp.Patch("/:id", notesH.Update)
	notesGrp.Delete("/:id", notesH.Delete)

	// Summary generation goes through the model backend, so it gets its
	// own rate limit on top of auth.
	summarizeLimiter := middlewares.BuildRateLimiter(cfg.SummarizeRatePerMin, SummarizeRateExpiration)
	notesGrp.Post("/:id/summarize", summarizeLimiter, notesH.Summarize)

	// Editor WebSocket: one draft session per connection.
	draftCfg := draft.Config{
		Debounce:      time.Duration(cfg.AutosaveDebounceMs) * time.Millisecond,
		CommitTimeout: time.Duration(cfg.CommitTimeoutSec) * time.Second,
	}
	editorH := notesHandlers.NewEditorHandlers(notesSvc, cfg.JWTSecret, cfg.WSMaxSessionSec, draftCfg)
	app.Get("/ws/editor", editorH.WSUpgrade, websocket.New(editorH.WSEditorStream))

	// User profile endpoint (for testing JWT middleware and for future use)
	v1.Get("/me", jwtMiddleware, handlers.Me)

	return app
}
