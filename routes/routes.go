package routes

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/esports-arena/docs"
	"github.com/Dosada05/esports-arena/handlers"
	"github.com/Dosada05/esports-arena/middleware"
	"github.com/Dosada05/esports-arena/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// staff - роли, которым доступно судейство матчей.
var staff = []models.UserRole{models.RoleReferee, models.RoleOrganizer, models.RoleAdmin, models.RoleFounder}

var organizers = []models.UserRole{models.RoleOrganizer, models.RoleAdmin, models.RoleFounder}

var moderators = []models.UserRole{models.RoleAdmin, models.RoleFounder}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Logger         *slog.Logger
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	bracketHandler *handlers.BracketHandler,
	matchHandler *handlers.MatchHandler,
	evidenceHandler *handlers.EvidenceHandler,
	moderationHandler *handlers.ModerationHandler,
	vetoHandler *handlers.VetoHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret, opts.Logger)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(docs.SwaggerJSON)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Get("/bracket-styles", bracketHandler.StylesHandler)

	router.Route("/tournaments/{tournamentID}/bracket", func(r chi.Router) {
		r.Get("/", bracketHandler.GetHandler)
		r.With(authenticate, middleware.Authorize(organizers...)).Post("/", bracketHandler.GenerateHandler)
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		// Публичные маршруты
		r.Get("/", matchHandler.GetHandler)
		r.Get("/evidence-window", evidenceHandler.WindowHandler)
		r.Get("/screenshots", evidenceHandler.ListScreenshotsHandler)
		r.Get("/chat", evidenceHandler.ListChatHandler)
		r.Get("/veto", vetoHandler.ListHandler)

		// Любой аутентифицированный пользователь
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/dispute", matchHandler.DisputeHandler)
			r.Post("/screenshots", evidenceHandler.UploadScreenshotHandler)
			r.Post("/screenshots/file", evidenceHandler.UploadScreenshotFileHandler)
			r.Post("/chat", evidenceHandler.PostChatHandler)
			r.Post("/veto", vetoHandler.RecordHandler)
		})

		// Судьи и организаторы
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(staff...))
			r.Post("/start", matchHandler.StartHandler)
			r.Put("/score", matchHandler.ScoreHandler)
			r.Post("/complete", matchHandler.CompleteHandler)
			r.Post("/nullify", matchHandler.NullifyHandler)
			r.Post("/reopen", matchHandler.ReopenHandler)
			r.Post("/reinstate", matchHandler.ReinstateHandler)
			r.Put("/schedule", matchHandler.ScheduleHandler)
			r.Put("/referee", matchHandler.RefereeHandler)
			r.Post("/withdraw", bracketHandler.WithdrawHandler)
		})
	})

	router.Route("/moderation", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(moderators...))
		r.Post("/actions", moderationHandler.ProposeHandler)
		r.Post("/actions/{pendingID}/confirm", moderationHandler.ConfirmHandler)
		r.Get("/sanctions", moderationHandler.ListSanctionsHandler)
		r.Delete("/sanctions/{sanctionID}", moderationHandler.LiftHandler)
		r.Get("/audit", moderationHandler.AuditHandler)
	})
}
