package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/Coverly/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/Coverly/internal/api/middlewares"
	"github.com/markdave123-py/Coverly/internal/config"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
	"github.com/markdave123-py/Coverly/internal/services"
)

const requestTimeout = 90 * time.Second

// Services are the use cases the HTTP layer exposes.
type Services struct {
	Users      *services.UserService
	Companies  *services.CompanyService
	Sessions   *services.SessionService
	Templates  *services.TemplateService
	Generation *services.GenerationService
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewRouter builds and wires all routes.
func NewRouter(cfg *config.Config, svc *Services, log *logger.Logger) http.Handler {
	authHandler := handlers.NewAuthHandler(svc.Users, cfg.JWTSecret, cfg.TokenTTL, log)
	companyHandler := handlers.NewCompanyHandler(svc.Companies, cfg.MaxUploadBytes, log)
	sessionHandler := handlers.NewSessionHandler(svc.Sessions, log)
	generationHandler := handlers.NewGenerationHandler(svc.Generation, log)
	templateHandler := handlers.NewTemplateHandler(svc.Templates, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/auth/register", authHandler.Register)
		api.Post("/auth/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))

			protected.Post("/auth/logout", authHandler.Logout)
			protected.Get("/auth/user", authHandler.GetUser)
			protected.Delete("/auth/user", authHandler.DeleteUser)

			protected.Post("/upload-excel", companyHandler.UploadSheet)
			protected.Get("/uploads/{batchId}/{fileName}", companyHandler.Download)
			protected.Get("/companies", companyHandler.State)
			protected.Get("/companies/{id}/prompt-preview", generationHandler.Preview)

			protected.Post("/session/next", sessionHandler.Next)
			protected.Post("/session/previous", sessionHandler.Previous)
			protected.Post("/session/goto", sessionHandler.Goto)
			protected.Patch("/user-session", sessionHandler.UpdateSettings)

			protected.Post("/generate-cover-letter", generationHandler.Generate)
			protected.Get("/cover-letters", generationHandler.History)

			protected.Get("/templates", templateHandler.List)
			protected.Post("/templates/import", templateHandler.Import)
			protected.Get("/templates/{name}", templateHandler.Get)
			protected.Put("/templates/{name}", templateHandler.Put)
			protected.Delete("/templates/{name}", templateHandler.Delete)
		})
	})

	return r
}

func NewServer(cfg *config.Config, svc *Services, log *logger.Logger) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, svc, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv, log: log}
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
