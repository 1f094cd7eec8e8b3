package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/wanderlink/backend/internal/config"
	"github.com/wanderlink/backend/internal/handlers"
	appMiddleware "github.com/wanderlink/backend/internal/middleware"
	"github.com/wanderlink/backend/internal/services"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var (
		profiles services.ProfileStore
		matches  services.MatchGraph
		notifier services.Notifier
	)
	if cfg.MongoURI != "" {
		profileSvc, err := services.NewMongoProfileService(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Fatal("mongo profiles init failed", zap.Error(err))
		}
		defer profileSvc.Close(ctx)

		matchSvc, err := services.NewMongoMatchService(ctx, cfg.MongoURI, cfg.MongoDB, profileSvc)
		if err != nil {
			logger.Fatal("mongo matches init failed", zap.Error(err))
		}
		defer matchSvc.Close(ctx)

		notifySvc, err := services.NewMongoNotificationService(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Fatal("mongo notifications init failed", zap.Error(err))
		}
		defer notifySvc.Close(ctx)

		profiles, matches, notifier = profileSvc, matchSvc, notifySvc
		logger.Info("using MongoDB stores", zap.String("db", cfg.MongoDB))
	} else {
		profileSvc, err := services.NewProfileService(cfg.DataDir)
		if err != nil {
			logger.Fatal("profile store init failed", zap.Error(err))
		}
		matchSvc, err := services.NewMatchService(profileSvc, cfg.DataDir)
		if err != nil {
			logger.Fatal("match store init failed", zap.Error(err))
		}
		profiles, matches, notifier = profileSvc, matchSvc, services.NewNotificationService()
		logger.Info("using in-memory stores", zap.String("data_dir", cfg.DataDir))
	}

	requestSvc := services.NewMatchRequestService(matches, notifier, logger)
	suggestionSvc := services.NewSuggestionService(profiles, matches, cfg.SuggestionPoolSize)

	profileHandler := handlers.NewProfileHandler(profiles, logger)
	matchHandler := handlers.NewMatchHandler(requestSvc, suggestionSvc, logger)

	// Identity gate. Firebase verifies tokens against the identity
	// service; jwt mode verifies locally for development.
	var authMW func(http.Handler) http.Handler
	if cfg.AuthMode == "jwt" {
		authMW = appMiddleware.JWTAuth(cfg.JWTSecret)
		logger.Warn("using local JWT auth; not for production")
	} else {
		authClient, err := appMiddleware.NewFirebaseAuthClient(ctx, appMiddleware.FirebaseAuthConfig{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsJSON: cfg.FirebaseCredentialsJSON,
		})
		if err != nil {
			// Keep serving; the gate reports 503 until identity works.
			logger.Error("firebase auth init failed", zap.Error(err))
		}
		authMW = appMiddleware.FirebaseAuth(authClient)
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMW)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", profileHandler.GetMyProfile)
				r.Put("/", profileHandler.UpsertProfile)
			})
			r.Get("/profiles/{userId}", profileHandler.GetPublicProfileByUserID)

			r.Route("/matches", func(r chi.Router) {
				r.Get("/", matchHandler.ListMatches)
				r.Get("/suggestions", matchHandler.Suggestions)

				r.Route("/requests", func(r chi.Router) {
					r.Get("/", matchHandler.ListIncomingRequests)
					r.Post("/", matchHandler.SendRequest)
					r.Post("/{edgeId}/accept", matchHandler.Accept)
					r.Post("/{edgeId}/reject", matchHandler.Reject)
				})
			})
		})
	})

	logger.Info("wanderlink match API starting", zap.String("addr", cfg.ServerAddress))
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
