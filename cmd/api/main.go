package main

import (
	"context"
	"net/http"
	"os"
	"time"

	appconfig "notepad/internal/config"
	"notepad/internal/domain/sqlite"
	"notepad/internal/domain/sqlite/repository"
	handler2 "notepad/internal/http/handler"
	identitymw "notepad/internal/http/middleware"
	"notepad/internal/infrastructure/google"
	"notepad/internal/infrastructure/sendgrid"
	"notepad/internal/metrics"
	"notepad/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
)

const envVarsPrefix = "/notepad/prod/"

func main() {
	validate := validator.New()

	// Loads env vars depending on environment
	if os.Getenv("GO_ENV") == "production" {
		loadProdEnv() // AWS SSM Parameter Store
	} else {
		// Loads from .env
		err := godotenv.Load()
		if err != nil {
			panic(err)
		}
	}

	cfg := appconfig.Load()

	// Init SQLite
	db, err := sqlite.Init(cfg.DatabasePath)
	if err != nil {
		panic(err)
	}

	// Init identity verifier (external provider's JWKS)
	verifier, err := google.NewVerifier(cfg.ServiceAccount)
	if err != nil {
		panic(err)
	}

	// Init mail client
	mailer := sendgrid.NewMailer(cfg.SendGridAPIKey, cfg.SendGridFrom)

	// Metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Getting repos
	noteRepo := repository.NewNoteRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Getting services
	userService := service.NewUserService(userRepo)
	noteService := service.NewNoteService(noteRepo, mailer, validate, collector)

	// Getting handlers
	noteRoutes := handler2.NewNoteDefault(noteService)
	authRoutes := handler2.NewAuthDefault(verifier, userService)

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           3600, // cache preflight for 1 hour
	}))
	e.Use(middleware.BodyLimit("2M"))
	e.Use(identitymw.NewIdentityMiddleware(&identitymw.IdentityMiddlewareConfig{
		Verifier: verifier,
		Users:    userService,
	}))
	e.Use(requestMetrics(collector))

	// Auth
	e.POST("/api/auth/verify-token", authRoutes.VerifyToken)
	e.GET("/api/auth/user", authRoutes.GetCurrentUser)
	e.POST("/api/auth/logout", authRoutes.Logout)

	// Notes
	e.GET("/api/notes", noteRoutes.GetNotes)
	e.GET("/api/notes/search", noteRoutes.SearchNotes)
	e.GET("/api/notes/favorites", noteRoutes.GetFavorites)
	e.GET("/api/notes/stats", noteRoutes.GetStats)
	e.GET("/api/notes/:id", noteRoutes.GetNote)
	e.POST("/api/notes", noteRoutes.CreateNote)
	e.PUT("/api/notes/:id", noteRoutes.UpdateNote)
	e.DELETE("/api/notes/:id", noteRoutes.DeleteNote)
	e.POST("/api/notes/:id/send-email", noteRoutes.SendNoteByEmail)

	// Docker Compose healthcheck
	e.GET("/health", healthCheckRoute)

	// Prometheus scrape endpoint
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(registry)))

	if err := e.Start(":" + cfg.Port); err != nil {
		panic(err)
	}
}

func loadProdEnv() {
	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-2"))
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	client := ssm.NewFromConfig(cfg)
	out, err := client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
		Path:           aws.String(envVarsPrefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})
	if err != nil {
		log.Fatalf("unable to load prod environment, %v", err)
	}

	prefixLength := len(envVarsPrefix)
	// Export vars
	for _, param := range out.Parameters {
		key := (*param.Name)[prefixLength:]
		value := *param.Value
		enverr := os.Setenv(key, value)
		if enverr != nil {
			log.Fatalf("unable to set environment variable, %v", enverr)
		}
	}
	log.Debugf("loaded %d prod environment variables", len(out.Parameters))
}

func requestMetrics(collector *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			collector.RecordRequest(c.Request().Method, c.Path(), c.Response().Status, time.Since(start))
			return err
		}
	}
}

func healthCheckRoute(c echo.Context) error {
	return c.String(200, "OK")
}
