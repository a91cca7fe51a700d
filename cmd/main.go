package main

import (
	"context"
	"fmt"
	"os"

	"forms-service/internal/handler"
	"forms-service/internal/middleware"
	"forms-service/internal/model"
	"forms-service/pkg/config"
	"forms-service/pkg/database"
	"forms-service/pkg/jwtutil"
	"forms-service/pkg/logger"
	"forms-service/pkg/storage"
	"forms-service/prometheus"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found or error loading: %v\n", err)
	}

	// Load configuration
	conf, err := config.Load("forms-service")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.Info("Configuration loaded", conf.LogConfig()...)

	// Initialize database connection
	_, err = database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// Run migrations for all collections
	if err := database.MigrateModels(
		&model.Tenant{},
		&model.User{},
		&model.Form{},
		&model.FormSubmission{},
		&model.Media{},
	); err != nil {
		log.Fatal("Failed to migrate database models")
	}

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      conf.JWT.SigningKey,
		ExpirationHours: conf.JWT.ExpirationHours,
	})
	handler.InitAuthHandler(jwt, conf.AdminEmail)

	// Initialize the media object store
	store, err := storage.NewMediaStore(context.Background(), &conf.S3)
	if err != nil {
		log.Fatal("Failed to initialize media store")
	}
	handler.InitMediaHandler(store, conf.Upload.MaxFileSize)

	// Initialize HTTP metrics
	httpMetrics := prometheus.NewHTTPMetrics(conf.ServiceName)

	// Initialize Echo framework
	e := echo.New()

	// Apply middleware
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	// Metrics and health endpoints
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	e.GET("/healthz", handler.HealthCheck)

	// Public routes
	e.GET("/api/site", handler.ResolveSite)
	e.GET("/api/forms/:id", handler.GetPublicForm)
	e.POST("/api/media", handler.UploadMedia)
	e.POST("/api/auth/register", handler.Register)
	e.POST("/api/auth/login", handler.Login)

	// Submissions accept anonymous posts; a presented token still counts
	e.POST("/api/form-submissions", handler.CreateSubmission, middleware.OptionalJWTAuthMiddleware(jwt))

	// Secured routes - require authentication
	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(jwt))

	api.POST("/tenants", handler.CreateTenant)
	api.GET("/tenants", handler.ListTenants)
	api.GET("/tenants/:id", handler.GetTenant)
	api.PATCH("/tenants/:id", handler.UpdateTenant)
	api.DELETE("/tenants/:id", handler.DeleteTenant)

	api.POST("/forms", handler.CreateForm)
	api.GET("/forms", handler.ListForms)
	api.PATCH("/forms/:id", handler.UpdateForm)
	api.DELETE("/forms/:id", handler.DeleteForm)

	api.GET("/form-submissions", handler.ListSubmissions)
	api.GET("/form-submissions/:id", handler.GetSubmission)
	api.DELETE("/form-submissions/:id", handler.DeleteSubmission)

	api.GET("/users/me", handler.Me)
	api.PATCH("/users/:id", handler.UpdateUser)
	api.DELETE("/users/:id", handler.DeleteUser)

	// Start server
	log.Info("Starting forms-service on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
