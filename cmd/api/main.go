//	@title			Catalogo API
//	@version		1.0
//	@description	Product-image catalog and moderation backend.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/portifolio/catalog/internal/auth"
	"github.com/portifolio/catalog/internal/config"
	"github.com/portifolio/catalog/internal/db"
	"github.com/portifolio/catalog/internal/directory"
	appMiddleware "github.com/portifolio/catalog/internal/middleware"
	"github.com/portifolio/catalog/internal/product"
	"github.com/portifolio/catalog/internal/storage"
	"github.com/portifolio/catalog/internal/upload"

	_ "github.com/portifolio/catalog/docs/swagger"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	blobs, err := storage.NewMinioStore(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageUseSSL,
	)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	// Wire dependencies: repositories → services/coordinator → handlers
	dirRepo := directory.NewRepository(pool)
	productRepo := product.NewRepository(pool, cfg.OrderUnknownID)
	productSvc := product.NewService(productRepo)
	productHandler := product.NewHandler(productSvc)

	coordinator := upload.NewCoordinator(blobs, dirRepo, productRepo)
	uploadHandler := upload.NewHandler(coordinator, cfg.MaxFilesPerBatch, cfg.MaxFileSizeBytes)

	authSvc := auth.NewService(cfg)
	authHandler := auth.NewHandler(authSvc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		// Public reads: the gallery lists products and streams images.
		r.Get("/products", productHandler.List)
		r.Get("/blobs/{objectIdOrName}", uploadHandler.ServeBlob)

		// Protected writes: upload, moderation, reorder, delete.
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Post("/products", productHandler.Create)
			r.Post("/products/{code}/images", uploadHandler.UploadBatch)
			r.Delete("/products/{code}/images/{imageIdentifier}", uploadHandler.DeleteImage)
			r.Post("/products/{code}/moderate", productHandler.Moderate)
			r.Put("/products/{code}/order", uploadHandler.Reorder)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s)", cfg.Port, cfg.AppEnv)
		log.Printf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
