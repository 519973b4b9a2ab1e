package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"file-manager/internal/audit"
	"file-manager/internal/auth"
	"file-manager/internal/config"
	"file-manager/internal/db"
	"file-manager/internal/middleware"
	"file-manager/internal/node"
	"file-manager/internal/revision"
	"file-manager/internal/storage"
	"file-manager/internal/user"
	"file-manager/internal/worker"
	"file-manager/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()
	auth.SetSecret(config.AppConfig.JWTSecret)

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Initialize Redis
	redis.InitRedis()
	cache := redis.NewCache()

	// Blob storage under the static content root
	gateway, err := storage.NewGateway(config.AppConfig.StaticRoot)
	if err != nil {
		log.Fatalf("failed to initialize blob storage: %v", err)
	}

	// Audit writes drain through a small worker pool so they never block
	// the operation that triggered them.
	auditPool := worker.NewWorkerPool(2, 1000)
	auditRepo := audit.NewRepository(db.AppDb)
	recorder := audit.NewRecorder(auditRepo, auditPool)

	// Seed database with initial data (for development)
	db.SeedData(recorder)

	// Initialize repositories
	userRepo := user.NewRepository(db.AppDb)
	nodeRepo := node.NewRepository(db.AppDb)
	revisionRepo := revision.NewRepository(db.AppDb)

	// Initialize services
	userService := user.NewService(userRepo)
	nodeService := node.NewService(nodeRepo, gateway, recorder, cache)
	revisionService := revision.NewService(revisionRepo, nodeRepo, recorder)

	// Initialize handlers
	userHandler := user.NewHandler(userService, recorder)
	nodeHandler := node.NewHandler(nodeService)
	revisionHandler := revision.NewHandler(revisionService)
	auditHandler := audit.NewHandler(auditRepo)

	authMiddleware := &middleware.Auth{UserService: userService}

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}

	if config.AppConfig.Environment == "development" {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// Public static content (seeded media)
	router.Static("/static", config.AppConfig.StaticRoot)

	api := router.Group("/api")

	// Auth routes
	api.POST("/auth/login", userHandler.Login)
	api.GET("/auth/me", userHandler.Me)
	api.POST("/auth/logout", userHandler.Logout)

	// File routes
	files := api.Group("/files", authMiddleware.AuthMiddleWare())
	files.GET("", nodeHandler.List)
	files.POST("/folder", nodeHandler.CreateFolder)
	files.POST("/upload", nodeHandler.Upload)
	files.GET("/:id", nodeHandler.Get)
	files.PUT("/:id/move", nodeHandler.Move)
	files.DELETE("/:id", nodeHandler.Delete)
	files.GET("/:id/text", revisionHandler.GetText)
	files.POST("/:id/text", revisionHandler.SaveText)
	files.GET("/:id/content", nodeHandler.GetContent)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.AuthMiddleWare(), middleware.RequireRole(user.RoleAdmin))
	admin.GET("/logs", auditHandler.ListLogs)
	admin.GET("/revisions", revisionHandler.ListRecent)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", serverPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	// Drain pending audit writes before closing the database.
	auditPool.Shutdown()

	log.Println("Server shutdown complete")
}
