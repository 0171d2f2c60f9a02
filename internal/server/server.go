package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planner/docs"
	"planner/internal/config"
	"planner/internal/handler"
	"planner/internal/middleware"
	"planner/internal/migrations"
	"planner/internal/repository"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
}

// Handlers groups what the router serves. Limiter is optional.
type Handlers struct {
	Users   *handler.UserHandler
	Ideas   *handler.IdeaHandler
	Limiter *middleware.RateLimiter
}

func Init(cfg *config.Config) (*Server, error) {
	columns, err := config.LoadColumns(cfg.ColumnsFile)
	if err != nil {
		return nil, fmt.Errorf("❌ failed to load columns: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := migrations.Up(cfg.DatabaseURL()); err != nil {
			return nil, fmt.Errorf("❌ failed to migrate DB: %w", err)
		}
		log.Println("✅ Migrations applied")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")

	userRepo := repository.NewUserRepository(db)
	ideaRepo := repository.NewIdeaRepository(db)

	r := NewRouter(cfg.JWTSecret, Handlers{
		Users:   handler.NewUserHandler(userRepo, cfg.JWTSecret, cfg.JWTExpiry),
		Ideas:   handler.NewIdeaHandler(ideaRepo, columns),
		Limiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})
	docs.SwaggerInfo.Host = "localhost:" + cfg.ServerPort

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
	}, nil
}

// NewRouter wires routes. Everything under /planner requires a bearer token.
func NewRouter(jwtSecret string, h Handlers) *gin.Engine {
	r := gin.Default()

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	r.POST("/register", h.Users.Register)
	r.POST("/login", h.Users.Login)

	authorized := r.Group("/planner")
	authorized.Use(middleware.JWTAuthMiddleware(jwtSecret))
	if h.Limiter != nil {
		authorized.Use(h.Limiter.Middleware())
	}
	{
		authorized.GET("/ideas", h.Ideas.GetBoard)
		authorized.POST("/ideas", h.Ideas.Create)
		authorized.POST("/ideas/move", h.Ideas.Move)
		authorized.PUT("/ideas/:id", h.Ideas.Update)
		authorized.DELETE("/ideas/:id", h.Ideas.Delete)
	}
	return r
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("✅ Server exited properly")
}
