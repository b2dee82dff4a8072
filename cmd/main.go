package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fodmate-backend/internal/catalog"
	"fodmate-backend/internal/config"
	"fodmate-backend/internal/handler"
	"fodmate-backend/internal/provider"
	"fodmate-backend/internal/service"
	"fodmate-backend/internal/storage"
	"fodmate-backend/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	foodStore := catalog.NewStore(cfg.Catalog.DataFile)
	foodStore.Load()

	sessionStore := newSessionStorage(cfg)
	modelProvider := provider.New(&cfg.LLM)
	logger.Infof("Using %s model provider", modelProvider.Name())

	chatService := service.NewChatService(cfg, foodStore, sessionStore, modelProvider)

	chatHandler := handler.NewChatHandler(chatService)
	searchHandler := handler.NewSearchHandler(foodStore)
	historyHandler := handler.NewHistoryHandler(chatService)

	router := setupRouter(cfg, chatHandler, searchHandler, historyHandler)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Server listening on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down...")
	if err := server.Close(); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	sessionStore.Close()
	logger.Info("Server stopped")
}

// newSessionStorage selects the history backend; a disk store that fails to
// initialize falls back to memory so chat keeps working.
func newSessionStorage(cfg *config.Config) storage.Storage {
	var store storage.Storage
	if cfg.Storage.Type == "disk" {
		store = storage.NewDiskStorage(cfg.Storage.DataDir, cfg.Storage.CacheSize)
	} else {
		store = storage.NewMemoryStorage()
	}

	if err := store.Init(); err != nil {
		logger.Errorf("Failed to initialize storage: %v", err)
		store = storage.NewMemoryStorage()
		store.Init()
	}

	return store
}

func setupRouter(cfg *config.Config, chatHandler *handler.ChatHandler, searchHandler *handler.SearchHandler, historyHandler *handler.HistoryHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(handler.RateLimit(&cfg.RateLimit))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	router.POST("/chat", chatHandler.Chat)
	router.GET("/search", searchHandler.Search)
	router.GET("/history", historyHandler.ListSessions)
	router.GET("/history/:session_id", historyHandler.GetMessages)
	router.DELETE("/history/:session_id", historyHandler.DeleteSession)

	return router
}
