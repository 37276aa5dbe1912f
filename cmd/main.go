package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"schoolchat/backend/internal/alert"
	"schoolchat/backend/internal/api/handler"
	"schoolchat/backend/internal/broker"
	"schoolchat/backend/internal/config"
	"schoolchat/backend/internal/models"
	"schoolchat/backend/internal/relay"
	"schoolchat/backend/internal/storage"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.SessionRecord{},
		&models.ChatHistory{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting SchoolChat Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	store := storage.NewService(db, rdb)

	// Stale rows from a previous run are history, not live state; the broker
	// starts empty and users simply re-match.
	if recs, err := store.GetActiveSessionRecords(); err == nil && len(recs) > 0 {
		log.Printf("INFO: closing %d session records left over from a previous run", len(recs))
		if err := store.CloseAllSessions(); err != nil {
			log.Printf("ERROR: failed to close leftover sessions: %v", err)
		}
	}
	if err := store.ClearWaiting(); err != nil {
		log.Printf("ERROR: failed to clear waiting mirror: %v", err)
	}

	var alerts *alert.Notifier
	if cfg.TelegramBotToken != "" {
		alerts, err = alert.New(cfg.TelegramBotToken, cfg.TelegramOpsChatID)
		if err != nil {
			log.Printf("WARNING: ops alerts disabled: %v", err)
		}
	}

	hub := relay.NewHub()
	go hub.Run()

	presence := broker.NewPresenceTracker()
	matchBroker := broker.NewMatchBroker(presence, store, hub)

	r := gin.Default()
	h := handler.NewHandler(matchBroker, store, hub, alerts, cfg.JWTSecret, cfg.AdminToken)
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:           cfg.ServerAddr,
		Handler:        r,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	log.Printf("Listening on %s", cfg.ServerAddr)
	log.Fatal(server.ListenAndServe())
}
