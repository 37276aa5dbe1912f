package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"schoolchat/backend/internal/config"
	"schoolchat/backend/internal/storage"
)

func usage() {
	fmt.Println("Usage: admin <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  ban <user_id> [duration_hours]   set a ban flag (default 24h)")
	fmt.Println("  unban <user_id>                  clear a ban flag")
	fmt.Println("  close-sessions                   mark every active session record closed")
	fmt.Println("  waiting                          list the mirrored waiting queue")
	os.Exit(1)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}

	store := storage.NewService(db, rdb)

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "ban":
		if len(os.Args) < 3 {
			usage()
		}
		duration := config.DefaultBanDuration
		if len(os.Args) > 3 {
			hours, err := strconv.Atoi(os.Args[3])
			if err != nil {
				fmt.Println("Invalid duration. Please provide an integer number of hours.")
				os.Exit(1)
			}
			duration = time.Duration(hours) * time.Hour
		}
		if err := store.BanUser(os.Args[2], duration); err != nil {
			log.Fatalf("Error banning user: %v", err)
		}
		fmt.Printf("User %s has been banned for %s.\n", os.Args[2], duration)

	case "unban":
		if len(os.Args) != 3 {
			usage()
		}
		if err := store.UnbanUser(os.Args[2]); err != nil {
			log.Fatalf("Error unbanning user: %v", err)
		}
		fmt.Printf("User %s has been unbanned.\n", os.Args[2])

	case "close-sessions":
		if err := store.CloseAllSessions(); err != nil {
			log.Fatalf("Error closing sessions: %v", err)
		}
		fmt.Println("All active session records closed.")

	case "waiting":
		ids, err := store.GetWaiting()
		if err != nil {
			log.Fatalf("Error listing waiting queue: %v", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		fmt.Printf("%d waiting\n", len(ids))

	default:
		usage()
	}
}
