package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uzhavango/rental_core/internal/config"
	"github.com/uzhavango/rental_core/internal/controller/httpapi"
	"github.com/uzhavango/rental_core/internal/repository"
)

// Выпуск bearer токена для пользователя из базы: роль берётся из users.
//
//	go run ./cmd/token -user 7 -ttl 720h
func main() {
	userID := flag.Int64("user", 0, "id пользователя")
	ttl := flag.Duration("ttl", 24*time.Hour, "срок действия токена")
	flag.Parse()

	if *userID <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	user, err := repository.NewUserRepository(pool).GetByID(ctx, *userID)
	if err != nil {
		log.Fatalf("Failed to load user: %v", err)
	}
	if user == nil {
		log.Fatalf("User %d not found", *userID)
	}

	token, err := httpapi.NewAuthenticator(cfg.JWTSecret).IssueToken(httpapi.Actor{ID: user.ID, Role: user.Role}, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
}
