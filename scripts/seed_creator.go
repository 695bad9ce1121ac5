package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/khoahotran/mediahub/pkg/auth"
)

func main() {
	fmt.Println("adding creator into database...")

	err := godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, use system environment variables.")
	}

	dsn := os.Getenv("DB_DSN")
	email := strings.ToLower(strings.TrimSpace(os.Getenv("CREATOR_EMAIL")))
	name := os.Getenv("CREATOR_NAME")
	password := os.Getenv("CREATOR_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("CREATOR_EMAIL and CREATOR_PASSWORD are required")
	}
	if name == "" {
		name = strings.Split(email, "@")[0]
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("cannot hash password: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	query := `
		INSERT INTO users (id, email, name, role, password_hash)
		VALUES ($1, $2, $3, 'creator', $4)
		ON CONFLICT (email) DO UPDATE SET password_hash = $4, role = 'creator'
	`
	_, err = pool.Exec(context.Background(), query, uuid.New(), email, name, hash)
	if err != nil {
		log.Fatalf("cannot add user: %v", err)
	}

	fmt.Printf("added or updated creator '%s' successfully!\n", email)
}
