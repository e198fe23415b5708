// Command seedadmin creates the initial back-office admin account. Admin
// signup over HTTP requires an existing admin session, so the first admin is
// seeded out of band with this tool.
//
//	ADMIN_USERNAME=root ADMIN_PASSWORD='S3cret!pw' go run ./cmd/seedadmin
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/gadgetghar/account-service/internal/core/domain"
	"github.com/gadgetghar/account-service/internal/infrastructure/config"
	mongodb "github.com/gadgetghar/account-service/internal/infrastructure/db/mongo"
	"github.com/gadgetghar/account-service/internal/pkg/crypto"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment")
	}

	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		log.Fatal("ADMIN_USERNAME and ADMIN_PASSWORD are required")
	}
	if err := domain.ValidatePasswordComplexity(password); err != nil {
		log.Fatalf("admin password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	repo := mongodb.NewAdminRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("ensure indexes: %v", err)
	}

	hash, err := crypto.NewPasswordHasher(cfg.BcryptCost).Hash(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	created, err := repo.Create(ctx, &domain.Admin{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAdminExists) {
			log.Fatalf("admin %q already exists", username)
		}
		log.Fatalf("create admin: %v", err)
	}

	log.Printf("admin %q created with id %s", created.Username, created.ID)
}
