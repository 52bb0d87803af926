package main

import (
	"context"
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"digithesis/internal/config"
	"digithesis/internal/db"
	"digithesis/internal/model"
	"digithesis/internal/repository"
)

// Registration only ever creates students; this command is how the first
// administrator comes to exist.
func main() {
	log.Println("Starting seed script...")

	cfg, err := config.LoadSeedAdmin()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, false)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Thesis{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	users := repository.NewUserRepository(gormDB)
	created, err := ensureAdmin(context.Background(), users, cfg)
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}
	if created {
		log.Printf("Created admin %s <%s>", cfg.Username, cfg.Email)
	} else {
		log.Printf("Promoted existing user <%s> to admin", cfg.Email)
	}
}

// ensureAdmin creates the admin account or promotes the user that already
// holds the email. It reports whether a new account was created.
func ensureAdmin(ctx context.Context, users repository.UserRepository, cfg *config.SeedAdmin) (bool, error) {
	existing, err := users.FindByEmail(ctx, cfg.Email)
	switch {
	case err == nil:
		if existing.Role == model.RoleAdmin {
			return false, nil
		}
		return false, users.UpdateRole(ctx, existing.ID, model.RoleAdmin)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), 10)
	if err != nil {
		return false, err
	}
	return true, users.Create(ctx, &model.User{
		Username:     cfg.Username,
		Email:        cfg.Email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	})
}
