package main

import (
	"context"
	"log"
	"time"

	"notesapi/internal/auth"
	"notesapi/internal/config"
	"notesapi/internal/db"
	"notesapi/internal/model"
	"notesapi/internal/repository"
	"notesapi/internal/service"
)

type seedNote struct {
	title    string
	content  string
	isPublic bool
}

var demoNotes = []seedNote{
	{"Welcome", "This note is private to the demo user.", false},
	{"Getting started", "Log in as demo/demo123 and explore the API.", true},
	{"Public announcement", "Anyone can read this one without logging in.", true},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	// Run migrations to ensure schema is up to date
	if err := gormDB.AutoMigrate(&model.User{}, &model.Note{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	userRepo := repository.NewUserRepository(gormDB)
	noteRepo := repository.NewNoteRepository(gormDB)

	jwtService, err := auth.NewJWTService(
		cfg.JWTSecret,
		cfg.JWTAlgorithm,
		time.Duration(cfg.AccessTokenExpireMinutes)*time.Minute,
	)
	if err != nil {
		log.Fatalf("jwt init: %v", err)
	}

	authService := service.NewAuthService(userRepo, jwtService)
	noteService := service.NewNoteService(noteRepo, nil)

	ctx := context.Background()

	user, err := userRepo.FindByUsername(ctx, "demo")
	if err != nil {
		user, err = authService.Register(ctx, "demo@example.com", "demo", "demo123")
		if err != nil {
			log.Fatalf("Failed to create demo user: %v", err)
		}
		log.Printf("Created demo user id=%d", user.ID)
	} else {
		log.Printf("Demo user already exists id=%d", user.ID)
	}

	created := 0
	for _, n := range demoNotes {
		if _, err := noteService.CreateNote(ctx, user.ID, n.title, n.content, n.isPublic); err != nil {
			log.Printf("Skipping note %q: %v", n.title, err)
			continue
		}
		created++
	}
	log.Printf("Seed complete: %d notes created for user %q", created, user.Username)
}
