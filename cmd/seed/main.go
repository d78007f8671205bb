package main

import (
	"context"
	"log"
	"os"
	"time"

	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/registry"
	"prf-forms-be/internal/repository/specification"
	"prf-forms-be/internal/repository/unitofwork"
	"prf-forms-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a supervisor account and a small triage template for local
// development. Safe to run repeatedly.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	factory := unitofwork.NewRepositoryFactory(db)
	uow := factory.NewUnitOfWork(ctx)

	email := "supervisor@example.org"
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		log.Fatal("Error: user lookup failed:", err)
	}
	if existing == nil {
		hash, _ := bcrypt.GenerateFromPassword([]byte("changeme-now"), bcrypt.DefaultCost)
		hashStr := string(hash)
		user := &entity.User{
			Id:           uuid.New(),
			Email:        email,
			PasswordHash: &hashStr,
			FullName:     "Duty Supervisor",
			Role:         entity.UserRoleSupervisor,
			Status:       entity.UserStatusActive,
			CreatedAt:    time.Now(),
		}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			log.Fatal("Error: failed to seed user:", err)
		}
		log.Printf("Seeded user %s", email)
	} else {
		log.Printf("User %s already present, skipping", email)
	}

	templateId := "triage-quick"
	latest, err := uow.TemplateRepository().FindLatest(ctx, templateId)
	if err != nil {
		log.Fatal("Error: template lookup failed:", err)
	}
	if latest == nil {
		template := &entity.Template{
			Id:      templateId,
			Version: 1,
			Name:    "Quick Triage",
			Sections: []registry.Descriptor{
				{
					Key:   "triage-category",
					Label: "Triage Category",
					Order: 1,
					Schema: registry.Schema{Fields: []registry.FieldRule{
						{Name: "category", Label: "Category", Kind: registry.KindString, Required: true, Rules: "oneof=red yellow green black"},
					}},
				},
				{
					Key:   "chief-complaint",
					Label: "Chief Complaint",
					Order: 2,
					Schema: registry.Schema{Fields: []registry.FieldRule{
						{Name: "complaint", Label: "Complaint", Kind: registry.KindText, Required: true},
					}},
				},
			},
			CreatedAt: time.Now(),
		}
		if err := uow.TemplateRepository().Create(ctx, template); err != nil {
			log.Fatal("Error: failed to seed template:", err)
		}
		log.Printf("Seeded template %s v1", templateId)
	} else {
		log.Printf("Template %s already present (v%d), skipping", templateId, latest.Version)
	}

	log.Println("Seed finished.")
}
