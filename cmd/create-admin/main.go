package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"engins-backoffice/config"
	"engins-backoffice/database"
	"engins-backoffice/models"
	"engins-backoffice/utils"
)

func main() {
	email := flag.String("email", "", "email de l'administrateur")
	nom := flag.String("nom", "", "nom affiché")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "mot de passe (ou ADMIN_PASSWORD)")
	role := flag.String("role", models.RoleAdmin, "admin ou superadmin")
	flag.Parse()

	if err := utils.ValidateEmail(strings.ToLower(strings.TrimSpace(*email))); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := utils.ValidateOneOf("role", *role, []string{models.RoleAdmin, models.RoleSuperAdmin}); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if len(*password) < 8 {
		log.Fatal("❌ Le mot de passe doit contenir au moins 8 caractères")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Erreur lors du chargement de la configuration: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ Erreur lors de l'initialisation du logger: %v", err)
	}
	defer logger.Sync()

	if err := database.Connect(cfg.MongoURI, cfg.MongoDB, logger); err != nil {
		logger.Fatalw("❌ Erreur de connexion à MongoDB", "error", err)
	}
	defer database.Close()

	hash, err := utils.HashPassword(*password)
	if err != nil {
		logger.Fatalw("❌ Erreur lors du hachage du mot de passe", "error", err)
	}

	admin := &models.Admin{
		Email:    strings.ToLower(strings.TrimSpace(*email)),
		Nom:      strings.TrimSpace(*nom),
		Password: hash,
		Role:     *role,
		Actif:    true,
	}
	if err := database.NewAdminRepository(database.DB).Create(context.Background(), admin); err != nil {
		logger.Fatalw("❌ Création impossible", "email", admin.Email, "error", err)
	}
	logger.Infow("✓ Administrateur créé", "id", admin.ID.Hex(), "email", admin.Email, "role", admin.Role)
}
