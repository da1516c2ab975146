package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"engins-backoffice/config"
	"engins-backoffice/database"
	"engins-backoffice/handlers"
	"engins-backoffice/middleware"
	"engins-backoffice/services"
	"engins-backoffice/utils"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	// Charger la configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Erreur lors du chargement de la configuration: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ Erreur lors de l'initialisation du logger: %v", err)
	}
	defer logger.Sync()

	// Connexion à MongoDB
	if err := database.Connect(cfg.MongoURI, cfg.MongoDB, logger); err != nil {
		logger.Fatalw("❌ Erreur de connexion à MongoDB", "error", err)
	}
	defer database.Close()

	// Créer les repositories
	adminRepo := database.NewAdminRepository(database.DB)
	categoryRepo := database.NewCategoryRepository(database.DB)
	annonceRepo := database.NewAnnonceRepository(database.DB)
	vendeurRepo := database.NewVendeurRepository(database.DB)
	devisRepo := database.NewDevisRepository(database.DB)
	rechercheRepo := database.NewRechercheRepository(database.DB)
	statsRepo := database.NewStatsRepository(database.DB)

	// Services externes
	images, err := newImageHost(cfg, logger)
	if err != nil {
		logger.Fatalw("❌ Erreur d'initialisation de l'hébergeur d'images", "provider", cfg.ImageProvider, "error", err)
	}
	var mailer services.Mailer
	if cfg.SMTPEnabled() {
		mailer = services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, logger)
		logger.Infow("✓ SMTP configuré", "host", cfg.SMTPHost)
	} else {
		mailer = services.NewDisabledMailer(logger)
	}
	slack := services.NewSlackService(cfg.SlackWebhookURL, logger)

	// Cache Redis optionnel pour les statistiques
	var (
		statsCache  services.StatsCache
		invalidator handlers.CacheInvalidator
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()
		redisCache := services.NewRedisStatsCache(client, cfg.StatsCacheTTL, logger)
		statsCache, invalidator = redisCache, redisCache
		logger.Infow("✓ Cache Redis des statistiques activé", "addr", cfg.RedisAddr, "ttl", cfg.StatsCacheTTL)
	} else {
		logger.Warn("⚠️  REDIS_ADDR non défini - statistiques calculées sans cache")
	}

	// Services métier
	categoryService := services.NewCategoryService(categoryRepo, annonceRepo, images, logger)
	annonceService := services.NewAnnonceService(annonceRepo, categoryRepo, vendeurRepo, rechercheRepo, images, logger)
	vendeurService := services.NewVendeurService(vendeurRepo, annonceRepo, images, logger)
	devisService := services.NewDevisService(devisRepo, annonceRepo, images, mailer, logger)
	statsService := services.NewStatsService(statsRepo, statsCache, cfg.Location(), logger)

	// Créer les handlers
	healthHandler := handlers.NewHealthHandler(cfg.Environment)
	authHandler := handlers.NewAuthHandler(adminRepo, cfg.JWTSecret, logger)
	categoryHandler := handlers.NewCategoryHandler(categoryService, images, logger)
	annonceHandler := handlers.NewAnnonceHandler(annonceService, logger)
	vendeurHandler := handlers.NewVendeurHandler(vendeurService, logger)
	devisHandler := handlers.NewDevisHandler(devisService, logger)
	statsHandler := handlers.NewStatsHandler(statsService, invalidator, logger)

	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)

	// Créer le routeur
	router := mux.NewRouter()
	router.Use(metrics.Middleware)
	router.Use(middleware.Logging(logger, slack))

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// Routes publiques
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/admin/connexion", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/annonces/recherche", annonceHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/annonces/{id}", annonceHandler.GetPublic).Methods(http.MethodGet)
	api.HandleFunc("/categories/arbre", categoryHandler.Tree).Methods(http.MethodGet)
	api.HandleFunc("/devis", devisHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/devis/{id}/reponse-client", devisHandler.ClientResponse).Methods(http.MethodPost)

	// Routes du back office (authentification + compte admin actif)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.Auth(cfg.JWTSecret))
	admin.Use(middleware.RequireAdmin(adminRepo, logger))

	admin.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet)
	admin.HandleFunc("/dashboard", statsHandler.Dashboard).Methods(http.MethodGet)
	admin.HandleFunc("/stats/overview", statsHandler.Overview).Methods(http.MethodGet)
	admin.HandleFunc("/stats/top", statsHandler.Top).Methods(http.MethodGet)
	admin.HandleFunc("/stats/series", statsHandler.Series).Methods(http.MethodGet)
	admin.HandleFunc("/stats/cache/invalidate", statsHandler.InvalidateCache).Methods(http.MethodPost)

	admin.HandleFunc("/categories", categoryHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/categories", categoryHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/categories/arbre", categoryHandler.Tree).Methods(http.MethodGet)
	admin.HandleFunc("/categories/{id}", categoryHandler.Get).Methods(http.MethodGet)
	admin.HandleFunc("/categories/{id}", categoryHandler.Update).Methods(http.MethodPut)
	admin.HandleFunc("/categories/{id}", categoryHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/categories/{id}/icone", categoryHandler.UploadIcon).Methods(http.MethodPost)

	admin.HandleFunc("/annonces", annonceHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/annonces", annonceHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/annonces/{id}", annonceHandler.Get).Methods(http.MethodGet)
	admin.HandleFunc("/annonces/{id}", annonceHandler.Update).Methods(http.MethodPut)
	admin.HandleFunc("/annonces/{id}", annonceHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/annonces/{id}/statut", annonceHandler.UpdateStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/annonces/{id}/images", annonceHandler.UploadImages).Methods(http.MethodPost)
	admin.HandleFunc("/annonces/{id}/images/{imageId:.+}", annonceHandler.DeleteImage).Methods(http.MethodDelete)

	admin.HandleFunc("/vendeurs", vendeurHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/vendeurs", vendeurHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/vendeurs/{id}", vendeurHandler.Get).Methods(http.MethodGet)
	admin.HandleFunc("/vendeurs/{id}", vendeurHandler.Update).Methods(http.MethodPut)
	admin.HandleFunc("/vendeurs/{id}", vendeurHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/vendeurs/{id}/actif", vendeurHandler.SetActif).Methods(http.MethodPatch)
	admin.HandleFunc("/vendeurs/{id}/logo", vendeurHandler.UploadLogo).Methods(http.MethodPost)
	admin.HandleFunc("/vendeurs/{id}/couverture", vendeurHandler.UploadCouverture).Methods(http.MethodPost)

	admin.HandleFunc("/devis", devisHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/devis/{id}", devisHandler.Get).Methods(http.MethodGet)
	admin.HandleFunc("/devis/{id}", devisHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/devis/{id}/statut", devisHandler.UpdateStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/devis/{id}/reponse", devisHandler.Respond).Methods(http.MethodPost)
	admin.HandleFunc("/devis/{id}/suivi", devisHandler.UpdateSuivi).Methods(http.MethodPut)

	// CORS appliqué avant le routeur pour répondre aux requêtes préflight
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           3600,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infow("🚀 Serveur démarré", "addr", addr, "env", cfg.Environment, "images", cfg.ImageProvider)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("❌ Erreur du serveur", "error", err)
		}
	}()

	// Attendre le signal d'arrêt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Arrêt du serveur...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorw("❌ Erreur lors de l'arrêt du serveur", "error", err)
	}
	logger.Info("✓ Serveur arrêté proprement")
}

// newImageHost choisit l'hébergeur d'images selon IMAGE_PROVIDER
func newImageHost(cfg *config.Config, logger *zap.SugaredLogger) (services.ImageHost, error) {
	switch cfg.ImageProvider {
	case config.ImageProviderS3:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s3Service, err := services.NewS3Service(ctx, cfg.S3Region, cfg.S3Bucket, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey)
		if err != nil {
			return nil, err
		}
		logger.Infow("✓ Images hébergées sur S3", "bucket", cfg.S3Bucket)
		return s3Service, nil
	default:
		if cfg.CloudinaryCloudName == "" {
			logger.Warn("⚠️  CLOUDINARY_CLOUD_NAME non défini - les uploads échoueront")
		}
		return services.NewCloudinaryService(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, logger), nil
	}
}
