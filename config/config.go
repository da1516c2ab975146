package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Fournisseurs d'images supportés
const (
	ImageProviderCloudinary = "cloudinary"
	ImageProviderS3         = "s3"
)

// Config contient toutes les configurations de l'application
type Config struct {
	Port        string
	Host        string
	MongoURI    string
	MongoDB     string
	JWTSecret   string
	Environment string
	LogLevel    string
	CORSOrigins []string

	ImageProvider       string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	S3Bucket            string
	S3Region            string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	RedisAddr     string
	RedisPassword string
	StatsCacheTTL time.Duration
	StatsTimezone string

	SlackWebhookURL string
}

// Load charge la configuration depuis les variables d'environnement
func Load() (*Config, error) {
	// Charger le fichier .env s'il existe
	_ = godotenv.Load()

	config := &Config{
		Port:        getEnv("PORT", "8090"),
		Host:        getEnv("HOST", "0.0.0.0"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "engins_backoffice"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),

		ImageProvider:       strings.ToLower(getEnv("IMAGE_PROVIDER", ImageProviderCloudinary)),
		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		S3Bucket:            getEnv("S3_BUCKET_NAME", ""),
		S3Region:            getEnv("AWS_REGION", "eu-west-3"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASS", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@example.com"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		StatsTimezone: getEnv("STATS_TIMEZONE", "Europe/Paris"),

		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
	}

	var err error
	if config.SMTPPort, err = getEnvInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if config.StatsCacheTTL, err = getEnvDuration("STATS_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}

	// Parser les origines CORS
	origins := strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	config.CORSOrigins = make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			config.CORSOrigins = append(config.CORSOrigins, trimmed)
		}
	}

	// Valider les configurations critiques
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET est requis")
	}
	if config.ImageProvider != ImageProviderCloudinary && config.ImageProvider != ImageProviderS3 {
		return nil, fmt.Errorf("IMAGE_PROVIDER invalide: %s", config.ImageProvider)
	}
	if _, err := time.LoadLocation(config.StatsTimezone); err != nil {
		return nil, fmt.Errorf("STATS_TIMEZONE invalide: %w", err)
	}

	return config, nil
}

// Location retourne le fuseau horaire utilisé pour découper les séries temporelles
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StatsTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SMTPEnabled indique si l'envoi d'emails est configuré
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPassword != ""
}

// getEnv récupère une variable d'environnement avec une valeur par défaut
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s invalide: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s invalide: %w", key, err)
	}
	return d, nil
}
