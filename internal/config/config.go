package config

import (
	"os"
	"strings"
)

type Config struct {
	Port           string
	DatabasePath   string
	AllowedOrigins []string
	ServiceAccount string // base64-encoded identity-provider credential
	SendGridAPIKey string
	SendGridFrom   string
}

func Load() Config {
	return Config{
		Port:           getenv("PORT", "8080"),
		DatabasePath:   getenv("DATABASE_PATH", "database.db"),
		AllowedOrigins: splitOrigins(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		ServiceAccount: os.Getenv("GOOGLE_SERVICE_ACCOUNT"),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		SendGridFrom:   os.Getenv("SENDGRID_FROM_EMAIL"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
