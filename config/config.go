package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	FrontendURL string
	CORSOrigins []string
	// Profile data source: "seed" (built-in sample list) or "postgres"
	ProfileSource  string
	DBUrl          string
	SeedLatency    time.Duration
	CommitLatency  time.Duration
	SessionIdleTTL time.Duration
	// Supabase identity provider. When SupabaseUrl is empty the local provider is used.
	SupabaseUrl       string
	SupabaseKey       string
	SupabaseJWTSecret string
	// Local identity provider
	AuthJWTSecret  string
	AuthSessionTTL time.Duration
	LocalAuthUsers string // email:bcrypt-hash pairs separated by commas
	// Admin admission policy: "authenticated" or "allowlist"
	AdminPolicy string
	AdminEmails []string
	// Redis (map token store + rate limiter)
	RedisURL      string
	RedisPassword string
	MapTokenTTL   time.Duration
	// Double-submit CSRF check for cookie sessions
	CSRFEnabled bool
	// Sign-in lockout (requires Redis)
	LoginMaxAttempts int
	LoginBlockWindow time.Duration
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitAuthThreshold   int
	RateLimitGlobalThreshold int
}

func LoadConfig() (*Config, error) {
	// Only effective locally; production injects the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		CORSOrigins: getEnvList("CORS_ORIGINS"),

		ProfileSource:  strings.ToLower(getEnv("PROFILE_SOURCE", "seed")),
		DBUrl:          getEnv("DATABASE_URL", ""),
		SeedLatency:    getEnvMillis("SEED_LATENCY_MS", 1000),
		CommitLatency:  getEnvMillis("COMMIT_LATENCY_MS", 1000),
		SessionIdleTTL: time.Duration(getEnvInt("SESSION_IDLE_MINUTES", 60)) * time.Minute,

		// Strip trailing slash to prevent double slashes (e.g. .co//auth)
		SupabaseUrl:       strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey:       getEnv("SUPABASE_KEY", getEnv("SUPABASE_ANON_KEY", "")),
		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),

		AuthJWTSecret:  getEnv("AUTH_JWT_SECRET", ""),
		AuthSessionTTL: time.Duration(getEnvInt("AUTH_SESSION_HOURS", 24)) * time.Hour,
		LocalAuthUsers: getEnv("LOCAL_AUTH_USERS", ""),

		AdminEmails: getEnvList("ADMIN_EMAILS"),

		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		MapTokenTTL:   time.Duration(getEnvInt("MAP_TOKEN_TTL_HOURS", 0)) * time.Hour,

		LoginMaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginBlockWindow: time.Duration(getEnvInt("LOGIN_BLOCK_MINUTES", 15)) * time.Minute,

		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitAuthThreshold:   getEnvInt("RATE_LIMIT_AUTH_THRESHOLD", 10),
		RateLimitGlobalThreshold: getEnvInt("RATE_LIMIT_GLOBAL_THRESHOLD", 300),
	}

	defaultPolicy := "authenticated"
	if len(cfg.AdminEmails) > 0 {
		defaultPolicy = "allowlist"
	}
	cfg.AdminPolicy = strings.ToLower(getEnv("ADMIN_POLICY", defaultPolicy))
	cfg.CSRFEnabled = getEnvBool("CSRF_ENABLED", cfg.IsProduction())

	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{cfg.FrontendURL}
	}

	if cfg.ProfileSource == "postgres" && cfg.DBUrl == "" {
		log.Println("WARNING: PROFILE_SOURCE=postgres but DATABASE_URL is missing. Falling back to seed profiles.")
		cfg.ProfileSource = "seed"
	}

	if cfg.SupabaseUrl == "" && cfg.AuthJWTSecret == "" {
		log.Println("WARNING: AUTH_JWT_SECRET is missing. Local sessions will use an ephemeral signing key.")
	}

	if cfg.RedisURL == "" {
		log.Println("WARNING: REDIS_URL not configured. Map tokens and rate limits will use in-memory fallback.")
	}

	return cfg, nil
}

// UsesSupabase reports whether the hosted identity provider is configured.
func (c *Config) UsesSupabase() bool {
	return c.SupabaseUrl != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvMillis(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Millisecond
}

// getEnvList splits a comma separated variable, dropping blanks
func getEnvList(key string) []string {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
