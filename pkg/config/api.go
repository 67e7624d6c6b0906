package config

import "time"

// APIConfig holds runtime configuration for the CMS API service.
type APIConfig struct {
	Environment    string
	Addr           string
	DatabaseURL    string
	MigrationsDir  string
	JWTSecret      string
	AccessTokenTTL time.Duration
	CacheRedisAddr string
	CacheRedisPass string
	CacheRedisDB   int
	CacheTTL       time.Duration
	RecentCapacity int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:    String("APP_ENV", "development"),
		Addr:           String("API_ADDR", ":4000"),
		DatabaseURL:    String("DATABASE_URL", "postgres://cms:cms@db:5432/cms?sslmode=disable"),
		MigrationsDir:  String("DB_MIGRATIONS_DIR", "./db/migrations"),
		JWTSecret:      String("JWT_SECRET", "supersecuresecret"),
		AccessTokenTTL: Minutes("ACCESS_TOKEN_TTL_MIN", 24*60),
		CacheRedisAddr: String("CACHE_REDIS_ADDR", ""),
		CacheRedisPass: String("CACHE_REDIS_PASSWORD", ""),
		CacheRedisDB:   Int("CACHE_REDIS_DB", 0),
		CacheTTL:       Seconds("CACHE_TTL_SECONDS", 30),
		RecentCapacity: Int("RECENT_CAPACITY", 10),
	}
}
