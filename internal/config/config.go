package config

import (
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the lead automation service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port of the HTTP API (also serves /healthz and /metrics).
// - AdminSecret: The shared secret expected in the X-Admin-Secret header.
// - APIKeyPrefix: The prefix of every generated API key.
// - Database: Configuration settings for the PostgreSQL database.
// - RedisAddr: Redis address for the request rate limiter, empty keeps limits in process.
// - Kafka: Lead event publishing, disabled when the broker is empty.
// - Scraper: Browser and feed traversal timings.
// - Geocoder: Background geocoding of stored leads, disabled when the provider is empty.
type Config struct {
	Env          string         // Env is the current environment: local, development, production.
	Port         int            // Port is the HTTP API port.
	AdminSecret  string         // AdminSecret guards the admin endpoints.
	APIKeyPrefix string         // APIKeyPrefix is prepended to every generated key.
	Database     PostgresConfig // Database holds the postgres database configuration.
	RedisAddr    string         // RedisAddr is the Redis server used for rate limiting.
	Kafka        KafkaConfig    // Kafka holds the lead events configuration.
	Scraper      ScraperConfig  // Scraper holds the browser and traversal configuration.
	Geocoder     GeocoderConfig // Geocoder holds the lead geocoding configuration.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host            string        // Host is the database server address.
	Port            string        // Port is the database server port.
	User            string        // User is the database user.
	Password        string        // Password is the database user's password.
	Name            string        // Name is the name of the database.
	ConnectAttempts int           // ConnectAttempts bounds the startup connection retries.
	ConnectDelay    time.Duration // ConnectDelay is the fixed pause between startup attempts.
}

// KafkaConfig holds the broker and topic for lead events.
type KafkaConfig struct {
	Broker string
	Topic  string
}

// ScraperConfig holds the tunable waits of the feed traversal.
type ScraperConfig struct {
	Headless      bool
	ScrollSettle  time.Duration
	HydrateWait   time.Duration
	MaxStalls     int
	ClickAttempts int
}

// GeocoderConfig holds the lead geocoding settings.
type GeocoderConfig struct {
	Provider string
	APIKey   string
	Workers  int
	Interval time.Duration
}

// MustLoad loads the configuration from the environment (and an optional .env file)
// and returns a Config struct. It panics when a value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	env := viper.New()
	env.AutomaticEnv()
	setDefaults(env)

	port, err := strconv.Atoi(env.GetString("ANVESH_PORT"))
	if err != nil {
		panic("failed to parse port for API server from configuration")
	}

	attempts, err := strconv.Atoi(env.GetString("DB_CONNECT_ATTEMPTS"))
	if err != nil {
		panic("failed to parse database connect attempts, must be an integer")
	}

	connectDelay, err := time.ParseDuration(env.GetString("DB_CONNECT_DELAY"))
	if err != nil {
		panic("failed to parse database connect delay from configuration")
	}

	headless, err := strconv.ParseBool(env.GetString("BROWSER_HEADLESS"))
	if err != nil {
		panic("failed to parse browser headless flag, must be a boolean")
	}

	settle, err := time.ParseDuration(env.GetString("SCRAPER_SCROLL_SETTLE"))
	if err != nil {
		panic("failed to parse scroll settle wait from configuration")
	}

	hydrate, err := time.ParseDuration(env.GetString("SCRAPER_HYDRATE_WAIT"))
	if err != nil {
		panic("failed to parse hydrate wait from configuration")
	}

	stalls, err := strconv.Atoi(env.GetString("SCRAPER_MAX_STALLS"))
	if err != nil {
		panic("failed to parse max stalls, must be an integer")
	}

	clicks, err := strconv.Atoi(env.GetString("SCRAPER_CLICK_ATTEMPTS"))
	if err != nil {
		panic("failed to parse click attempts, must be an integer")
	}

	workers, err := strconv.Atoi(env.GetString("GEOCODER_WORKERS"))
	if err != nil {
		panic("failed to parse geocoder workers from configuration, must be an integer")
	}

	interval, err := time.ParseDuration(env.GetString("GEOCODER_INTERVAL"))
	if err != nil {
		panic("failed to parse geocoder interval from configuration")
	}

	return &Config{
		Env:          env.GetString("ANVESH_ENV"),
		Port:         port,
		AdminSecret:  env.GetString("ADMIN_SECRET"),
		APIKeyPrefix: env.GetString("API_KEY_PREFIX"),
		Database: PostgresConfig{
			Host:            env.GetString("DB_HOST"),
			Port:            env.GetString("DB_PORT"),
			User:            env.GetString("DB_USERNAME"),
			Password:        env.GetString("DB_PASSWORD"),
			Name:            env.GetString("DB_NAME"),
			ConnectAttempts: attempts,
			ConnectDelay:    connectDelay,
		},
		RedisAddr: env.GetString("REDIS_ADDR"),
		Kafka: KafkaConfig{
			Broker: env.GetString("KAFKA_BROKER"),
			Topic:  env.GetString("KAFKA_TOPIC"),
		},
		Scraper: ScraperConfig{
			Headless:      headless,
			ScrollSettle:  settle,
			HydrateWait:   hydrate,
			MaxStalls:     stalls,
			ClickAttempts: clicks,
		},
		Geocoder: GeocoderConfig{
			Provider: env.GetString("GEOCODER_PROVIDER"),
			APIKey:   env.GetString("GEOCODER_API_KEY"),
			Workers:  workers,
			Interval: interval,
		},
	}
}

func setDefaults(env *viper.Viper) {
	env.SetDefault("ANVESH_ENV", "production")
	env.SetDefault("ANVESH_PORT", "8080")
	env.SetDefault("ADMIN_SECRET", "change-me-in-production")
	env.SetDefault("API_KEY_PREFIX", "anv_")
	env.SetDefault("DB_HOST", "localhost")
	env.SetDefault("DB_PORT", "5432")
	env.SetDefault("DB_USERNAME", "postgres")
	env.SetDefault("DB_PASSWORD", "postgres")
	env.SetDefault("DB_NAME", "lead_scraper")
	env.SetDefault("DB_CONNECT_ATTEMPTS", "10")
	env.SetDefault("DB_CONNECT_DELAY", "3s")
	env.SetDefault("REDIS_ADDR", "")
	env.SetDefault("KAFKA_BROKER", "")
	env.SetDefault("KAFKA_TOPIC", "anvesh.leads")
	env.SetDefault("BROWSER_HEADLESS", "true")
	env.SetDefault("SCRAPER_SCROLL_SETTLE", "5s")
	env.SetDefault("SCRAPER_HYDRATE_WAIT", "15s")
	env.SetDefault("SCRAPER_MAX_STALLS", "3")
	env.SetDefault("SCRAPER_CLICK_ATTEMPTS", "10")
	env.SetDefault("GEOCODER_PROVIDER", "")
	env.SetDefault("GEOCODER_API_KEY", "")
	env.SetDefault("GEOCODER_WORKERS", "4")
	env.SetDefault("GEOCODER_INTERVAL", "10m")
}
