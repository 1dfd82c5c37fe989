package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "gazetteer-data/common/config"
)

// Property list sources.
const (
	PropertySourceDB     = "db"
	PropertySourceAPI    = "api"
	PropertySourceMemory = "memory"
)

// Config is the gazetteer-data service configuration, read from the environment.
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  commoncfg.DatabaseConfig
	Redis     commoncfg.RedisConfig
	Log       struct {
		Level  string
		Format string
	}
	MQTT struct {
		Enabled        bool
		Client         commoncfg.MQTTConfig
		HighlightTopic string
	}
	// GazetteerAPI is used when PropertySource is "api".
	GazetteerAPI   commoncfg.HTTPClientConfig
	PropertySource string

	Selection struct {
		// MaxDepth bounds cascade depth; 0 is unbounded.
		MaxDepth   int
		SessionTTL time.Duration
	}
	LookupCacheTTL time.Duration
	EventStream    string
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Falls back to in-memory repositories when the database is unreachable.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "gazetteer",
		SSLMode:  "disable",
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Client = commoncfg.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "gazetteer-data",
		QoS:      1,
	}
	cfg.MQTT.Client.LoadFromEnv("MQTT")
	cfg.MQTT.HighlightTopic = getEnv("MAP_HIGHLIGHT_TOPIC", "gazetteer/map/highlight")

	cfg.GazetteerAPI = commoncfg.HTTPClientConfig{Timeout: 10 * time.Second, RetryCount: 2}
	cfg.GazetteerAPI.LoadFromEnv("GAZETTEER_API")

	cfg.PropertySource = getEnv("PROPERTY_SOURCE", PropertySourceDB)
	switch cfg.PropertySource {
	case PropertySourceDB, PropertySourceAPI, PropertySourceMemory:
	default:
		cfg.PropertySource = PropertySourceDB
	}

	cfg.Selection.MaxDepth = parseInt(getEnv("SELECTION_MAX_DEPTH", "0"), 0)
	if cfg.Selection.MaxDepth < 0 {
		cfg.Selection.MaxDepth = 0
	}
	cfg.Selection.SessionTTL = parseDuration(getEnv("SESSION_TTL", "30m"), 30*time.Minute)
	cfg.LookupCacheTTL = parseDuration(getEnv("LOOKUP_CACHE_TTL", "10m"), 10*time.Minute)
	cfg.EventStream = getEnv("EVENT_STREAM", "gazetteer:events")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
