// Package config loads server settings. Sources, lowest priority first:
// built-in defaults, an optional YAML file (with ${VAR:-default} expansion),
// then environment variables (a .env file is loaded into the environment).
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/drone/envsubst"
	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

// Event broker names accepted in EVENT_BROKER
const (
	BrokerNone     = ""
	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
)

type Config struct {
	DatabaseURL string `yaml:"database_url"`
	Port        string `yaml:"port"`
	JWTSecret   string `yaml:"jwt_secret"`
	Timezone    string `yaml:"timezone"` // Drive dates and times are local to this zone
	SeedDemo    bool   `yaml:"seed_demo_data"`

	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`

	Firebase FirebaseCfg `yaml:"firebase"`
	Redis    RedisCfg    `yaml:"redis"`
	Events   EventsCfg   `yaml:"events"`
	MQTT     MQTTCfg     `yaml:"mqtt"`
	Maps     MapsCfg     `yaml:"maps"`
}

type FirebaseCfg struct {
	CredentialsBase64 string `yaml:"credentials_base64"`
	CredentialsFile   string `yaml:"credentials_file"`
}

type RedisCfg struct {
	Addr string `yaml:"addr"`
}

type EventsCfg struct {
	Broker       string   `yaml:"broker"`
	RabbitMQURL  string   `yaml:"rabbitmq_url"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
}

type MQTTCfg struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
}

type MapsCfg struct {
	APIKey string `yaml:"api_key"`
	Region string `yaml:"region"`
}

func defaults() *Config {
	return &Config{
		Port:     "8080",
		Timezone: "America/Port_of_Spain",
		MQTT:     MQTTCfg{ClientID: "breadvan-backend"},
		Maps:     MapsCfg{Region: "tt"},
	}
}

// Load reads .env (if present), then yamlPath (if non-empty and present), then
// the environment
func Load(yamlPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded")
	}

	cfg := defaults()
	if yamlPath != "" {
		if err := cfg.loadYAML(yamlPath); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	expanded, err := envsubst.EvalEnv(string(data))
	if err != nil {
		return fmt.Errorf("expand %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	log.Printf("✅ Loaded config file %s", path)
	return nil
}

func setFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (c *Config) applyEnv() {
	setFromEnv(&c.DatabaseURL, "DATABASE_URL")
	setFromEnv(&c.Port, "PORT")
	setFromEnv(&c.JWTSecret, "APP_JWT_SECRET")
	setFromEnv(&c.Timezone, "TIMEZONE")
	setFromEnv(&c.AdminUsername, "ADMIN_USERNAME")
	setFromEnv(&c.AdminPassword, "ADMIN_PASSWORD")
	setFromEnv(&c.Firebase.CredentialsBase64, "FIREBASE_CREDENTIALS_BASE64")
	setFromEnv(&c.Firebase.CredentialsFile, "FIREBASE_CREDENTIALS_FILE")
	setFromEnv(&c.Redis.Addr, "REDIS_ADDR")
	setFromEnv(&c.Events.Broker, "EVENT_BROKER")
	setFromEnv(&c.Events.RabbitMQURL, "RABBITMQ_URL")
	setFromEnv(&c.MQTT.Broker, "MQTT_BROKER")
	setFromEnv(&c.MQTT.ClientID, "MQTT_CLIENT_ID")
	setFromEnv(&c.Maps.APIKey, "GOOGLE_MAPS_API_KEY")
	setFromEnv(&c.Maps.Region, "GOOGLE_MAPS_REGION")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("SEED_DEMO_DATA"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SeedDemo = b
		} else {
			log.Printf("⚠️  Ignoring SEED_DEMO_DATA=%q: %v", v, err)
		}
	}
	c.Events.Broker = strings.ToLower(strings.TrimSpace(c.Events.Broker))
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate reports the first missing or inconsistent setting
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required (use memory:// for an in-memory store)")
	}
	if c.JWTSecret == "" {
		return errors.New("APP_JWT_SECRET is required")
	}
	switch c.Events.Broker {
	case BrokerNone:
	case BrokerRabbitMQ:
		if c.Events.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is required when EVENT_BROKER=rabbitmq")
		}
	case BrokerKafka:
		if len(c.Events.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when EVENT_BROKER=kafka")
		}
	default:
		return fmt.Errorf("unknown EVENT_BROKER %q (want rabbitmq or kafka)", c.Events.Broker)
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// InMemory reports whether the server should run without Postgres
func (c *Config) InMemory() bool {
	return strings.HasPrefix(c.DatabaseURL, "memory://")
}
