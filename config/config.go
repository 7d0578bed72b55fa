// Package config loads runtime configuration from the environment. A
// .env file in the working directory is honored for local development.
// Database settings are separate, see sql.GetConnParamFromENV.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config runtime configuration for the service
type Config struct {
	Env     string
	API     API
	Sync    Sync
	Search  Search
	Kafka   Kafka
	Secrets Secrets
	Shopify Shopify
}

// API settings for the HTTP server
type API struct {
	Addr string
}

// Sync settings for the batch processor
type Sync struct {
	BatchSize       int
	PacingSeconds   int
	CooldownSeconds int
}

// Pacing the delay between remote calls
func (s Sync) Pacing() time.Duration {
	return time.Duration(s.PacingSeconds) * time.Second
}

// Cooldown the delay after a rate limited call
func (s Sync) Cooldown() time.Duration {
	return time.Duration(s.CooldownSeconds) * time.Second
}

// Search the Algolia application credentials and index name
type Search struct {
	App   string
	Key   string
	Index string
}

// Enabled indicates the search index should be written to
func (s Search) Enabled() bool {
	return s.App != "" && s.Key != "" && s.Index != ""
}

// Kafka broker settings for publishing audit records. Region is only
// needed for MSK brokers authenticated with the instance's ec2 role
type Kafka struct {
	Brokers []string
	Topic   string
	Region  string
}

// Enabled indicates audit records should be published to kafka
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

// Secrets where store credentials are kept, see the secrets package
type Secrets struct {
	SecretID string
	Region   string
}

// Shopify settings for the admin API client
type Shopify struct {
	APIVersion string
}

// Load reads configuration from the environment, applying defaults
// for anything unset
func Load() (cfg *Config) {
	// Optional, for local development
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("app_env", EnvLocal)
	viper.SetDefault("api_addr", ":8080")
	viper.SetDefault("sync_batch_size", 25)
	viper.SetDefault("sync_pacing_seconds", 2)
	viper.SetDefault("sync_cooldown_seconds", 30)

	return &Config{
		Env: viper.GetString("app_env"),
		API: API{
			Addr: viper.GetString("api_addr"),
		},
		Sync: Sync{
			BatchSize:       viper.GetInt("sync_batch_size"),
			PacingSeconds:   viper.GetInt("sync_pacing_seconds"),
			CooldownSeconds: viper.GetInt("sync_cooldown_seconds"),
		},
		Search: Search{
			App:   viper.GetString("search_app"),
			Key:   viper.GetString("search_key"),
			Index: viper.GetString("search_index"),
		},
		Kafka: Kafka{
			Brokers: splitList(viper.GetString("kafka_brokers")),
			Topic:   viper.GetString("kafka_topic"),
			Region:  viper.GetString("kafka_region"),
		},
		Secrets: Secrets{
			SecretID: viper.GetString("secrets_id"),
			Region:   viper.GetString("secrets_region"),
		},
		Shopify: Shopify{
			APIVersion: viper.GetString("shopify_api_version"),
		},
	}
}

// splitList splits a comma separated value, dropping empty entries
func splitList(v string) (list []string) {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}

	return list
}
