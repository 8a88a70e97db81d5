package config

import (
	"fmt"
	"strconv"
	"time"
)

type lookupFunc func(key string) (string, bool)

const envPrefix = "GOPHAUTH_"

// parseEnv overlays GOPHAUTH_* environment variables. Durations use
// time.ParseDuration syntax ("15m", "168h").
func parseEnv(config *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		"GRPC_ADDR":         &config.EndpointAddrGRPC,
		"HTTP_ADDR":         &config.EndpointAddrHTTP,
		"METRICS_ADDR":      &config.MetricsAddr,
		"DATABASE_DSN":      &config.DatabaseDSN,
		"SECRET_KEY":        &config.SecretKey,
		"ISSUER":            &config.Issuer,
		"MQTT_BROKER":       &config.MQTTBroker,
		"MQTT_TOPIC_PREFIX": &config.MQTTTopicPrefix,
	}
	for key, dst := range strs {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":  &config.AccessTokenValidityDuration,
		"REFRESH_TOKEN_TTL": &config.RefreshTokenValidityDuration,
		"CLEANUP_INTERVAL":  &config.CleanupInterval,
	}
	for key, dst := range durations {
		v, ok := lookup(envPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = d
	}

	if v, ok := lookup(envPrefix + "BCRYPT_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sBCRYPT_COST: %w", envPrefix, err)
		}
		config.BcryptCost = n
	}
	return nil
}
