package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mentorhub/internal/timex"
	"github.com/spf13/viper"
)

const envPrefix = "MENTORHUB"

// parseEnv overlays MENTORHUB_* environment variables, e.g.
// MENTORHUB_DATABASE_DSN or MENTORHUB_TOKEN_VALIDITY_DURATION=31d.
// Empty variables are treated as unset. Invalid values panic.
func parseEnv(config *Config) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{
		"endpoint_addr_http", "database_dsn", "max_open_conns",
		"acquire_timeout", "token_validity_duration", "bcrypt_cost", "log_level",
	} {
		_ = v.BindEnv(key)
	}

	if v.IsSet("endpoint_addr_http") {
		config.EndpointAddrHTTP = v.GetString("endpoint_addr_http")
	}
	if v.IsSet("database_dsn") {
		config.DatabaseDSN = v.GetString("database_dsn")
	}
	if v.IsSet("max_open_conns") {
		config.MaxOpenConns = v.GetInt("max_open_conns")
	}
	if v.IsSet("acquire_timeout") {
		config.AcquireTimeout = mustDuration("acquire_timeout", v.GetString("acquire_timeout"))
	}
	if v.IsSet("token_validity_duration") {
		config.TokenValidityDuration = mustDuration("token_validity_duration", v.GetString("token_validity_duration"))
	}
	if v.IsSet("bcrypt_cost") {
		config.BcryptCost = v.GetInt("bcrypt_cost")
	}
	if v.IsSet("log_level") {
		config.LogLevel = v.GetString("log_level")
	}
}

func mustDuration(key, raw string) time.Duration {
	parsed, err := timex.ParseDuration(raw)
	if err != nil {
		panic(fmt.Errorf("%s_%s: %w", envPrefix, strings.ToUpper(key), err))
	}
	return parsed
}
