package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mentorhub/internal/flagx"
	"github.com/dmitrijs2005/mentorhub/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// "5s"/"31d" strings or integer nanoseconds. Absent keys keep the current value.
type JsonConfig struct {
	EndpointAddrHTTP      *string         `json:"endpoint_addr_http"`
	DatabaseDSN           *string         `json:"database_dsn"`
	MaxOpenConns          *int            `json:"max_open_conns"`
	AcquireTimeout        *timex.Duration `json:"acquire_timeout"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	BcryptCost            *int            `json:"bcrypt_cost"`
	LogLevel              *string         `json:"log_level"`
}

// parseJson overlays values from the file named by -c/-config.
// It panics when the file cannot be read or decoded.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	if c.EndpointAddrHTTP != nil {
		config.EndpointAddrHTTP = *c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.MaxOpenConns != nil {
		config.MaxOpenConns = *c.MaxOpenConns
	}
	if c.AcquireTimeout != nil {
		config.AcquireTimeout = c.AcquireTimeout.Duration
	}
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}
}
