// Package config holds the storefront service configuration.
package config

import (
	"strings"

	"github.com/abgdnv/storefront/pkg/config"
	"github.com/abgdnv/storefront/pkg/config/configloader"
)

var (
	_ configloader.Validator = (*Config)(nil)
	_ configloader.Defaulter = (*Config)(nil)
)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Gateway    config.GatewayConfig    `koanf:"gateway"`
	Database   config.DatabaseConfig   `koanf:"database"`
	Feed       config.FeedConfig       `koanf:"feed"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	Session    config.SessionConfig    `koanf:"session"`
	KV         config.KVConfig         `koanf:"kv"`
	Auth       config.AuthConfig       `koanf:"auth"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

// Defaults runs the service in memory with the in-process feed.
func (*Config) Defaults() map[string]any {
	return map[string]any{
		"server.port":               8080,
		"server.maxHeaderBytes":     1 << 20,
		"server.timeout.read":       "5s",
		"server.timeout.write":      "10s",
		"server.timeout.idle":       "60s",
		"server.timeout.readHeader": "2s",

		"gateway.driver":   config.GatewayDriverMemory,
		"database.timeout": "5s",
		"database.migrate": true,

		"feed.driver":   config.FeedDriverLocal,
		"feed.stream":   "PRODUCTS",
		"feed.subject":  "products.changed",
		"feed.timeout":  "5s",
		"feed.interval": "100ms",

		"nats.name":          "storefront",
		"nats.timeout":       "5s",
		"nats.reconnectwait": "2s",

		"resilience.circuitbreaker.enabled":             true,
		"resilience.circuitbreaker.consecutivefailures": 5,
		"resilience.circuitbreaker.opentimeout":         "10s",

		"session.ttl": "24h",

		"auth.idp.mininterval": "5m",

		"log.level":        "info",
		"pprof.addr":       ":6060",
		"shutdown.timeout": "10s",
	}
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Gateway.String())
	if c.Gateway.Driver == config.GatewayDriverPostgres {
		b.WriteString(c.Database.String())
	}
	b.WriteString(c.Feed.String())
	if c.Feed.Driver == config.FeedDriverNATS {
		b.WriteString(c.Nats.String())
	}
	b.WriteString(c.Resilience.String())
	b.WriteString(c.Session.String())
	b.WriteString(c.KV.String())
	b.WriteString(c.Auth.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks every section; database and nats are only checked when a driver needs them.
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Gateway.Validate(); err != nil {
		return err
	}
	if c.Gateway.Driver == config.GatewayDriverPostgres {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}
	if err := c.Feed.Validate(); err != nil {
		return err
	}
	if c.Feed.Driver == config.FeedDriverNATS {
		if err := c.Nats.Validate(); err != nil {
			return err
		}
	}
	if err := c.Resilience.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if err := c.KV.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	return c.Shutdown.Validate()
}
