package config

import (
	"fmt"
	"strings"
)

const (
	GatewayDriverPostgres = "postgres"
	GatewayDriverMemory   = "memory"
)

type GatewayConfig struct {
	Driver string `koanf:"driver"`
}

// String returns a string representation of the gateway configuration.
func (c *GatewayConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Gateway ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	return b.String()
}

func (c *GatewayConfig) Validate() error {
	if c.Driver != GatewayDriverPostgres && c.Driver != GatewayDriverMemory {
		return fmt.Errorf("unknown gateway driver %q", c.Driver)
	}
	return nil
}
