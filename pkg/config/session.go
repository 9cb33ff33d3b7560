package config

import (
	"fmt"
	"strings"
	"time"
)

type SessionConfig struct {
	TTL          time.Duration `koanf:"ttl"`
	CookieSecure bool          `koanf:"cookiesecure"`
}

// String returns a string representation of the session configuration.
func (c *SessionConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Sessions ---\n")
	b.WriteString(fmt.Sprintf("  ttl: %s\n", c.TTL))
	b.WriteString(fmt.Sprintf("  cookiesecure: %t\n", c.CookieSecure))
	return b.String()
}

func (c *SessionConfig) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("session ttl must be greater than zero")
	}
	return nil
}
