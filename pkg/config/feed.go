package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	FeedDriverNATS  = "nats"
	FeedDriverLocal = "local"
)

// FeedConfig configures the product change feed.
// Stream, Subject, Timeout and Interval are only used by the nats driver.
type FeedConfig struct {
	Driver   string        `koanf:"driver"`
	Stream   string        `koanf:"stream"`
	Subject  string        `koanf:"subject"`
	Timeout  time.Duration `koanf:"timeout"`
	Interval time.Duration `koanf:"interval"`
}

// String returns a string representation of the feed configuration.
func (c *FeedConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Change Feed ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	b.WriteString(fmt.Sprintf("  stream: %s\n", c.Stream))
	b.WriteString(fmt.Sprintf("  subject: %s\n", c.Subject))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  interval: %s\n", c.Interval))
	return b.String()
}

func (c *FeedConfig) Validate() error {
	switch c.Driver {
	case FeedDriverLocal:
		return nil
	case FeedDriverNATS:
	default:
		return fmt.Errorf("FeedConfig: unknown driver %q", c.Driver)
	}
	if c.Stream == "" {
		return fmt.Errorf("FeedConfig: stream is not configured")
	}
	if c.Subject == "" {
		return fmt.Errorf("FeedConfig: subject is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("FeedConfig: timeout must be greater than zero")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("FeedConfig: interval must be greater than zero")
	}
	return nil
}
