package config

import (
	"fmt"
	"strings"
)

// KVConfig points at the SQLite file holding admin configuration documents.
// An empty path keeps the documents in memory.
type KVConfig struct {
	Path string `koanf:"path"`
}

// String returns a string representation of the KV configuration.
func (c *KVConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Admin KV ---\n")
	if c.Path == "" {
		b.WriteString("  path: <in-memory>\n")
	} else {
		b.WriteString(fmt.Sprintf("  path: %s\n", c.Path))
	}
	return b.String()
}

func (c *KVConfig) Validate() error {
	if strings.ContainsAny(c.Path, "?#") {
		return fmt.Errorf("kv path must be a plain file path: %s", c.Path)
	}
	return nil
}
