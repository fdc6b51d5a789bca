package config

import (
	"sort"

	"github.com/gaborage/dataapi-go/logger"
)

// Exists reports whether key was set by any source.
func (c *Config) Exists(key string) bool {
	return c != nil && c.k != nil && c.k.Exists(key)
}

// GetString retrieves a string value from the configuration or the provided default.
func (c *Config) GetString(key string, defaultVal ...string) string {
	if !c.Exists(key) {
		if len(defaultVal) > 0 {
			return defaultVal[0]
		}
		return ""
	}
	return c.k.String(key)
}

// Keys returns every loaded key in sorted order.
func (c *Config) Keys() []string {
	if c == nil || c.k == nil {
		return nil
	}
	keys := c.k.Keys()
	sort.Strings(keys)
	return keys
}

// Redacted returns the flattened effective configuration with credential
// values masked.
func (c *Config) Redacted() map[string]any {
	if c == nil || c.k == nil {
		return map[string]any{}
	}
	return logger.NewSensitiveDataFilter(nil).FilterFields(c.k.All())
}
