package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration values that cannot be normalized away.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must not be empty")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q (expected console or json)", c.Logging.Format))
	}

	if c.Discovery.FingerprintThreshold < 0 || c.Discovery.FingerprintThreshold > 1 {
		problems = append(problems, "discovery.fingerprint_threshold must be within [0, 1]")
	}
	if c.Discovery.EmbeddingThreshold < 0 || c.Discovery.EmbeddingThreshold > 1 {
		problems = append(problems, "discovery.embedding_threshold must be within [0, 1]")
	}
	if c.Discovery.DisruptionRatio < 0 || c.Discovery.DisruptionRatio > 1 {
		problems = append(problems, "discovery.disruption_ratio must be within [0, 1]")
	}
	if c.Retry.MaxDelaySeconds < c.Retry.BaseDelaySeconds {
		problems = append(problems, "retry.max_delay_seconds must be >= retry.base_delay_seconds")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}
