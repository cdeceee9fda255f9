package config

import "strings"

// normalize expands paths, trims string fields, and fills derived defaults.
func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}

	c.Worker.ID = strings.TrimSpace(c.Worker.ID)
	if c.Worker.ID == "" {
		c.Worker.ID = generateWorkerID()
	}

	c.VectorMemory.URL = strings.TrimSpace(c.VectorMemory.URL)
	c.VectorMemory.Collection = strings.TrimSpace(c.VectorMemory.Collection)
	if c.VectorMemory.Collection == "" {
		c.VectorMemory.Collection = defaultVectorCollection
	}
	if c.VectorMemory.VectorSize <= 0 {
		c.VectorMemory.VectorSize = defaultVectorSize
	}
	if c.VectorMemory.RequestTimeout <= 0 {
		c.VectorMemory.RequestTimeout = defaultRequestTimeout
	}

	c.Embeddings.URL = strings.TrimSpace(c.Embeddings.URL)
	c.Embeddings.Model = strings.TrimSpace(c.Embeddings.Model)
	if c.Embeddings.RequestTimeout <= 0 {
		c.Embeddings.RequestTimeout = defaultRequestTimeout
	}

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = 10
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	if c.Retry.MaxRetries < 0 {
		c.Retry.MaxRetries = 0
	}
	if c.Retry.BaseDelaySeconds <= 0 {
		c.Retry.BaseDelaySeconds = defaultBaseDelaySeconds
	}
	if c.Retry.MaxDelaySeconds <= 0 {
		c.Retry.MaxDelaySeconds = defaultMaxDelaySeconds
	}
	if c.Retry.FailureThreshold <= 0 {
		c.Retry.FailureThreshold = defaultFailureThreshold
	}
	if c.Retry.ResetSeconds <= 0 {
		c.Retry.ResetSeconds = defaultResetSeconds
	}

	if c.Discovery.MaxIdeas <= 0 {
		c.Discovery.MaxIdeas = defaultMaxIdeas
	}
	if c.Discovery.MaxDedupRetries < 0 {
		c.Discovery.MaxDedupRetries = defaultMaxDedupRetries
	}
	if c.Discovery.ReservationTTLHours <= 0 {
		c.Discovery.ReservationTTLHours = defaultReservationTTLHours
	}

	return nil
}
