package config

const (
	defaultDataDir = "~/.local/share/verdandi"
	defaultLogDir  = "~/.local/share/verdandi/logs"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultMaxRetries       = 3
	defaultBaseDelaySeconds = 1.0
	defaultMaxDelaySeconds  = 60.0
	defaultFailureThreshold = 5
	defaultResetSeconds     = 60.0

	defaultMaxIdeas             = 3
	defaultMaxDedupRetries      = 3
	defaultFingerprintThreshold = 0.6
	defaultEmbeddingThreshold   = 0.82
	defaultDisruptionRatio      = 0.7
	defaultReservationTTLHours  = 24

	defaultVectorCollection = "idea_embeddings"
	defaultVectorSize       = 384
	defaultRequestTimeout   = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Retry: Retry{
			MaxRetries:       defaultMaxRetries,
			BaseDelaySeconds: defaultBaseDelaySeconds,
			MaxDelaySeconds:  defaultMaxDelaySeconds,
			Jitter:           true,
			FailureThreshold: defaultFailureThreshold,
			ResetSeconds:     defaultResetSeconds,
		},
		Discovery: Discovery{
			MaxIdeas:             defaultMaxIdeas,
			MaxDedupRetries:      defaultMaxDedupRetries,
			FingerprintThreshold: defaultFingerprintThreshold,
			EmbeddingThreshold:   defaultEmbeddingThreshold,
			DisruptionRatio:      defaultDisruptionRatio,
			ReservationTTLHours:  defaultReservationTTLHours,
		},
		VectorMemory: VectorMemory{
			Collection:     defaultVectorCollection,
			VectorSize:     defaultVectorSize,
			RequestTimeout: defaultRequestTimeout,
		},
		Embeddings: Embeddings{
			RequestTimeout: defaultRequestTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Review:         true,
			Pipeline:       true,
			Discovery:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
