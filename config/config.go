package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration, loaded once at process start.
type Config struct {
	Log          LogConfig
	Serp         SerpConfig
	Proxy        ProxyConfig
	Fetcher      FetcherConfig
	Embedding    EmbeddingConfig
	Scorer       ScorerConfig
	Orchestrator OrchestratorConfig
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// SerpConfig controls the search-results provider.
type SerpConfig struct {
	APIKey   string
	Provider string // default: "serpapi"
	Location string
	Language string // default: "en"
	Device   string // default: "desktop"
	TopN     int    // default: 10
}

// ProxyConfig controls the ProxyPool.
type ProxyConfig struct {
	FilePath string
	Strategy string // "sequential" or "random"; default: "sequential"
}

// FetcherConfig controls the headless-browser fetch path.
type FetcherConfig struct {
	Headless          bool          // default: true
	NoSandbox         bool          // default: false
	BrowserBin        string
	Timeout           time.Duration // default: 45s
	SettleWait        time.Duration // default: 1s
	MaxConcurrentURLs int           // default: 3
	RatePerWorker     time.Duration // default: 2s
	ProxyRetryBase    time.Duration // default: 2s
	MaxProxyRetries   int           // default: 3
}

// EmbeddingConfig controls the embedding engine.
type EmbeddingConfig struct {
	Model      string // default: "local-hash-384"
	Dimension  int    // default: 384
	BatchSize  int    // default: 64
	RemoteURL  string
	RemoteKey  string
}

// ScorerConfig holds the composite-weight configuration. Weights must sum
// to 1.0; changing them is a deliberate operation, not a tuning knob.
type ScorerConfig struct {
	WeightMetadata   float64 // default: 0.15
	WeightHierarchy  float64 // default: 0.15
	WeightThematic   float64 // default: 0.20
	WeightBalance    float64 // default: 0.10
	WeightIntent     float64 // default: 0.20
	WeightStructural float64 // default: 0.20
}

// OrchestratorConfig controls orchestrator/optimizer-wide thresholds.
type OrchestratorConfig struct {
	MinImprovementThreshold float64 // default: 0.01
	MaxOptimizationIters    int     // default: 50
	CacheHitRateTarget      float64 // default: 0.9
	ProjectsDir             string  // default: "projects"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Log: LogConfig{
			Level:  envOr("SEOSCOPE_LOG_LEVEL", "info"),
			Format: envOr("SEOSCOPE_LOG_FORMAT", "json"),
		},
		Serp: SerpConfig{
			APIKey:   os.Getenv("SEOSCOPE_SERP_API_KEY"),
			Provider: envOr("SEOSCOPE_SERP_PROVIDER", "serpapi"),
			Location: os.Getenv("SEOSCOPE_SERP_LOCATION"),
			Language: envOr("SEOSCOPE_SERP_LANGUAGE", "en"),
			Device:   envOr("SEOSCOPE_SERP_DEVICE", "desktop"),
			TopN:     envIntOr("SEOSCOPE_TOP_N", 10),
		},
		Proxy: ProxyConfig{
			FilePath: os.Getenv("SEOSCOPE_PROXY_FILE"),
			Strategy: envOr("SEOSCOPE_PROXY_STRATEGY", "sequential"),
		},
		Fetcher: FetcherConfig{
			Headless:          envBoolOr("SEOSCOPE_HEADLESS", true),
			NoSandbox:         envBoolOr("SEOSCOPE_NO_SANDBOX", false),
			BrowserBin:        os.Getenv("SEOSCOPE_BROWSER_BIN"),
			Timeout:           envDurationOr("SEOSCOPE_FETCH_TIMEOUT", 45*time.Second),
			SettleWait:        envDurationOr("SEOSCOPE_SETTLE_WAIT", 1*time.Second),
			MaxConcurrentURLs: envIntOr("SEOSCOPE_MAX_CONCURRENT_URLS", 3),
			RatePerWorker:     envDurationOr("SEOSCOPE_RATE_PER_WORKER", 2*time.Second),
			ProxyRetryBase:    envDurationOr("SEOSCOPE_PROXY_RETRY_BASE", 2*time.Second),
			MaxProxyRetries:   envIntOr("SEOSCOPE_MAX_PROXY_RETRIES", 3),
		},
		Embedding: EmbeddingConfig{
			Model:     envOr("SEOSCOPE_EMBEDDING_MODEL", "local-hash-384"),
			Dimension: envIntOr("SEOSCOPE_EMBEDDING_DIM", 384),
			BatchSize: envIntOr("SEOSCOPE_EMBEDDING_BATCH", 64),
			RemoteURL: os.Getenv("SEOSCOPE_EMBEDDING_URL"),
			RemoteKey: os.Getenv("SEOSCOPE_EMBEDDING_KEY"),
		},
		Scorer: ScorerConfig{
			WeightMetadata:   envFloatOr("SEOSCOPE_WEIGHT_METADATA", 0.15),
			WeightHierarchy:  envFloatOr("SEOSCOPE_WEIGHT_HIERARCHY", 0.15),
			WeightThematic:   envFloatOr("SEOSCOPE_WEIGHT_THEMATIC", 0.20),
			WeightBalance:    envFloatOr("SEOSCOPE_WEIGHT_BALANCE", 0.10),
			WeightIntent:     envFloatOr("SEOSCOPE_WEIGHT_INTENT", 0.20),
			WeightStructural: envFloatOr("SEOSCOPE_WEIGHT_STRUCTURAL", 0.20),
		},
		Orchestrator: OrchestratorConfig{
			MinImprovementThreshold: envFloatOr("SEOSCOPE_MIN_IMPROVEMENT_THRESHOLD", 0.01),
			MaxOptimizationIters:    envIntOr("SEOSCOPE_MAX_OPTIMIZATION_ITERATIONS", 50),
			CacheHitRateTarget:      envFloatOr("SEOSCOPE_CACHE_HIT_RATE_TARGET", 0.9),
			ProjectsDir:             envOr("SEOSCOPE_PROJECTS_DIR", "projects"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
