package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"

	"github.com/uit-ai/knowledge-core/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Chunking    ChunkingConfig   `toml:"chunking"`
	Retrieval   RetrievalConfig  `toml:"retrieval"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Processing  ProcessingConfig `toml:"processing"`
	Logging     LoggingConfig    `toml:"logging"`
	Variables   KeysDirConfig    `toml:"variables"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
	Workers     WorkersConfig    `toml:"workers"`
	Portal      PortalConfig     `toml:"portal"`
}

// ServerConfig configures the ToolHost's listening address.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// StorageConfig lays out the on-disk roots the pipeline reads from and
// writes to, per the documented directory layout.
type StorageConfig struct {
	StagesRoot        string `toml:"stages_root"`         // {stages_root}/{category}/{document_id}/
	RejectedRoot      string `toml:"rejected_root"`       // {rejected_root}/{category}/{document_id}.md|.json
	VectorStoreRoot   string `toml:"vector_store_root"`   // opaque to the core; used by the localvector backend
	RegulationCodes   string `toml:"regulation_codes"`    // path to regulation_codes.json lookup table
	KVDir             string `toml:"kv_dir"`               // badger directory for the key/value store
}

// PipelineConfig configures stage execution.
type PipelineConfig struct {
	Force            bool `toml:"force"`              // rerun stages regardless of completed hash match
	SkipOnFailure    bool `toml:"skip_on_failure"`     // batch mode: continue to next document on stage failure
	ParseUnitCostUSD float64 `toml:"parse_unit_cost_usd"`
	EmbedUnitPriceUSD float64 `toml:"embed_unit_price_usd"` // used in cost = len(chunks) * 200 / 1e6 * unit_price
	FixModel         string  `toml:"fix_model"`             // LLM model used by the markdown-fix stage
	FixRPM           int     `toml:"fix_rpm"`                // markdown-fix stage rate limit, requests per minute
}

// ChunkingConfig mirrors the §4.7 chunker defaults.
type ChunkingConfig struct {
	MaxTokens       int    `toml:"max_tokens"`
	SubChunkSize    int    `toml:"sub_chunk_size"`
	SubChunkOverlap int    `toml:"sub_chunk_overlap"`
	MaxHeaderLevel  int    `toml:"max_header_level"`
	Encoding        string `toml:"encoding"` // tiktoken encoding name, default "cl100k_base"
}

// RoutingStrategy is the closed set of router strategies.
type RoutingStrategy string

const (
	RoutingQueryAll         RoutingStrategy = "query_all"
	RoutingLLMClassification RoutingStrategy = "llm_classification"
)

// RetrievalConfig configures the router and retriever.
type RetrievalConfig struct {
	RoutingStrategy       RoutingStrategy `toml:"routing_strategy"`
	AvailableCollections  []string        `toml:"available_collections"`
	RerankScoreThreshold  float64         `toml:"rerank_score_threshold"`
	MinScoreThreshold     float64         `toml:"min_score_threshold"`
	RetrievalTopK         int             `toml:"retrieval_top_k"`
	TopK                  int             `toml:"top_k"`
	UseHyDE               bool            `toml:"use_hyde"`
	EnableDistillation    bool            `toml:"enable_distillation"`
	RerankerURL           string          `toml:"reranker_url"`
	RerankerTimeout       time.Duration   `toml:"reranker_timeout"`
	EmbedURL              string          `toml:"embed_url"`
	EmbedModel            string          `toml:"embed_model"`
	EmbedDimension        int             `toml:"embed_dimension"`
	RouterModel           string          `toml:"router_model"`
	HyDEModel             string          `toml:"hyde_model"`
	ToolCallTimeout       time.Duration   `toml:"tool_call_timeout"`
	UniversityNames       []string        `toml:"university_names"`
	ProgramKeywords       map[string]string `toml:"program_keywords"` // alias -> canonical program slug
}

// VectorStoreBackend selects the concrete VectorStore implementation.
type VectorStoreBackend string

const (
	VectorStoreQdrant VectorStoreBackend = "qdrant"
	VectorStoreLocal  VectorStoreBackend = "local"
)

// VectorStoreConfig configures the vector store client.
type VectorStoreConfig struct {
	Backend VectorStoreBackend `toml:"backend"`
	Address string             `toml:"address"` // qdrant gRPC address, e.g. "localhost:6334"
	APIKey  string             `toml:"api_key"`
}

// ProcessingConfig drives the cron scheduler for periodic batch runs.
type ProcessingConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron format
	Limit    int    `toml:"limit"`    // max documents per run
}

// LoggingConfig configures the arbor logger.
type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"`
}

// KeysDirConfig points at the directory of variable/secret TOML files.
type KeysDirConfig struct {
	Dir string `toml:"dir"`
}

// GeminiConfig contains unified Google Gemini API configuration.
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Thinking    string  `toml:"thinking"`
	Timeout     string  `toml:"timeout"`
	RateLimit   string  `toml:"rate_limit"`
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig contains Anthropic Claude API configuration.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Thinking    string  `toml:"thinking"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	RateLimit   string  `toml:"rate_limit"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type.
type LLMProvider string

const (
	LLMProviderGemini LLMProvider = "gemini"
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers.
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"`
}

// WorkersConfig contains configuration for batch worker behavior.
type WorkersConfig struct {
	CategoryConcurrency int  `toml:"category_concurrency"` // concurrent documents per category in BatchRunner
	Debug               bool `toml:"debug"`
}

// PortalConfig points the get_grades/get_schedule tools at the student
// portal's JSON endpoints. The portal session itself is supplied
// per-call as a cookie value; nothing here is a secret.
type PortalConfig struct {
	BaseURL      string `toml:"base_url"`
	GradesPath   string `toml:"grades_path"`
	SchedulePath string `toml:"schedule_path"`
	Timeout      string `toml:"timeout"`
}

// NewDefaultConfig creates a configuration with default values. Technical
// parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in the TOML file.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8090,
			Host: "localhost",
		},
		Storage: StorageConfig{
			StagesRoot:      "./data/stages",
			RejectedRoot:    "./data/rejected",
			VectorStoreRoot: "./data/vectors",
			RegulationCodes: "./data/regulation_codes.json",
			KVDir:           "./data/kv",
		},
		Pipeline: PipelineConfig{
			Force:             false,
			SkipOnFailure:     false,
			ParseUnitCostUSD:  0.01,
			EmbedUnitPriceUSD: 0.02,
			FixModel:          "gemini-3-flash-preview",
			FixRPM:            30,
		},
		Chunking: ChunkingConfig{
			MaxTokens:       8000,
			SubChunkSize:    1024,
			SubChunkOverlap: 200,
			MaxHeaderLevel:  4,
			Encoding:        "cl100k_base",
		},
		Retrieval: RetrievalConfig{
			RoutingStrategy:      RoutingQueryAll,
			AvailableCollections: []string{"regulation", "curriculum"},
			RerankScoreThreshold: 0.7,
			MinScoreThreshold:    0.25,
			RetrievalTopK:        20,
			TopK:                 3,
			UseHyDE:              false,
			EnableDistillation:   false,
			RerankerTimeout:      120 * time.Second,
			EmbedURL:             "http://localhost:11434",
			EmbedModel:           "embedding-001",
			EmbedDimension:       768,
			RouterModel:          "gemini-3-flash-preview",
			HyDEModel:            "gemini-3-flash-preview",
			ToolCallTimeout:      120 * time.Second,
			UniversityNames:      []string{"Trường Đại học Công nghệ Thông tin", "Đại học Quốc gia"},
		},
		VectorStore: VectorStoreConfig{
			Backend: VectorStoreLocal,
			Address: "localhost:6334",
		},
		Processing: ProcessingConfig{
			Enabled:  false,
			Schedule: "0 0 */6 * * *",
			Limit:    1000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
		Variables: KeysDirConfig{
			Dir: "./",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-flash-preview",
			Thinking:    "NORMAL",
			Timeout:     "5m",
			RateLimit:   "4s",
			Temperature: 0,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			Thinking:    "NORMAL",
			MaxTokens:   8192,
			Timeout:     "5m",
			RateLimit:   "1s",
			Temperature: 0,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Workers: WorkersConfig{
			CategoryConcurrency: 4,
			Debug:               false,
		},
		Portal: PortalConfig{
			GradesPath:   "/api/grades",
			SchedulePath: "/api/schedule",
			Timeout:      "15s",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
// kvStorage may be nil, in which case key-reference replacement is skipped.
func LoadFromFile(kvStorage interfaces.KeyValueStorage, path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles(kvStorage)
	}
	return LoadFromFiles(kvStorage, path)
}

// LoadFromFiles loads configuration from multiple files, later files
// overriding earlier ones, then applies KV key replacement and
// environment variable overrides.
func LoadFromFiles(kvStorage interfaces.KeyValueStorage, paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if kvStorage != nil {
		ctx := context.Background()
		kvMap, err := kvStorage.GetAll(ctx)
		if err != nil {
			logger := arbor.NewLogger()
			logger.Warn().Err(err).Msg("failed to fetch KV map for config replacement, skipping replacement")
		} else {
			logger := arbor.NewLogger()
			if err := ReplaceInStruct(config, kvMap, logger); err != nil {
				logger.Warn().Err(err).Msg("failed to replace key references in config")
			} else {
				logger.Info().Int("keys", len(kvMap)).Msg("applied key/value replacements to config")
			}
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies KNOWLEDGE_* environment variable overrides.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("KNOWLEDGE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("KNOWLEDGE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("KNOWLEDGE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if root := os.Getenv("KNOWLEDGE_STAGES_ROOT"); root != "" {
		config.Storage.StagesRoot = root
	}
	if root := os.Getenv("KNOWLEDGE_REJECTED_ROOT"); root != "" {
		config.Storage.RejectedRoot = root
	}
	if root := os.Getenv("KNOWLEDGE_VECTOR_STORE_ROOT"); root != "" {
		config.Storage.VectorStoreRoot = root
	}

	if level := os.Getenv("KNOWLEDGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("KNOWLEDGE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("KNOWLEDGE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range splitString(output, ",") {
			trimmed := trimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if strategy := os.Getenv("KNOWLEDGE_ROUTING_STRATEGY"); strategy != "" {
		config.Retrieval.RoutingStrategy = RoutingStrategy(strategy)
	}
	if topK := os.Getenv("KNOWLEDGE_RETRIEVAL_TOP_K"); topK != "" {
		if v, err := strconv.Atoi(topK); err == nil {
			config.Retrieval.RetrievalTopK = v
		}
	}
	if topK := os.Getenv("KNOWLEDGE_TOP_K"); topK != "" {
		if v, err := strconv.Atoi(topK); err == nil {
			config.Retrieval.TopK = v
		}
	}
	if threshold := os.Getenv("KNOWLEDGE_RERANK_SCORE_THRESHOLD"); threshold != "" {
		if v, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Retrieval.RerankScoreThreshold = v
		}
	}
	if threshold := os.Getenv("KNOWLEDGE_MIN_SCORE_THRESHOLD"); threshold != "" {
		if v, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Retrieval.MinScoreThreshold = v
		}
	}
	if useHyDE := os.Getenv("KNOWLEDGE_USE_HYDE"); useHyDE != "" {
		if v, err := strconv.ParseBool(useHyDE); err == nil {
			config.Retrieval.UseHyDE = v
		}
	}
	if url := os.Getenv("KNOWLEDGE_RERANKER_URL"); url != "" {
		config.Retrieval.RerankerURL = url
	}
	if model := os.Getenv("KNOWLEDGE_EMBED_MODEL"); model != "" {
		config.Retrieval.EmbedModel = model
	}
	if maxTokens := os.Getenv("KNOWLEDGE_MAX_TOKENS"); maxTokens != "" {
		if v, err := strconv.Atoi(maxTokens); err == nil {
			config.Chunking.MaxTokens = v
		}
	}
	if subSize := os.Getenv("KNOWLEDGE_SUB_CHUNK_SIZE"); subSize != "" {
		if v, err := strconv.Atoi(subSize); err == nil {
			config.Chunking.SubChunkSize = v
		}
	}
	if subOverlap := os.Getenv("KNOWLEDGE_SUB_CHUNK_OVERLAP"); subOverlap != "" {
		if v, err := strconv.Atoi(subOverlap); err == nil {
			config.Chunking.SubChunkOverlap = v
		}
	}

	if key := os.Getenv("KNOWLEDGE_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("KNOWLEDGE_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
}

// ResolveAPIKey resolves an API key by name with environment variable
// priority: environment variables → KV store → config fallback → error.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"KNOWLEDGE_GEMINI_API_KEY"},
		"anthropic_api_key": {"KNOWLEDGE_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("no API key found for %q (checked environment, KV store, and config)", name)
}

func splitString(s, sep string) []string {
	return strings.Split(s, sep)
}

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}
