package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Mode selects which backend serves the library.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// DatabaseFile is the name of the Zotero database inside the data directory.
const DatabaseFile = "zotero.sqlite"

// Config holds all configuration for the application.
type Config struct {
	Mode       Mode
	APIKey     string
	UserID     string
	GroupID    string
	APIBaseURL string
	DataDir    string

	DefaultLimit      int
	MaxLimit          int
	CacheEnabled      bool
	CacheTTL          time.Duration
	PDFExtraction     bool
	MaxFullTextLength int
	HTTPTimeout       time.Duration

	LogLevel  slog.Level
	LogFormat string
	APIPort   string

	QdrantURL          string
	IndexDBPath        string
	QdrantCollection   string
	QdrantVectorSize   int
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string
}

// ValidationError lists every missing or invalid setting found while loading.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration:\n  - " + strings.Join(e.Problems, "\n  - ")
}

// DatabasePath returns the path of zotero.sqlite inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, DatabaseFile)
}

// LibraryScope identifies the library the semantic index belongs to.
func (c *Config) LibraryScope() string {
	switch {
	case c.Mode == ModeLocal && c.GroupID != "":
		return "local/groups/" + c.GroupID
	case c.Mode == ModeLocal:
		return "local/1"
	case c.GroupID != "":
		return "groups/" + c.GroupID
	default:
		return "users/" + c.UserID
	}
}

// SemanticEnabled reports whether a vector store is configured.
func (c *Config) SemanticEnabled() bool {
	return c.QdrantURL != ""
}

// Load reads configuration from environment variables and returns a Config struct.
// A .env file in the current directory or up to five parents is loaded first;
// variables already set in the environment take precedence over it. Values in
// the optional YAML file (configFile, or ZOTERO_CONFIG when empty) apply only
// where neither sets a key.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if configFile == "" {
		configFile = os.Getenv("ZOTERO_CONFIG")
	}
	file, err := readFile(configFile)
	if err != nil {
		return nil, err
	}

	return resolve(&source{file: file, home: userHome(), goos: goos()})
}

// source looks keys up in the environment first, then in the YAML file.
type source struct {
	file     map[string]string
	home     string
	goos     string
	problems []string
}

func (s *source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := s.file[fileKey(key)]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (s *source) problem(format string, args ...any) {
	s.problems = append(s.problems, fmt.Sprintf(format, args...))
}

func (s *source) getInt(key string, defaultValue int) int {
	raw := s.get(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.problem("%s must be a valid integer, got %q", key, raw)
		return defaultValue
	}
	return n
}

func (s *source) getBool(key string, defaultValue bool) bool {
	raw := s.get(key, "")
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		s.problem("%s must be true or false, got %q", key, raw)
		return defaultValue
	}
	return b
}

// getDuration accepts Go durations ("5m") or plain seconds ("300").
func (s *source) getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := s.get(key, "")
	if raw == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		s.problem("%s must be a duration such as 5m or a number of seconds, got %q", key, raw)
		return defaultValue
	}
	return d
}

func resolve(s *source) (*Config, error) {
	cfg := &Config{
		Mode:               Mode(strings.ToLower(s.get("ZOTERO_MODE", string(ModeRemote)))),
		APIKey:             s.get("ZOTERO_API_KEY", ""),
		UserID:             s.get("ZOTERO_USER_ID", ""),
		GroupID:            s.get("ZOTERO_GROUP_ID", ""),
		APIBaseURL:         strings.TrimRight(s.get("ZOTERO_API_BASE_URL", "https://api.zotero.org"), "/"),
		DataDir:            expandHome(s.get("ZOTERO_DATA_DIR", ""), s.home),
		DefaultLimit:       s.getInt("ZOTERO_DEFAULT_LIMIT", 25),
		MaxLimit:           s.getInt("ZOTERO_MAX_LIMIT", 100),
		CacheEnabled:       s.getBool("ZOTERO_CACHE_ENABLED", true),
		CacheTTL:           s.getDuration("ZOTERO_CACHE_TTL", 5*time.Minute),
		PDFExtraction:      s.getBool("ZOTERO_PDF_EXTRACTION", true),
		MaxFullTextLength:  s.getInt("ZOTERO_MAX_FULLTEXT_LENGTH", 100000),
		HTTPTimeout:        s.getDuration("ZOTERO_HTTP_TIMEOUT", 30*time.Second),
		LogFormat:          strings.ToLower(s.get("LOG_FORMAT", "text")),
		APIPort:            s.get("API_PORT", "9000"),
		QdrantURL:          s.get("QDRANT_URL", ""),
		IndexDBPath:        s.get("INDEX_DB_PATH", "./data/zotero-bridge-index.db"),
		QdrantCollection:   s.get("QDRANT_COLLECTION", "zotero_items"),
		EmbeddingBaseURL:   s.get("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: s.get("EMBEDDING_MODEL_NAME", "nomic-embed-text"),
		EmbeddingAPIKey:    s.get("EMBEDDING_API_KEY", ""),
	}

	level, err := parseLevel(s.get("LOG_LEVEL", "info"))
	if err != nil {
		s.problem("%v", err)
	}
	cfg.LogLevel = level

	switch cfg.Mode {
	case ModeRemote:
		validateRemote(s, cfg)
	case ModeLocal:
		validateLocal(s, cfg)
	default:
		s.problem("ZOTERO_MODE must be %q or %q, got %q", ModeRemote, ModeLocal, cfg.Mode)
	}

	if cfg.DefaultLimit <= 0 {
		s.problem("ZOTERO_DEFAULT_LIMIT must be greater than 0")
	}
	if cfg.MaxLimit <= 0 {
		s.problem("ZOTERO_MAX_LIMIT must be greater than 0")
	}
	if cfg.DefaultLimit > cfg.MaxLimit && cfg.MaxLimit > 0 {
		s.problem("ZOTERO_DEFAULT_LIMIT (%d) must not exceed ZOTERO_MAX_LIMIT (%d)", cfg.DefaultLimit, cfg.MaxLimit)
	}
	if cfg.CacheEnabled && cfg.CacheTTL <= 0 {
		s.problem("ZOTERO_CACHE_TTL must be positive when caching is enabled")
	}
	if cfg.MaxFullTextLength < 0 {
		s.problem("ZOTERO_MAX_FULLTEXT_LENGTH must not be negative")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		s.problem("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if cfg.QdrantURL != "" {
		// Must match the output size of the embeddings model.
		cfg.QdrantVectorSize = s.getInt("QDRANT_VECTOR_SIZE", 0)
		if cfg.QdrantVectorSize <= 0 {
			s.problem("QDRANT_VECTOR_SIZE is required and must be greater than 0 when QDRANT_URL is set")
		}
	}

	if len(s.problems) > 0 {
		return nil, &ValidationError{Problems: s.problems}
	}
	return cfg, nil
}

func validateRemote(s *source, cfg *Config) {
	if cfg.APIKey == "" {
		s.problem("ZOTERO_API_KEY is required in remote mode")
	}
	switch {
	case cfg.UserID == "" && cfg.GroupID == "":
		s.problem("one of ZOTERO_USER_ID or ZOTERO_GROUP_ID is required in remote mode")
	case cfg.UserID != "" && cfg.GroupID != "":
		s.problem("ZOTERO_USER_ID and ZOTERO_GROUP_ID are mutually exclusive")
	}
	checkNumeric(s, "ZOTERO_USER_ID", cfg.UserID)
	checkNumeric(s, "ZOTERO_GROUP_ID", cfg.GroupID)
	if !strings.HasPrefix(cfg.APIBaseURL, "http://") && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		s.problem("ZOTERO_API_BASE_URL must be an http(s) URL, got %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout <= 0 {
		s.problem("ZOTERO_HTTP_TIMEOUT must be positive")
	}
}

func validateLocal(s *source, cfg *Config) {
	checkNumeric(s, "ZOTERO_GROUP_ID", cfg.GroupID)
	if cfg.DataDir == "" {
		cfg.DataDir = detectDataDir(s.home, s.goos, fileExists)
	}
	if cfg.DataDir == "" {
		s.problem("ZOTERO_DATA_DIR is not set and no Zotero data directory was found")
		return
	}
	info, err := os.Stat(cfg.DataDir)
	if err != nil || !info.IsDir() {
		s.problem("ZOTERO_DATA_DIR %q is not a directory", cfg.DataDir)
	}
}

func checkNumeric(s *source, key, value string) {
	if value == "" {
		return
	}
	if _, err := strconv.ParseUint(value, 10, 64); err != nil {
		s.problem("%s must be numeric, got %q", key, value)
	}
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", raw)
	}
	return level, nil
}

// fileKey maps an environment variable name to its YAML key:
// ZOTERO_API_KEY -> api_key, LOG_LEVEL -> log_level.
func fileKey(envKey string) string {
	return strings.ToLower(strings.TrimPrefix(envKey, "ZOTERO_"))
}

// readFile loads a flat YAML mapping of settings. An empty path yields no values.
func readFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	values := make(map[string]string, len(doc))
	for k, v := range doc {
		if v == nil {
			continue
		}
		values[strings.ToLower(k)] = fmt.Sprint(v)
	}
	return values, nil
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") && home != "" {
		return filepath.Join(home, path[2:])
	}
	return path
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
