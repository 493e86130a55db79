package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envVars = []string{
	"ZOTERO_MODE", "ZOTERO_API_KEY", "ZOTERO_USER_ID", "ZOTERO_GROUP_ID",
	"ZOTERO_API_BASE_URL", "ZOTERO_DATA_DIR", "ZOTERO_DEFAULT_LIMIT",
	"ZOTERO_MAX_LIMIT", "ZOTERO_CACHE_ENABLED", "ZOTERO_CACHE_TTL",
	"ZOTERO_PDF_EXTRACTION", "ZOTERO_MAX_FULLTEXT_LENGTH", "ZOTERO_HTTP_TIMEOUT",
	"ZOTERO_CONFIG", "LOG_LEVEL", "LOG_FORMAT", "API_PORT",
	"QDRANT_URL", "QDRANT_COLLECTION", "INDEX_DB_PATH", "QDRANT_VECTOR_SIZE",
	"EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME", "EMBEDDING_API_KEY",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		file         map[string]string
		wantErr      bool
		wantProblems []string
		checkConfig  func(*Config) bool
	}{
		{
			name: "remote with user id",
			env: map[string]string{
				"ZOTERO_API_KEY": "secret",
				"ZOTERO_USER_ID": "12345",
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.Mode == ModeRemote &&
					cfg.APIKey == "secret" &&
					cfg.UserID == "12345" &&
					cfg.APIBaseURL == "https://api.zotero.org" &&
					cfg.DefaultLimit == 25 &&
					cfg.MaxLimit == 100 &&
					cfg.CacheEnabled &&
					cfg.CacheTTL == 5*time.Minute &&
					cfg.PDFExtraction &&
					cfg.MaxFullTextLength == 100000
			},
		},
		{
			name:    "remote missing everything reports all problems at once",
			env:     map[string]string{"ZOTERO_MODE": "remote"},
			wantErr: true,
			wantProblems: []string{
				"ZOTERO_API_KEY is required",
				"one of ZOTERO_USER_ID or ZOTERO_GROUP_ID is required",
			},
		},
		{
			name: "remote with both ids",
			env: map[string]string{
				"ZOTERO_API_KEY":  "secret",
				"ZOTERO_USER_ID":  "1",
				"ZOTERO_GROUP_ID": "2",
			},
			wantErr:      true,
			wantProblems: []string{"mutually exclusive"},
		},
		{
			name: "non-numeric user id and bad limits",
			env: map[string]string{
				"ZOTERO_API_KEY":       "secret",
				"ZOTERO_USER_ID":       "abc",
				"ZOTERO_DEFAULT_LIMIT": "500",
				"ZOTERO_MAX_LIMIT":     "100",
			},
			wantErr: true,
			wantProblems: []string{
				"ZOTERO_USER_ID must be numeric",
				"must not exceed ZOTERO_MAX_LIMIT",
			},
		},
		{
			name:         "unknown mode",
			env:          map[string]string{"ZOTERO_MODE": "hybrid"},
			wantErr:      true,
			wantProblems: []string{"ZOTERO_MODE must be"},
		},
		{
			name: "cache ttl in seconds",
			env: map[string]string{
				"ZOTERO_API_KEY":   "secret",
				"ZOTERO_GROUP_ID":  "99",
				"ZOTERO_CACHE_TTL": "90",
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.CacheTTL == 90*time.Second && cfg.GroupID == "99"
			},
		},
		{
			name: "invalid integers and booleans",
			env: map[string]string{
				"ZOTERO_API_KEY":        "secret",
				"ZOTERO_USER_ID":        "1",
				"ZOTERO_MAX_LIMIT":      "many",
				"ZOTERO_CACHE_ENABLED":  "maybe",
				"ZOTERO_PDF_EXTRACTION": "sure",
			},
			wantErr: true,
			wantProblems: []string{
				"ZOTERO_MAX_LIMIT must be a valid integer",
				"ZOTERO_CACHE_ENABLED must be true or false",
				"ZOTERO_PDF_EXTRACTION must be true or false",
			},
		},
		{
			name: "qdrant requires vector size",
			env: map[string]string{
				"ZOTERO_API_KEY": "secret",
				"ZOTERO_USER_ID": "1",
				"QDRANT_URL":     "http://localhost:6333",
			},
			wantErr:      true,
			wantProblems: []string{"QDRANT_VECTOR_SIZE is required"},
		},
		{
			name: "file values fill gaps and env wins",
			env: map[string]string{
				"ZOTERO_USER_ID": "7",
			},
			file: map[string]string{
				"api_key":   "from-file",
				"user_id":   "8",
				"max_limit": "50",
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.APIKey == "from-file" && cfg.UserID == "7" && cfg.MaxLimit == 50
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := resolve(&source{file: tt.file, home: t.TempDir(), goos: "linux"})

			if tt.wantErr {
				if err == nil {
					t.Fatal("resolve() expected error, got nil")
				}
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("resolve() error type = %T, want *ValidationError", err)
				}
				for _, want := range tt.wantProblems {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("resolve() error %q does not mention %q", err.Error(), want)
					}
				}
				return
			}

			if err != nil {
				t.Fatalf("resolve() unexpected error: %v", err)
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("resolve() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestResolve_LocalMode(t *testing.T) {
	clearEnv(t)

	dataDir := t.TempDir()
	t.Setenv("ZOTERO_MODE", "local")
	t.Setenv("ZOTERO_DATA_DIR", dataDir)

	cfg, err := resolve(&source{home: t.TempDir(), goos: "linux"})
	if err != nil {
		t.Fatalf("resolve() unexpected error: %v", err)
	}
	if cfg.Mode != ModeLocal {
		t.Errorf("Mode = %v, want local", cfg.Mode)
	}
	if cfg.DatabasePath() != filepath.Join(dataDir, DatabaseFile) {
		t.Errorf("DatabasePath() = %v", cfg.DatabasePath())
	}
	if cfg.APIKey != "" {
		t.Error("local mode should not invent an API key")
	}
}

func TestResolve_LocalModeMissingDir(t *testing.T) {
	clearEnv(t)

	t.Setenv("ZOTERO_MODE", "local")
	t.Setenv("ZOTERO_DATA_DIR", filepath.Join(t.TempDir(), "nope"))

	_, err := resolve(&source{home: t.TempDir(), goos: "linux"})
	if err == nil {
		t.Fatal("resolve() expected error for missing data dir")
	}
	if !strings.Contains(err.Error(), "is not a directory") {
		t.Errorf("resolve() error = %v", err)
	}
}

func TestResolve_LocalModeAutoDetect(t *testing.T) {
	clearEnv(t)

	home := t.TempDir()
	dataDir := filepath.Join(home, "Zotero")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, DatabaseFile), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ZOTERO_MODE", "local")

	cfg, err := resolve(&source{home: home, goos: "darwin"})
	if err != nil {
		t.Fatalf("resolve() unexpected error: %v", err)
	}
	if cfg.DataDir != dataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dataDir)
	}
}

func TestDetectDataDir(t *testing.T) {
	home := "/home/ada"
	snap := filepath.Join(home, "snap", "zotero-snap", "common", "Zotero")

	tests := []struct {
		name   string
		goos   string
		exists map[string]bool
		want   string
	}{
		{
			name: "default when nothing exists",
			goos: "linux",
			want: filepath.Join(home, "Zotero"),
		},
		{
			name:   "snap install on linux",
			goos:   "linux",
			exists: map[string]bool{filepath.Join(snap, DatabaseFile): true},
			want:   snap,
		},
		{
			name:   "snap path ignored on darwin",
			goos:   "darwin",
			exists: map[string]bool{filepath.Join(snap, DatabaseFile): true},
			want:   filepath.Join(home, "Zotero"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectDataDir(home, tt.goos, func(p string) bool { return tt.exists[p] })
			if got != tt.want {
				t.Errorf("detectDataDir() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("appdata profile on windows", func(t *testing.T) {
		appData := filepath.Join("C:", "Users", "ada", "AppData", "Roaming")
		t.Setenv("APPDATA", appData)
		t.Setenv("USERPROFILE", "")
		want := filepath.Join(appData, "Zotero", "Zotero")

		got := detectDataDir(home, "windows", func(p string) bool { return p == filepath.Join(want, DatabaseFile) })
		if got != want {
			t.Errorf("detectDataDir() = %q, want %q", got, want)
		}
		if got := detectDataDir(home, "linux", func(p string) bool { return p == filepath.Join(want, DatabaseFile) }); got != filepath.Join(home, "Zotero") {
			t.Errorf("detectDataDir() on linux = %q, want default", got)
		}
	})

	if got := detectDataDir("", "linux", fileExists); got != "" {
		t.Errorf("detectDataDir() without home = %q, want empty", got)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "mode: local\nmax_limit: 40\ncache_enabled: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	values, err := readFile(path)
	if err != nil {
		t.Fatalf("readFile() error = %v", err)
	}
	if values["mode"] != "local" || values["max_limit"] != "40" || values["cache_enabled"] != "false" {
		t.Errorf("readFile() = %v", values)
	}

	if _, err := readFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("readFile() expected error for missing file")
	}

	if values, err := readFile(""); err != nil || values != nil {
		t.Errorf("readFile(\"\") = (%v, %v), want (nil, nil)", values, err)
	}
}

func TestFileKey(t *testing.T) {
	tests := map[string]string{
		"ZOTERO_API_KEY": "api_key",
		"LOG_LEVEL":      "log_level",
		"QDRANT_URL":     "qdrant_url",
	}
	for in, want := range tests {
		if got := fileKey(in); got != want {
			t.Errorf("fileKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLibraryScope(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"user library", Config{Mode: ModeRemote, UserID: "12345"}, "users/12345"},
		{"group library", Config{Mode: ModeRemote, UserID: "12345", GroupID: "99"}, "groups/99"},
		{"local library", Config{Mode: ModeLocal, DataDir: "/home/me/Zotero"}, "local/1"},
		{"local group library", Config{Mode: ModeLocal, DataDir: "/home/me/Zotero", GroupID: "99"}, "local/groups/99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.LibraryScope(); got != tt.want {
				t.Errorf("LibraryScope() = %q, want %q", got, tt.want)
			}
		})
	}
}
