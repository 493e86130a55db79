package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"zotero-bridge/internal/backend/local"
	"zotero-bridge/internal/backend/remote"
	"zotero-bridge/internal/config"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		check   func(t *testing.T, b Backend)
		wantErr string
		wantIs  error
	}{
		{
			name: "remote user library",
			cfg: config.Config{
				Mode:        config.ModeRemote,
				APIKey:      "secret",
				UserID:      "12345",
				APIBaseURL:  "http://127.0.0.1:1",
				HTTPTimeout: time.Second,
			},
			check: func(t *testing.T, b Backend) {
				client, ok := b.(*remote.Client)
				if !ok {
					t.Fatalf("Open() returned %T, want *remote.Client", b)
				}
				if client.BaseURL != "http://127.0.0.1:1" {
					t.Errorf("BaseURL = %q", client.BaseURL)
				}
			},
		},
		{
			name:    "remote without key",
			cfg:     config.Config{Mode: config.ModeRemote, UserID: "12345"},
			wantErr: "api key is required",
		},
		{
			name:    "local with missing database",
			cfg:     config.Config{Mode: config.ModeLocal, DataDir: "/nonexistent/zotero"},
			wantIs:  local.ErrStoreUnavailable,
			wantErr: "zotero.sqlite",
		},
		{
			name:    "unknown mode",
			cfg:     config.Config{Mode: "carrier-pigeon"},
			wantErr: `unknown mode "carrier-pigeon"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Open(context.Background(), &tt.cfg, Options{})

			if tt.wantErr != "" || tt.wantIs != nil {
				if err == nil {
					_ = b.Close()
					t.Fatal("Open() expected error, got nil")
				}
				if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Open() error = %v, want it to contain %q", err, tt.wantErr)
				}
				if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
					t.Errorf("Open() error = %v, want errors.Is %v", err, tt.wantIs)
				}
				return
			}

			if err != nil {
				t.Fatalf("Open() unexpected error: %v", err)
			}
			defer func() {
				_ = b.Close()
			}()
			tt.check(t, b)
		})
	}
}
