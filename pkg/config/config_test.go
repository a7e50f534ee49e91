package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/organizator/organizator/pkg/rbac"
	"github.com/organizator/organizator/pkg/storage"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ORGANIZATOR_POSTGRES_URL", "postgres://localhost/organizator")
	t.Setenv("ORGANIZATOR_FILESTORE_ROOT", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.HealthPort != "9090" {
		t.Errorf("Server.HealthPort = %q, want 9090", cfg.Server.HealthPort)
	}
	if cfg.Storage.Type != "filesystem" {
		t.Errorf("Storage.Type = %q, want filesystem", cfg.Storage.Type)
	}
	if cfg.Security.RootUserID != 1 {
		t.Errorf("Security.RootUserID = %d, want 1", cfg.Security.RootUserID)
	}
	if cfg.Security.MaxConcurrentHashes != 4 {
		t.Errorf("Security.MaxConcurrentHashes = %d, want 4", cfg.Security.MaxConcurrentHashes)
	}
	if !cfg.Security.SecureCookies {
		t.Error("Security.SecureCookies = false, want true")
	}
	if cfg.Audit.RetentionDays != 90 {
		t.Errorf("Audit.RetentionDays = %d, want 90", cfg.Audit.RetentionDays)
	}
	if cfg.AccessPolicy != DefaultAccessPolicy() {
		t.Errorf("AccessPolicy = %+v, want defaults", cfg.AccessPolicy)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ORGANIZATOR_POSTGRES_URL", "postgres://db1/organizator")
	t.Setenv("ORGANIZATOR_FILESTORE_ROOT", t.TempDir())
	t.Setenv("ORGANIZATOR_PORT", "8181")
	t.Setenv("ORGANIZATOR_ROOT_USER_ID", "7")
	t.Setenv("ORGANIZATOR_SECURE_COOKIES", "false")
	t.Setenv("ORGANIZATOR_LOGIN_WINDOW", "5m")
	t.Setenv("ORGANIZATOR_SHUTDOWN_TIMEOUT", "45s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8181" {
		t.Errorf("Server.Port = %q, want 8181", cfg.Server.Port)
	}
	if cfg.Security.RootUserID != 7 {
		t.Errorf("Security.RootUserID = %d, want 7", cfg.Security.RootUserID)
	}
	if cfg.Security.SecureCookies {
		t.Error("Security.SecureCookies = true, want false")
	}
	if cfg.Security.LoginWindow != 5*time.Minute {
		t.Errorf("Security.LoginWindow = %v, want 5m", cfg.Security.LoginWindow)
	}
	if cfg.Server.ShutdownTimeout != 45*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 45s", cfg.Server.ShutdownTimeout)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		storageCfg := storage.DefaultConfig()
		storageCfg.PostgresURL = "postgres://localhost/organizator"
		return &Config{
			Server:  ServerConfig{Port: "8080", HealthPort: "9090"},
			Storage: storageCfg,
			Security: SecurityConfig{
				RootUserID:          1,
				MaxConcurrentHashes: 4,
			},
			AccessPolicy: DefaultAccessPolicy(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "same server and health port",
			mutate:  func(c *Config) { c.Server.HealthPort = c.Server.Port },
			wantErr: true,
		},
		{
			name:    "missing postgres URL",
			mutate:  func(c *Config) { c.Storage.PostgresURL = "" },
			wantErr: true,
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *Config) { c.Storage.Type = "tape" },
			wantErr: true,
		},
		{
			name: "s3 requires bucket",
			mutate: func(c *Config) {
				c.Storage.Type = "s3"
				c.Storage.S3Bucket = ""
			},
			wantErr: true,
		},
		{
			name:    "zero root user id",
			mutate:  func(c *Config) { c.Security.RootUserID = 0 },
			wantErr: true,
		},
		{
			name:    "zero hash concurrency",
			mutate:  func(c *Config) { c.Security.MaxConcurrentHashes = 0 },
			wantErr: true,
		},
		{
			name: "login limiting without window",
			mutate: func(c *Config) {
				c.Security.LoginAttemptsPerWindow = 10
				c.Security.LoginWindow = 0
			},
			wantErr: true,
		},
		{
			name: "otel enabled without endpoint",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelEndpoint = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAccessPolicy(t *testing.T) {
	writePolicy := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "policy.yaml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		return path
	}

	t.Run("overrides named levels", func(t *testing.T) {
		path := writePolicy(t, "memo:\n  read: write\nfile:\n  write: admin\n")

		policy, err := LoadAccessPolicy(path)
		if err != nil {
			t.Fatalf("LoadAccessPolicy() error = %v", err)
		}

		if policy.MemoRead != rbac.LevelWrite {
			t.Errorf("MemoRead = %v, want %v", policy.MemoRead, rbac.LevelWrite)
		}
		if policy.MemoWrite != rbac.LevelWrite {
			t.Errorf("MemoWrite = %v, want default %v", policy.MemoWrite, rbac.LevelWrite)
		}
		if policy.FileWrite != rbac.LevelAdmin {
			t.Errorf("FileWrite = %v, want %v", policy.FileWrite, rbac.LevelAdmin)
		}
		if policy.FileRead != rbac.LevelRead {
			t.Errorf("FileRead = %v, want default %v", policy.FileRead, rbac.LevelRead)
		}
	})

	t.Run("unknown level name rejected", func(t *testing.T) {
		path := writePolicy(t, "memo:\n  read: superuser\n")
		if _, err := LoadAccessPolicy(path); err == nil {
			t.Error("LoadAccessPolicy() with unknown level succeeded")
		}
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		path := writePolicy(t, "memo: [unclosed")
		if _, err := LoadAccessPolicy(path); err == nil {
			t.Error("LoadAccessPolicy() with malformed yaml succeeded")
		}
	})

	t.Run("missing file rejected", func(t *testing.T) {
		if _, err := LoadAccessPolicy(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("LoadAccessPolicy() with missing file succeeded")
		}
	})
}
