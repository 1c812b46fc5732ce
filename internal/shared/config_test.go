package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("Parses Valid File", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			content := `
[credentials.spotify]
client_id = "id"
client_secret = "secret"

[credentials.llm]
base_url = "https://api.example.com/v1"
api_key = "key"
model = "gpt-4o-mini"

[database]
path = "cratedig.db"

[server]
host = "127.0.0.1"
port = 9090

[discovery]
user_id = "me"
page_delay_ms = 150
token_floor = 1000
token_ceil = 4000
`
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			config, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Credentials.Spotify.ClientID != "id" {
				t.Errorf("spotify credentials lost: %+v", config.Credentials.Spotify)
			}
			if config.Credentials.LLM.Model != "gpt-4o-mini" {
				t.Errorf("llm settings lost: %+v", config.Credentials.LLM)
			}
			if config.Server.Port != 9090 {
				t.Errorf("expected port 9090, got %d", config.Server.Port)
			}
			if config.Discovery.PageDelayMS != 150 || config.Discovery.TokenCeil != 4000 {
				t.Errorf("discovery tuning lost: %+v", config.Discovery)
			}
		})

		t.Run("Missing File", func(t *testing.T) {
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
				t.Error("expected error for missing file")
			}
		})

		t.Run("Invalid TOML", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected parse error")
			}
		})
	})

	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()
		if config.Discovery.PageDelayMS <= 0 {
			t.Error("expected a positive default page delay")
		}
		if config.Discovery.TokenFloor <= 0 || config.Discovery.TokenCeil <= config.Discovery.TokenFloor {
			t.Errorf("token bounds misordered: %+v", config.Discovery)
		}
		if config.Database.Path == "" {
			t.Error("expected a default database path")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		t.Run("Creates Loadable File", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := CreateConfigFile(path); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, err := LoadConfig(path); err != nil {
				t.Errorf("created config does not load: %v", err)
			}
		})

		t.Run("Refuses Overwrite", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("existing"), 0644); err != nil {
				t.Fatalf("failed to seed file: %v", err)
			}
			if err := CreateConfigFile(path); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})
}
