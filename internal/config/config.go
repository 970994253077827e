// internal/config/config.go
package conf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Główny config aplikacji
type Config struct {
	AutoStart           bool                       `json:"auto_start"`
	SyncIntervalSeconds int                        `json:"sync_interval_seconds"`
	Database            DatabaseConfig             `json:"database"`
	Integrations        map[string]json.RawMessage `json:"integrations"` // nazwa -> surowy JSON integracji
}

// DatabaseConfig — magazyn docelowy. Pusty driver = sqlite w katalogu aplikacji.
type DatabaseConfig struct {
	Driver string `json:"driver,omitempty"` // sqlite | mysql | postgres
	DSN    string `json:"dsn,omitempty"`
}

// Domyślny config integracji Poster (tylko do wygenerowania pierwszego JSON-a)
type PosterDefaults struct {
	BaseURL        string `json:"base_url"`
	Token          string `json:"token"`
	PollSec        int    `json:"poll_sec"`
	ChunkDays      int    `json:"chunk_days"`
	MaxPerChunk    int    `json:"max_per_chunk"`
	PushWebhookURL string `json:"push_webhook_url"`
}

func LoadOrCreate(path string) (*Config, bool, error) {
	// upewnij się, że katalog istnieje
	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// domyślny config
			poster := PosterDefaults{
				BaseURL:     "https://joinposter.com",
				Token:       "xxx",
				PollSec:     300,
				ChunkDays:   30,
				MaxPerChunk: 1000,
			}
			rawPoster, _ := json.Marshal(poster)

			cfg := &Config{
				AutoStart:           false,
				SyncIntervalSeconds: 60,
				Integrations: map[string]json.RawMessage{
					"poster": rawPoster,
				},
			}
			if err := Save(path, cfg); err != nil {
				return nil, false, fmt.Errorf("błąd zapisu domyślnego configa: %w", err)
			}
			return cfg, true, nil
		}
		return nil, false, fmt.Errorf("błąd otwierania configa: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, false, fmt.Errorf("błąd parsowania configa: %w", err)
	}
	if cfg.Integrations == nil {
		cfg.Integrations = map[string]json.RawMessage{}
	}
	return &cfg, false, nil
}

func Save(path string, cfg *Config) error {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// Helper do odczytu konkretnej integracji do struktury docelowej
func (c *Config) UnmarshalIntegration(name string, v any) error {
	raw, ok := c.Integrations[name]
	if !ok {
		return fmt.Errorf("brak integracji %q w configu", name)
	}
	return json.Unmarshal(raw, v)
}
