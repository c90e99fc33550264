package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedTab configures one feed source tab: the tab type is derived from
// the name and every URL is fetched through the CORS relay.
type FeedTab struct {
	Name string   `yaml:"name"`
	Icon string   `yaml:"icon"`
	URLs []string `yaml:"urls"`
}

// Config holds every tunable of the daemon. Values load from YAML and
// can be overridden through environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		Paprika struct {
			RestURL         string `yaml:"rest_url"`
			PollIntervalSec int    `yaml:"poll_interval_sec"`
			TopLimit        int    `yaml:"top_limit"`
		} `yaml:"paprika"`
		Coincap struct {
			WSURL  string `yaml:"ws_url"`
			Assets string `yaml:"assets"`
		} `yaml:"coincap"`
		Compare struct {
			WSURL    string   `yaml:"ws_url"`
			Exchange string   `yaml:"exchange"`
			Pairs    []string `yaml:"pairs"` // "BTC~USD" style
		} `yaml:"compare"`
		Social struct {
			URL             string `yaml:"url"`
			PollIntervalSec int    `yaml:"poll_interval_sec"`
		} `yaml:"social"`
	} `yaml:"api"`

	Feeds struct {
		Proxy         string    `yaml:"proxy"`
		RefetchSec    int       `yaml:"refetch_sec"`
		NewWindowSec  int       `yaml:"new_window_sec"`
		Tabs          []FeedTab `yaml:"tabs"`
		DisplayLimit  int       `yaml:"display_limit"`
		SearchMinimum int       `yaml:"search_minimum"`
	} `yaml:"feeds"`

	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns the configuration matching the public upstream
// services the dashboard was built against.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "cc-stream"
	cfg.App.Version = "1.0.0"

	cfg.API.Paprika.RestURL = "https://api.coinpaprika.com/v1"
	cfg.API.Paprika.PollIntervalSec = 60
	cfg.API.Paprika.TopLimit = 100

	cfg.API.Coincap.WSURL = "wss://ws.coincap.io/prices"
	cfg.API.Coincap.Assets = "ALL"

	cfg.API.Compare.WSURL = "wss://streamer.cryptocompare.com/v2"
	cfg.API.Compare.Exchange = "CCCAGG"
	cfg.API.Compare.Pairs = []string{"BTC~USD", "ETH~USD", "XRP~USD"}

	cfg.API.Social.URL = "http://localhost:8090/coinsdata.json"
	cfg.API.Social.PollIntervalSec = 300

	cfg.Feeds.RefetchSec = 300
	cfg.Feeds.NewWindowSec = 86400
	cfg.Feeds.DisplayLimit = 30
	cfg.Feeds.SearchMinimum = 2

	cfg.Server.ListenAddr = ":8080"
	cfg.Logging.Level = "info"
	return cfg
}

// LoadConfig reads the YAML config at path on top of the defaults.
// A missing file is not an error: defaults plus env overrides apply.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to defaults
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.Paprika.RestURL, "http://") && !strings.HasPrefix(c.API.Paprika.RestURL, "https://") {
		return fmt.Errorf("invalid paprika REST URL: %s", c.API.Paprika.RestURL)
	}
	if !isWSURL(c.API.Coincap.WSURL) {
		return fmt.Errorf("invalid coincap WS URL: %s", c.API.Coincap.WSURL)
	}
	if !isWSURL(c.API.Compare.WSURL) {
		return fmt.Errorf("invalid compare WS URL: %s", c.API.Compare.WSURL)
	}
	if c.API.Paprika.PollIntervalSec <= 0 {
		return fmt.Errorf("paprika poll interval must be positive")
	}
	if c.API.Paprika.TopLimit <= 0 {
		return fmt.Errorf("paprika top limit must be positive")
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}
	for _, tab := range c.Feeds.Tabs {
		if tab.Name == "" {
			return fmt.Errorf("feed tab without a name")
		}
	}
	return nil
}

func isWSURL(u string) bool {
	return strings.HasPrefix(u, "ws://") || strings.HasPrefix(u, "wss://")
}

// overrideWithEnv applies environment overrides on top of file values.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("CCSTREAM_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("CCSTREAM_PAPRIKA_URL"); v != "" {
		cfg.API.Paprika.RestURL = v
	}
	if v := os.Getenv("CCSTREAM_SOCIAL_URL"); v != "" {
		cfg.API.Social.URL = v
	}
	if v := os.Getenv("CCSTREAM_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("CCSTREAM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
