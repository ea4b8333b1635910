package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	Bind string `json:"bind"` // listen address
	Port string `json:"port"` // listen port

	AuthToken string `json:"auth_token"` // static bearer token for uploads

	WpaSecURL string `json:"wpasec_url"` // cracking-results endpoint base
	WpaSecKey string `json:"wpasec_key"` // cracking-results API key

	DataDir      string `json:"data_dir"`       // capture pair storage root
	DBPath       string `json:"db_path"`        // sqlite database file
	VendorOUICSV string `json:"vendor_oui_csv"` // OUI prefix table
	FrontendDir  string `json:"frontend_dir"`   // static web assets

	ConverterCommand string        `json:"converter_command"` // capture-to-hash tool
	ConverterTimeout time.Duration `json:"converter_timeout"`

	Verbose bool `json:"verbose"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() Config {
	return Config{
		Bind:             "0.0.0.0",
		Port:             "8000",
		WpaSecURL:        "https://wpa-sec.stanev.org",
		DataDir:          "data",
		DBPath:           filepath.Join("data", "pwnamap.db"),
		VendorOUICSV:     filepath.Join("data", "meta", "vendor_oui.csv"),
		FrontendDir:      "frontend",
		ConverterCommand: "hcxpcapngtool",
		ConverterTimeout: 60 * time.Second,
	}
}

// LoadFile loads configuration from a JSON file over the defaults.
func LoadFile(filePath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return cfg, err
	}

	err = json.Unmarshal(data, &cfg)
	return cfg, err
}

// ApplyEnv overlays PWNAMAP_* environment variables onto cfg. A .env
// file in the working directory is honored when present, matching the
// original deployment convention.
func ApplyEnv(cfg Config) Config {
	_ = godotenv.Load()

	setStr := func(dst *string, key string) {
		if v, ok := os.LookupEnv("PWNAMAP_" + key); ok && v != "" {
			*dst = v
		}
	}
	setStr(&cfg.Bind, "SERVER_BIND")
	setStr(&cfg.Port, "SERVER_PORT")
	setStr(&cfg.AuthToken, "AUTH_TOKEN")
	setStr(&cfg.WpaSecURL, "WPASEC_URL")
	setStr(&cfg.WpaSecKey, "WPASEC_KEY")
	setStr(&cfg.DataDir, "DATA_DIR")
	setStr(&cfg.DBPath, "DB_PATH")
	setStr(&cfg.VendorOUICSV, "VENDOR_OUI_CSV")
	setStr(&cfg.FrontendDir, "FRONTEND_DIR")
	setStr(&cfg.ConverterCommand, "CONVERTER_COMMAND")

	if v, ok := os.LookupEnv("PWNAMAP_CONVERTER_TIMEOUT_SEC"); ok {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.ConverterTimeout = time.Duration(secs) * time.Second
		}
	}
	return cfg
}

// EnsureDirs creates the directories the configuration points into.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, filepath.Dir(c.DBPath), filepath.Dir(c.VendorOUICSV)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
