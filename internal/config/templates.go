package config

import (
	"fmt"
	"os"

	gotoml "github.com/pelletier/go-toml/v2"
)

// Render encodes cfg as TOML.
func Render(cfg Config) ([]byte, error) {
	out, err := gotoml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("render icctl config: %w", err)
	}
	return out, nil
}

// Template returns the default configuration with local CORS origins filled
// in, ready to be edited.
func Template() ([]byte, error) {
	cfg := Default()
	cfg.Inspect.CorsOrigins = []string{"http://localhost:3000"}
	return Render(cfg)
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, template, 0o600)
}
