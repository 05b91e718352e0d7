package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Section is the INI section the options live in, matching the original
// lastmod tool's config files.
const Section = "lastmod"

// Load reads a config file. YAML files (.yml/.yaml) carry the options at the
// top level; anything else is read as INI with a [lastmod] section.
func Load(path string) (Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return loadYAML(path)
	default:
		return loadINI(path)
	}
}

func loadYAML(path string) (Config, error) {
	var config Config
	configBytes, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}

func loadINI(path string) (Config, error) {
	var config Config
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}
	section := v.Sub(Section)
	if section == nil {
		return config, fmt.Errorf("config has no [%s] section", Section)
	}
	if err := section.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}
