package config

import (
	"errors"

	"github.com/lastmod-cache/lastmod/store"

	"github.com/rs/zerolog/log"
)

// Config is the validated configuration value handed to the engine's owner.
// There is no ambient lookup anywhere: load it, validate it, pass it on.
type Config struct {
	// CachePath is the directory cached bodies are stored under.
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`
	// DB is the path to the sqlite metadata database. Required when UseETags
	// is set; optional otherwise (without it, body file modification times
	// are the validators).
	DB string `mapstructure:"db" yaml:"db"`
	// UseETags switches validation from Last-Modified to entity tags.
	UseETags bool `mapstructure:"use_etags" yaml:"use_etags"`

	// SizeLimit and ZipFormat are recognized for compatibility but not
	// implemented.
	SizeLimit int64  `mapstructure:"size_limit" yaml:"size_limit"`
	ZipFormat string `mapstructure:"zip_format" yaml:"zip_format"`
}

// Validate checks the option combination. ETag validation needs the metadata
// store, since a file modification time cannot hold an arbitrary tag string.
func (c Config) Validate() error {
	if c.CachePath == "" {
		return errors.New("cache_path is required")
	}
	if c.UseETags && c.DB == "" {
		return errors.New("use_etags requires db")
	}
	if c.SizeLimit != 0 {
		log.Warn().Int64("size_limit", c.SizeLimit).Msg("size_limit is not implemented, ignoring")
	}
	if c.ZipFormat != "" {
		log.Warn().Str("zip_format", c.ZipFormat).Msg("zip_format is not implemented, ignoring")
	}
	return nil
}

// OpenStore validates the configuration and builds the store it calls for.
func (c Config) OpenStore() (store.Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.DB != "" {
		return store.NewSQLiteStore(c.CachePath, c.DB)
	}
	return store.NewMtimeStore(c.CachePath)
}
