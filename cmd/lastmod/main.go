package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/lastmod-cache/lastmod/config"
	"github.com/lastmod-cache/lastmod/core"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// CLI flags
	configFlag         string
	cachePathFlag      string
	dbFlag             string
	useETagsFlag       bool
	allowStaleFlag     bool
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFlag, "c", "", "Path to INI or YAML config file")
	flag.StringVar(&cachePathFlag, "p", "", "Parent directory for cached payload files")
	flag.StringVar(&dbFlag, "d", "", "SQLite database for response metadata")
	flag.BoolVar(&useETagsFlag, "etags", false, "Validate with entity tags instead of Last-Modified (requires -d)")
	flag.BoolVar(&allowStaleFlag, "stale", false, "Serve the cached body if the origin is unreachable")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stderr)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.InfoLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stderr, leaving stdout for the body
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stderr})
	if logFilenameFlag != "" {
		logOutputs = append(logOutputs, &lumberjack.Logger{
			Filename:   logFilenameFlag,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		})
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	if flag.NArg() != 1 {
		log.Fatal().Msg("Please specify exactly one URL to fetch")
	}
	uri := flag.Arg(0)

	var cfg config.Config
	if configFlag != "" {
		loaded, err := config.Load(configFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not load config")
		}
		cfg = loaded
	}
	// flags override config file values
	if cachePathFlag != "" {
		cfg.CachePath = cachePathFlag
	}
	if dbFlag != "" {
		cfg.DB = dbFlag
	}
	if useETagsFlag {
		cfg.UseETags = true
	}

	cacheStore, err := cfg.OpenStore()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	manager := core.New(core.Config{
		Store:    cacheStore,
		UseETags: cfg.UseETags,
	})
	result, err := manager.Fetch(context.Background(), uri, &core.FetchOptions{
		AllowStale: allowStaleFlag,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Fetch failed")
	}
	log.Info().
		Int("status", result.StatusCode).
		Str("outcome", string(result.Outcome)).
		Msgf("Fetched %s", uri)

	if _, err := os.Stdout.Write(result.Body); err != nil {
		log.Fatal().Err(err).Msg("Could not write body")
	}
	if result.StatusCode >= 400 {
		os.Exit(1)
	}
}
