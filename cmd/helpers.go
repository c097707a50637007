package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/meshmap/internal/config"
	"github.com/ziadkadry99/meshmap/internal/db"
	"github.com/ziadkadry99/meshmap/internal/graph"
	"github.com/ziadkadry99/meshmap/internal/logger"
	"github.com/ziadkadry99/meshmap/internal/scan"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `meshmap init` to create a config file", err)
	}
	return cfg, nil
}

// newLogger builds the process logger, honoring the --verbose flag.
func newLogger(cfg *config.Config) *zap.SugaredLogger {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logger.New(level, true)
}

// openStores opens the database and wires the feature stores over it.
// The caller owns closing the returned DB.
func openStores(cfg *config.Config) (*db.DB, *graph.Store, *scan.Store, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return database, graph.NewStore(database), scan.NewStore(database), nil
}

// newSource builds the local-checkout code source from the configured
// repository targets.
func newSource(cfg *config.Config) scan.Source {
	roots := make(map[string]string, len(cfg.Repos))
	for _, r := range cfg.Repos {
		roots[r.FullName] = r.Path
	}
	return scan.NewDirSource(roots, cfg.Include, cfg.Exclude, cfg.MaxFileSize)
}
