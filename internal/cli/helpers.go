package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/1rns/obsidian-math-booster/internal/index"
	"github.com/1rns/obsidian-math-booster/internal/pipeline"
	"github.com/1rns/obsidian-math-booster/internal/settings"
)

// settingsFilePath returns the vault-local settings file path.
func settingsFilePath(vaultPath string) string {
	return filepath.Join(vaultPath, index.VaultDir, "settings.yaml")
}

// openIndex opens the vault index. The rebuild lock is only taken by
// OpenWithRebuild, so plain opens have no lock failure mode.
func openIndex(vaultPath string) (*index.Database, error) {
	db, err := index.Open(vaultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return db, nil
}

// openStore loads the vault settings store. Malformed or unknown keys in
// settings.yaml are reported as warnings, never as failures.
func openStore(vaultPath string) (*settings.Store, error) {
	store, warnings, err := settings.Load(settingsFilePath(vaultPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if !jsonOutput {
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "warning: settings: %s\n", w)
		}
	}
	return store, nil
}

// newPipeline builds a pipeline for one-shot CLI use.
func newPipeline(vaultPath string, db *index.Database, store *settings.Store, logger *zap.Logger) *pipeline.Pipeline {
	return pipeline.New(pipeline.Config{
		VaultPath: vaultPath,
		Database:  db,
		Settings:  store,
		Logger:    logger,
	})
}

// newLogger builds a zap logger for long-running commands. Debug enables
// development output.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
