// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/assistant"
	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/internal/logging"
	"github.com/pdiddy/research-assistant/internal/normalize"
	"github.com/pdiddy/research-assistant/internal/secrets"
	"github.com/pdiddy/research-assistant/internal/settings"
	"github.com/pdiddy/research-assistant/internal/store"
	"github.com/pdiddy/research-assistant/internal/vault"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// app is everything a command needs, built from the loaded configuration.
type app struct {
	cfg       types.Config
	logger    *zap.Logger
	assistant *assistant.Assistant
	store     *store.Store
	vault     vault.Dir
}

// loadConfig reads types.Config from viper.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("reading configuration: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

// newApp wires the assistant, its stores, and the logger. The caller must
// call close.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	keys, err := secrets.ProviderKeys(cfg.SecretsDir, viper.GetString("env_file"), logger)
	if err != nil {
		return nil, err
	}
	if len(keys) > 0 {
		names := make([]string, 0, len(keys))
		for _, p := range types.AllProviders() {
			if keys[p] != "" {
				names = append(names, string(p))
			}
		}
		logger.Info("loaded API keys", zap.Strings("providers", names))
	}

	db, err := store.NewStore(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	a, err := assistant.New(assistant.Options{
		Logger:        logger,
		Transport:     httputil.New(cfg.HTTP, logger),
		Endpoints:     cfg.Endpoints,
		SettingsStore: &settings.FileStore{Path: cfg.SettingsPath, Keys: keys},
		Conversations: db,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := applyOverrides(cmd, a); err != nil {
		db.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, assistant: a, store: db, vault: vault.Dir{Root: cfg.VaultDir}}, nil
}

func (a *app) close() {
	a.store.Close()
	a.logger.Sync()
}

// applyOverrides applies --provider and --mode for this run only.
func applyOverrides(cmd *cobra.Command, a *assistant.Assistant) error {
	provider, _ := cmd.Flags().GetString("provider")
	mode, _ := cmd.Flags().GetString("mode")
	if provider == "" && mode == "" {
		return nil
	}
	s := a.Settings()
	if provider != "" {
		s.Provider = types.ProviderID(provider)
	}
	if mode != "" {
		s.Mode = types.ResearchMode(mode)
	}
	return a.ApplySettings(s)
}

// printResult writes rendered output, highlighting error results.
func printResult(w io.Writer, out string) {
	if strings.HasPrefix(out, normalize.ErrorPrefix) {
		color.New(color.FgRed).Fprint(w, out)
		return
	}
	fmt.Fprint(w, out)
}
