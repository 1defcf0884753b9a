// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-assistant CLI, a
// terminal host for the research assistant: one-shot searches, chat
// sessions, provider profiles, and saved conversations.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the research-assistant CLI.
var rootCmd = &cobra.Command{
	Use:   "research-assistant",
	Short: "Multi-provider research from the terminal",
	Long: `research-assistant sends research queries to Gemini, Perplexity, Tavily,
or Exa and renders the answers as Markdown with sources.

Use search for a one-shot query, chat for a conversation that keeps
context between turns, profile to inspect or tune per-mode provider
parameters, and conversations to list, search, or export saved chats.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-assistant.yaml or ~/.config/research-assistant/config.yaml)")
	rootCmd.PersistentFlags().String("provider", "", "provider for this run: gemini, perplexity, tavily, exa")
	rootCmd.PersistentFlags().String("mode", "", "research mode for this run: quick, comprehensive, deep, reasoning, video")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-assistant")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-assistant"))
		}
	}

	setDefaults(types.DefaultConfig())
	viper.SetEnvPrefix("RESEARCH_ASSISTANT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so that environment variables
// reach viper.Unmarshal.
func setDefaults(cfg types.Config) {
	viper.SetDefault("http.timeout", cfg.HTTP.Timeout)
	viper.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	viper.SetDefault("endpoints.gemini", cfg.Endpoints.Gemini)
	viper.SetDefault("endpoints.perplexity", cfg.Endpoints.Perplexity)
	viper.SetDefault("endpoints.tavily", cfg.Endpoints.Tavily)
	viper.SetDefault("endpoints.exa", cfg.Endpoints.Exa)
	viper.SetDefault("log.level", cfg.Log.Level)
	viper.SetDefault("log.format", cfg.Log.Format)
	viper.SetDefault("log.output", cfg.Log.Output)
	viper.SetDefault("log.file.filename", cfg.Log.File.Filename)
	viper.SetDefault("log.file.max_size", cfg.Log.File.MaxSize)
	viper.SetDefault("log.file.max_age", cfg.Log.File.MaxAge)
	viper.SetDefault("log.file.max_backups", cfg.Log.File.MaxBackups)
	viper.SetDefault("log.file.compress", cfg.Log.File.Compress)
	viper.SetDefault("settings_path", cfg.SettingsPath)
	viper.SetDefault("database_path", cfg.DatabasePath)
	viper.SetDefault("vault_dir", cfg.VaultDir)
	viper.SetDefault("secrets_dir", cfg.SecretsDir)
	viper.SetDefault("env_file", ".env")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
