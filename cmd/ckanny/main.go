package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ckanutils/ckansync/internal/ckan"
	"github.com/ckanutils/ckansync/internal/config"
	"github.com/ckanutils/ckansync/internal/utils"
	"github.com/ckanutils/ckansync/internal/version"
)

const configFileName = "config"

var rootCmd = &cobra.Command{
	Use:     "ckanny",
	Short:   "Miscellaneous CKAN datastore scripts",
	Version: version.Detailed(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		setupLogging(viper.GetBool("quiet"))
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.SortFlags = false
	pf.StringP("remote", "r", "", "remote CKAN url (uses CKAN_REMOTE_URL env if available)")
	pf.StringP("api-key", "k", "", "CKAN API key (uses CKAN_API_KEY env if available)")
	pf.StringP("ua", "u", version.UserAgent(), "user agent (uses CKAN_USER_AGENT env if available)")
	pf.StringP("hash-table-id", "H", "", "hash table resource id (uses CKAN_HASH_TABLE_ID env if available)")
	pf.StringP("config", "c", config.DefaultConfigPath, "ckanny config file")
	pf.BoolP("quiet", "q", false, "suppress debug statements")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func setupLogging(quiet bool) {
	level := slog.LevelDebug
	if quiet {
		level = slog.LevelWarn
	}

	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(handler))
}

func loadConfig(cmd *cobra.Command) error {
	// config path
	if cmd.Flags().Changed("config") {
		raw, _ := cmd.Flags().GetString("config")
		configFilePath, err := utils.ResolvePath(raw)
		if err != nil {
			return err
		}
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home(), ".ckanny"))
		viper.AddConfigPath(filepath.Join(home(), ".config/ckanny"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return err
		}
	}

	viper.BindPFlag("remote", cmd.Flags().Lookup("remote"))
	viper.BindPFlag("api_key", cmd.Flags().Lookup("api-key"))
	viper.BindPFlag("user_agent", cmd.Flags().Lookup("ua"))
	viper.BindPFlag("hash_table_id", cmd.Flags().Lookup("hash-table-id"))
	viper.BindPFlag("quiet", cmd.Flags().Lookup("quiet"))

	// CKAN_REMOTE_URL, CKAN_API_KEY, CKAN_USER_AGENT, CKAN_HASH_TABLE_ID
	viper.SetEnvPrefix("CKAN")
	viper.BindEnv("remote", "CKAN_REMOTE_URL")
	viper.AutomaticEnv()

	return nil
}

func home() string {
	h, _ := os.UserHomeDir()
	return h
}

// configFromViper builds the effective config after flag/env/file merging.
func configFromViper() *config.Config {
	cfg := &config.Config{
		Path:        viper.ConfigFileUsed(),
		Remote:      viper.GetString("remote"),
		APIKey:      viper.GetString("api_key"),
		UserAgent:   viper.GetString("user_agent"),
		HashTableID: viper.GetString("hash_table_id"),
		ChunkBytes:  viper.GetInt("chunk_bytes"),
		ChunkRows:   viper.GetInt("chunk_rows"),
		DataDir:     viper.GetString("data_dir"),
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}
	if cfg.DataDir == "" {
		cfg.DataDir = config.DefaultDataDir
	}
	return cfg
}

// newClient validates the config and builds the CKAN client.
func newClient(cfg *config.Config) (*ckan.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return ckan.New(&ckan.Config{
		Remote:    cfg.Remote,
		APIKey:    cfg.APIKey,
		UserAgent: cfg.UserAgent,
	})
}
