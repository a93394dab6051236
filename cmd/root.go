package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/reflecto/internal/api"
	"github.com/fakeyudi/reflecto/internal/config"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// Flag overrides. Applied on top of the merged config files.
var (
	flagAPIBase string
	flagHost    string
	flagUser    string
	flagAvatar  string
)

var rootCmd = &cobra.Command{
	Use:   "reflecto",
	Short: "Terminal client for guided reflection sessions",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The mock server needs no client configuration.
		if cmd.Name() == "mock" {
			return nil
		}

		// Load and merge config files.
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)

		// Flags win over files.
		if flagAPIBase != "" {
			cfg.APIBase = flagAPIBase
		}
		if flagHost != "" {
			cfg.Host = flagHost
		}
		if flagUser != "" {
			cfg.UserID = flagUser
		}
		if flagAvatar != "" {
			cfg.Avatar = flagAvatar
		}

		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// resolveBaseURL picks the backend base URL: an explicit api_base wins,
// otherwise the host is mapped to its known base.
func resolveBaseURL(c config.Config) (string, error) {
	if c.APIBase != "" {
		return c.APIBase, nil
	}
	if base := api.ResolveBase(c.Host); base != "" {
		return base, nil
	}
	return "", fmt.Errorf("no API base known for host %q; set --api-base", c.Host)
}

// newClient builds the API client from the merged configuration.
func newClient() (*api.Client, error) {
	base, err := resolveBaseURL(cfg)
	if err != nil {
		return nil, err
	}
	return api.NewClient(base), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIBase, "api-base", "", "backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "deployment host used to resolve the API base")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "user id sent when starting a session")
	rootCmd.PersistentFlags().StringVar(&flagAvatar, "avatar", "", "avatar name sent when starting a session")
}
