package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tphakala/tinybeans-go/cmd/children"
	"github.com/tphakala/tinybeans-go/cmd/entries"
	"github.com/tphakala/tinybeans-go/cmd/export"
	"github.com/tphakala/tinybeans-go/cmd/login"
	"github.com/tphakala/tinybeans-go/cmd/remove"
	"github.com/tphakala/tinybeans-go/cmd/upload"
	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tinybeans",
		Short:   "Tinybeans journal CLI",
		Version: fmt.Sprintf("%s (built %s)", settings.Version, settings.BuildDate),
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	// Add sub-commands to the root command.
	subcommands := []*cobra.Command{
		login.Command(settings),
		children.Command(settings),
		entries.Command(settings),
		upload.Command(settings),
		remove.Command(settings),
		export.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Tinybeans.Username, "username", "u", viper.GetString("tinybeans.username"), "Tinybeans account email address")
	rootCmd.PersistentFlags().StringVarP(&settings.Tinybeans.Password, "password", "p", viper.GetString("tinybeans.password"), "Tinybeans account password")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
