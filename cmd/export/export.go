package export

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/datastore"
	exporter "github.com/tphakala/tinybeans-go/internal/export"
	"github.com/tphakala/tinybeans-go/internal/tinybeans"
)

// skipMedia holds the --skip-media flag value
var skipMedia bool

// Command creates the export command which archives a child's journal locally.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [child id]",
		Short: "Archive a child's journal to a local database",
		Long:  "Download every entry of a child's journal into a local SQLite archive, photo and video files included unless media download is skipped. Re-running updates the archive in place.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			childID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid child id %q: %w", args[0], err)
			}
			if skipMedia {
				settings.Export.Media = false
			}
			return runExport(cmd.Context(), settings, childID)
		},
	}

	// Set up flags specific to the export command
	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the export command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Export.Path, "path", viper.GetString("export.path"), "Directory for the archive database and media files")
	cmd.Flags().BoolVar(&skipMedia, "skip-media", false, "Index entries without downloading photo and video files")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

func runExport(ctx context.Context, settings *conf.Settings, childID int64) error {
	client, err := tinybeans.New(tinybeans.ConfigFromSettings(settings))
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Login(ctx); err != nil {
		return err
	}

	children, err := client.Children(ctx)
	if err != nil {
		return err
	}
	child, err := tinybeans.FindChild(children, childID)
	if err != nil {
		return err
	}

	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	ex := exporter.New(settings, client, store)
	defer ex.Close()

	fmt.Printf("📦 Archiving journal of %s to %s\n", child.Name(), settings.Export.Path)
	summary, err := ex.Run(ctx, child)
	if err != nil {
		return fmt.Errorf("❌ export failed: %w", err)
	}

	fmt.Printf("✅ Archived %d entries: %d saved, %d media downloaded, %d already present, %d failed\n",
		summary.Counted, summary.Saved, summary.Downloaded, summary.Skipped, summary.Failed)
	return nil
}
