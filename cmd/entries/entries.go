package entries

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/tinybeans"
)

// last holds the pagination cursor flag value
var last int64
var asJSON bool

// Command creates the entries command which lists a child's journal entries.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries [child id]",
		Short: "List journal entries for a followed child",
		Long:  "Fetch the journal entries of a followed child, newest first. Pagination is followed automatically until the journal start or the --last cursor.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			childID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid child id %q: %w", args[0], err)
			}
			return runEntries(cmd.Context(), settings, childID)
		},
	}

	// Set up flags specific to the entries command
	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the entries command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().Int64Var(&last, "last", 0, "List entries older than this millisecond timestamp, 0 starts from the newest")
	cmd.Flags().BoolVar(&settings.Tinybeans.IncludeDeleted, "deleted", viper.GetBool("tinybeans.includedeleted"), "Keep entries flagged deleted in the listing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON instead of a table")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

func runEntries(ctx context.Context, settings *conf.Settings, childID int64) error {
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

	entries, err := client.GetEntries(ctx, child, last)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tCAPTION")
	for i := range entries {
		e := &entries[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.ID, e.Time().Format("2006-01-02 15:04"), e.Type, shorten(e.Caption))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d entries in journal of %s\n", len(entries), child.Name())
	return nil
}

// shorten trims long captions so the table stays readable.
func shorten(caption string) string {
	const limit = 60
	runes := []rune(caption)
	if len(runes) <= limit {
		return caption
	}
	return string(runes[:limit-3]) + "..."
}
