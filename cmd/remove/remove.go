package remove

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/tinybeans"
)

// childID holds the --child flag value
var childID int64

// Command creates the delete command which removes an entry from a journal.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [entry id]",
		Short: "Delete an entry from a child's journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if childID == 0 {
				return fmt.Errorf("--child id is required")
			}
			entryID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id %q: %w", args[0], err)
			}
			return runDelete(cmd.Context(), settings, entryID)
		},
	}

	cmd.Flags().Int64Var(&childID, "child", 0, "Child whose journal holds the entry")

	return cmd
}

func runDelete(ctx context.Context, settings *conf.Settings, entryID int64) error {
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

	// Deletion only needs the entry and journal ids, the full entry
	// does not have to be fetched first
	entry := &tinybeans.Entry{ID: entryID, JournalID: child.JournalID}
	if err := client.DeleteEntry(ctx, entry); err != nil {
		return fmt.Errorf("❌ delete failed: %w", err)
	}

	fmt.Printf("✅ Deleted entry %d from the journal of %s\n", entryID, child.Name())
	return nil
}
