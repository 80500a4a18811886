package upload

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/tinybeans"
)

// childIDs holds the --child flag values
var childIDs []int64
var day string

// dateLayout is the accepted format of the --date flag.
const dateLayout = "2006-01-02"

// Command creates the upload command which posts photos and videos to a journal.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload [file]...",
		Short: "Upload photos or videos to a child's journal",
		Long:  "Upload one or more photo or video files and register each as a journal entry for the given children.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validate flag values before any network traffic
			if len(childIDs) == 0 {
				return fmt.Errorf("at least one --child id is required")
			}
			when := time.Now()
			if day != "" {
				parsed, err := time.Parse(dateLayout, day)
				if err != nil {
					return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", day)
				}
				when = parsed
			}
			return runUpload(cmd.Context(), settings, args, when)
		},
	}

	cmd.Flags().Int64SliceVar(&childIDs, "child", nil, "Child id to attach the media to, repeat for siblings")
	cmd.Flags().StringVar(&day, "date", "", "Journal date for the media as YYYY-MM-DD, defaults to today")

	return cmd
}

func runUpload(ctx context.Context, settings *conf.Settings, files []string, when time.Time) error {
	// A missing file is fatal before anything is uploaded, partial batches
	// leave the journal in a confusing state
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("cannot read %s: %w", file, err)
		}
	}

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

	tagged := make([]tinybeans.Child, 0, len(childIDs))
	for _, id := range childIDs {
		child, err := tinybeans.FindChild(children, id)
		if err != nil {
			return err
		}
		tagged = append(tagged, *child)
	}

	items := make([]*tinybeans.MediaItem, 0, len(files))
	for _, file := range files {
		items = append(items, &tinybeans.MediaItem{
			Day:      when.Day(),
			Month:    int(when.Month()),
			Year:     when.Year(),
			File:     file,
			Children: tagged,
		})
	}

	fmt.Printf("🚀 Uploading %d file(s) dated %s\n", len(items), when.Format(dateLayout))
	if err := client.UploadMedias(ctx, items); err != nil {
		return fmt.Errorf("❌ upload failed: %w", err)
	}

	fmt.Println("✅ Upload complete")
	return nil
}
