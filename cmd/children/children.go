package children

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/tinybeans"
)

// Command creates the children command which lists followed children.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "children",
		Short: "List children from followed journals",
		Long:  "List every child from the journals this account follows, with the ids the other commands expect.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChildren(cmd.Context(), settings)
		},
	}

	return cmd
}

func runChildren(ctx context.Context, settings *conf.Settings) error {
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
	if len(children) == 0 {
		fmt.Println("No followed journals with children found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tGENDER\tBORN\tJOURNAL")
	for i := range children {
		c := &children[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", c.ID, c.Name(), c.Gender, c.DOB.Format("2006-01-02"), c.JournalID)
	}
	return w.Flush()
}
