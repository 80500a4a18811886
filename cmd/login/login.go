package login

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/tinybeans"
)

// Command creates the login command which verifies account credentials.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify Tinybeans account credentials",
		Long:  "Authenticate against the Tinybeans API with the configured credentials and report the signed-in account.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), settings)
		},
	}

	return cmd
}

func runLogin(ctx context.Context, settings *conf.Settings) error {
	client, err := tinybeans.New(tinybeans.ConfigFromSettings(settings))
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Login(ctx); err != nil {
		return fmt.Errorf("❌ login failed: %w", err)
	}

	user := client.User()
	fmt.Printf("✅ Signed in as %s %s (%s)\n", user.FirstName, user.LastName, user.EmailAddress)
	return nil
}
