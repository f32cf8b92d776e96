package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/parkwatch/internal/core/auth"
	"github.com/solatis/parkwatch/internal/core/config"
)

var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage sensor API keys",
}

var apiKeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a new API key for a park",
	Long:  `Create signs a new key with the newest configured HMAC secret. The key is printed once and cannot be recovered.`,
	RunE:  runAPIKeyCreate,
}

var apiKeyRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyRevoke,
}

func init() {
	apiKeyCreateCmd.Flags().String("park", "", "park id the key authenticates as")
	apiKeyCreateCmd.Flags().String("name", "", "human-readable key name")
	_ = apiKeyCreateCmd.MarkFlagRequired("park")
	_ = apiKeyCreateCmd.MarkFlagRequired("name")

	apiKeyCmd.AddCommand(apiKeyCreateCmd, apiKeyRevokeCmd)
	rootCmd.AddCommand(apiKeyCmd)
}

func openAuthenticator(cmd *cobra.Command) (*auth.Authenticator, func(), error) {
	secrets, err := config.HMACSecrets()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return nil, nil, fmt.Errorf("%w (set PW_HMAC_SECRET)", auth.ErrNoSecrets)
	}

	l, err := openLocal(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	a, err := auth.NewAuthenticator(secrets, l.queries, zlog)
	if err != nil {
		l.Close()
		return nil, nil, err
	}
	return a, func() { l.Close() }, nil
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	park, _ := cmd.Flags().GetString("park")
	name, _ := cmd.Flags().GetString("name")

	a, release, err := openAuthenticator(cmd)
	if err != nil {
		return err
	}
	defer release()

	issued, err := a.Issue(cmd.Context(), park, name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:   %s\n", issued.APIKeyID)
	fmt.Fprintf(out, "park: %s\n", issued.ParkID)
	fmt.Fprintf(out, "key:  %s\n", issued.Key)
	return nil
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	a, release, err := openAuthenticator(cmd)
	if err != nil {
		return err
	}
	defer release()

	if err := a.Revoke(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to revoke %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
	return nil
}
