package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage the field catalog of a device type",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the field catalog",
	RunE:  runProfilesList,
}

var profilesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the field catalog with a file",
	RunE:  runProfilesImport,
}

func init() {
	for _, c := range []*cobra.Command{profilesListCmd, profilesImportCmd} {
		c.Flags().String("object", "", "device type id")
		_ = c.MarkFlagRequired("object")
		addRemoteFlag(c)
		profilesCmd.AddCommand(c)
	}
	profilesListCmd.Flags().StringP("output", "o", outputYAML, "output format (yaml, json)")
	profilesImportCmd.Flags().StringP("file", "f", "", "profile file (YAML; - for stdin)")
	_ = profilesImportCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(profilesCmd)
}

func runProfilesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	objectID, _ := cmd.Flags().GetString("object")
	format, _ := cmd.Flags().GetString("output")

	backend, release, err := openBackend(ctx, cmd)
	if err != nil {
		return err
	}
	defer release()

	profiles, err := backend.ListProfiles(ctx, objectID)
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), format, profileFile{ObjectID: objectID, Profiles: profiles})
}

func runProfilesImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	objectID, _ := cmd.Flags().GetString("object")
	path, _ := cmd.Flags().GetString("file")

	profiles, err := readProfileFile(path, objectID)
	if err != nil {
		return err
	}

	backend, release, err := openBackend(ctx, cmd)
	if err != nil {
		return err
	}
	defer release()

	if err := backend.ReplaceProfiles(ctx, objectID, profiles); err != nil {
		return fmt.Errorf("failed to replace profiles: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d profiles for %s\n", len(profiles), objectID)
	return nil
}
