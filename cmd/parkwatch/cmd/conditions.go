package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solatis/parkwatch/internal/condition"
	"github.com/solatis/parkwatch/internal/session"
	"github.com/solatis/parkwatch/internal/types"
)

var conditionsCmd = &cobra.Command{
	Use:   "conditions",
	Short: "Inspect and edit event conditions of a device type",
}

var conditionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the stored condition set",
	RunE:  runConditionsList,
}

var conditionsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a condition file against the device type's catalog",
	RunE:  runConditionsValidate,
}

var conditionsApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Replace the stored condition set with a file",
	Long: `Apply loads the stored set into an edit session, imports the file as the
working copy and saves it. Records carrying an id update the stored record
with that id; records without one are created. Stored records missing from
the file are removed.`,
	RunE: runConditionsApply,
}

var conditionsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete one stored condition",
	RunE:  runConditionsDelete,
}

func init() {
	for _, c := range []*cobra.Command{conditionsListCmd, conditionsValidateCmd, conditionsApplyCmd, conditionsDeleteCmd} {
		c.Flags().String("object", "", "device type id")
		_ = c.MarkFlagRequired("object")
		addRemoteFlag(c)
		conditionsCmd.AddCommand(c)
	}
	conditionsListCmd.Flags().StringP("output", "o", outputYAML, "output format (yaml, json)")
	for _, c := range []*cobra.Command{conditionsValidateCmd, conditionsApplyCmd} {
		c.Flags().StringP("file", "f", "", "condition file (YAML; - for stdin)")
		_ = c.MarkFlagRequired("file")
	}
	conditionsApplyCmd.Flags().Bool("dry-run", false, "validate and report changes without saving")
	conditionsDeleteCmd.Flags().String("id", "", "condition id")
	_ = conditionsDeleteCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(conditionsCmd)
}

func runConditionsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	objectID, _ := cmd.Flags().GetString("object")
	format, _ := cmd.Flags().GetString("output")

	backend, release, err := openBackend(ctx, cmd)
	if err != nil {
		return err
	}
	defer release()

	list, err := backend.FetchConditions(ctx, objectID)
	if err != nil {
		return fmt.Errorf("failed to fetch conditions: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), format, conditionFile{
		ObjectID:   objectID,
		Conditions: condition.Sort(list),
	})
}

func runConditionsValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	objectID, _ := cmd.Flags().GetString("object")
	path, _ := cmd.Flags().GetString("file")

	list, err := readConditionFile(path, objectID)
	if err != nil {
		return err
	}

	backend, release, err := openBackend(ctx, cmd)
	if err != nil {
		return err
	}
	defer release()

	catalog, err := session.LoadCatalog(ctx, backend, objectID)
	if err != nil {
		return err
	}

	for i := range list {
		list[i].ObjectID = objectID
	}
	list = condition.Sort(list)
	result := condition.ValidateSet(list, catalog)
	printValidation(cmd.OutOrStdout(), list, result)
	if !result.IsValid {
		return session.ErrInvalidConditions
	}
	return nil
}

func runConditionsApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	objectID, _ := cmd.Flags().GetString("object")
	path, _ := cmd.Flags().GetString("file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	out := cmd.OutOrStdout()

	list, err := readConditionFile(path, objectID)
	if err != nil {
		return err
	}

	backend, release, err := openBackend(ctx, cmd)
	if err != nil {
		return err
	}
	defer release()

	catalog, err := session.LoadCatalog(ctx, backend, objectID)
	if err != nil {
		return err
	}
	s, err := session.New(objectID, backend, catalog, zlog)
	if err != nil {
		return err
	}
	if err := s.Load(ctx); err != nil {
		return err
	}

	before := len(s.Original())
	s.Import(list)
	printValidation(out, s.Conditions(), s.Validation())

	if dryRun {
		if s.HasUnsavedChanges() {
			fmt.Fprintf(out, "dry run: would replace %d stored conditions with %d\n", before, len(list))
		} else {
			fmt.Fprintln(out, "dry run: no changes")
		}
		if !s.Validation().IsValid {
			return session.ErrInvalidConditions
		}
		return nil
	}

	switch err := s.Save(ctx); {
	case errors.Is(err, session.ErrNothingToSave):
		fmt.Fprintln(out, "no changes")
		return nil
	case errors.Is(err, session.ErrNoConditions):
		return fmt.Errorf("%w (use 'conditions delete' to remove stored conditions)", err)
	case err != nil:
		return err
	}

	fmt.Fprintf(out, "saved %d conditions for %s\n", len(s.Original()), objectID)
	return nil
}

func runConditionsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	objectID, _ := cmd.Flags().GetString("object")
	id, _ := cmd.Flags().GetString("id")

	backend, release, err := openBackend(ctx, cmd)
	if err != nil {
		return err
	}
	defer release()

	if err := backend.DeleteCondition(ctx, types.ConditionID(id), objectID); err != nil {
		return fmt.Errorf("failed to delete condition %s: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
	return nil
}

// printValidation lists failing records by display position.
func printValidation(w io.Writer, list []types.EventCondition, result condition.SetResult) {
	if result.IsValid {
		fmt.Fprintf(w, "%d conditions valid\n", len(list))
		return
	}
	for i, r := range result.Results {
		if r.IsValid {
			continue
		}
		c := list[i]
		fmt.Fprintf(w, "#%d %s/%s:\n", i+1, c.FieldKey, c.Level)
		for _, msg := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
}
