package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/parkwatch/internal/session"
)

// resetFlags restores every flag to its default. Cobra commands are package
// globals, so values would otherwise leak between executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setupCLI(t *testing.T) string {
	t.Helper()
	dbArg := "--db-url=sqlite://" + filepath.Join(t.TempDir(), "cli.db")

	_, err := execute(t, dbArg, "migrate")
	require.NoError(t, err)

	profiles := writeFile(t, `
profiles:
  - fieldKey: temperature
    fieldType: Float
    description: 온도
  - fieldKey: door
    fieldType: Boolean
    description: 문
`)
	out, err := execute(t, dbArg, "profiles", "import", "--object", "ws-100", "-f", profiles)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 profiles")
	return dbArg
}

const validSet = `
conditions:
  - fieldKey: temperature
    level: WARNING
    conditionType: SINGLE
    operator: GE
    thresholdValue: 30
    notificationEnabled: true
    activate: true
  - fieldKey: door
    level: DANGER
    conditionType: SINGLE
    operator: GE
    booleanValue: true
    activate: true
`

func TestMigrateStatus(t *testing.T) {
	dbArg := "--db-url=sqlite://" + filepath.Join(t.TempDir(), "status.db")

	out, err := execute(t, dbArg, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "pending")

	_, err = execute(t, dbArg, "migrate")
	require.NoError(t, err)

	out, err = execute(t, dbArg, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "applied")
	assert.NotContains(t, out, "pending")
}

func TestCommands_RequireMigratedSchema(t *testing.T) {
	dbArg := "--db-url=sqlite://" + filepath.Join(t.TempDir(), "fresh.db")

	_, err := execute(t, dbArg, "conditions", "list", "--object", "ws-100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parkwatch migrate")
}

func TestConditionsApply_RoundTrip(t *testing.T) {
	dbArg := setupCLI(t)
	file := writeFile(t, validSet)

	out, err := execute(t, dbArg, "conditions", "apply", "--object", "ws-100", "-f", file, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "would replace 0 stored conditions with 2")

	out, err = execute(t, dbArg, "conditions", "list", "--object", "ws-100", "-o", "json")
	require.NoError(t, err)
	var empty conditionFile
	require.NoError(t, json.Unmarshal([]byte(out), &empty))
	assert.Empty(t, empty.Conditions, "dry run must not persist")

	out, err = execute(t, dbArg, "conditions", "apply", "--object", "ws-100", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, out, "saved 2 conditions")

	out, err = execute(t, dbArg, "conditions", "list", "--object", "ws-100", "-o", "json")
	require.NoError(t, err)
	var listed conditionFile
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Conditions, 2)
	for _, c := range listed.Conditions {
		assert.False(t, c.IsNew(), "stored records carry ids")
		assert.Equal(t, "ws-100", c.ObjectID)
	}

	// Re-applying the listed set is a no-op.
	out, err = execute(t, dbArg, "conditions", "list", "--object", "ws-100")
	require.NoError(t, err)
	exported := writeFile(t, out)
	out, err = execute(t, dbArg, "conditions", "apply", "--object", "ws-100", "-f", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "no changes")

	out, err = execute(t, dbArg, "conditions", "delete", "--object", "ws-100", "--id", string(listed.Conditions[0].ID))
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	out, err = execute(t, dbArg, "conditions", "list", "--object", "ws-100", "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Len(t, listed.Conditions, 1)
}

func TestConditionsApply_RejectsInvalid(t *testing.T) {
	dbArg := setupCLI(t)
	file := writeFile(t, `
- fieldKey: temperature
  level: WARNING
  conditionType: SINGLE
  operator: GE
- fieldKey: door
  level: WARNING
  conditionType: SINGLE
  operator: GE
  booleanValue: true
`)

	out, err := execute(t, dbArg, "conditions", "validate", "--object", "ws-100", "-f", file)
	assert.ErrorIs(t, err, session.ErrInvalidConditions)
	assert.Contains(t, out, "#")

	_, err = execute(t, dbArg, "conditions", "apply", "--object", "ws-100", "-f", file)
	assert.ErrorIs(t, err, session.ErrInvalidConditions)

	out, err = execute(t, dbArg, "conditions", "list", "--object", "ws-100", "-o", "json")
	require.NoError(t, err)
	var listed conditionFile
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Empty(t, listed.Conditions)
}

func TestConditionsApply_EmptySetRefused(t *testing.T) {
	dbArg := setupCLI(t)

	_, err := execute(t, dbArg, "conditions", "apply", "--object", "ws-100", "-f", writeFile(t, validSet))
	require.NoError(t, err)

	_, err = execute(t, dbArg, "conditions", "apply", "--object", "ws-100", "-f", writeFile(t, "conditions: []\n"))
	assert.ErrorIs(t, err, session.ErrNoConditions)
}

func TestConditionsValidate_Valid(t *testing.T) {
	dbArg := setupCLI(t)

	out, err := execute(t, dbArg, "conditions", "validate", "--object", "ws-100", "-f", writeFile(t, validSet))
	require.NoError(t, err)
	assert.Contains(t, out, "2 conditions valid")
}

func TestProfilesList(t *testing.T) {
	dbArg := setupCLI(t)

	out, err := execute(t, dbArg, "profiles", "list", "--object", "ws-100", "-o", "json")
	require.NoError(t, err)
	var listed profileFile
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Profiles, 2)
	assert.Equal(t, "door", listed.Profiles[0].FieldKey)
}

func TestAPIKey_CreateAndRevoke(t *testing.T) {
	dbArg := setupCLI(t)

	t.Setenv("PW_HMAC_SECRET", "")
	_, err := execute(t, dbArg, "apikey", "create", "--park", "park-1", "--name", "gate")
	require.Error(t, err)

	t.Setenv("PW_HMAC_SECRET", "0190f5d2a1b27c3d8e4f5a6b7c8d9e0f:c2VjcmV0LXNlY3JldC1zZWNyZXQtc2VjcmV0LXNlY3JldA==")
	out, err := execute(t, dbArg, "apikey", "create", "--park", "park-1", "--name", "gate")
	require.NoError(t, err)
	assert.Contains(t, out, "key:  pw-v1-")

	var id string
	for _, line := range bytes.Split([]byte(out), []byte("\n")) {
		if bytes.HasPrefix(line, []byte("id:")) {
			id = string(bytes.TrimSpace(line[len("id:"):]))
		}
	}
	require.NotEmpty(t, id)

	out, err = execute(t, dbArg, "apikey", "revoke", id)
	require.NoError(t, err)
	assert.Contains(t, out, "revoked")

	_, err = execute(t, dbArg, "apikey", "revoke", id)
	assert.Error(t, err)
}
