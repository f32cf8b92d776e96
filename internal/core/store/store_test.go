package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/parkwatch/internal/core/db"
	"github.com/solatis/parkwatch/internal/types"
)

const testObject = "ws-100"

func setupStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "test.db"), db.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.MigrateUp(ctx, database, nil))

	queries, err := db.LoadQueries(database)
	require.NoError(t, err)

	s, err := New(queries, nil)
	require.NoError(t, err)
	return s
}

func newSingle(key string, level types.Level, threshold float64) types.EventCondition {
	return types.EventCondition{
		ObjectID:            testObject,
		FieldKey:            key,
		Level:               level,
		ConditionType:       types.ConditionTypeSingle,
		Operator:            types.OperatorGE,
		ThresholdValue:      types.Float(threshold),
		NotificationEnabled: true,
		Activate:            true,
	}
}

func TestNew_NilQueries(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestReplaceAll_AssignsIDsAndRoundTrips(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rng := types.EventCondition{
		FieldKey:            "humidity",
		Level:               types.LevelWarning,
		ConditionType:       types.ConditionTypeRange,
		Operator:            types.OperatorBetween,
		LeftValue:           types.Float(40),
		RightValue:          types.Float(60),
		NotificationEnabled: false,
		Activate:            true,
		GuideMessage:        "제습기를 켜세요",
	}
	door := types.EventCondition{
		ObjectID:      testObject,
		FieldKey:      "door",
		Level:         types.LevelDanger,
		ConditionType: types.ConditionTypeSingle,
		Operator:      types.OperatorGE,
		BooleanValue:  types.Bool(false),
		Activate:      true,
	}

	saved, err := s.ReplaceAllConditions(ctx, testObject, []types.EventCondition{newSingle("temp", types.LevelDanger, 0), rng, door})
	require.NoError(t, err)
	require.Len(t, saved, 3)

	for _, c := range saved {
		assert.False(t, c.IsNew(), "record %s has no id", c.FieldKey)
		_, err := types.ParseConditionID(string(c.ID))
		assert.NoError(t, err)
		assert.Equal(t, testObject, c.ObjectID)
	}

	fetched, err := s.FetchConditions(ctx, testObject)
	require.NoError(t, err)
	require.Len(t, fetched, 3)

	byKey := make(map[string]types.EventCondition)
	for _, c := range fetched {
		byKey[c.FieldKey] = c
	}

	temp := byKey["temp"]
	require.NotNil(t, temp.ThresholdValue)
	assert.Equal(t, 0.0, *temp.ThresholdValue)
	assert.Nil(t, temp.LeftValue)
	assert.Nil(t, temp.BooleanValue)

	hum := byKey["humidity"]
	assert.Equal(t, types.ConditionTypeRange, hum.ConditionType)
	require.NotNil(t, hum.LeftValue)
	require.NotNil(t, hum.RightValue)
	assert.Equal(t, 40.0, *hum.LeftValue)
	assert.Equal(t, 60.0, *hum.RightValue)
	assert.Nil(t, hum.ThresholdValue)
	assert.False(t, hum.NotificationEnabled)
	assert.Equal(t, "제습기를 켜세요", hum.GuideMessage)

	d := byKey["door"]
	require.NotNil(t, d.BooleanValue)
	assert.False(t, *d.BooleanValue)
}

func TestReplaceAll_KeepsIDsAndCreatedAt(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return first }
	saved, err := s.ReplaceAllConditions(ctx, testObject, []types.EventCondition{newSingle("temp", types.LevelDanger, 40)})
	require.NoError(t, err)
	id := saved[0].ID

	s.now = func() time.Time { return first.Add(time.Hour) }
	edited := saved[0]
	edited.ThresholdValue = types.Float(45)
	_, err = s.ReplaceAllConditions(ctx, testObject, []types.EventCondition{edited, newSingle("temp", types.LevelWarning, 30)})
	require.NoError(t, err)

	var created []createdRow
	require.NoError(t, s.queries.Select(ctx, "list-condition-created", &created, testObject))
	require.Len(t, created, 2)
	for _, r := range created {
		if types.ConditionID(r.ID) == id {
			assert.True(t, r.CreatedAt.Equal(first), "created_at = %v, want %v", r.CreatedAt, first)
		} else {
			assert.True(t, r.CreatedAt.Equal(first.Add(time.Hour)))
		}
	}

	fetched, err := s.FetchConditions(ctx, testObject)
	require.NoError(t, err)
	var found bool
	for _, c := range fetched {
		if c.ID == id {
			found = true
			assert.Equal(t, 45.0, *c.ThresholdValue)
		}
	}
	assert.True(t, found, "persisted id %s not kept", id)
}

func TestReplaceAll_EmptySetClears(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.ReplaceAllConditions(ctx, testObject, []types.EventCondition{newSingle("temp", types.LevelDanger, 40)})
	require.NoError(t, err)

	saved, err := s.ReplaceAllConditions(ctx, testObject, nil)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestReplaceAll_IsolatesObjects(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	other := newSingle("temp", types.LevelDanger, 40)
	other.ObjectID = "ws-200"
	_, err := s.ReplaceAllConditions(ctx, "ws-200", []types.EventCondition{other})
	require.NoError(t, err)

	_, err = s.ReplaceAllConditions(ctx, testObject, []types.EventCondition{newSingle("temp", types.LevelNormal, 10)})
	require.NoError(t, err)

	fetched, err := s.FetchConditions(ctx, "ws-200")
	require.NoError(t, err)
	assert.Len(t, fetched, 1)
}

func TestReplaceAll_Rejections(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	mismatch := newSingle("temp", types.LevelDanger, 40)
	mismatch.ObjectID = "ws-999"
	_, err := s.ReplaceAllConditions(ctx, testObject, []types.EventCondition{mismatch})
	assert.True(t, errors.Is(err, types.ErrObjectMismatch), "err = %v", err)

	tooMany := make([]types.EventCondition, types.MaxConditionsPerObject+1)
	for i := range tooMany {
		tooMany[i] = newSingle("temp", types.LevelDanger, float64(i))
	}
	_, err = s.ReplaceAllConditions(ctx, testObject, tooMany)
	assert.True(t, errors.Is(err, types.ErrTooManyConditions), "err = %v", err)

	_, err = s.ReplaceAllConditions(ctx, "", nil)
	assert.Error(t, err)
}

func TestDeleteCondition(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	saved, err := s.ReplaceAllConditions(ctx, testObject, []types.EventCondition{
		newSingle("temp", types.LevelDanger, 40),
		newSingle("temp", types.LevelWarning, 30),
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteCondition(ctx, saved[0].ID, testObject))

	fetched, err := s.FetchConditions(ctx, testObject)
	require.NoError(t, err)
	assert.Len(t, fetched, 1)

	err = s.DeleteCondition(ctx, saved[0].ID, testObject)
	assert.True(t, errors.Is(err, types.ErrConditionNotFound), "err = %v", err)

	err = s.DeleteCondition(ctx, saved[1].ID, "ws-200")
	assert.True(t, errors.Is(err, types.ErrConditionNotFound), "delete across objects must not match")
}

func TestDeleteCondition_WithoutObjectID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	saved, err := s.ReplaceAllConditions(ctx, testObject, []types.EventCondition{newSingle("temp", types.LevelDanger, 40)})
	require.NoError(t, err)

	owner, err := s.ConditionObject(ctx, saved[0].ID)
	require.NoError(t, err)
	assert.Equal(t, testObject, owner)

	require.NoError(t, s.DeleteCondition(ctx, saved[0].ID, ""))
	fetched, err := s.FetchConditions(ctx, testObject)
	require.NoError(t, err)
	assert.Empty(t, fetched)

	assert.ErrorIs(t, s.DeleteCondition(ctx, saved[0].ID, ""), types.ErrConditionNotFound)
	_, err = s.ConditionObject(ctx, saved[0].ID)
	assert.ErrorIs(t, err, types.ErrConditionNotFound)
}

func TestProfiles(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	empty, err := s.ListProfiles(ctx, testObject)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.ReplaceProfiles(ctx, testObject, []types.DeviceProfile{
		{FieldKey: "temp", FieldType: "Float", Description: "온도", FieldUnit: "°C"},
		{FieldKey: "door", FieldType: types.FieldTypeBoolean, Description: "문"},
	}))

	got, err := s.ListProfiles(ctx, testObject)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "door", got[0].FieldKey)
	assert.True(t, got[0].IsBoolean())
	assert.Equal(t, "°C", got[1].FieldUnit)

	require.NoError(t, s.ReplaceProfiles(ctx, testObject, []types.DeviceProfile{
		{FieldKey: "temp", FieldType: "Float", Description: "실내 온도"},
	}))
	got, err = s.ListProfiles(ctx, testObject)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "실내 온도", got[0].Description)

	assert.Error(t, s.ReplaceProfiles(ctx, testObject, []types.DeviceProfile{{FieldKey: ""}}))
}
