package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/parkwatch/internal/condition"
	"github.com/solatis/parkwatch/internal/core/db"
	"github.com/solatis/parkwatch/internal/core/httpapi"
	"github.com/solatis/parkwatch/internal/core/store"
	"github.com/solatis/parkwatch/internal/session"
	"github.com/solatis/parkwatch/internal/types"
)

const testObject = "ws-100"

func setupRemote(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "remote.db"), db.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.MigrateUp(ctx, database, nil))

	queries, err := db.LoadQueries(database)
	require.NoError(t, err)
	st, err := store.New(queries, nil)
	require.NoError(t, err)

	srv, err := httpapi.New(st, httpapi.Options{Version: "test"})
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	c, err := New(ts.URL+"/", Options{})
	require.NoError(t, err)

	require.NoError(t, c.ReplaceProfiles(ctx, testObject, []types.DeviceProfile{
		{FieldKey: "temperature", FieldType: "Float", Description: "온도"},
		{FieldKey: "humidity", FieldType: "Float", Description: "습도"},
		{FieldKey: "door", FieldType: types.FieldTypeBoolean, Description: "문"},
	}))
	return c
}

func TestNew_EmptyURL(t *testing.T) {
	_, err := New("  ", Options{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	c := setupRemote(t)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "test", h.Version)
}

func TestSessionOverRemoteGateway(t *testing.T) {
	c := setupRemote(t)
	ctx := context.Background()

	catalog, err := session.LoadCatalog(ctx, c, testObject)
	require.NoError(t, err)
	require.Len(t, catalog, 3)

	s, err := session.New(testObject, c, catalog, nil)
	require.NoError(t, err)
	require.NoError(t, s.Load(ctx))
	assert.Empty(t, s.Conditions())

	s.Add()
	require.NoError(t, s.Edit(0, condition.FieldFieldKey, "humidity"))
	require.NoError(t, s.Edit(0, condition.FieldThresholdValue, 80.0))
	require.NoError(t, s.Edit(0, condition.FieldLevel, string(types.LevelWarning)))
	require.True(t, s.CanSave())

	require.NoError(t, s.Save(ctx))
	assert.False(t, s.HasUnsavedChanges())

	got := s.Conditions()
	require.Len(t, got, 1)
	assert.False(t, got[0].IsNew())
	assert.Equal(t, "humidity", got[0].FieldKey)
	assert.Equal(t, 80.0, *got[0].ThresholdValue)

	remote, err := c.FetchConditions(ctx, testObject)
	require.NoError(t, err)
	assert.Equal(t, got, remote)

	require.NoError(t, s.Delete(ctx, got[0].ID))
	assert.Empty(t, s.Conditions())
}

func TestReplaceAllConditions_ValidationError(t *testing.T) {
	c := setupRemote(t)

	bad := condition.NewDefault(testObject)
	bad.FieldKey = "door"

	_, err := c.ReplaceAllConditions(context.Background(), testObject, []types.EventCondition{bad})
	require.Error(t, err)

	var apiErr *httpapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, httpapi.CodeValidation, apiErr.Code)
}

func TestValidate(t *testing.T) {
	c := setupRemote(t)

	a := condition.NewDefault(testObject)
	a.FieldKey = "temperature"
	b := a.Clone()

	result, err := c.Validate(context.Background(), testObject, []types.EventCondition{a, b})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[0].HasFieldError(condition.FieldFieldKey), "duplicate flagged on fieldKey")
}

func TestDeleteCondition_NotFound(t *testing.T) {
	c := setupRemote(t)

	err := c.DeleteCondition(context.Background(), types.NewConditionID(), testObject)
	assert.ErrorIs(t, err, types.ErrConditionNotFound)
}

func TestTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := New(url, Options{RetryCount: 0})
	require.NoError(t, err)
	_, err = c.FetchConditions(context.Background(), testObject)
	assert.Error(t, err)
}

func TestNonAPIErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	c, err := New(ts.URL, Options{})
	require.NoError(t, err)
	_, err = c.ListProfiles(context.Background(), testObject)

	var apiErr *httpapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, httpapi.CodeHTTP, apiErr.Code)
}
