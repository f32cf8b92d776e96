package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/parkwatch/internal/core/httpapi"
	"github.com/solatis/parkwatch/internal/types"
)

const mockBase = "http://admin.test"

func newMockedClient(t *testing.T, retries int) *Client {
	t.Helper()
	c, err := New(mockBase, Options{RetryCount: retries})
	require.NoError(t, err)
	httpmock.ActivateNonDefault(c.http.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestFetchConditions_RetriesTransportErrors(t *testing.T) {
	c := newMockedClient(t, 2)

	calls := 0
	httpmock.RegisterResponder(http.MethodGet, mockBase+"/api/event-conditions",
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls <= 2 {
				return nil, errors.New("connection reset by peer")
			}
			assert.Equal(t, testObject, req.URL.Query().Get("objectId"))
			return httpmock.NewJsonResponse(http.StatusOK, httpapi.ConditionSet{
				ObjectID: testObject,
				Conditions: []types.EventCondition{{
					ID:             "c-1",
					ObjectID:       testObject,
					FieldKey:       "temperature",
					Level:          types.LevelDanger,
					ConditionType:  types.ConditionTypeSingle,
					Operator:       types.OperatorGE,
					ThresholdValue: types.Float(40),
				}},
			})
		})

	got, err := c.FetchConditions(context.Background(), testObject)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.ConditionID("c-1"), got[0].ID)
	assert.Equal(t, 3, calls)
}

func TestFetchConditions_GivesUpAfterRetries(t *testing.T) {
	c := newMockedClient(t, 1)
	httpmock.RegisterResponder(http.MethodGet, mockBase+"/api/event-conditions",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := c.FetchConditions(context.Background(), testObject)
	assert.Error(t, err)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestServiceUnavailableMapsToAPIError(t *testing.T) {
	c := newMockedClient(t, 0)
	responder, err := httpmock.NewJsonResponder(http.StatusServiceUnavailable, httpapi.APIError{
		Code:    httpapi.CodeServiceUnavailable,
		Message: "database unavailable",
	})
	require.NoError(t, err)
	httpmock.RegisterResponder(http.MethodPut, mockBase+"/api/event-conditions", responder)

	_, err = c.ReplaceAllConditions(context.Background(), testObject, nil)
	var apiErr *httpapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, httpapi.CodeServiceUnavailable, apiErr.Code)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestReplaceAllConditions_SendsEmptyListNotNull(t *testing.T) {
	c := newMockedClient(t, 0)
	httpmock.RegisterResponder(http.MethodPut, mockBase+"/api/event-conditions",
		func(req *http.Request) (*http.Response, error) {
			var body httpapi.ConditionSet
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
			}
			if body.Conditions == nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, "conditions is null"), nil
			}
			return httpmock.NewJsonResponse(http.StatusOK, body)
		})

	got, err := c.ReplaceAllConditions(context.Background(), testObject, nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDeleteCondition_MapsNotFoundStatus(t *testing.T) {
	c := newMockedClient(t, 0)
	responder, err := httpmock.NewJsonResponder(http.StatusNotFound, httpapi.APIError{
		Code:    httpapi.CodeNotFound,
		Message: "condition not found",
	})
	require.NoError(t, err)
	httpmock.RegisterResponder(http.MethodDelete, mockBase+"/api/event-conditions/c-9", responder)

	err = c.DeleteCondition(context.Background(), "c-9", testObject)
	assert.ErrorIs(t, err, types.ErrConditionNotFound)
	assert.Equal(t, 1, httpmock.GetCallCountInfo()["DELETE "+mockBase+"/api/event-conditions/c-9"])
}

func TestNonJSONErrorBody(t *testing.T) {
	c := newMockedClient(t, 0)
	httpmock.RegisterResponder(http.MethodGet, mockBase+"/api/event-conditions",
		httpmock.NewStringResponder(http.StatusBadGateway, "<html>bad gateway</html>"))

	_, err := c.FetchConditions(context.Background(), testObject)
	var apiErr *httpapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, httpapi.CodeHTTP, apiErr.Code)
}

func TestDeleteCondition_OmitsEmptyObjectID(t *testing.T) {
	c := newMockedClient(t, 0)
	httpmock.RegisterResponder(http.MethodDelete, mockBase+"/api/event-conditions/c-3",
		func(req *http.Request) (*http.Response, error) {
			if _, present := req.URL.Query()["objectId"]; present {
				return httpmock.NewStringResponse(http.StatusBadRequest, "unexpected objectId"), nil
			}
			return httpmock.NewStringResponse(http.StatusNoContent, ""), nil
		})

	require.NoError(t, c.DeleteCondition(context.Background(), "c-3", ""))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}
