package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/solatis/parkwatch/internal/condition"
	"github.com/solatis/parkwatch/internal/core/metrics"
	"github.com/solatis/parkwatch/internal/session"
	"github.com/solatis/parkwatch/internal/types"
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, Health{Status: "ok", Version: s.opts.Version})
}

func (s *Server) handleListProfiles(c echo.Context) error {
	objectID, apiErr := objectIDParam(c.Param("objectId"))
	if apiErr != nil {
		return apiErr
	}
	profiles, err := s.profiles.ListProfiles(c.Request().Context(), objectID)
	if err != nil {
		return NewInternalError("failed to list profiles", err)
	}
	return c.JSON(http.StatusOK, ProfileSet{ObjectID: objectID, Profiles: profiles})
}

func (s *Server) handleReplaceProfiles(c echo.Context) error {
	objectID, apiErr := objectIDParam(c.Param("objectId"))
	if apiErr != nil {
		return apiErr
	}

	var body ProfileSet
	if err := c.Bind(&body); err != nil {
		return NewBadRequestError("invalid profile set", err)
	}
	seen := make(map[string]bool, len(body.Profiles))
	for _, p := range body.Profiles {
		if p.FieldKey == "" {
			return NewValidationError("fieldKey is required", "fieldKey")
		}
		if seen[p.FieldKey] {
			return NewValidationError("duplicate fieldKey: "+p.FieldKey, "fieldKey")
		}
		seen[p.FieldKey] = true
	}

	ctx := c.Request().Context()
	if err := s.backend.ReplaceProfiles(ctx, objectID, body.Profiles); err != nil {
		return NewInternalError("failed to replace profiles", err)
	}
	s.invalidate(ctx, objectID)

	profiles, err := s.backend.ListProfiles(ctx, objectID)
	if err != nil {
		return NewInternalError("failed to list profiles", err)
	}
	return c.JSON(http.StatusOK, ProfileSet{ObjectID: objectID, Profiles: profiles})
}

func (s *Server) handleListConditions(c echo.Context) error {
	objectID, apiErr := objectIDParam(c.QueryParam("objectId"))
	if apiErr != nil {
		return apiErr
	}
	list, err := s.backend.FetchConditions(c.Request().Context(), objectID)
	if err != nil {
		return NewInternalError("failed to fetch conditions", err)
	}
	return c.JSON(http.StatusOK, ConditionSet{ObjectID: objectID, Conditions: condition.Sort(list)})
}

// bindSet decodes a ConditionSet and loads the catalog it is checked against.
func (s *Server) bindSet(c echo.Context) (ConditionSet, condition.Catalog, error) {
	var body ConditionSet
	if err := c.Bind(&body); err != nil {
		return body, nil, NewBadRequestError("invalid condition set", err)
	}
	objectID, apiErr := objectIDParam(body.ObjectID)
	if apiErr != nil {
		return body, nil, apiErr
	}
	body.ObjectID = objectID
	if body.Conditions == nil {
		body.Conditions = []types.EventCondition{}
	}
	if len(body.Conditions) > s.opts.MaxConditions {
		return body, nil, &APIError{
			Status:  http.StatusBadRequest,
			Code:    CodeTooManyConditions,
			Message: "too many conditions for device type",
			Details: map[string]int{"count": len(body.Conditions), "max": s.opts.MaxConditions},
		}
	}

	catalog, err := session.LoadCatalog(c.Request().Context(), s.profiles, objectID)
	if err != nil {
		return body, nil, NewInternalError("failed to load catalog", err)
	}
	return body, catalog, nil
}

func (s *Server) handleValidateConditions(c echo.Context) error {
	body, catalog, err := s.bindSet(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, condition.ValidateSet(body.Conditions, catalog))
}

func (s *Server) handleReplaceConditions(c echo.Context) error {
	body, catalog, err := s.bindSet(c)
	if err != nil {
		return err
	}

	if result := condition.ValidateSet(body.Conditions, catalog); !result.IsValid {
		s.metrics.ConditionSave(metrics.SaveInvalid)
		return NewValidationError("condition set is invalid", result)
	}

	ctx := c.Request().Context()
	saved, err := s.backend.ReplaceAllConditions(ctx, body.ObjectID, body.Conditions)
	if err != nil {
		s.metrics.ConditionSave(metrics.SaveError)
		return fromDomain(err, "failed to replace conditions")
	}
	s.metrics.ConditionSave(metrics.SaveOK)
	s.invalidate(ctx, body.ObjectID)

	s.logger.Info("conditions replaced",
		zap.String("object_id", body.ObjectID),
		zap.Int("count", len(saved)),
	)
	return c.JSON(http.StatusOK, ConditionSet{ObjectID: body.ObjectID, Conditions: condition.Sort(saved)})
}

// handleDeleteCondition scopes the delete to objectId when given. Without
// it the owner is looked up so the right cache entry is dropped.
func (s *Server) handleDeleteCondition(c echo.Context) error {
	id := types.ConditionID(c.Param("id"))
	ctx := c.Request().Context()

	objectID := strings.TrimSpace(c.QueryParam("objectId"))
	if objectID == "" {
		owner, err := s.backend.ConditionObject(ctx, id)
		if err != nil {
			if errors.Is(err, types.ErrConditionNotFound) {
				return NewNotFoundError("condition", string(id))
			}
			return NewInternalError("failed to look up condition", err)
		}
		objectID = owner
	}

	if err := s.backend.DeleteCondition(ctx, id, objectID); err != nil {
		mapped := fromDomain(err, "failed to delete condition")
		if mapped.Status == http.StatusNotFound {
			return NewNotFoundError("condition", string(id))
		}
		return mapped
	}
	s.invalidate(ctx, objectID)
	return c.NoContent(http.StatusNoContent)
}
