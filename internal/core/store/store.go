// Package store persists device profiles and event conditions through the
// named queries of internal/core/db. It implements the session gateway and
// profile source against a local database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/solatis/parkwatch/internal/core/db"
	"github.com/solatis/parkwatch/internal/types"
)

// Store is the database-backed condition and profile store.
type Store struct {
	queries *db.Queries
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a store over loaded queries. A nil logger discards output.
func New(queries *db.Queries, logger *zap.Logger) (*Store, error) {
	if queries == nil {
		return nil, fmt.Errorf("queries cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{queries: queries, logger: logger, now: time.Now}, nil
}

// FetchConditions returns the persisted set of objectID.
func (s *Store) FetchConditions(ctx context.Context, objectID types.ObjectID) ([]types.EventCondition, error) {
	var rows []conditionRow
	if err := s.queries.Select(ctx, "list-conditions", &rows, objectID); err != nil {
		return nil, fmt.Errorf("failed to list conditions: %w", err)
	}
	return toConditions(rows), nil
}

// ReplaceAllConditions atomically swaps the persisted set of objectID for
// list. New records get UUIDv7 ids; records that already existed keep their
// creation time. Returns the set as stored.
func (s *Store) ReplaceAllConditions(ctx context.Context, objectID types.ObjectID, list []types.EventCondition) ([]types.EventCondition, error) {
	if objectID == "" {
		return nil, fmt.Errorf("objectID cannot be empty")
	}
	if len(list) > types.MaxConditionsPerObject {
		return nil, fmt.Errorf("%w: %d > %d", types.ErrTooManyConditions, len(list), types.MaxConditionsPerObject)
	}
	for _, c := range list {
		if c.ObjectID != "" && c.ObjectID != objectID {
			return nil, fmt.Errorf("%w: %s", types.ErrObjectMismatch, c.ObjectID)
		}
	}

	var saved []types.EventCondition
	err := s.queries.InTx(ctx, func(tx *db.Tx) error {
		var existing []createdRow
		if err := tx.Select(ctx, "list-condition-created", &existing, objectID); err != nil {
			return fmt.Errorf("failed to list existing conditions: %w", err)
		}
		created := make(map[types.ConditionID]time.Time, len(existing))
		for _, r := range existing {
			created[types.ConditionID(r.ID)] = r.CreatedAt
		}

		if _, err := tx.Exec(ctx, "delete-conditions-by-object", objectID); err != nil {
			return fmt.Errorf("failed to clear conditions: %w", err)
		}

		now := s.now().UTC()
		for _, c := range list {
			c.ObjectID = objectID
			createdAt := now
			if c.IsNew() {
				c.ID = types.NewConditionID()
			} else if t, ok := created[c.ID]; ok {
				createdAt = t
			}
			if _, err := tx.Exec(ctx, "insert-condition", insertArgs(c, createdAt, now)...); err != nil {
				return fmt.Errorf("failed to insert condition %s: %w", c.ID, err)
			}
		}

		var rows []conditionRow
		if err := tx.Select(ctx, "list-conditions", &rows, objectID); err != nil {
			return fmt.Errorf("failed to reload conditions: %w", err)
		}
		saved = toConditions(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("conditions replaced",
		zap.String("object_id", objectID),
		zap.Int("count", len(saved)),
	)
	return saved, nil
}

// DeleteCondition removes one record. Returns ErrConditionNotFound when id
// does not belong to objectID. An empty objectID deletes by id alone.
func (s *Store) DeleteCondition(ctx context.Context, id types.ConditionID, objectID types.ObjectID) error {
	if objectID == "" {
		owner, err := s.ConditionObject(ctx, id)
		if err != nil {
			return err
		}
		objectID = owner
	}
	res, err := s.queries.Exec(ctx, "delete-condition", string(id), objectID)
	if err != nil {
		return fmt.Errorf("failed to delete condition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return types.ErrConditionNotFound
	}
	return nil
}

// ConditionObject returns the device type that owns id.
func (s *Store) ConditionObject(ctx context.Context, id types.ConditionID) (types.ObjectID, error) {
	var objectID string
	if err := s.queries.Get(ctx, "get-condition-object", &objectID, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", types.ErrConditionNotFound
		}
		return "", fmt.Errorf("failed to look up condition: %w", err)
	}
	return objectID, nil
}

// ListProfiles returns the field catalog of objectID ordered by fieldKey.
func (s *Store) ListProfiles(ctx context.Context, objectID types.ObjectID) ([]types.DeviceProfile, error) {
	profiles := []types.DeviceProfile{}
	if err := s.queries.Select(ctx, "list-profiles", &profiles, objectID); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// ReplaceProfiles swaps the field catalog of objectID for profiles.
func (s *Store) ReplaceProfiles(ctx context.Context, objectID types.ObjectID, profiles []types.DeviceProfile) error {
	if objectID == "" {
		return fmt.Errorf("objectID cannot be empty")
	}
	return s.queries.InTx(ctx, func(tx *db.Tx) error {
		if _, err := tx.Exec(ctx, "delete-profiles-by-object", objectID); err != nil {
			return fmt.Errorf("failed to clear profiles: %w", err)
		}
		for _, p := range profiles {
			if p.FieldKey == "" {
				return fmt.Errorf("profile field_key cannot be empty")
			}
			if _, err := tx.Exec(ctx, "upsert-profile", objectID, p.FieldKey, p.FieldType, p.Description, p.FieldUnit); err != nil {
				return fmt.Errorf("failed to upsert profile %s: %w", p.FieldKey, err)
			}
		}
		return nil
	})
}

func toConditions(rows []conditionRow) []types.EventCondition {
	out := make([]types.EventCondition, len(rows))
	for i, r := range rows {
		out[i] = r.toCondition()
	}
	return out
}
