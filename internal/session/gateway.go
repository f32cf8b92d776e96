package session

import (
	"context"
	"fmt"

	"github.com/solatis/parkwatch/internal/condition"
	"github.com/solatis/parkwatch/internal/types"
)

// Gateway persists the condition set of one device type.
// ReplaceAllConditions must be atomic: either the whole set is accepted or
// the call fails and nothing changes.
type Gateway interface {
	FetchConditions(ctx context.Context, objectID types.ObjectID) ([]types.EventCondition, error)
	ReplaceAllConditions(ctx context.Context, objectID types.ObjectID, conditions []types.EventCondition) ([]types.EventCondition, error)
	DeleteCondition(ctx context.Context, id types.ConditionID, objectID types.ObjectID) error
}

// ProfileSource supplies the read-only field catalog of a device type.
type ProfileSource interface {
	ListProfiles(ctx context.Context, objectID types.ObjectID) ([]types.DeviceProfile, error)
}

// LoadCatalog fetches the catalog for objectID from src.
func LoadCatalog(ctx context.Context, src ProfileSource, objectID types.ObjectID) (condition.Catalog, error) {
	profiles, err := src.ListProfiles(ctx, objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return condition.Catalog(profiles), nil
}
