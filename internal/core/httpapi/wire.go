package httpapi

import "github.com/solatis/parkwatch/internal/types"

// Request and response bodies shared with internal/client.

// ConditionSet is the body of PUT /api/event-conditions, the validate call
// and every condition list response.
type ConditionSet struct {
	ObjectID   types.ObjectID         `json:"objectId"`
	Conditions []types.EventCondition `json:"conditions"`
}

// ProfileSet is the body of the profile catalog endpoints.
type ProfileSet struct {
	ObjectID types.ObjectID        `json:"objectId"`
	Profiles []types.DeviceProfile `json:"profiles"`
}

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
