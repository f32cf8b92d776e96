package api

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/parkwatch/internal/condition"
	"github.com/solatis/parkwatch/internal/core/auth"
	"github.com/solatis/parkwatch/internal/types"
)

// SyncResponse is the JSON shape of the SyncConditions response.
type SyncResponse struct {
	ObjectID    types.ObjectID         `json:"objectId"`
	ETag        string                 `json:"etag"`
	NotModified bool                   `json:"notModified,omitempty"`
	Conditions  []types.EventCondition `json:"conditions,omitempty"`
	Profiles    []types.DeviceProfile  `json:"profiles,omitempty"`
}

// SyncConditions returns the active conditions and catalog of a device type.
//
// Request:  {objectId, ifNoneMatch?}
// Response: {objectId, etag, notModified?, conditions?, profiles?}
//
// When ifNoneMatch equals the current ETag only {objectId, etag,
// notModified: true} is returned.
func (s *SensorAPIService) SyncConditions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if auth.ParkIDFromContext(ctx) == "" {
		return nil, status.Error(codes.Internal, "missing park_id in context")
	}

	objectID := stringField(req, "objectId")
	if objectID == "" {
		return nil, invalidArgument("objectId required")
	}

	all, err := s.conditions.FetchConditions(ctx, objectID)
	if err != nil {
		s.logger.Error("failed to fetch conditions", zap.String("object_id", objectID), zap.Error(err))
		return nil, storeError(err, "conditions")
	}
	profiles, err := s.profiles.ListProfiles(ctx, objectID)
	if err != nil {
		s.logger.Error("failed to list profiles", zap.String("object_id", objectID), zap.Error(err))
		return nil, storeError(err, "profiles")
	}

	active := make([]types.EventCondition, 0, len(all))
	for _, c := range all {
		if c.Activate {
			active = append(active, c)
		}
	}
	active = condition.Sort(active)

	etag, err := computeETag(active, profiles)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	resp := SyncResponse{ObjectID: objectID, ETag: etag}
	if stringField(req, "ifNoneMatch") == etag {
		resp.NotModified = true
	} else {
		resp.Conditions = active
		resp.Profiles = profiles
	}

	out, err := toStruct(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// computeETag hashes the canonical JSON of the synced content, so the same
// rules and catalog always produce the same ETag.
func computeETag(conds []types.EventCondition, profiles []types.DeviceProfile) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	if err := enc.Encode(conds); err != nil {
		return "", fmt.Errorf("failed to hash conditions: %w", err)
	}
	if err := enc.Encode(profiles); err != nil {
		return "", fmt.Errorf("failed to hash profiles: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
