package api

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/parkwatch/internal/condition"
	"github.com/solatis/parkwatch/internal/core/auth"
	"github.com/solatis/parkwatch/internal/types"
)

// EvaluateResponse is the JSON shape of the EvaluateReadings response.
type EvaluateResponse struct {
	ObjectID types.ObjectID          `json:"objectId"`
	DeviceID string                  `json:"deviceId,omitempty"`
	Levels   []condition.FieldResult `json:"levels"`
}

// EvaluateReadings maps one device's latest readings onto alarm levels.
//
// Request:  {objectId, deviceId?, readings: {fieldKey: value, ...}}
// Response: {objectId, deviceId?, levels: [{fieldKey, level, ...}, ...]}
//
// A field with conditions but no reading reports DISCONNECTED; a reading
// that cannot be coerced to its field type reports coercionFailed.
func (s *SensorAPIService) EvaluateReadings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	parkID := auth.ParkIDFromContext(ctx)
	if parkID == "" {
		return nil, status.Error(codes.Internal, "missing park_id in context")
	}

	objectID := stringField(req, "objectId")
	if objectID == "" {
		return nil, invalidArgument("objectId required")
	}

	// A missing readings object is an empty batch: every field is disconnected.
	readings := req.GetFields()["readings"].GetStructValue().AsMap()
	if limit := s.maxReadings(); len(readings) > limit {
		return nil, invalidArgument("batch size exceeds maximum of %d readings", limit)
	}

	conds, err := s.conditions.FetchConditions(ctx, objectID)
	if err != nil {
		s.logger.Error("failed to fetch conditions", zap.String("object_id", objectID), zap.Error(err))
		return nil, storeError(err, "conditions")
	}
	profiles, err := s.profiles.ListProfiles(ctx, objectID)
	if err != nil {
		s.logger.Error("failed to list profiles", zap.String("object_id", objectID), zap.Error(err))
		return nil, storeError(err, "profiles")
	}

	levels := condition.Evaluate(conds, condition.Catalog(profiles), readings)
	s.recordLevels(levels)

	s.logger.Debug("readings evaluated",
		zap.String("park_id", parkID),
		zap.String("object_id", objectID),
		zap.Int("readings", len(readings)),
		zap.Int("levels", len(levels)),
	)

	out, err := toStruct(EvaluateResponse{
		ObjectID: objectID,
		DeviceID: stringField(req, "deviceId"),
		Levels:   levels,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *SensorAPIService) recordLevels(levels []condition.FieldResult) {
	if s.metrics == nil {
		return
	}
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l.Level)
	}
	s.metrics.Evaluation(names)
}
