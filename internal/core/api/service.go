// Package api provides the gRPC sensor API of ParkWatch.
//
// Sensors and gateways call EvaluateReadings with the latest readings of one
// device and get back one alarm level per configured field. SyncConditions
// lets an edge gateway pull the active rule set and evaluate locally; an
// ETag keeps repeat syncs cheap.
//
// Messages are google.protobuf.Struct so the wire contract needs no
// generated code; field names match the JSON of the admin API.
package api

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/solatis/parkwatch/internal/core/config"
	"github.com/solatis/parkwatch/internal/core/metrics"
	"github.com/solatis/parkwatch/internal/types"
)

// ConditionFetcher supplies the persisted condition set of a device type.
type ConditionFetcher interface {
	FetchConditions(ctx context.Context, objectID types.ObjectID) ([]types.EventCondition, error)
}

// ProfileLister supplies the catalog of a device type.
type ProfileLister interface {
	ListProfiles(ctx context.Context, objectID types.ObjectID) ([]types.DeviceProfile, error)
}

// SensorAPIService implements SensorAPIServer.
// Thin orchestration layer delegating to the condition package for rules
// and to the (usually cached) store for data.
type SensorAPIService struct {
	conditions ConditionFetcher
	profiles   ProfileLister
	cfg        *config.SensorAPIConfig
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewSensorAPIService creates service instance with dependencies.
func NewSensorAPIService(conditions ConditionFetcher, profiles ProfileLister, cfg *config.SensorAPIConfig, logger *zap.Logger) (*SensorAPIService, error) {
	if conditions == nil {
		return nil, fmt.Errorf("conditions cannot be nil")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profiles cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SensorAPIService{
		conditions: conditions,
		profiles:   profiles,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// SetMetrics installs the collectors evaluations are reported to.
func (s *SensorAPIService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// maxReadings is the smaller of the configured batch size and the hard limit.
func (s *SensorAPIService) maxReadings() int {
	if s.cfg.MaxBatchSize > 0 && s.cfg.MaxBatchSize < types.MaxReadingsPerRequest {
		return s.cfg.MaxBatchSize
	}
	return types.MaxReadingsPerRequest
}
