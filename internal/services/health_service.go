package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/dataset"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/pkg/contracts"
)

// Health states reported by HealthService.
const (
	StatusUp       = "UP"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// HealthService reports liveness, readiness and build information
type HealthService struct {
	snapshot  *dataset.Snapshot
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]any           `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual component health
type ServiceHealth struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// NewHealthService creates a health service for the loaded snapshot
func NewHealthService(snapshot *dataset.Snapshot, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		snapshot:  snapshot,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// Status is the liveness answer: the process is up and serving.
func (hs *HealthService) Status(ctx context.Context) string {
	return StatusUp
}

// ReadinessCheck reports whether the dataset is loaded.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Services:  map[string]ServiceHealth{"dataset": hs.checkDataset()},
	}
	for _, svc := range status.Services {
		if svc.Status != StatusReady {
			status.Status = StatusNotReady
		}
	}
	if status.Status != StatusReady {
		hs.logger.WarnContext(ctx, "readiness check failed", slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status with runtime figures
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusUp,
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Runtime: map[string]any{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) checkDataset() ServiceHealth {
	if hs.snapshot == nil || hs.snapshot.Entities == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "dataset not loaded"}
	}
	es := hs.snapshot.Entities
	return ServiceHealth{
		Status: StatusReady,
		Details: map[string]any{
			"source":    hs.snapshot.Source,
			"loaded_at": hs.snapshot.LoadedAt.Format(time.RFC3339),
			"customers": es.NumCustomers(),
			"loans":     es.NumLoans(),
		},
	}
}
