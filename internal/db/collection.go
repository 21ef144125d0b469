package db

import (
	"context"

	"github.com/ukydev/toll-scenario/internal/models"
)

// RunCollection defines the interface for run archive operations.
type RunCollection interface {
	InsertRun(ctx context.Context, run models.RunRecord) error
	FindRuns(ctx context.Context, sessionID string, limit int64) ([]models.RunRecord, error)
	InsertTrackJob(ctx context.Context, job models.TrackJob) error
	FindTrackJobs(ctx context.Context, sessionID string) ([]models.TrackJob, error)
}

// OperatorCollection defines the interface for operator account operations.
type OperatorCollection interface {
	InsertOperator(ctx context.Context, op models.Operator) error
	FindOperatorByUsername(ctx context.Context, username string) (*models.Operator, error)
	UpdateLastLogin(ctx context.Context, username string) error
}
