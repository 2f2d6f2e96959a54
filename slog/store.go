package slog

import (
	"context"
	"log/slog"
	"time"

	shl "github.com/arnnv/shl-recommendation-system"
)

// Ensure LoggingDatasetStore implements shl.DatasetStore.
var _ shl.DatasetStore = (*LoggingDatasetStore)(nil)

// LoggingDatasetStore wraps a DatasetStore with save/load logging.
type LoggingDatasetStore struct {
	next   shl.DatasetStore
	logger *slog.Logger
}

// NewLoggingDatasetStore creates a new LoggingDatasetStore.
func NewLoggingDatasetStore(next shl.DatasetStore, logger *slog.Logger) *LoggingDatasetStore {
	return &LoggingDatasetStore{next: next, logger: logger}
}

// Load delegates to the wrapped store and logs the operation.
func (s *LoggingDatasetStore) Load(ctx context.Context) (assessments []*shl.Assessment, err error) {
	defer func(begin time.Time) {
		s.logger.Info("dataset load",
			"count", len(assessments),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Load(ctx)
}

// Save delegates to the wrapped store and logs the operation.
func (s *LoggingDatasetStore) Save(ctx context.Context, assessments []*shl.Assessment) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("dataset save",
			"count", len(assessments),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Save(ctx, assessments)
}

// SavePartial delegates to the wrapped store and logs the operation.
func (s *LoggingDatasetStore) SavePartial(ctx context.Context, assessments []*shl.Assessment) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("dataset partial save",
			"count", len(assessments),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.SavePartial(ctx, assessments)
}

// Ensure LoggingStateStore implements shl.StateStore.
var _ shl.StateStore = (*LoggingStateStore)(nil)

// LoggingStateStore wraps a StateStore with save logging. State saves happen
// after every page, so they log at debug level.
type LoggingStateStore struct {
	next   shl.StateStore
	logger *slog.Logger
}

// NewLoggingStateStore creates a new LoggingStateStore.
func NewLoggingStateStore(next shl.StateStore, logger *slog.Logger) *LoggingStateStore {
	return &LoggingStateStore{next: next, logger: logger}
}

// Load delegates to the wrapped store.
func (s *LoggingStateStore) Load(ctx context.Context) (*shl.CrawlState, error) {
	return s.next.Load(ctx)
}

// Save delegates to the wrapped store and logs the operation.
func (s *LoggingStateStore) Save(ctx context.Context, state *shl.CrawlState) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("state save",
			"run_id", state.RunID,
			"completed", state.Completed,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Save(ctx, state)
}
