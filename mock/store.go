package mock

import (
	"context"

	shl "github.com/arnnv/shl-recommendation-system"
)

var _ shl.DatasetStore = (*DatasetStore)(nil)

// DatasetStore is a mock implementation of shl.DatasetStore.
type DatasetStore struct {
	LoadFn        func(ctx context.Context) ([]*shl.Assessment, error)
	SaveFn        func(ctx context.Context, assessments []*shl.Assessment) error
	SavePartialFn func(ctx context.Context, assessments []*shl.Assessment) error
}

func (s *DatasetStore) Load(ctx context.Context) ([]*shl.Assessment, error) {
	return s.LoadFn(ctx)
}

func (s *DatasetStore) Save(ctx context.Context, assessments []*shl.Assessment) error {
	return s.SaveFn(ctx, assessments)
}

func (s *DatasetStore) SavePartial(ctx context.Context, assessments []*shl.Assessment) error {
	return s.SavePartialFn(ctx, assessments)
}

var _ shl.StateStore = (*StateStore)(nil)

// StateStore is a mock implementation of shl.StateStore.
type StateStore struct {
	LoadFn func(ctx context.Context) (*shl.CrawlState, error)
	SaveFn func(ctx context.Context, state *shl.CrawlState) error
}

func (s *StateStore) Load(ctx context.Context) (*shl.CrawlState, error) {
	return s.LoadFn(ctx)
}

func (s *StateStore) Save(ctx context.Context, state *shl.CrawlState) error {
	return s.SaveFn(ctx, state)
}

var _ shl.FetchLog = (*FetchLog)(nil)

// FetchLog is a mock implementation of shl.FetchLog.
type FetchLog struct {
	RecordFn  func(ctx context.Context, rec *shl.FetchRecord) error
	SummaryFn func(ctx context.Context, runID string) ([]shl.FetchSummary, error)
}

func (l *FetchLog) Record(ctx context.Context, rec *shl.FetchRecord) error {
	return l.RecordFn(ctx, rec)
}

func (l *FetchLog) Summary(ctx context.Context, runID string) ([]shl.FetchSummary, error) {
	return l.SummaryFn(ctx, runID)
}
