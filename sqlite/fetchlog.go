package sqlite

import (
	"context"
	"time"

	shl "github.com/arnnv/shl-recommendation-system"
)

var _ shl.FetchLog = (*FetchLog)(nil)

// FetchLog implements shl.FetchLog backed by SQLite. The log is
// observational; a write failure is reported but must not abort a crawl.
type FetchLog struct {
	db *DB
}

// NewFetchLog creates a fetch log service backed by db.
func NewFetchLog(db *DB) *FetchLog {
	return &FetchLog{db: db}
}

// Record appends one fetch-log entry.
func (l *FetchLog) Record(ctx context.Context, rec *shl.FetchRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO fetch_log (run_id, section, url, page_number, outcome, items, duration_ms, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		string(rec.Section),
		rec.URL,
		rec.PageNumber,
		string(rec.Outcome),
		rec.Items,
		rec.Duration.Milliseconds(),
		rec.FetchedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return shl.Errorf(shl.EINTERNAL, "failed to record fetch: %v", err)
	}
	return nil
}

// Summary aggregates entries for a run by section and outcome, in a stable
// order.
func (l *FetchLog) Summary(ctx context.Context, runID string) ([]shl.FetchSummary, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT section, outcome, COUNT(*), SUM(items)
		FROM fetch_log
		WHERE run_id = ?
		GROUP BY section, outcome
		ORDER BY section, outcome`,
		runID,
	)
	if err != nil {
		return nil, shl.Errorf(shl.EINTERNAL, "failed to summarize fetch log: %v", err)
	}
	defer rows.Close()

	var summaries []shl.FetchSummary
	for rows.Next() {
		var s shl.FetchSummary
		var section, outcome string
		if err := rows.Scan(&section, &outcome, &s.Count, &s.Items); err != nil {
			return nil, shl.Errorf(shl.EINTERNAL, "failed to scan fetch summary: %v", err)
		}
		s.Section = shl.Section(section)
		s.Outcome = shl.FetchOutcome(outcome)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, shl.Errorf(shl.EINTERNAL, "failed to read fetch summaries: %v", err)
	}
	return summaries, nil
}
