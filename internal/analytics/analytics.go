// Package analytics computes read-only rollups over result records. It is
// best-effort: an empty data set or a store failure yields a zeroed
// overview, never an error.
package analytics

import (
	"context"
	"database/sql"
	"log/slog"
	"math"
)

// DefaultPassThreshold is used when the caller does not supply one. The
// threshold is caller-chosen, not a system-wide constant.
const DefaultPassThreshold = 50.0

type Overview struct {
	TotalTests        int     `json:"total_tests"`
	TotalResults      int     `json:"total_results"`
	AveragePercentage float64 `json:"average_percentage"`
	PassCount         int     `json:"pass_count"`
	FailCount         int     `json:"fail_count"`
	PassThreshold     float64 `json:"pass_threshold"`
}

type Aggregator struct {
	db *sql.DB
}

func NewAggregator(dbh *sql.DB) *Aggregator { return &Aggregator{db: dbh} }

// Overview rolls up tests and results. scopeOwnerID narrows the rollup to
// one educator's tests; empty means all tests (admin scope).
func (a *Aggregator) Overview(ctx context.Context, scopeOwnerID string, passThreshold float64) Overview {
	if passThreshold <= 0 {
		passThreshold = DefaultPassThreshold
	}
	out := Overview{PassThreshold: passThreshold}

	var err error
	if scopeOwnerID == "" {
		err = a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tests`).Scan(&out.TotalTests)
	} else {
		err = a.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM tests WHERE created_by=$1`, scopeOwnerID).Scan(&out.TotalTests)
	}
	if err != nil {
		slog.Warn("analytics: test count failed, serving zeroed overview", "error", err)
		return Overview{PassThreshold: passThreshold}
	}

	const rollup = `
SELECT COUNT(*),
       COALESCE(AVG(r.percentage), 0),
       COALESCE(SUM(CASE WHEN r.percentage >= $1 THEN 1 ELSE 0 END), 0)
FROM results r
JOIN tests t ON t.id = r.test_id`

	var avg float64
	if scopeOwnerID == "" {
		err = a.db.QueryRowContext(ctx, rollup, passThreshold).
			Scan(&out.TotalResults, &avg, &out.PassCount)
	} else {
		err = a.db.QueryRowContext(ctx, rollup+` WHERE t.created_by=$2`, passThreshold, scopeOwnerID).
			Scan(&out.TotalResults, &avg, &out.PassCount)
	}
	if err != nil {
		slog.Warn("analytics: result rollup failed, serving zeroed overview", "error", err)
		return Overview{PassThreshold: passThreshold, TotalTests: out.TotalTests}
	}

	out.AveragePercentage = math.Round(avg*100) / 100
	out.FailCount = out.TotalResults - out.PassCount
	return out
}
