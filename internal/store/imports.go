package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/model"
)

// StartImport records a new running import pass and returns its id.
func (q *queries) StartImport(ctx context.Context, runID, dataset string, total int) (int64, error) {
	var id int64
	err := q.c.queryRow(ctx, `
		INSERT INTO import_runs (run_id, dataset, status, started_at, total)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		runID, dataset, string(model.ImportStatusRunning), q.now(), total,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "store: start import %s", dataset)
	}
	return id, nil
}

// CompleteImport marks a pass complete with its final counters.
func (q *queries) CompleteImport(ctx context.Context, id int64, counts model.ImportCounts) error {
	_, err := q.c.exec(ctx, `
		UPDATE import_runs SET status = ?, completed_at = ?, total = ?, created = ?, updated = ?,
			skipped = ?, errors = ?
		WHERE id = ?`,
		string(model.ImportStatusComplete), q.now(), counts.Total, counts.Created, counts.Updated,
		counts.Skipped, counts.Errors,
		id,
	)
	return eris.Wrapf(err, "store: complete import %d", id)
}

// FailImport marks a pass failed and stores the error text.
func (q *queries) FailImport(ctx context.Context, id int64, counts model.ImportCounts, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := q.c.exec(ctx, `
		UPDATE import_runs SET status = ?, completed_at = ?, total = ?, created = ?, updated = ?,
			skipped = ?, errors = ?, error = ?
		WHERE id = ?`,
		string(model.ImportStatusFailed), q.now(), counts.Total, counts.Created, counts.Updated,
		counts.Skipped, counts.Errors, msg,
		id,
	)
	return eris.Wrapf(err, "store: fail import %d", id)
}

// ListImports returns the most recent import passes, newest first.
func (q *queries) ListImports(ctx context.Context, limit int) ([]model.ImportRun, error) {
	rs, err := q.c.query(ctx, `
		SELECT id, run_id, dataset, status, started_at, completed_at, total, created, updated,
			skipped, errors, error
		FROM import_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list imports")
	}
	defer rs.Close()

	var runs []model.ImportRun
	for rs.Next() {
		var (
			r      model.ImportRun
			status string
		)
		if err := rs.Scan(&r.ID, &r.RunID, &r.Dataset, &status, &r.StartedAt, &r.CompletedAt,
			&r.Total, &r.Created, &r.Updated, &r.Skipped, &r.Errors, &r.Error); err != nil {
			return nil, eris.Wrap(err, "store: scan import run")
		}
		r.Status = model.ImportStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rs.Err(), "store: iterate import runs")
}
