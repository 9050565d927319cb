package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scadenze/internal/core"
)

func scanReport(row rowScanner) (core.ReportDefinition, error) {
	var (
		r                        core.ReportDefinition
		config, created, updated string
	)
	if err := row.Scan(&r.ID, &r.Name, &config, &created, &updated); err != nil {
		return core.ReportDefinition{}, err
	}
	if err := json.Unmarshal([]byte(config), &r.Config); err != nil {
		return core.ReportDefinition{}, fmt.Errorf("decode report %s config: %w", r.ID, err)
	}
	r.CreatedAt = parseTimestamp(created)
	r.UpdatedAt = parseTimestamp(updated)
	return r, nil
}

func (q *Queries) InsertReport(ctx context.Context, r core.ReportDefinition) error {
	config, err := json.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("encode report config: %w", err)
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO reports (id, name, config, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Name, string(config), formatTimestamp(r.CreatedAt), formatTimestamp(r.UpdatedAt))
	if err != nil {
		return core.Persistence("insert report", err)
	}
	return nil
}

// ListReports returns every report, newest first.
func (q *Queries) ListReports(ctx context.Context) ([]core.ReportDefinition, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, config, created_at, updated_at FROM reports ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, core.Persistence("list reports", err)
	}
	defer rows.Close()

	reports := []core.ReportDefinition{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, core.Persistence("scan report", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Persistence("list reports", err)
	}
	return reports, nil
}

func (q *Queries) GetReport(ctx context.Context, id string) (core.ReportDefinition, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, config, created_at, updated_at FROM reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ReportDefinition{}, core.ErrReportNotFound
	}
	if err != nil {
		return core.ReportDefinition{}, core.Persistence("get report", err)
	}
	return r, nil
}

// UpdateReport replaces name and config. It returns ErrReportNotFound when no row matches.
func (q *Queries) UpdateReport(ctx context.Context, id, name string, config core.ReportConfig, now time.Time) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode report config: %w", err)
	}
	res, err := q.db.ExecContext(ctx,
		`UPDATE reports SET name = ?, config = ?, updated_at = ? WHERE id = ?`,
		name, string(raw), formatTimestamp(now), id)
	if err != nil {
		return core.Persistence("update report", err)
	}
	return expectOne(res, "update report", core.ErrReportNotFound)
}

// DeleteReport removes a report. It returns ErrReportNotFound when no row matches.
func (q *Queries) DeleteReport(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return core.Persistence("delete report", err)
	}
	return expectOne(res, "delete report", core.ErrReportNotFound)
}

func expectOne(res sql.Result, op string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return core.Persistence(op, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
