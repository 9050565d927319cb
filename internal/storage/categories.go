package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"scadenze/internal/core"
)

func (q *Queries) InsertCategory(ctx context.Context, c core.Category) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, type, icon, color, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(c.Type), nullString(c.Icon), nullString(c.Color), formatTimestamp(c.CreatedAt))
	if err != nil {
		return core.Persistence("insert category", err)
	}
	return nil
}

// ListCategories returns categories ordered by name. An empty type returns all of them.
func (q *Queries) ListCategories(ctx context.Context, t core.EntryType) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT id, name, type, COALESCE(icon, ''), COALESCE(color, ''), created_at
FROM categories
WHERE ? = '' OR type = ?
ORDER BY name ASC, id ASC`, string(t), string(t))
	if err != nil {
		return nil, core.Persistence("list categories", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		var (
			c                     core.Category
			categoryType, created string
		)
		if err := rows.Scan(&c.ID, &c.Name, &categoryType, &c.Icon, &c.Color, &created); err != nil {
			return nil, core.Persistence("scan category", err)
		}
		c.Type = core.EntryType(categoryType)
		c.CreatedAt = parseTimestamp(created)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Persistence("list categories", err)
	}
	return categories, nil
}

func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.ErrSettingNotFound
	}
	if err != nil {
		return "", core.Persistence("get setting", err)
	}
	return value, nil
}

// SetSetting inserts or replaces a setting.
func (q *Queries) SetSetting(ctx context.Context, key, value string, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, formatTimestamp(now))
	if err != nil {
		return core.Persistence("set setting", err)
	}
	return nil
}

func (q *Queries) ListSettings(ctx context.Context) ([]core.Setting, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, core.Persistence("list settings", err)
	}
	defer rows.Close()

	settings := []core.Setting{}
	for rows.Next() {
		var s core.Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, core.Persistence("scan setting", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Persistence("list settings", err)
	}
	return settings, nil
}
