package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/user/profile-crawler/internal/entity"
	"github.com/user/profile-crawler/internal/repository"

	_ "modernc.org/sqlite"
)

const (
	lastRunKey = "last_run"
	memoryPath = ":memory:"
)

// RecordStoreImpl provides a concrete implementation for the RecordStore interface using SQLite.
type RecordStoreImpl struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*RecordStoreImpl, error) {
	dsn := memoryPath
	if path != memoryPath {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == memoryPath {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	store, err := NewRecordStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewRecordStore wraps an open database and applies the schema.
func NewRecordStore(ctx context.Context, db *sql.DB) (*RecordStoreImpl, error) {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, storageErr("apply schema", err)
	}
	return &RecordStoreImpl{db: db}, nil
}

// Exists checks for a stored profile with the given URL.
func (r *RecordStoreImpl) Exists(ctx context.Context, url string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM profiles WHERE url = ?`, url).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("check profile", err)
	}
	return true, nil
}

// Save inserts the profile; a URL that is already stored is left untouched.
func (r *RecordStoreImpl) Save(ctx context.Context, profile *entity.Profile) (bool, error) {
	if profile.ScrapedAt.IsZero() {
		profile.ScrapedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (url, name, phone, about, scraped_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (url) DO NOTHING`,
		profile.URL, profile.Name, profile.Phone, profile.About, formatTime(profile.ScrapedAt),
	)
	if err != nil {
		return false, storageErr("save profile", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("save profile", err)
	}
	return n == 1, nil
}

// Count returns the total number of stored profiles.
func (r *RecordStoreImpl) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, storageErr("count profiles", err)
	}
	return n, nil
}

// SetLastRun overwrites the last_run metadata value.
func (r *RecordStoreImpl) SetLastRun(ctx context.Context, t time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		lastRunKey, formatTime(t),
	)
	if err != nil {
		return storageErr("set last run", err)
	}
	return nil
}

// GetLastRun returns nil if no crawl has completed yet.
func (r *RecordStoreImpl) GetLastRun(ctx context.Context) (*time.Time, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, lastRunKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get last run", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, storageErr("decode last run", err)
	}
	return &t, nil
}

// ExportAll reads every profile in insertion order with a single query.
func (r *RecordStoreImpl) ExportAll(ctx context.Context) ([]entity.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT url, name, phone, about, scraped_at FROM profiles ORDER BY id ASC`)
	if err != nil {
		return nil, storageErr("export profiles", err)
	}
	defer rows.Close()

	profiles := []entity.Profile{}
	for rows.Next() {
		var p entity.Profile
		var scrapedAt string
		if err := rows.Scan(&p.URL, &p.Name, &p.Phone, &p.About, &scrapedAt); err != nil {
			return nil, storageErr("scan profile", err)
		}
		if p.ScrapedAt, err = time.Parse(time.RFC3339Nano, scrapedAt); err != nil {
			return nil, storageErr("decode scraped_at", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("export profiles", err)
	}
	return profiles, nil
}

func (r *RecordStoreImpl) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

func (r *RecordStoreImpl) Close() error {
	return r.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("sqlite %s: %w: %w", op, repository.ErrStorageUnavailable, err)
}
