package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/profile-crawler/internal/entity"
	"github.com/user/profile-crawler/internal/repository"
)

const lastRunKey = "last_run"

// RecordStoreImpl provides a concrete implementation for the RecordStore interface using PostgreSQL.
type RecordStoreImpl struct {
	db *pgxpool.Pool
}

// Open connects to connString, verifies the connection and applies the schema.
func Open(ctx context.Context, connString string) (*RecordStoreImpl, error) {
	db, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	store, err := NewRecordStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewRecordStore creates a new instance of RecordStoreImpl on an existing pool.
func NewRecordStore(ctx context.Context, db *pgxpool.Pool) (*RecordStoreImpl, error) {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return nil, storageErr("apply schema", err)
	}
	return &RecordStoreImpl{db: db}, nil
}

// Exists checks for a stored profile with the given URL.
func (r *RecordStoreImpl) Exists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE url = $1)`, url).Scan(&exists)
	if err != nil {
		return false, storageErr("check profile", err)
	}
	return exists, nil
}

// Save inserts the profile. ON CONFLICT DO NOTHING keeps the first write.
func (r *RecordStoreImpl) Save(ctx context.Context, profile *entity.Profile) (bool, error) {
	if profile.ScrapedAt.IsZero() {
		profile.ScrapedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO profiles (url, name, phone, about, scraped_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO NOTHING;
	`
	tag, err := r.db.Exec(ctx, query,
		profile.URL,
		profile.Name,
		profile.Phone,
		profile.About,
		profile.ScrapedAt,
	)
	if err != nil {
		return false, storageErr("save profile", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Count returns the total number of stored profiles.
func (r *RecordStoreImpl) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, storageErr("count profiles", err)
	}
	return n, nil
}

// SetLastRun overwrites the last_run metadata row.
func (r *RecordStoreImpl) SetLastRun(ctx context.Context, t time.Time) error {
	query := `
		INSERT INTO metadata (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value;
	`
	if _, err := r.db.Exec(ctx, query, lastRunKey, t.UTC().Format(time.RFC3339Nano)); err != nil {
		return storageErr("set last run", err)
	}
	return nil
}

// GetLastRun returns nil if no crawl has completed yet.
func (r *RecordStoreImpl) GetLastRun(ctx context.Context) (*time.Time, error) {
	var raw string
	err := r.db.QueryRow(ctx, `SELECT value FROM metadata WHERE key = $1`, lastRunKey).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
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

// ExportAll reads every profile in insertion order. A single statement sees
// one committed snapshot, so a concurrent crawl cannot tear the export.
func (r *RecordStoreImpl) ExportAll(ctx context.Context) ([]entity.Profile, error) {
	query := `
		SELECT url, name, phone, about, scraped_at
		FROM profiles
		ORDER BY id ASC;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, storageErr("export profiles", err)
	}
	defer rows.Close()

	profiles := []entity.Profile{}
	for rows.Next() {
		var p entity.Profile
		if err := rows.Scan(&p.URL, &p.Name, &p.Phone, &p.About, &p.ScrapedAt); err != nil {
			return nil, storageErr("scan profile", err)
		}
		p.ScrapedAt = p.ScrapedAt.UTC()
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("export profiles", err)
	}
	return profiles, nil
}

func (r *RecordStoreImpl) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

func (r *RecordStoreImpl) Close() error {
	r.db.Close()
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("postgres %s: %w: %w", op, repository.ErrStorageUnavailable, err)
}
