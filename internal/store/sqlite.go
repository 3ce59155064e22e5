package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements DB on a single SQLite file.
type SQLiteDB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. Use ":memory:" for tests.
func Open(path string) (*SQLiteDB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	// A single connection; with more, each :memory: connection is its own database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Ping checks connectivity.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the schema.
func (s *SQLiteDB) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS saved_profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			game TEXT NOT NULL,
			style TEXT NOT NULL,
			device_id TEXT NOT NULL DEFAULT '',
			values_json TEXT NOT NULL,
			gyro_mode TEXT NOT NULL DEFAULT '',
			rotation_mode TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_profiles_created ON saved_profiles(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_profiles_game ON saved_profiles(game, created_at DESC)`,
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	defer tx.Rollback()
	for _, m := range migrations {
		if _, err := tx.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return tx.Commit()
}

// Load reads a value from the key-value table.
func (s *SQLiteDB) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: load %q: %w", key, err)
	}
	return data, true, nil
}

// Save upserts a value into the key-value table.
func (s *SQLiteDB) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store: save %q: %w", key, err)
	}
	return nil
}

// CreateProfile inserts a saved profile and returns its id.
func (s *SQLiteDB) CreateProfile(ctx context.Context, p *SavedProfile) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	values, err := json.Marshal(p.Values)
	if err != nil {
		return "", fmt.Errorf("store: encode values: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_profiles (id, name, game, style, device_id, values_json, gyro_mode, rotation_mode, score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Game, p.Style, p.DeviceID, string(values), p.GyroMode, p.RotationMode, p.Score, p.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("store: create profile: %w", err)
	}
	return p.ID, nil
}

const profileColumns = `id, name, game, style, device_id, values_json, gyro_mode, rotation_mode, score, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*SavedProfile, error) {
	var (
		p      SavedProfile
		values string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Game, &p.Style, &p.DeviceID, &values,
		&p.GyroMode, &p.RotationMode, &p.Score, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(values), &p.Values); err != nil {
		return nil, fmt.Errorf("store: decode values for %s: %w", p.ID, err)
	}
	return &p, nil
}

// GetProfile fetches one saved profile.
func (s *SQLiteDB) GetProfile(ctx context.Context, id string) (*SavedProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM saved_profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: profile %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get profile: %w", err)
	}
	return p, nil
}

// ListProfiles returns saved profiles, newest first.
func (s *SQLiteDB) ListProfiles(ctx context.Context, q ProfilesQuery) (*ProfilesList, error) {
	q.normalize()

	where := ""
	args := []any{}
	if q.Game != "" {
		where = "WHERE game = ?"
		args = append(args, q.Game)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM saved_profiles "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("store: count profiles: %w", err)
	}

	offset := (q.Page - 1) * q.PerPage
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM saved_profiles `+where+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, q.PerPage, offset)...,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []SavedProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate profiles: %w", err)
	}

	return &ProfilesList{
		Profiles:   profiles,
		TotalCount: total,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: (total + q.PerPage - 1) / q.PerPage,
	}, nil
}

// DeleteProfile removes a saved profile.
func (s *SQLiteDB) DeleteProfile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: profile %q: %w", id, ErrNotFound)
	}
	return nil
}
