// Package store is the local sqlite database behind the session slot and the
// brand-voice local tier. Each record lives in a single-row table.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/manash/bizforge/pkg/models"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const dbFileName = "bizforge.db"

// goose keeps its dialect and filesystem in package globals.
var migrateMu sync.Mutex

type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database in dataDir.
func Open(dataDir string) (*DB, error) {
	return OpenPath(filepath.Join(dataDir, dbFileName))
}

func OpenPath(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func migrate(db *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationFS)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// LoadSession returns the stored session, or nil when the slot is empty.
func (d *DB) LoadSession(ctx context.Context) (*models.Session, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT token, subject_id, display_name, email, avatar_uri, expires_at_ms
		 FROM session_slot WHERE id = 1`)

	sess := &models.Session{}
	var name, email, avatar sql.NullString
	err := row.Scan(&sess.Token, &sess.SubjectID, &name, &email, &avatar, &sess.ExpiresAtMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	sess.DisplayName = name.String
	sess.Email = email.String
	sess.AvatarURI = avatar.String
	return sess, nil
}

// SaveSession replaces whatever occupies the slot.
func (d *DB) SaveSession(ctx context.Context, sess *models.Session) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO session_slot (id, token, subject_id, display_name, email, avatar_uri, expires_at_ms, created_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   token = excluded.token,
		   subject_id = excluded.subject_id,
		   display_name = excluded.display_name,
		   email = excluded.email,
		   avatar_uri = excluded.avatar_uri,
		   expires_at_ms = excluded.expires_at_ms,
		   created_at = excluded.created_at`,
		sess.Token, sess.SubjectID, nullString(sess.DisplayName), nullString(sess.Email),
		nullString(sess.AvatarURI), sess.ExpiresAtMs, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (d *DB) ClearSession(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM session_slot`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// LoadProfile returns the local brand voice. A missing row is the zero
// profile.
func (d *DB) LoadProfile(ctx context.Context) (models.BrandVoiceProfile, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT personality, industry, target_audience, tone FROM brand_voice WHERE id = 1`)

	var p models.BrandVoiceProfile
	err := row.Scan(&p.Personality, &p.Industry, &p.TargetAudience, &p.Tone)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BrandVoiceProfile{}, nil
	}
	if err != nil {
		return models.BrandVoiceProfile{}, fmt.Errorf("failed to read brand voice: %w", err)
	}
	return p, nil
}

func (d *DB) SaveProfile(ctx context.Context, p models.BrandVoiceProfile) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO brand_voice (id, personality, industry, target_audience, tone, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   personality = excluded.personality,
		   industry = excluded.industry,
		   target_audience = excluded.target_audience,
		   tone = excluded.tone,
		   updated_at = excluded.updated_at`,
		p.Personality, p.Industry, p.TargetAudience, p.Tone, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write brand voice: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
