package afk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ytget/shizuku-bot/internal/model"
)

// Repository stores AFK records keyed by user id
type Repository interface {
	Set(ctx context.Context, rec *model.AFKRecord) error
	Get(ctx context.Context, userID int64) (*model.AFKRecord, error)
	Remove(ctx context.Context, userID int64) (bool, error)
	IncrementCount(ctx context.Context, userID int64, sticker bool) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at dsn and creates the schema.
func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// For in-memory SQLite, multiple connections create separate databases.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS afk (
			user_id INTEGER PRIMARY KEY,
			since DATETIME NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			msg_count INTEGER NOT NULL DEFAULT 0,
			sticker_count INTEGER NOT NULL DEFAULT 0
		)`,
	}

	for _, m := range migrations {
		if _, err := r.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Set stores rec, replacing any previous record of the user.
func (r *SQLiteRepository) Set(ctx context.Context, rec *model.AFKRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO afk (user_id, since, reason, msg_count, sticker_count) VALUES (?, ?, ?, ?, ?)`,
		rec.UserID, rec.Since.UTC(), rec.Reason, rec.MsgCount, rec.StickerCount)
	if err != nil {
		return fmt.Errorf("failed to set afk for %d: %w", rec.UserID, err)
	}
	return nil
}

// Get returns the record of the user, or nil when the user is not away.
func (r *SQLiteRepository) Get(ctx context.Context, userID int64) (*model.AFKRecord, error) {
	var rec model.AFKRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, since, reason, msg_count, sticker_count FROM afk WHERE user_id = ?`,
		userID).Scan(&rec.UserID, &rec.Since, &rec.Reason, &rec.MsgCount, &rec.StickerCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get afk for %d: %w", userID, err)
	}
	return &rec, nil
}

// Remove deletes the record of the user and reports whether one existed.
func (r *SQLiteRepository) Remove(ctx context.Context, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM afk WHERE user_id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove afk for %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementCount bumps the message or sticker counter of an away user.
func (r *SQLiteRepository) IncrementCount(ctx context.Context, userID int64, sticker bool) error {
	query := `UPDATE afk SET msg_count = msg_count + 1 WHERE user_id = ?`
	if sticker {
		query = `UPDATE afk SET sticker_count = sticker_count + 1 WHERE user_id = ?`
	}
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to update afk counters for %d: %w", userID, err)
	}
	return nil
}
