package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rushteam/searchop/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    expires_at INTEGER  -- unix 秒，NULL 表示不过期
);
`

// SQLiteStore 是 SQLite 实现的 Store：单文件、零运维，
// 适合单机部署时把特征库快照和离线产物放在本地磁盘。
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

var _ core.Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM kv WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid && time.Now().Unix() > expiresAt.Int64 {
		return nil, core.ErrStoreNotFound
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	expiresAt := expiry(ttl)
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at",
		key, value, expiresAt)
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return err
}

func (s *SQLiteStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value, expires_at FROM kv WHERE key IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now().Unix()
	for rows.Next() {
		var key string
		var value []byte
		var expiresAt sql.NullInt64
		if err := rows.Scan(&key, &value, &expiresAt); err != nil {
			return nil, err
		}
		if expiresAt.Valid && now > expiresAt.Int64 {
			continue
		}
		result[key] = value
	}
	return result, rows.Err()
}

func (s *SQLiteStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	expiresAt := expiry(ttl)
	for k, v := range kvs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?) "+
				"ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at",
			k, v, expiresAt); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func expiry(ttl []int) any {
	if len(ttl) > 0 && ttl[0] > 0 {
		return time.Now().Unix() + int64(ttl[0])
	}
	return nil
}
