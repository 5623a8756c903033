package localdb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var DBClient *sql.DB

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyAwarded is returned when an item is awarded a second time.
	ErrAlreadyAwarded = errors.New("item already awarded")
)

func SetupDB(dbPath string) (*sql.DB, error) {
	if DBClient != nil {
		return DBClient, nil
	}

	// WALモードとBusy Timeoutを設定（Race Condition対策）
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// SQLiteは単一ライターなので接続プールを1に制限
	db.SetMaxOpenConns(1)

	DBClient = db

	if err := createTables(db); err != nil {
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		twitch_id TEXT UNIQUE NOT NULL,
		username TEXT UNIQUE NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		logger.Error("Failed to create users table", zap.Error(err))
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS giveaways (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		frequency INTEGER NOT NULL,
		threshold INTEGER NOT NULL,
		creator_id INTEGER NOT NULL REFERENCES users(id),
		active BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		logger.Error("Failed to create giveaways table", zap.Error(err))
		return fmt.Errorf("failed to create giveaways table: %w", err)
	}

	// giveaway_idはON DELETE SET NULL。獲得済みアイテムはギブアウェイ削除後も残す
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		code TEXT,
		is_won BOOLEAN NOT NULL DEFAULT false,
		giveaway_id INTEGER REFERENCES giveaways(id) ON DELETE SET NULL,
		winner_id INTEGER REFERENCES users(id),
		winner_username TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		logger.Error("Failed to create items table", zap.Error(err))
		return fmt.Errorf("failed to create items table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS winners (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER REFERENCES users(id),
		giveaway_id INTEGER,
		item_id INTEGER REFERENCES items(id),
		won_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		logger.Error("Failed to create winners table", zap.Error(err))
		return fmt.Errorf("failed to create winners table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		logger.Error("Failed to create sessions table", zap.Error(err))
		return fmt.Errorf("failed to create sessions table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS tokens (
		id INTEGER PRIMARY KEY,
		access_token TEXT,
		refresh_token TEXT,
		scope TEXT,
		expires_at INTEGER
	)`)
	if err != nil {
		logger.Error("Failed to create tokens table", zap.Error(err))
		return fmt.Errorf("failed to create tokens table: %w", err)
	}

	return nil
}

func GetDB() *sql.DB {
	return DBClient
}

// CloseDB closes the shared database handle.
func CloseDB() {
	if DBClient != nil {
		_ = DBClient.Close()
		DBClient = nil
	}
}
