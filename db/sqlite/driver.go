package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a GORM *DB backed by a SQLite file, creating its directory if
// needed. WAL and a busy timeout are enabled unless the path carries its own
// query string.
func Open(path string) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(path, "?") {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: create dir: %w", err)
			}
		}
		dsn = path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// OpenMemory opens a named in-memory DB shared by every connection of the
// returned pool. Different names never see each other's data.
func OpenMemory(name string) (*gorm.DB, error) {
	if name == "" {
		name = "hikiquest"
	}
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// A single connection keeps the shared-cache DB alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
