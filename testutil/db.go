package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sahilchouksey/course-market-api/database"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB opens an isolated in-memory SQLite database with every model migrated.
// A single connection keeps concurrent tests from tripping over SQLITE_BUSY.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.NewGORMStore(db).Init(); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// Logger returns a logger that discards output
func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}
