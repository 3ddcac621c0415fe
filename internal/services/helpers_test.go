package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wellspringapp/wellspring-backend/internal/logger"
	"github.com/wellspringapp/wellspring-backend/internal/requestdata"
	"github.com/wellspringapp/wellspring-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to init test logger: %v", err)
	}
	return log
}

// newTestDB opens a per-test in-memory sqlite database. The DSN is named after
// the test so the shared cache is scoped to one test, not the whole binary.
// The model tags carry postgres column defaults sqlite cannot parse, so the
// schema is created directly.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	for _, stmt := range testSchema {
		if err := gdb.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to create test schema: %v", err)
		}
	}
	return gdb
}

var testSchema = []string{
	`CREATE TABLE IF NOT EXISTS "user" (
		id text PRIMARY KEY,
		email text NOT NULL UNIQUE,
		password text NOT NULL,
		first_name text,
		last_name text,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_token (
		id text PRIMARY KEY,
		user_id text NOT NULL,
		access_token text NOT NULL,
		refresh_token text NOT NULL UNIQUE,
		expires_at datetime NOT NULL,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS content_item (
		id text PRIMARY KEY,
		owner_id text NOT NULL,
		module text NOT NULL,
		title text NOT NULL,
		content text,
		category text,
		duration_minutes integer,
		payload jsonb,
		is_ai_generated boolean NOT NULL DEFAULT 0,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

func seedUser(t *testing.T, gdb *gorm.DB) uuid.UUID {
	t.Helper()
	user := &types.User{
		ID:       uuid.New(),
		Email:    fmt.Sprintf("%s@example.com", uuid.New()),
		Password: "hashed",
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user.ID
}

func ctxWithUser(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		TokenString: "test-token",
		UserID:      userID,
	})
}

// fakeReportCache is an in-memory stand-in for the Redis report cache that
// records which keys were invalidated.
type fakeReportCache struct {
	store       map[string][]byte
	invalidated []string
}

func newFakeReportCache() *fakeReportCache {
	return &fakeReportCache{store: map[string][]byte{}}
}

func (f *fakeReportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, ok := f.store[key]
	return raw, ok
}

func (f *fakeReportCache) Set(ctx context.Context, key string, raw []byte) {
	f.store[key] = raw
}

func (f *fakeReportCache) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		delete(f.store, key)
		f.invalidated = append(f.invalidated, key)
	}
}

func (f *fakeReportCache) Close() error { return nil }
