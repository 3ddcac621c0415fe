package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wellspringapp/wellspring-backend/internal/logger"
	"github.com/wellspringapp/wellspring-backend/internal/types"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// The model tags carry postgres column defaults sqlite cannot parse, so
	// the schema is created directly.
	for _, stmt := range []string{
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
	} {
		if err := gdb.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to create test schema: %v", err)
		}
	}
	return gdb
}

func newRepoTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to init test logger: %v", err)
	}
	return log
}

func repoSeedItem(t *testing.T, repo ContentItemRepo, owner uuid.UUID, module types.Module, title string, createdAt time.Time) *types.ContentItem {
	t.Helper()
	item := &types.ContentItem{
		ID:        uuid.New(),
		OwnerID:   owner,
		Module:    module,
		Title:     title,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if _, err := repo.Create(context.Background(), nil, []*types.ContentItem{item}); err != nil {
		t.Fatalf("seed %q: %v", title, err)
	}
	return item
}

func TestContentItemRepoListOrderingAndLimit(t *testing.T) {
	gdb := newRepoTestDB(t)
	repo := NewContentItemRepo(gdb, newRepoTestLogger(t))
	owner := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		repoSeedItem(t, repo, owner, types.ModuleJournal, fmt.Sprintf("entry-%d", i), base.Add(time.Duration(i)*time.Minute))
	}

	items, err := repo.ListByOwnerModule(context.Background(), nil, owner, types.ModuleJournal, "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("want=5 got=%d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].CreatedAt.After(items[i-1].CreatedAt) {
			t.Fatalf("not newest-first at index %d", i)
		}
	}

	limited, err := repo.ListByOwnerModule(context.Background(), nil, owner, types.ModuleJournal, "", 2)
	if err != nil {
		t.Fatalf("limited list: %v", err)
	}
	if len(limited) != 2 || limited[0].Title != "entry-4" {
		t.Fatalf("limit should keep the newest items, got %+v", limited)
	}
}

func TestContentItemRepoSinceFilter(t *testing.T) {
	gdb := newRepoTestDB(t)
	repo := NewContentItemRepo(gdb, newRepoTestLogger(t))
	owner := uuid.New()
	now := time.Now().UTC()

	repoSeedItem(t, repo, owner, types.ModuleSleep, "old", now.Add(-48*time.Hour))
	repoSeedItem(t, repo, owner, types.ModuleSleep, "recent", now.Add(-time.Hour))
	repoSeedItem(t, repo, owner, types.ModuleMovement, "recent-other", now.Add(-time.Hour))

	all, err := repo.ListByOwnerSince(context.Background(), nil, owner, now.Add(-24*time.Hour), nil)
	if err != nil {
		t.Fatalf("since: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("since filter: want=2 got=%d", len(all))
	}

	sleep := types.ModuleSleep
	scoped, err := repo.ListByOwnerSince(context.Background(), nil, owner, now.Add(-24*time.Hour), &sleep)
	if err != nil {
		t.Fatalf("scoped since: %v", err)
	}
	if len(scoped) != 1 || scoped[0].Title != "recent" {
		t.Fatalf("module filter: got %+v", scoped)
	}
}

func TestContentItemRepoGetByIDForOwner(t *testing.T) {
	gdb := newRepoTestDB(t)
	repo := NewContentItemRepo(gdb, newRepoTestLogger(t))
	owner := uuid.New()
	item := repoSeedItem(t, repo, owner, types.ModuleFocus, "session", time.Now().UTC())

	got, err := repo.GetByIDForOwner(context.Background(), nil, owner, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != item.ID {
		t.Fatalf("wrong item: %+v", got)
	}

	if _, err := repo.GetByIDForOwner(context.Background(), nil, uuid.New(), item.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("cross-owner get should be record-not-found, got %v", err)
	}
}

func TestContentItemRepoSave(t *testing.T) {
	gdb := newRepoTestDB(t)
	repo := NewContentItemRepo(gdb, newRepoTestLogger(t))
	owner := uuid.New()
	item := repoSeedItem(t, repo, owner, types.ModuleFocus, "before", time.Now().UTC())

	item.Title = "after"
	if err := repo.Save(context.Background(), nil, item); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.GetByIDForOwner(context.Background(), nil, owner, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "after" {
		t.Fatalf("save did not persist, got %q", got.Title)
	}
}

func TestUserRepoEmailExists(t *testing.T) {
	gdb := newRepoTestDB(t)
	repo := NewUserRepo(gdb, newRepoTestLogger(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, nil, []*types.User{{
		ID:       uuid.New(),
		Email:    "exists@example.com",
		Password: "hashed",
	}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	exists, err := repo.EmailExists(ctx, nil, "exists@example.com")
	if err != nil || !exists {
		t.Fatalf("want exists=true err=nil, got %v %v", exists, err)
	}
	missing, err := repo.EmailExists(ctx, nil, "missing@example.com")
	if err != nil || missing {
		t.Fatalf("want exists=false err=nil, got %v %v", missing, err)
	}
}

func TestUserTokenRepoLifecycle(t *testing.T) {
	gdb := newRepoTestDB(t)
	repo := NewUserTokenRepo(gdb, newRepoTestLogger(t))
	ctx := context.Background()
	userID := uuid.New()

	token := &types.UserToken{
		ID:           uuid.New(),
		UserID:       userID,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	if _, err := repo.Create(ctx, nil, []*types.UserToken{token}); err != nil {
		t.Fatalf("create: %v", err)
	}

	byRefresh, err := repo.GetByRefreshTokens(ctx, nil, []string{"refresh-1"})
	if err != nil || len(byRefresh) != 1 || byRefresh[0].UserID != userID {
		t.Fatalf("get by refresh: %v %+v", err, byRefresh)
	}
	byAccess, err := repo.GetByAccessTokens(ctx, nil, []string{"access-1"})
	if err != nil || len(byAccess) != 1 {
		t.Fatalf("get by access: %v %+v", err, byAccess)
	}

	if err := repo.DeleteByIDs(ctx, nil, []uuid.UUID{token.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone, err := repo.GetByUserIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil || len(gone) != 0 {
		t.Fatalf("token should be gone: %v %+v", err, gone)
	}

	// Empty id lists are a no-op, not an error.
	if err := repo.DeleteByIDs(ctx, nil, nil); err != nil {
		t.Fatalf("empty delete: %v", err)
	}
}
