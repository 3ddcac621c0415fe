package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wellspringapp/wellspring-backend/internal/handlers"
	"github.com/wellspringapp/wellspring-backend/internal/logger"
	"github.com/wellspringapp/wellspring-backend/internal/middleware"
	"github.com/wellspringapp/wellspring-backend/internal/repos"
	"github.com/wellspringapp/wellspring-backend/internal/services"
)

// stubOpenAIClient keeps router tests off the network.
type stubOpenAIClient struct {
	result map[string]any
	err    error
}

func (s *stubOpenAIClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

var routerTestSchema = []string{
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

// newTestRouter wires the full stack against an in-memory sqlite database and
// a stubbed model client. Schema DDL is hand-written: the model tags carry
// postgres defaults sqlite cannot parse.
func newTestRouter(t *testing.T, ai services.OpenAIClient) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	for _, stmt := range routerTestSchema {
		if err := gdb.Exec(stmt).Error; err != nil {
			t.Fatalf("schema: %v", err)
		}
	}

	userRepo := repos.NewUserRepo(gdb, log)
	tokenRepo := repos.NewUserTokenRepo(gdb, log)
	contentRepo := repos.NewContentItemRepo(gdb, log)

	authService := services.NewAuthService(gdb, log, userRepo, tokenRepo, "router-test-secret", time.Hour, 24*time.Hour)
	userService := services.NewUserService(gdb, log, userRepo)
	contentService := services.NewContentService(gdb, log, contentRepo, nil)
	generationService := services.NewGenerationService(gdb, log, ai, contentRepo, nil)
	statsService := services.NewStatsService(gdb, log, contentRepo, nil)

	return NewRouter(RouterConfig{
		ServiceName:     "wellspring-backend-test",
		AuthHandler:     handlers.NewAuthHandler(authService),
		AuthMiddleware:  middleware.NewAuthMiddleware(log, authService),
		UserHandler:     handlers.NewUserHandler(userService),
		ContentHandler:  handlers.NewContentHandler(contentService),
		GenerateHandler: handlers.NewGenerateHandler(generationService),
		StatsHandler:    handlers.NewStatsHandler(statsService),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			// Array responses come back under a synthetic key.
			var arr []any
			if aErr := json.Unmarshal(w.Body.Bytes(), &arr); aErr != nil {
				t.Fatalf("%s %s: undecodable body %q", method, path, w.Body.String())
			}
			decoded = map[string]any{"items": arr}
		}
	}
	return w, decoded
}

func signupAndLogin(t *testing.T, router *gin.Engine, email string) (string, string) {
	t.Helper()
	w, _ := doJSON(t, router, http.MethodPost, "/register", "", map[string]any{
		"email":    email,
		"password": "hunter22",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status=%d body=%s", w.Code, w.Body.String())
	}
	w, body := doJSON(t, router, http.MethodPost, "/login", "", map[string]any{
		"email":    email,
		"password": "hunter22",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status=%d body=%s", w.Code, w.Body.String())
	}
	access, _ := body["access_token"].(string)
	refresh, _ := body["refresh_token"].(string)
	if access == "" || refresh == "" {
		t.Fatalf("login response missing tokens: %v", body)
	}
	return access, refresh
}

func assertErrorCode(t *testing.T, body map[string]any, want string) {
	t.Helper()
	envelope, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("missing error envelope: %v", body)
	}
	if envelope["code"] != want {
		t.Fatalf("error code: want=%s got=%v", want, envelope["code"])
	}
	if msg, _ := envelope["message"].(string); msg == "" {
		t.Fatalf("error envelope missing message: %v", envelope)
	}
}

func TestHealthcheckIsPublic(t *testing.T) {
	router := newTestRouter(t, &stubOpenAIClient{})
	w, body := doJSON(t, router, http.MethodGet, "/healthcheck", "", nil)
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthcheck: status=%d body=%v", w.Code, body)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	router := newTestRouter(t, &stubOpenAIClient{})
	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/sleep"},
		{http.MethodPost, "/ai/generate"},
		{http.MethodGet, "/wellness/stats"},
		{http.MethodGet, "/user"},
	} {
		w, body := doJSON(t, router, route.method, route.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: want=401 got=%d", route.method, route.path, w.Code)
		}
		assertErrorCode(t, body, "UNAUTHENTICATED")
	}
}

func TestProtectedRoutesRejectGarbageToken(t *testing.T) {
	router := newTestRouter(t, &stubOpenAIClient{})
	w, body := doJSON(t, router, http.MethodGet, "/sleep", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want=401 got=%d", w.Code)
	}
	assertErrorCode(t, body, "UNAUTHENTICATED")
}

func TestUnknownModuleIs404(t *testing.T) {
	router := newTestRouter(t, &stubOpenAIClient{})
	access, _ := signupAndLogin(t, router, "modules@example.com")

	w, body := doJSON(t, router, http.MethodGet, "/astrology", access, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown module: want=404 got=%d", w.Code)
	}
	assertErrorCode(t, body, "NOT_FOUND")
}

func TestGenerateListStatsFlow(t *testing.T) {
	router := newTestRouter(t, &stubOpenAIClient{result: map[string]any{
		"title":    "Box Breathing Reset",
		"content":  "1. Inhale for 4...",
		"category": "breathing",
		"duration": float64(5),
	}})
	access, _ := signupAndLogin(t, router, "flow@example.com")

	w, created := doJSON(t, router, http.MethodPost, "/ai/generate", access, map[string]any{
		"module":      "breathwork",
		"goal":        "calm down between meetings",
		"constraints": map[string]any{"experience": "beginner"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("generate: status=%d body=%s", w.Code, w.Body.String())
	}
	if created["title"] != "Box Breathing Reset" || created["aiGenerated"] != true {
		t.Fatalf("generate response: %v", created)
	}

	w, listed := doJSON(t, router, http.MethodGet, "/breathwork", access, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status=%d", w.Code)
	}
	items, _ := listed["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("list after generate: want=1 got=%d", len(items))
	}

	w, stats := doJSON(t, router, http.MethodGet, "/breathwork/stats?period=week", access, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status=%d", w.Code)
	}
	if stats["totalItems"] != float64(1) {
		t.Fatalf("stats totalItems: %v", stats)
	}

	w, wellness := doJSON(t, router, http.MethodGet, "/wellness/stats", access, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("wellness: status=%d", w.Code)
	}
	// 1 module * 15 + 1 item * 2
	if wellness["completionScore"] != float64(17) {
		t.Fatalf("completionScore: %v", wellness["completionScore"])
	}
}

func TestGenerateValidationAndFailure(t *testing.T) {
	router := newTestRouter(t, &stubOpenAIClient{err: fmt.Errorf("model down")})
	access, _ := signupAndLogin(t, router, "genfail@example.com")

	w, body := doJSON(t, router, http.MethodPost, "/ai/generate", access, map[string]any{
		"module": "breathwork",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing goal: want=400 got=%d", w.Code)
	}
	assertErrorCode(t, body, "VALIDATION")

	w, body = doJSON(t, router, http.MethodPost, "/ai/generate", access, map[string]any{
		"module": "breathwork",
		"goal":   "calm down",
	})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("model failure: want=502 got=%d", w.Code)
	}
	assertErrorCode(t, body, "GENERATION_FAILED")
}

func TestContentCrudFlow(t *testing.T) {
	router := newTestRouter(t, &stubOpenAIClient{})
	access, _ := signupAndLogin(t, router, "crud@example.com")

	w, created := doJSON(t, router, http.MethodPost, "/journal", access, map[string]any{
		"title":    "Morning pages",
		"content":  "Three pages before coffee.",
		"category": "reflection",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create: status=%d body=%s", w.Code, w.Body.String())
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("create response missing id: %v", created)
	}

	w, updated := doJSON(t, router, http.MethodPut, "/journal/"+id, access, map[string]any{
		"title": "Morning pages v2",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status=%d body=%s", w.Code, w.Body.String())
	}
	if updated["title"] != "Morning pages v2" || updated["content"] != "Three pages before coffee." {
		t.Fatalf("partial update wrong: %v", updated)
	}

	// Updating through the wrong module path looks like a missing item.
	w, body := doJSON(t, router, http.MethodPut, "/sleep/"+id, access, map[string]any{
		"title": "nope",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("cross-module update: want=404 got=%d", w.Code)
	}
	assertErrorCode(t, body, "NOT_FOUND")

	// Owner isolation end to end.
	otherAccess, _ := signupAndLogin(t, router, "crud-other@example.com")
	w, listed := doJSON(t, router, http.MethodGet, "/journal", otherAccess, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("other list: status=%d", w.Code)
	}
	if items, _ := listed["items"].([]any); len(items) != 0 {
		t.Fatalf("owner isolation broken: %v", items)
	}
}

func TestRefreshAndLogoutFlow(t *testing.T) {
	router := newTestRouter(t, &stubOpenAIClient{})
	access, refresh := signupAndLogin(t, router, "session@example.com")

	w, rotated := doJSON(t, router, http.MethodPost, "/refresh", access, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: status=%d body=%s", w.Code, w.Body.String())
	}
	newAccess, _ := rotated["access_token"].(string)
	newRefresh, _ := rotated["refresh_token"].(string)
	if newAccess == "" || newRefresh == "" || newRefresh == refresh {
		t.Fatalf("refresh must rotate the pair: %v", rotated)
	}

	w, me := doJSON(t, router, http.MethodGet, "/user", newAccess, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("user after refresh: status=%d", w.Code)
	}
	if _, ok := me["me"].(map[string]any); !ok {
		t.Fatalf("user response: %v", me)
	}

	w, _ = doJSON(t, router, http.MethodPost, "/logout", newAccess, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: status=%d", w.Code)
	}
	w, body := doJSON(t, router, http.MethodPost, "/refresh", newAccess, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: want=401 got=%d", w.Code)
	}
	assertErrorCode(t, body, "UNAUTHENTICATED")
}
