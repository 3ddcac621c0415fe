package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Response bodies are camelCase throughout; a stray snake_case field is a
// breaking change for clients.
func TestContentItemJSONFieldsAreCamelCase(t *testing.T) {
	minutes := 10
	item := ContentItem{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		Module:        ModuleSleep,
		Title:         "Wind down",
		Content:       "Dim the lights.",
		Category:      "evening",
		Duration:      &minutes,
		IsAiGenerated: true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	raw, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, want := range []string{"id", "ownerId", "module", "title", "content", "category", "duration", "aiGenerated", "createdAt", "updatedAt"} {
		if _, ok := fields[want]; !ok {
			t.Fatalf("missing field %q in %s", want, raw)
		}
	}
	for _, stale := range []string{"owner_id", "is_ai_generated", "created_at", "updated_at", "duration_minutes"} {
		if _, ok := fields[stale]; ok {
			t.Fatalf("snake_case field %q leaked into the body: %s", stale, raw)
		}
	}
}
