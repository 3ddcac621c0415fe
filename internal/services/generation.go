package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/wellspringapp/wellspring-backend/internal/apierr"
	rediscache "github.com/wellspringapp/wellspring-backend/internal/clients/redis"
	"github.com/wellspringapp/wellspring-backend/internal/logger"
	"github.com/wellspringapp/wellspring-backend/internal/repos"
	"github.com/wellspringapp/wellspring-backend/internal/requestdata"
	"github.com/wellspringapp/wellspring-backend/internal/types"
)

const contentSchemaName = "wellness_content"

type GenerationInput struct {
	Module        types.Module   `json:"module"`
	Goal          string         `json:"goal"`
	TimeAvailable *int           `json:"timeAvailable,omitempty"`
	Tone          string         `json:"tone,omitempty"`
	Constraints   map[string]any `json:"constraints,omitempty"`
}

// GenerationService turns a free-form user goal into a persisted, schema
// validated content item. One model call per request: a generation failure is
// returned to the caller, never retried here.
type GenerationService interface {
	Generate(ctx context.Context, in GenerationInput) (*types.ContentItem, error)
}

type generationService struct {
	db       *gorm.DB
	log      *logger.Logger
	aiClient OpenAIClient
	repo     repos.ContentItemRepo
	cache    rediscache.ReportCache
}

// NewGenerationService accepts a nil cache; persisted generations then skip
// report invalidation.
func NewGenerationService(db *gorm.DB, baseLog *logger.Logger, aiClient OpenAIClient, repo repos.ContentItemRepo, cache rediscache.ReportCache) GenerationService {
	return &generationService{
		db:       db,
		log:      baseLog.With("service", "GenerationService"),
		aiClient: aiClient,
		repo:     repo,
		cache:    cache,
	}
}

func (gs *generationService) Generate(ctx context.Context, in GenerationInput) (*types.ContentItem, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthenticated(fmt.Errorf("not authenticated"))
	}
	if in.Goal == "" {
		return nil, apierr.Validation(fmt.Errorf("goal is required"))
	}

	prompt := BuildPrompt(PromptInput{
		Module:        in.Module,
		Goal:          in.Goal,
		TimeAvailable: in.TimeAvailable,
		Tone:          in.Tone,
		Constraints:   in.Constraints,
	})

	obj, err := gs.aiClient.GenerateJSON(ctx, prompt.System, prompt.User, contentSchemaName, ContentSchema())
	if err != nil {
		gs.log.Warn("content generation failed", "module", in.Module, "error", err)
		return nil, apierr.Generation(fmt.Errorf("generation failed: %w", err))
	}

	generated, err := parseGeneratedContent(obj)
	if err != nil {
		gs.log.Warn("generated content failed schema validation", "module", in.Module, "error", err)
		return nil, apierr.Generation(err)
	}

	// The request constraints become the stored payload verbatim; the model's
	// output never feeds the payload column.
	var payload datatypes.JSON
	if len(in.Constraints) > 0 {
		raw, mErr := json.Marshal(in.Constraints)
		if mErr != nil {
			return nil, apierr.Validation(fmt.Errorf("constraints not serializable: %w", mErr))
		}
		payload = datatypes.JSON(raw)
	}

	now := time.Now().UTC()
	item := &types.ContentItem{
		ID:            uuid.New(),
		OwnerID:       rd.UserID,
		Module:        in.Module,
		Title:         generated.Title,
		Content:       generated.Content,
		Category:      generated.Category,
		Duration:      generated.Duration,
		Payload:       payload,
		IsAiGenerated: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := gs.repo.Create(ctx, nil, []*types.ContentItem{item})
	if err != nil {
		gs.log.Error("failed to persist generated content", "module", in.Module, "owner_id", rd.UserID, "error", err)
		return nil, apierr.Internal(fmt.Errorf("failed to persist generated content: %w", err))
	}
	invalidateStatsReports(ctx, gs.cache, rd.UserID, in.Module)
	return created[0], nil
}

type generatedContent struct {
	Title    string
	Content  string
	Category string
	Duration *int
}

func parseGeneratedContent(obj map[string]any) (*generatedContent, error) {
	title, _ := obj["title"].(string)
	content, _ := obj["content"].(string)
	category, _ := obj["category"].(string)
	if title == "" || content == "" || category == "" {
		return nil, fmt.Errorf("schema validation failed: title, content and category are required")
	}
	out := &generatedContent{Title: title, Content: content, Category: category}
	if d, ok := obj["duration"].(float64); ok && d > 0 {
		minutes := int(d)
		out.Duration = &minutes
	}
	return out, nil
}
