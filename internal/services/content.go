package services

import (
	"context"
	"encoding/json"
	"errors"
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

type ContentCreateInput struct {
	Title    string         `json:"title"`
	Content  string         `json:"content,omitempty"`
	Category string         `json:"category,omitempty"`
	Duration *int           `json:"duration,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
}

type ContentUpdateInput struct {
	Title    *string        `json:"title,omitempty"`
	Content  *string        `json:"content,omitempty"`
	Category *string        `json:"category,omitempty"`
	Duration *int           `json:"duration,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// ContentService is the per-module CRUD surface over the content store.
// Writes surface every failure; list reads degrade to an empty result so the
// client never renders an error screen for a listing.
type ContentService interface {
	Create(ctx context.Context, module types.Module, in ContentCreateInput) (*types.ContentItem, error)
	List(ctx context.Context, module types.Module, category string, limit int) []*types.ContentItem
	Update(ctx context.Context, module types.Module, itemID uuid.UUID, in ContentUpdateInput) (*types.ContentItem, error)
}

type contentService struct {
	db    *gorm.DB
	log   *logger.Logger
	repo  repos.ContentItemRepo
	cache rediscache.ReportCache
}

// NewContentService accepts a nil cache; writes then skip report
// invalidation.
func NewContentService(db *gorm.DB, baseLog *logger.Logger, repo repos.ContentItemRepo, cache rediscache.ReportCache) ContentService {
	return &contentService{
		db:    db,
		log:   baseLog.With("service", "ContentService"),
		repo:  repo,
		cache: cache,
	}
}

func (cs *contentService) Create(ctx context.Context, module types.Module, in ContentCreateInput) (*types.ContentItem, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthenticated(fmt.Errorf("not authenticated"))
	}
	if in.Title == "" {
		return nil, apierr.Validation(fmt.Errorf("title is required"))
	}

	var payload datatypes.JSON
	if len(in.Payload) > 0 {
		raw, err := json.Marshal(in.Payload)
		if err != nil {
			return nil, apierr.Validation(fmt.Errorf("payload not serializable: %w", err))
		}
		payload = datatypes.JSON(raw)
	}

	now := time.Now().UTC()
	item := &types.ContentItem{
		ID:        uuid.New(),
		OwnerID:   rd.UserID,
		Module:    module,
		Title:     in.Title,
		Content:   in.Content,
		Category:  in.Category,
		Duration:  in.Duration,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := cs.repo.Create(ctx, nil, []*types.ContentItem{item})
	if err != nil {
		cs.log.Error("failed to create content item", "module", module, "owner_id", rd.UserID, "error", err)
		return nil, apierr.Internal(fmt.Errorf("failed to create content item: %w", err))
	}
	invalidateStatsReports(ctx, cs.cache, rd.UserID, module)
	return created[0], nil
}

// List never returns an error: any internal read failure degrades to an empty
// slice. Authentication is still a hard 401, enforced before this runs.
func (cs *contentService) List(ctx context.Context, module types.Module, category string, limit int) []*types.ContentItem {
	return degradeToEmpty(cs.log, "content list", func() ([]*types.ContentItem, error) {
		rd := requestdata.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			return nil, fmt.Errorf("no caller identity in context")
		}
		return cs.repo.ListByOwnerModule(ctx, nil, rd.UserID, module, category, limit)
	})
}

func (cs *contentService) Update(ctx context.Context, module types.Module, itemID uuid.UUID, in ContentUpdateInput) (*types.ContentItem, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthenticated(fmt.Errorf("not authenticated"))
	}

	item, err := cs.repo.GetByIDForOwner(ctx, nil, rd.UserID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("content item not found"))
		}
		cs.log.Error("failed to load content item", "item_id", itemID, "error", err)
		return nil, apierr.Internal(fmt.Errorf("failed to load content item: %w", err))
	}
	if item.Module != module {
		return nil, apierr.NotFound(fmt.Errorf("content item not found"))
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, apierr.Validation(fmt.Errorf("title cannot be empty"))
		}
		item.Title = *in.Title
	}
	if in.Content != nil {
		item.Content = *in.Content
	}
	if in.Category != nil {
		item.Category = *in.Category
	}
	if in.Duration != nil {
		item.Duration = in.Duration
	}
	if in.Payload != nil {
		raw, mErr := json.Marshal(in.Payload)
		if mErr != nil {
			return nil, apierr.Validation(fmt.Errorf("payload not serializable: %w", mErr))
		}
		item.Payload = datatypes.JSON(raw)
	}
	item.UpdatedAt = time.Now().UTC()

	if err := cs.repo.Save(ctx, nil, item); err != nil {
		cs.log.Error("failed to update content item", "item_id", itemID, "error", err)
		return nil, apierr.Internal(fmt.Errorf("failed to update content item: %w", err))
	}
	invalidateStatsReports(ctx, cs.cache, rd.UserID, module)
	return item, nil
}

// degradeToEmpty is the read-path boundary: list and stats endpoints must
// return an empty result instead of propagating internal failures.
func degradeToEmpty[T any](log *logger.Logger, op string, fn func() ([]T, error)) []T {
	results, err := fn()
	if err != nil {
		if log != nil {
			log.Warn("read degraded to empty result", "op", op, "error", err)
		}
		return []T{}
	}
	if results == nil {
		return []T{}
	}
	return results
}
