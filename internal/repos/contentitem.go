package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspringapp/wellspring-backend/internal/logger"
	"github.com/wellspringapp/wellspring-backend/internal/types"
)

// ContentItemRepo is the persistence substrate for every module's content.
// Every read is owner-scoped; there is no cross-owner query.
type ContentItemRepo interface {
	Create(ctx context.Context, tx *gorm.DB, items []*types.ContentItem) ([]*types.ContentItem, error)
	ListByOwnerModule(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, module types.Module, category string, limit int) ([]*types.ContentItem, error)
	ListByOwnerSince(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, since time.Time, module *types.Module) ([]*types.ContentItem, error)
	GetByIDForOwner(ctx context.Context, tx *gorm.DB, ownerID, itemID uuid.UUID) (*types.ContentItem, error)
	Save(ctx context.Context, tx *gorm.DB, item *types.ContentItem) error
}

type contentItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentItemRepo(db *gorm.DB, baseLog *logger.Logger) ContentItemRepo {
	repoLog := baseLog.With("repo", "ContentItemRepo")
	return &contentItemRepo{db: db, log: repoLog}
}

func (cr *contentItemRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.ContentItem) ([]*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(items) == 0 {
		return []*types.ContentItem{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (cr *contentItemRepo) ListByOwnerModule(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, module types.Module, category string, limit int) ([]*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.ContentItem
	q := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("module = ?", module).
		Order("created_at DESC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *contentItemRepo) ListByOwnerSince(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, since time.Time, module *types.Module) ([]*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.ContentItem
	q := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("created_at >= ?", since)
	if module != nil {
		q = q.Where("module = ?", *module)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *contentItemRepo) GetByIDForOwner(ctx context.Context, tx *gorm.DB, ownerID, itemID uuid.UUID) (*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.ContentItem
	err := transaction.WithContext(ctx).
		Where("id = ?", itemID).
		Where("owner_id = ?", ownerID).
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *contentItemRepo) Save(ctx context.Context, tx *gorm.DB, item *types.ContentItem) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).Save(item).Error
}
