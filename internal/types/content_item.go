package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ContentItem is the single persisted unit of module content, whether
// user-authored or produced by the generation pipeline. Module-specific
// structured data lives in Payload as jsonb; typed access goes through
// DecodePayload.
type ContentItem struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_content_owner_module" json:"ownerId"`
	Owner         *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:OwnerID;references:ID" json:"owner,omitempty"`
	Module        Module         `gorm:"type:text;not null;index:idx_content_owner_module" json:"module"`
	Title         string         `gorm:"not null;column:title" json:"title"`
	Content       string         `gorm:"column:content" json:"content"`
	Category      string         `gorm:"index;column:category" json:"category"`
	Duration      *int           `gorm:"column:duration_minutes" json:"duration,omitempty"`
	Payload       datatypes.JSON `gorm:"type:jsonb;column:payload" json:"payload,omitempty"`
	IsAiGenerated bool           `gorm:"not null;default:false;column:is_ai_generated" json:"aiGenerated"`
	CreatedAt     time.Time      `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updatedAt"`
}

func (ContentItem) TableName() string {
	return "content_item"
}
