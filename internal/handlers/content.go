package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wellspringapp/wellspring-backend/internal/apierr"
	"github.com/wellspringapp/wellspring-backend/internal/services"
	"github.com/wellspringapp/wellspring-backend/internal/types"
)

type ContentHandler struct {
	contentService services.ContentService
}

func NewContentHandler(contentService services.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// List degrades to an empty array on internal failure; the only error a
// caller can see here is the 401 from the auth middleware.
func (ch *ContentHandler) List(module types.Module) gin.HandlerFunc {
	return func(c *gin.Context) {
		category := c.Query("category")
		limit := 0
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
				limit = parsed
			}
		}
		items := ch.contentService.List(c.Request.Context(), module, category, limit)
		RespondOK(c, items)
	}
}

func (ch *ContentHandler) Create(module types.Module) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.ContentCreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondAppError(c, apierr.Validation(fmt.Errorf("invalid request body: %w", err)))
			return
		}
		item, err := ch.contentService.Create(c.Request.Context(), module, req)
		if err != nil {
			RespondAppError(c, err)
			return
		}
		RespondOK(c, item)
	}
}

func (ch *ContentHandler) Update(module types.Module) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			RespondAppError(c, apierr.Validation(fmt.Errorf("invalid item id")))
			return
		}
		var req services.ContentUpdateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondAppError(c, apierr.Validation(fmt.Errorf("invalid request body: %w", err)))
			return
		}
		item, uErr := ch.contentService.Update(c.Request.Context(), module, itemID, req)
		if uErr != nil {
			RespondAppError(c, uErr)
			return
		}
		RespondOK(c, item)
	}
}
