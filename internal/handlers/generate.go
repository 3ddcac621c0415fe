package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/wellspringapp/wellspring-backend/internal/apierr"
	"github.com/wellspringapp/wellspring-backend/internal/services"
)

type GenerateHandler struct {
	generationService services.GenerationService
}

func NewGenerateHandler(generationService services.GenerationService) *GenerateHandler {
	return &GenerateHandler{generationService: generationService}
}

func (gh *GenerateHandler) Generate(c *gin.Context) {
	var req services.GenerationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondAppError(c, apierr.Validation(fmt.Errorf("invalid request body: %w", err)))
		return
	}
	if req.Module == "" {
		RespondAppError(c, apierr.Validation(fmt.Errorf("module is required")))
		return
	}
	if req.Goal == "" {
		RespondAppError(c, apierr.Validation(fmt.Errorf("goal is required")))
		return
	}
	item, err := gh.generationService.Generate(c.Request.Context(), req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, item)
}
