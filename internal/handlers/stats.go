package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/wellspringapp/wellspring-backend/internal/services"
	"github.com/wellspringapp/wellspring-backend/internal/types"
)

type StatsHandler struct {
	statsService services.StatsService
}

func NewStatsHandler(statsService services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// ModuleStats serves GET /:module/stats. An unknown period silently falls
// back to week: stats reads never fail the caller.
func (sh *StatsHandler) ModuleStats(module types.Module) gin.HandlerFunc {
	return func(c *gin.Context) {
		period, _ := services.ParsePeriod(c.Query("period"))
		report := sh.statsService.Summarize(c.Request.Context(), module, period)
		RespondOK(c, report)
	}
}

func (sh *StatsHandler) WellnessStats(c *gin.Context) {
	period, _ := services.ParsePeriod(c.Query("period"))
	report := sh.statsService.SummarizeWellness(c.Request.Context(), period)
	RespondOK(c, report)
}
