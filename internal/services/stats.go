package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	rediscache "github.com/wellspringapp/wellspring-backend/internal/clients/redis"
	"github.com/wellspringapp/wellspring-backend/internal/logger"
	"github.com/wellspringapp/wellspring-backend/internal/repos"
	"github.com/wellspringapp/wellspring-backend/internal/requestdata"
	"github.com/wellspringapp/wellspring-backend/internal/types"
)

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case PeriodWeek, "":
		return PeriodWeek, true
	case PeriodMonth:
		return PeriodMonth, true
	default:
		return PeriodWeek, false
	}
}

func (p Period) Window() time.Duration {
	if p == PeriodMonth {
		return 30 * 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}

// AnalyticsReport summarizes a caller's activity in one module (or all
// modules) over a lookback window. Averages are rounded to one decimal and
// each average's denominator is the count of items that supplied that key.
type AnalyticsReport struct {
	Period         string                    `json:"period"`
	Scope          string                    `json:"scope"`
	TotalItems     int                       `json:"totalItems"`
	Averages       map[string]float64        `json:"averages"`
	Breakdowns     map[string]map[string]int `json:"breakdowns"`
	Recommendation string                    `json:"recommendation"`
}

type WellnessReport struct {
	Period          string         `json:"period"`
	TotalActivities int            `json:"totalActivities"`
	ModuleBreakdown map[string]int `json:"moduleBreakdown"`
	CompletionScore int            `json:"completionScore"`
	Recommendation  string         `json:"recommendation"`
}

const (
	RecommendationNoActivity = "No activity recorded in this period yet. Pick a module and log your first session to get started."
	recommendationDefault    = "You are building a steady practice. Keep showing up at your own pace."
)

// recommendationRules is the fixed threshold table; first match wins.
// This is data, not a rules engine.
var recommendationRules = []struct {
	Metric  string
	Below   float64
	Message string
}{
	{Metric: "quality", Below: 5, Message: "Your average quality is on the low side. Try a wind-down session before bed to improve it."},
	{Metric: "duration", Below: 10, Message: "Your sessions are short. Even five extra minutes per session compounds over a week."},
	{Metric: "calories", Below: 1200, Message: "Your logged intake looks low. Consider reviewing your meals with a focus on balanced portions."},
}

var wellnessRecommendationRules = []struct {
	MaxModules int
	Message    string
}{
	{MaxModules: 2, Message: "You are focused on a couple of modules. Exploring one more could round out your routine."},
	{MaxModules: 5, Message: "Nice spread across modules. Consistency beats intensity; keep the streak going."},
}

// StatsService is the analytics engine: period-bounded scans of a caller's
// content reduced into averages, distributions and a recommendation. It sits
// on the read path, so every failure degrades to a zero-valued report.
type StatsService interface {
	Summarize(ctx context.Context, scope types.Module, period Period) *AnalyticsReport
	SummarizeWellness(ctx context.Context, period Period) *WellnessReport
}

type statsService struct {
	db    *gorm.DB
	log   *logger.Logger
	repo  repos.ContentItemRepo
	cache rediscache.ReportCache
	group singleflight.Group

	now func() time.Time
}

// NewStatsService accepts a nil cache; caching is an optimization, not a
// dependency.
func NewStatsService(db *gorm.DB, baseLog *logger.Logger, repo repos.ContentItemRepo, cache rediscache.ReportCache) StatsService {
	return &statsService{
		db:    db,
		log:   baseLog.With("service", "StatsService"),
		repo:  repo,
		cache: cache,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (ss *statsService) Summarize(ctx context.Context, scope types.Module, period Period) *AnalyticsReport {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return emptyReport(scope, period)
	}

	cacheKey := statsCacheKey(rd.UserID, scope, period)
	if ss.cache != nil {
		if raw, ok := ss.cache.Get(ctx, cacheKey); ok {
			var cached AnalyticsReport
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached
			}
		}
	}

	v, err, _ := ss.group.Do(cacheKey, func() (any, error) {
		return ss.summarize(ctx, rd.UserID, scope, period)
	})
	if err != nil {
		ss.log.Warn("stats read degraded to empty report", "scope", scope, "period", period, "error", err)
		return emptyReport(scope, period)
	}
	report := v.(*AnalyticsReport)

	if ss.cache != nil {
		if raw, mErr := json.Marshal(report); mErr == nil {
			ss.cache.Set(ctx, cacheKey, raw)
		}
	}
	return report
}

func (ss *statsService) summarize(ctx context.Context, ownerID uuid.UUID, scope types.Module, period Period) (*AnalyticsReport, error) {
	since := ss.now().Add(-period.Window())

	var moduleFilter *types.Module
	if scope != "" {
		moduleFilter = &scope
	}
	items, err := ss.repo.ListByOwnerSince(ctx, nil, ownerID, since, moduleFilter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return emptyReport(scope, period), nil
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	breakdowns := map[string]map[string]int{}

	for _, item := range items {
		metrics, labels := ss.extract(item)
		for k, v := range metrics {
			sums[k] += v
			counts[k]++
		}
		for k, v := range labels {
			if breakdowns[k] == nil {
				breakdowns[k] = map[string]int{}
			}
			breakdowns[k][v]++
		}
	}

	averages := make(map[string]float64, len(sums))
	for k, sum := range sums {
		averages[k] = round1(sum / float64(counts[k]))
	}

	return &AnalyticsReport{
		Period:         string(period),
		Scope:          scopeName(scope),
		TotalItems:     len(items),
		Averages:       averages,
		Breakdowns:     breakdowns,
		Recommendation: recommend(averages),
	}, nil
}

// extract reads the aggregable fields out of one item via its typed payload
// variant. A payload that fails to decode contributes nothing; the item still
// counts toward the window total. The duration column backs the "duration"
// metric when the payload does not supply one.
func (ss *statsService) extract(item *types.ContentItem) (map[string]float64, map[string]string) {
	metrics := map[string]float64{}
	labels := map[string]string{}

	payload, err := types.DecodePayload(item.Module, item.Payload)
	if err != nil {
		ss.log.Debug("payload decode skipped", "item_id", item.ID, "module", item.Module, "error", err)
	} else {
		for k, v := range payload.Metrics() {
			metrics[k] = v
		}
		for k, v := range payload.Labels() {
			labels[k] = v
		}
	}

	if _, ok := metrics["duration"]; !ok && item.Duration != nil {
		metrics["duration"] = float64(*item.Duration)
	}
	if item.Category != "" {
		labels["category"] = item.Category
	}
	return metrics, labels
}

func (ss *statsService) SummarizeWellness(ctx context.Context, period Period) *WellnessReport {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return emptyWellnessReport(period)
	}

	since := ss.now().Add(-period.Window())
	items, err := ss.repo.ListByOwnerSince(ctx, nil, rd.UserID, since, nil)
	if err != nil {
		ss.log.Warn("wellness stats degraded to empty report", "period", period, "error", err)
		return emptyWellnessReport(period)
	}
	if len(items) == 0 {
		return emptyWellnessReport(period)
	}

	breakdown := map[string]int{}
	for _, item := range items {
		breakdown[string(item.Module)]++
	}
	modulesUsed := len(breakdown)
	total := len(items)

	score := modulesUsed*15 + total*2
	if score > 100 {
		score = 100
	}

	recommendation := recommendationDefault
	for _, rule := range wellnessRecommendationRules {
		if modulesUsed <= rule.MaxModules {
			recommendation = rule.Message
			break
		}
	}

	return &WellnessReport{
		Period:          string(period),
		TotalActivities: total,
		ModuleBreakdown: breakdown,
		CompletionScore: score,
		Recommendation:  recommendation,
	}
}

func recommend(averages map[string]float64) string {
	for _, rule := range recommendationRules {
		if v, ok := averages[rule.Metric]; ok && v < rule.Below {
			return rule.Message
		}
	}
	return recommendationDefault
}

func emptyReport(scope types.Module, period Period) *AnalyticsReport {
	return &AnalyticsReport{
		Period:         string(period),
		Scope:          scopeName(scope),
		TotalItems:     0,
		Averages:       map[string]float64{},
		Breakdowns:     map[string]map[string]int{},
		Recommendation: RecommendationNoActivity,
	}
}

func emptyWellnessReport(period Period) *WellnessReport {
	return &WellnessReport{
		Period:          string(period),
		TotalActivities: 0,
		ModuleBreakdown: map[string]int{},
		CompletionScore: 0,
		Recommendation:  RecommendationNoActivity,
	}
}

func statsCacheKey(ownerID uuid.UUID, scope types.Module, period Period) string {
	return fmt.Sprintf("stats:%s:%s:%s", ownerID, scope, period)
}

// invalidateStatsReports drops the cached reports a content write makes
// stale: the module-scoped and all-module reports for both periods. The next
// stats read recomputes instead of serving the TTL remainder.
func invalidateStatsReports(ctx context.Context, cache rediscache.ReportCache, ownerID uuid.UUID, module types.Module) {
	if cache == nil {
		return
	}
	cache.Invalidate(ctx,
		statsCacheKey(ownerID, module, PeriodWeek),
		statsCacheKey(ownerID, module, PeriodMonth),
		statsCacheKey(ownerID, "", PeriodWeek),
		statsCacheKey(ownerID, "", PeriodMonth),
	)
}

func scopeName(scope types.Module) string {
	if scope == "" {
		return "all"
	}
	return string(scope)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
