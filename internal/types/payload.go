package types

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// ModulePayload is the typed view over a content item's jsonb payload,
// resolved by the module discriminant. Keys absent from the stored payload
// are absent from Metrics/Labels: aggregation denominators only count items
// that actually supplied a key.
type ModulePayload interface {
	Metrics() map[string]float64
	Labels() map[string]string
}

type SleepPayload struct {
	Duration     *float64 `json:"duration,omitempty"`
	Quality      *float64 `json:"quality,omitempty"`
	Pattern      *string  `json:"pattern,omitempty"`
	WakeUpReason *string  `json:"wakeUpReason,omitempty"`
}

func (p SleepPayload) Metrics() map[string]float64 {
	m := map[string]float64{}
	putMetric(m, "duration", p.Duration)
	putMetric(m, "quality", p.Quality)
	return m
}

func (p SleepPayload) Labels() map[string]string {
	l := map[string]string{}
	putLabel(l, "pattern", p.Pattern)
	putLabel(l, "wakeUpReason", p.WakeUpReason)
	return l
}

type MovementPayload struct {
	Duration     *float64 `json:"duration,omitempty"`
	Calories     *float64 `json:"calories,omitempty"`
	ActivityType *string  `json:"activityType,omitempty"`
	Intensity    *string  `json:"intensity,omitempty"`
}

func (p MovementPayload) Metrics() map[string]float64 {
	m := map[string]float64{}
	putMetric(m, "duration", p.Duration)
	putMetric(m, "calories", p.Calories)
	return m
}

func (p MovementPayload) Labels() map[string]string {
	l := map[string]string{}
	putLabel(l, "activityType", p.ActivityType)
	putLabel(l, "intensity", p.Intensity)
	return l
}

type NutritionPayload struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	MealType *string  `json:"mealType,omitempty"`
}

func (p NutritionPayload) Metrics() map[string]float64 {
	m := map[string]float64{}
	putMetric(m, "calories", p.Calories)
	putMetric(m, "protein", p.Protein)
	return m
}

func (p NutritionPayload) Labels() map[string]string {
	l := map[string]string{}
	putLabel(l, "mealType", p.MealType)
	return l
}

type MindfulnessPayload struct {
	Duration  *float64 `json:"duration,omitempty"`
	Technique *string  `json:"technique,omitempty"`
}

func (p MindfulnessPayload) Metrics() map[string]float64 {
	m := map[string]float64{}
	putMetric(m, "duration", p.Duration)
	return m
}

func (p MindfulnessPayload) Labels() map[string]string {
	l := map[string]string{}
	putLabel(l, "technique", p.Technique)
	return l
}

type BreathworkPayload struct {
	Duration *float64 `json:"duration,omitempty"`
	Pattern  *string  `json:"pattern,omitempty"`
}

func (p BreathworkPayload) Metrics() map[string]float64 {
	m := map[string]float64{}
	putMetric(m, "duration", p.Duration)
	return m
}

func (p BreathworkPayload) Labels() map[string]string {
	l := map[string]string{}
	putLabel(l, "pattern", p.Pattern)
	return l
}

type JournalPayload struct {
	Mood *string `json:"mood,omitempty"`
}

func (p JournalPayload) Metrics() map[string]float64 {
	return map[string]float64{}
}

func (p JournalPayload) Labels() map[string]string {
	l := map[string]string{}
	putLabel(l, "mood", p.Mood)
	return l
}

// GenericPayload covers modules whose payloads carry no structured fields
// beyond an optional duration (focus, calm, grounding, motivation, ...).
type GenericPayload struct {
	Duration *float64 `json:"duration,omitempty"`
}

func (p GenericPayload) Metrics() map[string]float64 {
	m := map[string]float64{}
	putMetric(m, "duration", p.Duration)
	return m
}

func (p GenericPayload) Labels() map[string]string {
	return map[string]string{}
}

// DecodePayload resolves the payload variant for a module. Unknown keys in
// the stored json are ignored; a nil or empty payload decodes to the zero
// variant so callers never branch on emptiness.
func DecodePayload(module Module, raw datatypes.JSON) (ModulePayload, error) {
	var target ModulePayload
	switch module {
	case ModuleSleep:
		target = &SleepPayload{}
	case ModuleMovement:
		target = &MovementPayload{}
	case ModuleNutrition:
		target = &NutritionPayload{}
	case ModuleMindfulness:
		target = &MindfulnessPayload{}
	case ModuleBreathwork:
		target = &BreathworkPayload{}
	case ModuleJournal, ModuleReflections:
		target = &JournalPayload{}
	default:
		target = &GenericPayload{}
	}
	if len(raw) == 0 {
		return target, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, err
	}
	return target, nil
}

func putMetric(m map[string]float64, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}

func putLabel(l map[string]string, key string, v *string) {
	if v != nil && *v != "" {
		l[key] = *v
	}
}
