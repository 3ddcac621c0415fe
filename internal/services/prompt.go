package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wellspringapp/wellspring-backend/internal/types"
)

// PromptInput carries everything the builder needs. Build is pure: no I/O,
// identical inputs produce identical prompts.
type PromptInput struct {
	Module        types.Module
	Goal          string
	TimeAvailable *int
	Tone          string
	Constraints   map[string]any
}

type Prompt struct {
	System string
	User   string
}

const defaultTone = "warm, supportive, practical"

const genericGuide = "Create wellness content that is safe, encouraging and actionable for a general audience."

// moduleGuides is data, not logic: adding a module is a table change.
var moduleGuides = map[types.Module]string{
	types.ModuleJournal:     "Write a reflective journaling prompt with 2-3 guiding questions that invite honest self-expression.",
	types.ModuleMindfulness: "Write a guided meditation script with explicit breathing cues and gentle transitions between phases.",
	types.ModuleBreathwork:  "Design a breathing exercise with a clear inhale/hold/exhale pattern and a count for each phase.",
	types.ModuleMovement:    "Design a workout with sets, reps and rest periods, including form and safety cues for each exercise.",
	types.ModuleNutrition:   "Write a practical nutrition guide or recipe with portions and simple preparation steps.",
	types.ModuleFocus:       "Design a focus session with a clear warm-up, deep-work block and deliberate break.",
	types.ModuleCalm:        "Write a calming exercise that releases tension step by step, suitable for moments of acute stress.",
	types.ModuleSleep:       "Write a wind-down routine that prepares body and mind for sleep, avoiding anything stimulating.",
	types.ModuleGrounding:   "Write a grounding exercise that anchors attention in the senses, such as a 5-4-3-2-1 walkthrough.",
	types.ModuleMotivation:  "Write an uplifting, concrete motivational piece that ends with one small action to take today.",
	types.ModuleCheckin:     "Write a short self check-in with simple questions about mood, energy and needs.",
	types.ModuleHabits:      "Design a tiny-habit plan with an explicit trigger, action and reward.",
	types.ModuleRoutines:    "Design a step-by-step routine with an ordered sequence and a time estimate per step.",
	types.ModulePrompts:     "Write a creative reflection prompt that opens an unexpected angle on everyday experience.",
	types.ModuleReflections: "Write a structured reflection exercise that reviews the recent past and names one insight.",
}

var moduleFormats = map[types.Module]string{
	types.ModuleJournal:     "Format the prompt as a short introduction followed by the guiding questions on separate lines.",
	types.ModuleMindfulness: "Format as a flowing script with timing markers like [2 min] at each phase.",
	types.ModuleBreathwork:  "Format as numbered steps with the count for each breath phase stated explicitly.",
	types.ModuleMovement:    "Format as a numbered exercise list: name, sets x reps, rest, then safety cues.",
	types.ModuleNutrition:   "Format with an ingredient list first, then numbered preparation steps.",
	types.ModuleFocus:       "Format as a timeline with minute markers for each block.",
	types.ModuleCalm:        "Format as numbered steps short enough to follow while distressed.",
	types.ModuleSleep:       "Format as an ordered evening sequence with approximate clock offsets.",
	types.ModuleGrounding:   "Format as numbered steps, one sense or anchor per step.",
	types.ModuleMotivation:  "Format as short paragraphs and end with a single clear call to action.",
	types.ModuleCheckin:     "Format as a short list of questions with space for a one-line answer each.",
	types.ModuleHabits:      "Format as trigger / action / reward lines followed by a one-week plan.",
	types.ModuleRoutines:    "Format as numbered steps with a duration next to each step.",
	types.ModulePrompts:     "Format as one central prompt followed by two optional variations.",
	types.ModuleReflections: "Format as numbered reflection steps ending with a summary line to complete.",
}

const genericFormat = "Format the content with numbered steps where sequence matters."

// BuildPrompt maps a free-form user goal to the system/user instruction pair
// for structured generation. Unknown modules fall back to the generic
// wellness guide instead of failing.
func BuildPrompt(in PromptInput) Prompt {
	guide, ok := moduleGuides[in.Module]
	if !ok {
		guide = genericGuide
	}
	format, ok := moduleFormats[in.Module]
	if !ok {
		format = genericFormat
	}

	tone := strings.TrimSpace(in.Tone)
	if tone == "" {
		tone = defaultTone
	}

	moduleName := string(in.Module)
	if moduleName == "" {
		moduleName = "wellness"
	}

	var system strings.Builder
	system.WriteString("You are an expert wellness coach for " + moduleName + ". ")
	system.WriteString(guide)
	system.WriteString(" Keep the tone " + tone + ".")

	var user strings.Builder
	user.WriteString("Goal: " + strings.TrimSpace(in.Goal))
	if in.TimeAvailable != nil && *in.TimeAvailable > 0 {
		user.WriteString(fmt.Sprintf("\nTime available: %d minutes. Fit the content to this budget.", *in.TimeAvailable))
	}
	if len(in.Constraints) > 0 {
		user.WriteString("\nConstraints:")
		for _, k := range sortedKeys(in.Constraints) {
			user.WriteString(fmt.Sprintf("\n- %s: %v", k, in.Constraints[k]))
		}
	}
	user.WriteString("\n" + format)
	user.WriteString("\nAlways include an explicit category for the content.")

	return Prompt{System: system.String(), User: user.String()}
}

// ContentSchema is the declared output contract for generated content.
// Strict structured outputs demand every declared property in required;
// optionality is expressed through a null-able type, and the parser treats
// null as absent.
func ContentSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":    map[string]any{"type": "string"},
			"content":  map[string]any{"type": "string"},
			"category": map[string]any{"type": "string"},
			"duration": map[string]any{"type": []string{"number", "null"}},
		},
		"required":             []string{"title", "content", "category", "duration"},
		"additionalProperties": false,
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
