package types

// Module partitions content items into wellness categories. The set is
// closed: HTTP routes, prompt guides and analytics extraction all key off it.
type Module string

const (
	ModuleJournal     Module = "journal"
	ModuleMindfulness Module = "mindfulness"
	ModuleBreathwork  Module = "breathwork"
	ModuleMovement    Module = "movement"
	ModuleNutrition   Module = "nutrition"
	ModuleFocus       Module = "focus"
	ModuleCalm        Module = "calm"
	ModuleSleep       Module = "sleep"
	ModuleGrounding   Module = "grounding"
	ModuleMotivation  Module = "motivation"
	ModuleCheckin     Module = "checkin"
	ModuleHabits      Module = "habits"
	ModuleRoutines    Module = "routines"
	ModulePrompts     Module = "prompts"
	ModuleReflections Module = "reflections"
)

// AllModules drives route registration and the cross-module rollup.
var AllModules = []Module{
	ModuleJournal,
	ModuleMindfulness,
	ModuleBreathwork,
	ModuleMovement,
	ModuleNutrition,
	ModuleFocus,
	ModuleCalm,
	ModuleSleep,
	ModuleGrounding,
	ModuleMotivation,
	ModuleCheckin,
	ModuleHabits,
	ModuleRoutines,
	ModulePrompts,
	ModuleReflections,
}

var moduleSet = func() map[Module]struct{} {
	m := make(map[Module]struct{}, len(AllModules))
	for _, mod := range AllModules {
		m[mod] = struct{}{}
	}
	return m
}()

func ParseModule(s string) (Module, bool) {
	m := Module(s)
	_, ok := moduleSet[m]
	return m, ok
}

func (m Module) Valid() bool {
	_, ok := moduleSet[m]
	return ok
}

func (m Module) String() string { return string(m) }
