package ir

import "fmt"

// EngineProfile describes the technical attributes of one engine variant.
type EngineProfile struct {
	Code         string       `json:"code"` // e.g. "EJ251"
	Phase        Phase        `json:"phase"`
	YearRange    string       `json:"year_range"` // e.g. "1999-2004"
	Throttle     Throttle     `json:"throttle"`
	AirMetering  AirMetering  `json:"air_metering"`
	ValveControl ValveControl `json:"valve_control"`
	EcuBus       EcuBus       `json:"ecu_bus"`
	Notes        string       `json:"notes,omitempty"`
}

// VehicleProfile is a chassis-level description. It is only used to derive
// a synthetic target EngineProfile when no target engine is known.
type VehicleProfile struct {
	ID             string `json:"id"`
	Model          string `json:"model"` // Impreza, Forester, ...
	Year           int    `json:"year"`
	Region         string `json:"region"` // US, JDM, EU
	HasImmobilizer bool   `json:"has_immobilizer"`
	ChassisPhase   Phase  `json:"chassis_phase"`
	ExpectedBus    EcuBus `json:"expected_bus"`
}

// Key returns the catalog key of the vehicle: ID when set, otherwise
// "<model>-<year>-<region>".
func (v VehicleProfile) Key() string {
	if v.ID != "" {
		return v.ID
	}
	if v.Region == "" {
		return fmt.Sprintf("%s-%d", v.Model, v.Year)
	}
	return fmt.Sprintf("%s-%d-%s", v.Model, v.Year, v.Region)
}

// Criteria maps a profile attribute name to its expected rendered value.
// A nil Criteria means the clause is absent.
type Criteria map[string]string

// RuleCondition holds the donor and target predicate sets. Both present
// clauses must hold; a condition with both clauses absent never matches.
type RuleCondition struct {
	Donor  Criteria `json:"donor,omitempty"`
	Target Criteria `json:"target,omitempty"`
}

// RuleEffect is applied to the in-progress result when a rule matches.
type RuleEffect struct {
	// Level is applied only when strictly more severe than the current level.
	Level      *Level      `json:"level,omitempty"`
	ScoreDelta int         `json:"score_delta"`
	AddWarning string      `json:"add_warning,omitempty"`
	AddChange  *ChangeItem `json:"add_change,omitempty"`
}

// CompatibilityRule is one declarative (condition, effect) check.
// ID is kept for traceability only and plays no part in matching.
type CompatibilityRule struct {
	ID     string         `json:"id"`
	When   *RuleCondition `json:"when,omitempty"`
	Effect *RuleEffect    `json:"effect,omitempty"`
}

// ChangeItem is one modification required for a swap.
type ChangeItem struct {
	Title    string   `json:"title"`
	Details  string   `json:"details"`
	Severity Severity `json:"severity"`
}

// CompatibilityResult is the outcome of one evaluation.
type CompatibilityResult struct {
	Score               int          `json:"score"` // clamped to [0,100]
	Level               Level        `json:"level"`
	RequiredChanges     []ChangeItem `json:"required_changes"`
	Warnings            []string     `json:"warnings"`
	RecommendedApproach string       `json:"recommended_approach,omitempty"`
	Explanation         string       `json:"explanation"`
}

// Initial result values before any rule is applied.
const (
	InitialScore = 100
	MinScore     = 0
	MaxScore     = 100
)

// NewResult returns the initial accumulator: score 100, PlugAndPlay and
// empty (non-nil) change and warning lists.
func NewResult() CompatibilityResult {
	return CompatibilityResult{
		Score:           InitialScore,
		Level:           LevelPlugAndPlay,
		RequiredChanges: []ChangeItem{},
		Warnings:        []string{},
	}
}

// LevelPtr returns a pointer to l, for building effects in code.
func LevelPtr(l Level) *Level {
	return &l
}
