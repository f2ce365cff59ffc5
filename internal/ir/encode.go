package ir

// The Canonical methods build the map form fed to MarshalCanonical. Keys
// match the JSON tags, so canonical bytes decode back with encoding/json.

// Canonical returns the canonical map form of the profile.
func (p EngineProfile) Canonical() map[string]any {
	m := map[string]any{
		"code":          p.Code,
		"phase":         p.Phase.String(),
		"year_range":    p.YearRange,
		"throttle":      p.Throttle.String(),
		"air_metering":  p.AirMetering.String(),
		"valve_control": p.ValveControl.String(),
		"ecu_bus":       p.EcuBus.String(),
	}
	if p.Notes != "" {
		m["notes"] = p.Notes
	}
	return m
}

// Canonical returns the canonical map form of the change.
func (c ChangeItem) Canonical() map[string]any {
	return map[string]any{
		"title":    c.Title,
		"details":  c.Details,
		"severity": c.Severity.String(),
	}
}

// Canonical returns the canonical map form of the rule. Absent parts are
// omitted rather than encoded as null.
func (r CompatibilityRule) Canonical() map[string]any {
	m := map[string]any{"id": r.ID}
	if r.When != nil {
		when := map[string]any{}
		if r.When.Donor != nil {
			when["donor"] = map[string]string(r.When.Donor)
		}
		if r.When.Target != nil {
			when["target"] = map[string]string(r.When.Target)
		}
		m["when"] = when
	}
	if r.Effect != nil {
		effect := map[string]any{"score_delta": r.Effect.ScoreDelta}
		if r.Effect.Level != nil {
			effect["level"] = r.Effect.Level.String()
		}
		if r.Effect.AddWarning != "" {
			effect["add_warning"] = r.Effect.AddWarning
		}
		if r.Effect.AddChange != nil {
			effect["add_change"] = r.Effect.AddChange.Canonical()
		}
		m["effect"] = effect
	}
	return m
}

// Canonical returns the canonical map form of the result.
func (r CompatibilityResult) Canonical() map[string]any {
	changes := make([]any, len(r.RequiredChanges))
	for i, c := range r.RequiredChanges {
		changes[i] = c.Canonical()
	}
	m := map[string]any{
		"score":            r.Score,
		"level":            r.Level.String(),
		"required_changes": changes,
		"warnings":         append([]string{}, r.Warnings...),
		"explanation":      r.Explanation,
	}
	if r.RecommendedApproach != "" {
		m["recommended_approach"] = r.RecommendedApproach
	}
	return m
}

// Canonical returns the canonical map form of the vehicle.
func (v VehicleProfile) Canonical() map[string]any {
	return map[string]any{
		"id":              v.ID,
		"model":           v.Model,
		"year":            v.Year,
		"region":          v.Region,
		"has_immobilizer": v.HasImmobilizer,
		"chassis_phase":   v.ChassisPhase.String(),
		"expected_bus":    v.ExpectedBus.String(),
	}
}
