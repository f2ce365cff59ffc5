package compiler

import (
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/swapcheck/internal/ir"
)

// CompileRule parses a CUE value into a CompatibilityRule.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the rule struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`rule: "phase-mismatch": { ... }`)
//	rule, order, err := CompileRule(v.LookupPath(cue.ParsePath(`rule."phase-mismatch"`)))
//
// The returned order is the optional order field (0 when absent).
func CompileRule(v cue.Value) (*ir.CompatibilityRule, int, error) {
	if err := v.Err(); err != nil {
		return nil, 0, formatCUEError(err)
	}

	rule := &ir.CompatibilityRule{ID: lastLabel(v)}

	order := 0
	if orderVal := v.LookupPath(cue.ParsePath("order")); orderVal.Exists() {
		n, err := orderVal.Int64()
		if err != nil {
			return nil, 0, formatCUEError(err)
		}
		order = int(n)
	}

	whenVal := v.LookupPath(cue.ParsePath("when"))
	if whenVal.Exists() {
		when, err := parseCondition(whenVal)
		if err != nil {
			return nil, 0, err
		}
		rule.When = when
	}

	effectVal := v.LookupPath(cue.ParsePath("effect"))
	if effectVal.Exists() {
		effect, err := parseEffect(effectVal)
		if err != nil {
			return nil, 0, err
		}
		rule.Effect = effect
	}

	normalizeRule(rule)
	return rule, order, nil
}

// parseCondition extracts the donor and target clauses. An absent clause
// stays nil; a present one is non-nil even when it has no fields.
func parseCondition(v cue.Value) (*ir.RuleCondition, error) {
	cond := &ir.RuleCondition{}

	for _, side := range []string{"donor", "target"} {
		clauseVal := v.LookupPath(cue.ParsePath(side))
		if !clauseVal.Exists() {
			continue
		}
		criteria, err := parseCriteria(clauseVal)
		if err != nil {
			return nil, err
		}
		if side == "donor" {
			cond.Donor = criteria
		} else {
			cond.Target = criteria
		}
	}

	return cond, nil
}

func parseCriteria(v cue.Value) (ir.Criteria, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	criteria := ir.Criteria{}
	for iter.Next() {
		value, err := scalarString(iter.Value())
		if err != nil {
			return nil, err
		}
		criteria[iter.Label()] = value
	}
	return criteria, nil
}

// scalarString renders a concrete CUE scalar as the string a criterion
// compares against. Numbers are accepted so year_range: 2004 style values
// do not need quoting.
func scalarString(v cue.Value) (string, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return "", formatCUEError(err)
		}
		return s, nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return "", formatCUEError(err)
		}
		return fmt.Sprintf("%d", n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return "", formatCUEError(err)
		}
		return fmt.Sprintf("%t", b), nil
	default:
		return "", &CompileError{
			Field:   lastLabel(v),
			Message: fmt.Sprintf("criterion must be a string, int or bool, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func parseEffect(v cue.Value) (*ir.RuleEffect, error) {
	effect := &ir.RuleEffect{}

	if levelVal := v.LookupPath(cue.ParsePath("level")); levelVal.Exists() {
		s, err := levelVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		level, err := ir.ParseLevel(s)
		if err != nil {
			return nil, &CompileError{Field: "effect.level", Message: err.Error(), Pos: levelVal.Pos()}
		}
		effect.Level = &level
	}

	if deltaVal := v.LookupPath(cue.ParsePath("scoreDelta")); deltaVal.Exists() {
		n, err := deltaVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		effect.ScoreDelta = int(n)
	}

	if warnVal := v.LookupPath(cue.ParsePath("addWarning")); warnVal.Exists() {
		s, err := warnVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		effect.AddWarning = s
	}

	if changeVal := v.LookupPath(cue.ParsePath("addChange")); changeVal.Exists() {
		change, err := parseChange(changeVal)
		if err != nil {
			return nil, err
		}
		effect.AddChange = change
	}

	return effect, nil
}

func parseChange(v cue.Value) (*ir.ChangeItem, error) {
	change := &ir.ChangeItem{}

	titleVal := v.LookupPath(cue.ParsePath("title"))
	if !titleVal.Exists() {
		return nil, &CompileError{
			Field:   "effect.addChange.title",
			Message: "title is required",
			Pos:     v.Pos(),
		}
	}
	title, err := titleVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	change.Title = title

	if detailsVal := v.LookupPath(cue.ParsePath("details")); detailsVal.Exists() {
		details, err := detailsVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		change.Details = details
	}

	if sevVal := v.LookupPath(cue.ParsePath("severity")); sevVal.Exists() {
		s, err := sevVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		sev, err := ir.ParseSeverity(s)
		if err != nil {
			return nil, &CompileError{Field: "effect.addChange.severity", Message: err.Error(), Pos: sevVal.Pos()}
		}
		change.Severity = sev
	}

	return change, nil
}

// CompileEngine parses a CUE value into an EngineProfile. The code defaults
// to the struct label when no code field is given.
func CompileEngine(v cue.Value) (*ir.EngineProfile, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &ir.EngineProfile{Code: lastLabel(v)}

	fields := []struct {
		name string
		set  func(string) error
	}{
		{"code", func(s string) error { p.Code = s; return nil }},
		{"phase", func(s string) (err error) { p.Phase, err = ir.ParsePhase(s); return }},
		{"yearRange", func(s string) error { p.YearRange = s; return nil }},
		{"throttle", func(s string) (err error) { p.Throttle, err = ir.ParseThrottle(s); return }},
		{"airMetering", func(s string) (err error) { p.AirMetering, err = ir.ParseAirMetering(s); return }},
		{"valveControl", func(s string) (err error) { p.ValveControl, err = ir.ParseValveControl(s); return }},
		{"ecuBus", func(s string) (err error) { p.EcuBus, err = ir.ParseEcuBus(s); return }},
		{"notes", func(s string) error { p.Notes = s; return nil }},
	}

	for _, f := range fields {
		fv := v.LookupPath(cue.ParsePath(f.name))
		if !fv.Exists() {
			continue
		}
		s, err := scalarString(fv)
		if err != nil {
			return nil, err
		}
		if err := f.set(s); err != nil {
			return nil, &CompileError{Field: "engine." + f.name, Message: err.Error(), Pos: fv.Pos()}
		}
	}

	return p, nil
}

// CompileVehicle parses a CUE value into a VehicleProfile. The ID is the
// struct label.
func CompileVehicle(v cue.Value) (*ir.VehicleProfile, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	vp := &ir.VehicleProfile{ID: lastLabel(v)}

	if modelVal := v.LookupPath(cue.ParsePath("model")); modelVal.Exists() {
		s, err := modelVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		vp.Model = s
	}

	if yearVal := v.LookupPath(cue.ParsePath("year")); yearVal.Exists() {
		n, err := yearVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		vp.Year = int(n)
	}

	if regionVal := v.LookupPath(cue.ParsePath("region")); regionVal.Exists() {
		s, err := regionVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		vp.Region = s
	}

	if immoVal := v.LookupPath(cue.ParsePath("hasImmobilizer")); immoVal.Exists() {
		b, err := immoVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		vp.HasImmobilizer = b
	}

	if phaseVal := v.LookupPath(cue.ParsePath("chassisPhase")); phaseVal.Exists() {
		s, err := phaseVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if vp.ChassisPhase, err = ir.ParsePhase(s); err != nil {
			return nil, &CompileError{Field: "vehicle.chassisPhase", Message: err.Error(), Pos: phaseVal.Pos()}
		}
	}

	if busVal := v.LookupPath(cue.ParsePath("expectedBus")); busVal.Exists() {
		s, err := busVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if vp.ExpectedBus, err = ir.ParseEcuBus(s); err != nil {
			return nil, &CompileError{Field: "vehicle.expectedBus", Message: err.Error(), Pos: busVal.Pos()}
		}
	}

	return vp, nil
}

// CompileValue extracts every rule, engine and vehicle declared in a built
// CUE value. Errors are collected rather than returned on the first one so
// a validate run reports everything at once.
func CompileValue(value cue.Value) (*Bundle, []error) {
	var errs []error
	bundle := &Bundle{}

	type ordered struct {
		rule  ir.CompatibilityRule
		order int
		index int
	}
	var rules []ordered

	each(value, "rule", &errs, func(v cue.Value) error {
		rule, order, err := CompileRule(v)
		if err != nil {
			return err
		}
		rules = append(rules, ordered{rule: *rule, order: order, index: len(rules)})
		return nil
	})

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].order != rules[j].order {
			return rules[i].order < rules[j].order
		}
		return rules[i].index < rules[j].index
	})
	for _, r := range rules {
		bundle.Rules = append(bundle.Rules, r.rule)
	}

	each(value, "engine", &errs, func(v cue.Value) error {
		p, err := CompileEngine(v)
		if err != nil {
			return err
		}
		bundle.Engines = append(bundle.Engines, *p)
		return nil
	})

	each(value, "vehicle", &errs, func(v cue.Value) error {
		vp, err := CompileVehicle(v)
		if err != nil {
			return err
		}
		bundle.Vehicles = append(bundle.Vehicles, *vp)
		return nil
	})

	return bundle, errs
}

// each calls fn for every field of the top-level struct named kind.
func each(value cue.Value, kind string, errs *[]error, fn func(cue.Value) error) {
	kindVal := value.LookupPath(cue.ParsePath(kind))
	if !kindVal.Exists() {
		return
	}
	iter, err := kindVal.Fields()
	if err != nil {
		*errs = append(*errs, fmt.Errorf("iterating %s: %w", kind, formatCUEError(err)))
		return
	}
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			*errs = append(*errs, fmt.Errorf("%s.%s: %w", kind, iter.Label(), err))
		}
	}
}

// lastLabel returns the unquoted final selector of v's path.
func lastLabel(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	return strings.Trim(sels[len(sels)-1].String(), `"`)
}
