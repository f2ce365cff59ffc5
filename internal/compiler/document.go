package compiler

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/swapcheck/internal/ir"
)

// documentFile is the mapping form of a document source. Keys are folded
// by foldKeys before decoding, hence the lower-case tags.
type documentFile struct {
	Rules    []yaml.Node `yaml:"rules"`
	Engines  []yaml.Node `yaml:"engines"`
	Vehicles []yaml.Node `yaml:"vehicles"`
}

type ruleDoc struct {
	ID     string        `yaml:"id"`
	When   *conditionDoc `yaml:"when"`
	Effect *effectDoc    `yaml:"effect"`
}

type conditionDoc struct {
	Donor  map[string]string `yaml:"donor"`
	Target map[string]string `yaml:"target"`
}

type effectDoc struct {
	Level      string     `yaml:"level"`
	ScoreDelta int        `yaml:"scoredelta"`
	AddWarning string     `yaml:"addwarning"`
	AddChange  *changeDoc `yaml:"addchange"`
}

type changeDoc struct {
	Title    string `yaml:"title"`
	Details  string `yaml:"details"`
	Severity string `yaml:"severity"`
}

type engineDoc struct {
	Code         string `yaml:"code"`
	Phase        string `yaml:"phase"`
	YearRange    string `yaml:"yearrange"`
	Throttle     string `yaml:"throttle"`
	AirMetering  string `yaml:"airmetering"`
	ValveControl string `yaml:"valvecontrol"`
	EcuBus       string `yaml:"ecubus"`
	Notes        string `yaml:"notes"`
}

type vehicleDoc struct {
	ID             string `yaml:"id"`
	Model          string `yaml:"model"`
	Year           int    `yaml:"year"`
	Region         string `yaml:"region"`
	HasImmobilizer bool   `yaml:"hasimmobilizer"`
	ChassisPhase   string `yaml:"chassisphase"`
	ExpectedBus    string `yaml:"expectedbus"`
}

// DecodeDocument parses a JSON or YAML document. name is used in error
// messages only. Errors for individual entries are collected; the returned
// Bundle holds every entry that decoded cleanly.
func DecodeDocument(name string, r io.Reader) (*Bundle, []error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if err == io.EOF {
			return &Bundle{Files: []string{name}}, nil
		}
		return nil, []error{&CompileError{File: name, Field: "document", Message: err.Error()}}
	}
	foldKeys(&root)

	bundle := &Bundle{Files: []string{name}}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		doc = doc.Content[0]
	}

	var file documentFile
	switch doc.Kind {
	case yaml.SequenceNode:
		for _, item := range doc.Content {
			file.Rules = append(file.Rules, *item)
		}
	case yaml.MappingNode:
		if err := doc.Decode(&file); err != nil {
			return nil, []error{&CompileError{File: name, Line: doc.Line, Field: "document", Message: err.Error()}}
		}
	default:
		return nil, []error{&CompileError{
			File:    name,
			Line:    doc.Line,
			Field:   "document",
			Message: "document must be a mapping or a sequence of rules",
		}}
	}

	var errs []error
	for i := range file.Rules {
		rule, err := decodeRule(&file.Rules[i])
		if err != nil {
			errs = append(errs, withFile(err, name, file.Rules[i].Line, fmt.Sprintf("rules[%d]", i)))
			continue
		}
		bundle.Rules = append(bundle.Rules, *rule)
	}
	for i := range file.Engines {
		p, err := decodeEngine(&file.Engines[i])
		if err != nil {
			errs = append(errs, withFile(err, name, file.Engines[i].Line, fmt.Sprintf("engines[%d]", i)))
			continue
		}
		bundle.Engines = append(bundle.Engines, *p)
	}
	for i := range file.Vehicles {
		v, err := decodeVehicle(&file.Vehicles[i])
		if err != nil {
			errs = append(errs, withFile(err, name, file.Vehicles[i].Line, fmt.Sprintf("vehicles[%d]", i)))
			continue
		}
		bundle.Vehicles = append(bundle.Vehicles, *v)
	}

	return bundle, errs
}

// DecodeDocumentBytes is DecodeDocument over an in-memory source.
func DecodeDocumentBytes(name string, data []byte) (*Bundle, []error) {
	return DecodeDocument(name, bytes.NewReader(data))
}

func decodeRule(node *yaml.Node) (*ir.CompatibilityRule, error) {
	var doc ruleDoc
	if err := node.Decode(&doc); err != nil {
		return nil, err
	}

	rule := &ir.CompatibilityRule{ID: doc.ID}
	if doc.When != nil {
		rule.When = &ir.RuleCondition{
			Donor:  ir.Criteria(doc.When.Donor),
			Target: ir.Criteria(doc.When.Target),
		}
	}

	if doc.Effect != nil {
		effect := &ir.RuleEffect{
			ScoreDelta: doc.Effect.ScoreDelta,
			AddWarning: doc.Effect.AddWarning,
		}
		if doc.Effect.Level != "" {
			level, err := ir.ParseLevel(doc.Effect.Level)
			if err != nil {
				return nil, &CompileError{Field: "effect.level", Message: err.Error()}
			}
			effect.Level = &level
		}
		if c := doc.Effect.AddChange; c != nil {
			change := &ir.ChangeItem{Title: c.Title, Details: c.Details}
			if c.Severity != "" {
				sev, err := ir.ParseSeverity(c.Severity)
				if err != nil {
					return nil, &CompileError{Field: "effect.addChange.severity", Message: err.Error()}
				}
				change.Severity = sev
			}
			effect.AddChange = change
		}
		rule.Effect = effect
	}

	normalizeRule(rule)
	return rule, nil
}

func decodeEngine(node *yaml.Node) (*ir.EngineProfile, error) {
	var doc engineDoc
	if err := node.Decode(&doc); err != nil {
		return nil, err
	}

	p := &ir.EngineProfile{
		Code:      doc.Code,
		YearRange: doc.YearRange,
		Notes:     doc.Notes,
	}

	enums := []struct {
		field string
		value string
		set   func(string) error
	}{
		{"phase", doc.Phase, func(s string) (err error) { p.Phase, err = ir.ParsePhase(s); return }},
		{"throttle", doc.Throttle, func(s string) (err error) { p.Throttle, err = ir.ParseThrottle(s); return }},
		{"airMetering", doc.AirMetering, func(s string) (err error) { p.AirMetering, err = ir.ParseAirMetering(s); return }},
		{"valveControl", doc.ValveControl, func(s string) (err error) { p.ValveControl, err = ir.ParseValveControl(s); return }},
		{"ecuBus", doc.EcuBus, func(s string) (err error) { p.EcuBus, err = ir.ParseEcuBus(s); return }},
	}
	for _, e := range enums {
		if e.value == "" {
			continue
		}
		if err := e.set(e.value); err != nil {
			return nil, &CompileError{Field: "engine." + e.field, Message: err.Error()}
		}
	}

	if strings.TrimSpace(p.Code) == "" {
		return nil, &CompileError{Field: "engine.code", Message: "code is required"}
	}
	return p, nil
}

func decodeVehicle(node *yaml.Node) (*ir.VehicleProfile, error) {
	var doc vehicleDoc
	if err := node.Decode(&doc); err != nil {
		return nil, err
	}

	v := &ir.VehicleProfile{
		ID:             doc.ID,
		Model:          doc.Model,
		Year:           doc.Year,
		Region:         doc.Region,
		HasImmobilizer: doc.HasImmobilizer,
	}
	if doc.ChassisPhase != "" {
		phase, err := ir.ParsePhase(doc.ChassisPhase)
		if err != nil {
			return nil, &CompileError{Field: "vehicle.chassisPhase", Message: err.Error()}
		}
		v.ChassisPhase = phase
	}
	if doc.ExpectedBus != "" {
		bus, err := ir.ParseEcuBus(doc.ExpectedBus)
		if err != nil {
			return nil, &CompileError{Field: "vehicle.expectedBus", Message: err.Error()}
		}
		v.ExpectedBus = bus
	}
	return v, nil
}

// foldKeys lower-cases every mapping key and drops '_' and '-', so
// "ScoreDelta", "scoreDelta" and "score_delta" decode alike.
func foldKeys(n *yaml.Node) {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			k.Value = strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(k.Value))
		}
	}
	for _, c := range n.Content {
		foldKeys(c)
	}
}

// withFile attaches file and line context to a per-entry decode error.
func withFile(err error, file string, line int, entry string) error {
	if ce, ok := err.(*CompileError); ok {
		ce.File = file
		if ce.Line == 0 {
			ce.Line = line
		}
		ce.Field = entry + "." + ce.Field
		return ce
	}
	return &CompileError{File: file, Line: line, Field: entry, Message: err.Error()}
}
