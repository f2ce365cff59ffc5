package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/roach88/swapcheck/internal/compiler"
	"github.com/roach88/swapcheck/internal/engine"
	"github.com/roach88/swapcheck/internal/ir"
)

// Harness evaluates scenarios. The zero value is not usable; use New.
type Harness struct {
	logger   *slog.Logger
	observer engine.Observer
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger passed to each scenario's engine.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithObserver attaches an engine observer to every evaluation.
func WithObserver(o engine.Observer) Option {
	return func(h *Harness) {
		h.observer = o
	}
}

// New creates a Harness. Logs are discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run executes a scenario and checks its expectations.
//
// The returned error covers setup problems (unreadable rules, unknown
// catalog keys). Failed expectations are reported in Result.Errors.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	rules, err := loadRules(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	catalog := &compiler.Bundle{}
	if scenario.CatalogFile != "" {
		catalog, err = compiler.Load(scenario.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}

	donor, err := resolveEngine("donor", scenario.Donor, catalog)
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{engine.WithLogger(h.logger)}
	if h.observer != nil {
		opts = append(opts, engine.WithObserver(h.observer))
	}
	eng := engine.New(rules, opts...)

	var outcome ir.CompatibilityResult
	if isSet(scenario.Vehicle) {
		vehicle, err := resolveVehicle(scenario.Vehicle, catalog)
		if err != nil {
			return nil, err
		}
		outcome, err = eng.EvaluateVehicle(&donor, &vehicle)
		if err != nil {
			return nil, err
		}
	} else {
		target, err := resolveEngine("target", scenario.Target, catalog)
		if err != nil {
			return nil, err
		}
		outcome, err = eng.Evaluate(&donor, &target)
		if err != nil {
			return nil, err
		}
	}

	h.logger.Debug("scenario evaluated",
		"scenario", scenario.Name,
		"score", outcome.Score,
		"level", outcome.Level.String(),
	)

	result := NewResult()
	result.Outcome = outcome
	result.RuleSetHash = eng.RuleSetHash()

	for _, msg := range CheckExpectations(outcome, scenario.Expect) {
		result.AddError(msg)
	}
	return result, nil
}

func loadRules(s *Scenario) ([]ir.CompatibilityRule, error) {
	if s.RulesFile != "" {
		bundle, err := compiler.Load(s.RulesFile)
		if err != nil {
			return nil, err
		}
		return bundle.Rules, nil
	}
	if !isSet(s.Rules) {
		return nil, nil
	}

	data, err := yaml.Marshal(&s.Rules)
	if err != nil {
		return nil, err
	}
	bundle, errs := compiler.DecodeDocumentBytes(s.Name+".rules", data)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return bundle.Rules, nil
}

// inlineDocument wraps one profile mapping as a single-entry document
// under key so it decodes through the regular document path.
func inlineDocument(key string, node yaml.Node) ([]byte, error) {
	doc := yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: key},
			{Kind: yaml.SequenceNode, Content: []*yaml.Node{&node}},
		},
	}
	return yaml.Marshal(&doc)
}

func resolveEngine(role string, node yaml.Node, catalog *compiler.Bundle) (ir.EngineProfile, error) {
	if node.Kind == yaml.ScalarNode {
		p, ok := catalog.Engine(node.Value)
		if !ok {
			return ir.EngineProfile{}, fmt.Errorf("%s: engine %q not found in catalog", role, node.Value)
		}
		return p, nil
	}

	data, err := inlineDocument("engines", node)
	if err != nil {
		return ir.EngineProfile{}, fmt.Errorf("%s: %w", role, err)
	}
	bundle, errs := compiler.DecodeDocumentBytes(role, data)
	if len(errs) > 0 {
		return ir.EngineProfile{}, fmt.Errorf("%s: %w", role, errors.Join(errs...))
	}
	return bundle.Engines[0], nil
}

func resolveVehicle(node yaml.Node, catalog *compiler.Bundle) (ir.VehicleProfile, error) {
	if node.Kind == yaml.ScalarNode {
		v, ok := catalog.Vehicle(node.Value)
		if !ok {
			return ir.VehicleProfile{}, fmt.Errorf("vehicle %q not found in catalog", node.Value)
		}
		return v, nil
	}

	data, err := inlineDocument("vehicles", node)
	if err != nil {
		return ir.VehicleProfile{}, fmt.Errorf("vehicle: %w", err)
	}
	bundle, errs := compiler.DecodeDocumentBytes("vehicle", data)
	if len(errs) > 0 {
		return ir.VehicleProfile{}, fmt.Errorf("vehicle: %w", errors.Join(errs...))
	}
	return bundle.Vehicles[0], nil
}
