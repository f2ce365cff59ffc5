// Package harness runs swap evaluation scenarios as conformance tests.
//
// A scenario names a rule set, a donor engine and a target (an engine or a
// vehicle), and states what the evaluation must produce. The harness runs
// the real engine; nothing is stubbed.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: phase_mismatch
//	description: "Phase 2 donor into a Phase 1 bay"
//	rules_file: ../rules/swap-rules.yaml
//	catalog_file: ../catalog/engines.yaml
//	donor: EJ251
//	target: EJ22E
//	expect:
//	  score: 50
//	  level: MajorMods
//	  warnings: ["Phase mismatch"]
//	  changes: []
//
// rules_file and catalog_file are resolved relative to the scenario file.
// Rules may instead be written inline under rules, using the same shape as
// a rule document. donor, target and vehicle are either a catalog key or an
// inline profile mapping. Exactly one of target and vehicle is required.
//
// # Expectations
//
// Every expect field is optional; an omitted field is not checked.
//
//   - score: exact final score
//   - level: final level name (aliases accepted)
//   - warnings: exact warning list, in order
//   - changes: exact list of required change titles, in order
//   - explanation_contains: substrings the explanation must contain
//
// # Golden Files
//
// RunWithGolden compares the rendered explanation against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
