// Package compiler turns rule and catalog sources into ir values.
//
// Two source forms are accepted:
//
//   - CUE, using the cuelang.org/go SDK. Rules are declared under
//     rule: <id>: {...}, engine profiles under engine: <code>: {...} and
//     vehicles under vehicle: <id>: {...}.
//   - Documents (JSON or YAML), decoded with gopkg.in/yaml.v3. A document
//     is either a mapping with rules, engines and vehicles sequences or a
//     bare sequence of rules. Property names are case-insensitive.
//
// Both forms normalize enum-valued criteria to the rendered token the
// matcher compares against, so "DriveByWire" in a rule becomes "DBW".
//
// Lint reports rule problems that evaluation tolerates silently, such as
// criteria on unknown attributes or conditions that can never match.
package compiler
