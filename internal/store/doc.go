// Package store provides SQLite-backed storage for the swap catalog and
// evaluation history.
//
// The store holds:
//   - Engine profiles, keyed by code (case-insensitive)
//   - Vehicle profiles, keyed by VehicleProfile.Key()
//   - The active rule list, keyed by position
//   - Evaluation records: one row per recorded evaluation, append-only
//
// Profiles, rules and results are stored as canonical JSON (see
// ir.MarshalCanonical), so a stored rule list hashes to the same
// ir.RuleSetHash as the list it was written from.
//
// # Ordering
//
//   - Rules: ORDER BY position ASC. Rule order is evaluation order.
//   - Evaluations: ORDER BY seq ASC, id ASC COLLATE BINARY.
//   - Profiles: ORDER BY key COLLATE NOCASE ASC.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
