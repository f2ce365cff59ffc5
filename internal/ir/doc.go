// Package ir provides the value types shared by every swapcheck package:
// engine and vehicle profiles, compatibility rules and evaluation results.
//
// This package contains type definitions and their canonical encodings only.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Enumerations carry explicit ranks; severity comparisons use the rank,
//     never declaration order
//   - Optional rule parts are pointers (nil = absent), so "no override" is
//     distinguishable from "override to the lowest level"
//   - All JSON tags use snake_case and enums encode as names
//   - Profiles and rules are immutable once loaded; results are owned by the
//     caller that requested them
package ir
