package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRuleSet = "swapcheck/ruleset/v1"
	DomainResult  = "swapcheck/result/v1"
	DomainProfile = "swapcheck/profile/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RuleSetHash identifies an ordered rule list. Reordering the rules changes
// the hash, because order changes evaluation output.
func RuleSetHash(rules []CompatibilityRule) (string, error) {
	list := make([]any, len(rules))
	for i, r := range rules {
		list[i] = r.Canonical()
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("RuleSetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRuleSet, canonical), nil
}

// ResultHash identifies an evaluation result, explanation included.
// Two evaluations over the same inputs must produce the same hash.
func ResultHash(result CompatibilityResult) (string, error) {
	canonical, err := MarshalCanonical(result.Canonical())
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// ProfileHash identifies an engine profile by content.
func ProfileHash(p EngineProfile) (string, error) {
	canonical, err := MarshalCanonical(p.Canonical())
	if err != nil {
		return "", fmt.Errorf("ProfileHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProfile, canonical), nil
}

// MustRuleSetHash is like RuleSetHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRuleSetHash(rules []CompatibilityRule) string {
	h, err := RuleSetHash(rules)
	if err != nil {
		panic(err)
	}
	return h
}

// MustResultHash is like ResultHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustResultHash(result CompatibilityResult) string {
	h, err := ResultHash(result)
	if err != nil {
		panic(err)
	}
	return h
}
