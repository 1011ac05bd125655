// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/rules/rules.go
// Summary: Matches windows against ordered workspace rules (Rule Engine, L3).
// Usage: The Actor calls MatchWorkspace on every newly discovered window to
// decide its owning workspace, and Engine.IsIgnored first to exclude it from
// tiling.
// Notes: Ported from original_source's tiling/rules.rs AND-logic matcher.

package rules

import "strings"

// Rule is a single (bundle-id?, app-name-substring?, title-substring?)
// criterion. Unspecified fields (empty string) match trivially. All
// comparisons are ASCII-case-insensitive; lowercase copies are cached on
// Compile so matching large window populations stays O(n*m).
type Rule struct {
	AppBundleID   string
	AppName       string
	Title         string

	lowerBundleID string
	lowerAppName  string
	lowerTitle    string
	compiled      bool
}

// Window is the subset of window identity the Rule Engine matches against.
type Window struct {
	AppBundleID string
	AppName     string
	Title       string
}

// Compile pre-lowers the rule's criteria. Safe to call repeatedly.
func (r *Rule) Compile() {
	r.lowerBundleID = strings.ToLower(r.AppBundleID)
	r.lowerAppName = strings.ToLower(r.AppName)
	r.lowerTitle = strings.ToLower(r.Title)
	r.compiled = true
}

// IsValid reports whether the rule has at least one matching criterion.
func (r *Rule) IsValid() bool {
	return r.AppBundleID != "" || r.AppName != "" || r.Title != ""
}

// Matches reports whether every specified criterion matches the window.
// Bundle-id is an exact case-insensitive match; app-name and title are
// case-insensitive substring matches. A rule with no criteria never matches.
func (r *Rule) Matches(w Window) bool {
	if !r.IsValid() {
		return false
	}
	if !r.compiled {
		r.Compile()
	}

	if r.AppBundleID != "" && !strings.EqualFold(w.AppBundleID, r.AppBundleID) {
		return false
	}
	if r.AppName != "" && !strings.Contains(strings.ToLower(w.AppName), r.lowerAppName) {
		return false
	}
	if r.Title != "" && !strings.Contains(strings.ToLower(w.Title), r.lowerTitle) {
		return false
	}
	return true
}

// WorkspaceRules is an ordered (workspace name, rule list) pair, the unit
// the engine iterates in declaration order.
type WorkspaceRules struct {
	WorkspaceName string
	Rules         []Rule
}

// Match is the outcome of a successful rule lookup.
type Match struct {
	WorkspaceName string
	RuleIndex     int
}

// Engine holds compiled ignore rules and matches windows against an ordered
// workspace rule set supplied per call (the workspace list is owned by the
// Actor, not the engine, so it always reflects the live config).
type Engine struct {
	ignore []Rule
}

// NewEngine constructs a Rule Engine with the given ignore-rule list
// (checked before any workspace rule, per spec: ignore rules take
// precedence over workspace rules).
func NewEngine(ignore []Rule) *Engine {
	compiled := make([]Rule, len(ignore))
	copy(compiled, ignore)
	for i := range compiled {
		compiled[i].Compile()
	}
	return &Engine{ignore: compiled}
}

// SetIgnoreRules replaces the ignore-rule list, e.g. on config hot-reload.
func (e *Engine) SetIgnoreRules(ignore []Rule) {
	compiled := make([]Rule, len(ignore))
	copy(compiled, ignore)
	for i := range compiled {
		compiled[i].Compile()
	}
	e.ignore = compiled
}

// IsIgnored reports whether w matches any ignore rule.
func (e *Engine) IsIgnored(w Window) bool {
	for i := range e.ignore {
		if e.ignore[i].Matches(w) {
			return true
		}
	}
	return false
}

// MatchWorkspace tries workspaces in declaration order and, within each,
// rules in declaration order. The first match wins. Returns ok=false if no
// rule matched (caller falls back to a default workspace).
func MatchWorkspace(w Window, workspaces []WorkspaceRules) (Match, bool) {
	for _, ws := range workspaces {
		for i := range ws.Rules {
			if ws.Rules[i].Matches(w) {
				return Match{WorkspaceName: ws.WorkspaceName, RuleIndex: i}, true
			}
		}
	}
	return Match{}, false
}

// CountMatchingRules counts how many rules in rules match w. Useful for
// diagnosing overlapping/ambiguous configuration.
func CountMatchingRules(rules []Rule, w Window) int {
	n := 0
	for i := range rules {
		if rules[i].Matches(w) {
			n++
		}
	}
	return n
}
