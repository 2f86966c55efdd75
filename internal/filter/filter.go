// Package filter decides which organization members are eligible for the
// synchronized team.
//
// Every account is allowed by default. Rules are evaluated in order; for
// each rule, a match against any reject pattern flips the account to
// rejected, and only then a match against any allow pattern flips it back.
// A later rule can reject an account an earlier rule let back in.
// Patterns are case-insensitive, unanchored regular expressions.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldLogin is the account login. It is the only field available without
// fetching full user profiles.
const FieldLogin = "login"

var knownFields = map[string]bool{
	FieldLogin: true,
}

// Subject is anything filters can be evaluated against.
type Subject interface {
	Attribute(field string) (string, bool)
}

// Rule holds the reject and allow patterns for one field.
type Rule struct {
	Field  string   `yaml:"field"`
	Reject []string `yaml:"reject"`
	Allow  []string `yaml:"allow"`
}

// Rules is an ordered rule list.
type Rules []Rule

// Filter is a compiled, immutable rule set. The zero value and a nil
// *Filter allow everyone.
type Filter struct {
	rules []compiledRule
}

type compiledRule struct {
	field  string
	reject []*regexp.Regexp
	allow  []*regexp.Regexp
}

// Compile validates rules and compiles their patterns.
func Compile(rules Rules) (*Filter, error) {
	f := &Filter{rules: make([]compiledRule, 0, len(rules))}
	for i, rule := range rules {
		if !knownFields[rule.Field] {
			return nil, fmt.Errorf("filter rule %d: unsupported field %q (supported: %s)", i+1, rule.Field, FieldLogin)
		}
		reject, err := compilePatterns(rule.Field, "reject", rule.Reject)
		if err != nil {
			return nil, err
		}
		allow, err := compilePatterns(rule.Field, "allow", rule.Allow)
		if err != nil {
			return nil, err
		}
		f.rules = append(f.rules, compiledRule{field: rule.Field, reject: reject, allow: allow})
	}
	return f, nil
}

func compilePatterns(field, key string, patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("filter %s.%s: invalid pattern %q: %w", field, key, pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Len returns the number of rules.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.rules)
}

// Match records which patterns of a rule fired for a subject. Allow is
// only consulted, and so only set, when Reject is.
type Match struct {
	Field  string
	Reject string
	Allow  string
}

// Verdict is the outcome of evaluating a subject.
type Verdict struct {
	Allowed bool
	Matches []Match
}

// Allow reports whether subject passes the filter.
func (f *Filter) Allow(subject Subject) bool {
	return f.Explain(subject).Allowed
}

// Explain evaluates subject and reports the patterns that decided it.
func (f *Filter) Explain(subject Subject) Verdict {
	verdict := Verdict{Allowed: true}
	if f == nil {
		return verdict
	}

	for _, rule := range f.rules {
		value, ok := subject.Attribute(rule.field)
		if !ok {
			continue
		}

		rejectedBy, rejected := firstMatch(rule.reject, value)
		if !rejected {
			continue
		}
		verdict.Allowed = false
		match := Match{Field: rule.field, Reject: rejectedBy}

		if allowedBy, allowed := firstMatch(rule.allow, value); allowed {
			verdict.Allowed = true
			match.Allow = allowedBy
		}
		verdict.Matches = append(verdict.Matches, match)
	}
	return verdict
}

// firstMatch returns the source pattern of the first regexp that matches
// value, without the case-insensitivity prefix.
func firstMatch(patterns []*regexp.Regexp, value string) (string, bool) {
	for _, re := range patterns {
		if re.MatchString(value) {
			return strings.TrimPrefix(re.String(), "(?i)"), true
		}
	}
	return "", false
}
