// Package classifier buckets free-text answers into fixed categories using
// ordered rule tables. The first matching rule wins; rules never combine.
package classifier

import "strings"

// Rule maps a predicate over normalized text to a result
type Rule[T any] struct {
	Name   string
	Match  func(text string) bool
	Result T
}

// RuleSet evaluates rules top to bottom and falls back to Default
type RuleSet[T any] struct {
	Rules   []Rule[T]
	Default T
}

// Classify returns the result of the first matching rule
func (rs RuleSet[T]) Classify(text string) T {
	if rule, ok := rs.Match(text); ok {
		return rule.Result
	}
	return rs.Default
}

// Match returns the first rule matching text
func (rs RuleSet[T]) Match(text string) (Rule[T], bool) {
	normalized := normalize(text)
	for _, rule := range rs.Rules {
		if rule.Match(normalized) {
			return rule, true
		}
	}
	return Rule[T]{}, false
}

// Contains matches when the text contains any of the keywords
func Contains(keywords ...string) func(string) bool {
	return func(text string) bool {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	}
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
