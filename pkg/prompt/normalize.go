package prompt

import "strings"

// Normalizer applies a rule table to descriptions.
type Normalizer struct {
	rules Rules
}

// NewNormalizer returns a Normalizer over rules. A nil table means
// DefaultRules.
func NewNormalizer(rules Rules) *Normalizer {
	if rules == nil {
		rules = DefaultRules
	}
	return &Normalizer{rules: rules}
}

// Rules returns the table the normalizer applies.
func (n *Normalizer) Rules() Rules {
	return n.rules
}

// Normalize lower-cases s and applies every rule in order.
func (n *Normalizer) Normalize(s string) string {
	return apply(n.rules, strings.ToLower(s), nil)
}

// Trace is the outcome of a traced normalization.
type Trace struct {
	Input  string
	Output string
	// Fired holds the indexes of rules that changed the text, in order.
	Fired []int
	// OrderSensitive is true when applying the table back to front yields
	// a different output for the same input.
	OrderSensitive bool
}

// Trace normalizes s and records which rules fired.
func (n *Normalizer) Trace(s string) Trace {
	lower := strings.ToLower(s)
	var fired []int
	out := apply(n.rules, lower, func(i int) { fired = append(fired, i) })
	return Trace{
		Input:          s,
		Output:         out,
		Fired:          fired,
		OrderSensitive: apply(n.rules.reversed(), lower, nil) != out,
	}
}

var defaultNormalizer = NewNormalizer(DefaultRules)

// Normalize rewrites s with DefaultRules.
func Normalize(s string) string {
	return defaultNormalizer.Normalize(s)
}

func apply(rules Rules, s string, onFire func(int)) string {
	for i, r := range rules {
		if !strings.Contains(s, r.Pattern) {
			continue
		}
		s = strings.ReplaceAll(s, r.Pattern, r.Replacement)
		if onFire != nil {
			onFire(i)
		}
	}
	return s
}
