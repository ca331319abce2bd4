// Package prompt turns a free-text application description into the prompt
// sent to the model.
//
// Normalization lower-cases the description and rewrites colloquial phrases
// into Kubernetes vocabulary with an ordered list of literal [Rule]s. The
// rewrite is plain substring replacement applied rule by rule, so a later
// rule may fire inside text produced by an earlier one. [Rules.Conflicts]
// reports every place in the table where that can happen.
package prompt

import "strings"

// Rule rewrites every occurrence of Pattern with Replacement.
type Rule struct {
	Pattern     string
	Replacement string
}

// Rules is an ordered rewrite table. Order is significant.
type Rules []Rule

// DefaultRules is the vocabulary table used by Normalize.
var DefaultRules = Rules{
	{"pods", "replicas"},
	{"pod", "replica"},
	{"scale up", "scale from 2 to 5 replicas"},
	{"scale down", "scale from 5 to 2 replicas"},
	{"start", "deploy"},
	{"launch", "deploy"},
	{"hpa", "HorizontalPodAutoscaler"},
	{"autoscale", "add a HorizontalPodAutoscaler"},
	{"autoscaling", "add a HorizontalPodAutoscaler"},
	{"scaler", "HorizontalPodAutoscaler"},
	{"autoscaling from 1 to 4 replicas", "add a HorizontalPodAutoscaler to scale between 1 and 4 replicas"},
	{"autoscaling from 2 to 5 replicas", "add a HorizontalPodAutoscaler to scale between 2 and 5 replicas"},
	{"cpu trigger at 60%", "based on 60% CPU usage"},
	{"trigger at 60% cpu", "based on 60% CPU usage"},
	{"flak", "flask"}, // typo
	{"flsk", "flask"},
	{"ndoe", "node"},
	{"gonode", "go and node app"},
}

// ConflictKind classifies an interaction between two rules of a table.
type ConflictKind string

const (
	// ConflictShadowed: an earlier pattern is a substring of a later one, so
	// the later rule never sees its whole pattern.
	ConflictShadowed ConflictKind = "shadowed"
	// ConflictCascade: a later pattern occurs inside an earlier replacement.
	ConflictCascade ConflictKind = "cascade"
	// ConflictUnstable: a pattern occurs inside the lower-cased form of a
	// replacement, so normalizing the output again rewrites it again.
	ConflictUnstable ConflictKind = "unstable"
)

// Conflict names two rules that interact. Earlier and Later are indexes
// into the table; for ConflictUnstable, Earlier is the rule whose
// replacement contains Later's pattern and the two may be in any order.
type Conflict struct {
	Kind    ConflictKind
	Earlier int
	Later   int
}

// Conflicts lints the table. The result is ordered by kind, then by the
// first index, then by the second.
func (rs Rules) Conflicts() []Conflict {
	var shadowed, cascade, unstable []Conflict
	for i, a := range rs {
		for j, b := range rs {
			if j > i && strings.Contains(b.Pattern, a.Pattern) {
				shadowed = append(shadowed, Conflict{Kind: ConflictShadowed, Earlier: i, Later: j})
			}
			if j > i && strings.Contains(a.Replacement, b.Pattern) {
				cascade = append(cascade, Conflict{Kind: ConflictCascade, Earlier: i, Later: j})
			}
			if strings.Contains(strings.ToLower(a.Replacement), b.Pattern) {
				unstable = append(unstable, Conflict{Kind: ConflictUnstable, Earlier: i, Later: j})
			}
		}
	}
	out := make([]Conflict, 0, len(shadowed)+len(cascade)+len(unstable))
	out = append(out, shadowed...)
	out = append(out, cascade...)
	return append(out, unstable...)
}

// Idempotent reports whether normalizing already-normalized text is a
// no-op for every input, which holds only when no ConflictUnstable exists.
func (rs Rules) Idempotent() bool {
	for _, c := range rs.Conflicts() {
		if c.Kind == ConflictUnstable {
			return false
		}
	}
	return true
}

func (rs Rules) reversed() Rules {
	out := make(Rules, len(rs))
	for i, r := range rs {
		out[len(rs)-1-i] = r
	}
	return out
}
