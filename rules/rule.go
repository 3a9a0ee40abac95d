// Package rules applies co-occurrence consistency rules to an ordered tag list.
//
// Each rule inspects the current tag set and returns a Verdict of mutations
// and warnings. Rules never reorder surviving tags.
package rules

import "fmt"

// Stage orders rule evaluation. Exclusions run first so that derived rules see
// the pruned set, and advisory checks see the final set.
type Stage int

const (
	StageExclusion Stage = iota
	StageDerived
	StageAdvisory
)

func (s Stage) String() string {
	switch s {
	case StageExclusion:
		return "exclusion"
	case StageDerived:
		return "derived"
	case StageAdvisory:
		return "advisory"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Warning reports a condition a rule detected but did not correct.
type Warning struct {
	Rule    string   `json:"rule"`
	Message string   `json:"message"`
	Tags    []string `json:"tags,omitempty"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s %v", w.Rule, w.Message, w.Tags)
}

type Verdict struct {
	Remove   []string
	Add      []string
	Warnings []Warning
}

type Rule interface {
	Name() string
	Stage() Stage
	Evaluate(s Set) Verdict
}

// Set is a read-only view of the current tag list.
type Set struct {
	tags  []string
	index map[string]struct{}
}

func NewSet(tags []string) Set {
	index := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		index[t] = struct{}{}
	}
	return Set{tags: tags, index: index}
}

func (s Set) Has(tag string) bool {
	_, ok := s.index[tag]
	return ok
}

// Tags returns the tags in list order. Callers must not modify the result.
func (s Set) Tags() []string {
	return s.tags
}

// Present returns the subset of candidates found in s, in candidate order.
func (s Set) Present(candidates []string) []string {
	var out []string
	for _, c := range candidates {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Missing returns the subset of candidates not found in s, in candidate order.
func (s Set) Missing(candidates []string) []string {
	var out []string
	for _, c := range candidates {
		if !s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}
