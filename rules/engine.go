package rules

import (
	"slices"
)

// Engine runs an ordered battery of rules. It is immutable and safe for
// concurrent use.
type Engine struct {
	rules []Rule
	limit int
	admit Admit
}

// Admit decides whether a rule may add tag to the current list. A non-nil
// error rejects the addition and becomes the warning message.
type Admit func(tag string, current Set) error

// NewEngine orders rules by stage, keeping registration order within a stage.
// limit caps the tag count after additions; zero means no cap.
func NewEngine(limit int, rules ...Rule) *Engine {
	ordered := slices.Clone(rules)
	slices.SortStableFunc(ordered, func(a, b Rule) int {
		return int(a.Stage()) - int(b.Stage())
	})
	return &Engine{rules: ordered, limit: limit}
}

// WithAdmission returns a copy of e that checks every addition with admit
// before the tag limit.
func (e *Engine) WithAdmission(admit Admit) *Engine {
	c := *e
	c.admit = admit
	return &c
}

func (e *Engine) Rules() []Rule {
	return slices.Clone(e.rules)
}

// Apply evaluates every rule against the list as left by the previous rule.
// The input slice is not modified.
func (e *Engine) Apply(tags []string) ([]string, []Warning) {
	out := slices.Clone(tags)
	var warnings []Warning
	for _, r := range e.rules {
		v := r.Evaluate(NewSet(out))
		if len(v.Remove) > 0 {
			drop := NewSet(v.Remove)
			out = slices.DeleteFunc(out, drop.Has)
		}
		for _, tag := range v.Add {
			if slices.Contains(out, tag) {
				continue
			}
			if e.admit != nil {
				if err := e.admit(tag, NewSet(out)); err != nil {
					warnings = append(warnings, Warning{
						Rule:    r.Name(),
						Message: err.Error() + ", addition skipped",
						Tags:    []string{tag},
					})
					continue
				}
			}
			if e.limit > 0 && len(out) >= e.limit {
				warnings = append(warnings, Warning{
					Rule:    r.Name(),
					Message: "tag limit reached, addition skipped",
					Tags:    []string{tag},
				})
				continue
			}
			out = append(out, tag)
		}
		warnings = append(warnings, v.Warnings...)
	}
	return out, warnings
}
