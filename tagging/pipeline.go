// Package tagging turns per-tag model scores into the final tag list of an
// image: threshold, synonym reduction, validity and blacklist filtering,
// truncation, then the consistency rules.
package tagging

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/krau/tagpipe/catalog"
	"github.com/krau/tagpipe/rules"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrScoreLength   = errors.New("score vector length does not match catalog")

	errBlacklisted  = errors.New("tag is blacklisted")
	errNotInCatalog = errors.New("tag is not a valid catalog entry")
	errGroupTaken   = errors.New("synonym group already represented")
)

type Options struct {
	Threshold     float32
	MaxTags       int
	SynonymGroups [][]int
	Blacklist     catalog.Blacklist
	// AllowUnknownBlacklist downgrades blacklist names missing from the
	// catalog from an error to a logged warning.
	AllowUnknownBlacklist bool
	Rules                 []rules.Rule
}

type Result struct {
	Tags     []string           `json:"tags"`
	Scores   map[string]float32 `json:"scores"`
	Warnings []rules.Warning    `json:"warnings,omitempty"`
}

// Pipeline holds the immutable tagging configuration. It is safe for
// concurrent use.
type Pipeline struct {
	cat       *catalog.Catalog
	groups    *Groups
	blacklist catalog.Blacklist
	threshold float32
	maxTags   int
	engine    *rules.Engine
}

// New checks opts against the catalog and builds a pipeline. Every
// configuration problem found is reported in the returned error.
func New(cat *catalog.Catalog, opts Options, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cat == nil {
		return nil, fmt.Errorf("%w: catalog is required", ErrInvalidConfig)
	}

	var errs []error
	if opts.Threshold < 0 || opts.Threshold > 1 {
		errs = append(errs, fmt.Errorf("%w: threshold %v outside [0, 1]", ErrInvalidConfig, opts.Threshold))
	}
	if opts.MaxTags < 1 {
		errs = append(errs, fmt.Errorf("%w: max_tags must be at least 1, got %d", ErrInvalidConfig, opts.MaxTags))
	}

	groups, unknownIDs, err := NewGroups(opts.SynonymGroups, cat)
	if err != nil {
		errs = append(errs, err)
	}
	if len(unknownIDs) > 0 {
		logger.Warn("Synonym groups reference unknown tag ids, ignoring them", slog.Any("ids", unknownIDs))
	}

	blacklist := opts.Blacklist
	if blacklist == nil {
		blacklist = catalog.Blacklist{}
	}
	if unknown := blacklist.Unknown(cat); len(unknown) > 0 {
		if opts.AllowUnknownBlacklist {
			logger.Warn("Blacklist names not in catalog", slog.Any("names", unknown))
		} else {
			errs = append(errs, fmt.Errorf("%w: blacklist names not in catalog: %v", ErrInvalidConfig, unknown))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	ruleSet := opts.Rules
	if ruleSet == nil {
		ruleSet = rules.Default()
	}
	p := &Pipeline{
		cat:       cat,
		groups:    groups,
		blacklist: blacklist,
		threshold: opts.Threshold,
		maxTags:   opts.MaxTags,
	}
	p.engine = rules.NewEngine(opts.MaxTags, ruleSet...).WithAdmission(p.admit)
	return p, nil
}

// admit holds rule additions to the same constraints as model tags: known,
// valid, not blacklisted and alone in their synonym group.
func (p *Pipeline) admit(tag string, current rules.Set) error {
	if p.blacklist.Contains(tag) {
		return errBlacklisted
	}
	id, ok := p.cat.ID(tag)
	if !ok || !p.cat.Valid(id) {
		return errNotInCatalog
	}
	if g, ok := p.groups.GroupOf(id); ok {
		for _, member := range p.groups.Members(g) {
			name, _ := p.cat.Name(member)
			if current.Has(name) {
				return errGroupTaken
			}
		}
	}
	return nil
}

func (p *Pipeline) Catalog() *catalog.Catalog { return p.cat }

func (p *Pipeline) Groups() *Groups { return p.groups }

func (p *Pipeline) Engine() *rules.Engine { return p.engine }

func (p *Pipeline) Threshold() float32 { return p.threshold }

func (p *Pipeline) MaxTags() int { return p.maxTags }

// Candidates keeps the scores strictly above the threshold and orders them by
// score, descending. Equal scores keep catalog order.
func (p *Pipeline) Candidates(scores []float32) ([]Scored, error) {
	if len(scores) != p.cat.Len() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrScoreLength, len(scores), p.cat.Len())
	}
	var out []Scored
	for i, s := range scores {
		if s > p.threshold {
			out = append(out, Scored{ID: p.cat.At(i).ID, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// Run processes a dense score vector indexed by catalog row.
func (p *Pipeline) Run(scores []float32) (Result, error) {
	cands, err := p.Candidates(scores)
	if err != nil {
		return Result{}, err
	}
	return p.RunScored(cands), nil
}

// RunScored processes an already thresholded candidate list. Candidates are
// re-sorted by score (stable), so callers may pass them in any order.
func (p *Pipeline) RunScored(cands []Scored) Result {
	sorted := slices.Clone(cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	selected := Select(p.groups.Reduce(sorted), p.cat, p.blacklist, p.maxTags)

	names := make([]string, 0, len(selected))
	scores := make(map[string]float32, len(selected))
	for _, t := range selected {
		name, _ := p.cat.Name(t.ID)
		names = append(names, name)
		scores[name] = t.Score
	}

	tags, warnings := p.engine.Apply(names)
	if tags == nil {
		tags = []string{}
	}
	for name := range scores {
		if !slices.Contains(tags, name) {
			delete(scores, name)
		}
	}
	return Result{Tags: tags, Scores: scores, Warnings: warnings}
}
