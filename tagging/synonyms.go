package tagging

import (
	"fmt"
	"slices"
	"sort"

	"github.com/krau/tagpipe/catalog"
)

// Scored is a tag id with its confidence.
type Scored struct {
	ID    int     `json:"id"`
	Score float32 `json:"score"`
}

// Groups is an arena of disjoint synonym groups with a precomputed
// id -> group index.
type Groups struct {
	members [][]int
	index   map[int]int
}

// NewGroups validates groups against the catalog. Ids the catalog does not
// define are dropped from their group and returned so the caller can report
// them. An id listed in two groups is a configuration error.
func NewGroups(groups [][]int, cat *catalog.Catalog) (*Groups, []int, error) {
	g := &Groups{index: make(map[int]int)}
	var unknown []int
	for _, group := range groups {
		var members []int
		for _, id := range group {
			if cat != nil && !cat.Has(id) {
				unknown = append(unknown, id)
				continue
			}
			if slices.Contains(members, id) {
				continue
			}
			if prev, ok := g.index[id]; ok {
				return nil, nil, fmt.Errorf("%w: tag id %d is in synonym groups %v and %v", ErrInvalidConfig, id, g.members[prev], group)
			}
			members = append(members, id)
			g.index[id] = len(g.members)
		}
		if len(members) > 0 {
			g.members = append(g.members, members)
		}
	}
	return g, unknown, nil
}

func (g *Groups) Len() int {
	if g == nil {
		return 0
	}
	return len(g.members)
}

// Members returns the ids of group i.
func (g *Groups) Members(i int) []int {
	return slices.Clone(g.members[i])
}

// GroupOf returns the group index of id.
func (g *Groups) GroupOf(id int) (int, bool) {
	if g == nil {
		return 0, false
	}
	i, ok := g.index[id]
	return i, ok
}

// Reduce keeps the best-scoring member of every synonym group present in tags
// and passes ungrouped tags through. Ties go to the member seen first. The
// result is sorted by score, descending, stable with respect to input order.
func (g *Groups) Reduce(tags []Scored) []Scored {
	type key struct {
		group int
		id    int
	}
	best := make(map[key]int, len(tags))
	out := make([]Scored, 0, len(tags))
	for _, t := range tags {
		k := key{group: -1, id: t.ID}
		if i, ok := g.GroupOf(t.ID); ok {
			k = key{group: i, id: -1}
		}
		pos, seen := best[k]
		if !seen {
			best[k] = len(out)
			out = append(out, t)
			continue
		}
		if t.Score > out[pos].Score {
			out[pos] = t
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
