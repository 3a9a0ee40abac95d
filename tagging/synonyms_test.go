package tagging

import (
	"errors"
	"slices"
	"testing"

	"github.com/krau/tagpipe/catalog"
)

func testCatalog(t *testing.T, names ...string) *catalog.Catalog {
	t.Helper()
	entries := make([]catalog.Entry, len(names))
	for i, n := range names {
		entries[i] = catalog.Entry{ID: i + 1, Name: n}
	}
	c, err := catalog.New(entries)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func TestReduceKeepsBestOfGroup(t *testing.T) {
	cat := testCatalog(t, "a", "b", "c")
	g, _, err := NewGroups([][]int{{1, 2}}, cat)
	if err != nil {
		t.Fatal(err)
	}
	got := g.Reduce([]Scored{{1, 0.9}, {2, 0.8}, {3, 0.95}})
	want := []Scored{{3, 0.95}, {1, 0.9}}
	if !slices.Equal(got, want) {
		t.Fatalf("Reduce = %v, want %v", got, want)
	}
}

func TestReduceTieKeepsFirstSeen(t *testing.T) {
	cat := testCatalog(t, "a", "b", "c")
	g, _, _ := NewGroups([][]int{{1, 2, 3}}, cat)

	got := g.Reduce([]Scored{{2, 0.7}, {1, 0.7}, {3, 0.7}})
	if !slices.Equal(got, []Scored{{2, 0.7}}) {
		t.Fatalf("expected first-seen member 2, got %v", got)
	}
	got = g.Reduce([]Scored{{3, 0.7}, {2, 0.7}})
	if !slices.Equal(got, []Scored{{3, 0.7}}) {
		t.Fatalf("expected first-seen member 3, got %v", got)
	}
}

func TestReduceEdgeCases(t *testing.T) {
	cat := testCatalog(t, "a", "b", "c")
	g, _, _ := NewGroups([][]int{{1, 2}}, cat)

	if got := g.Reduce(nil); len(got) != 0 {
		t.Fatalf("empty input should give empty output, got %v", got)
	}
	if got := g.Reduce([]Scored{{2, 0.6}}); !slices.Equal(got, []Scored{{2, 0.6}}) {
		t.Fatalf("lone group member should survive, got %v", got)
	}
	got := g.Reduce([]Scored{{3, 0.4}, {3, 0.9}})
	if !slices.Equal(got, []Scored{{3, 0.9}}) {
		t.Fatalf("duplicate ids should collapse to best, got %v", got)
	}
	var nilGroups *Groups
	if got := nilGroups.Reduce([]Scored{{1, 0.2}, {2, 0.3}}); !slices.Equal(got, []Scored{{2, 0.3}, {1, 0.2}}) {
		t.Fatalf("nil groups should pass through sorted, got %v", got)
	}
}

func TestNewGroupsUnknownIDs(t *testing.T) {
	cat := testCatalog(t, "a", "b")
	g, unknown, err := NewGroups([][]int{{1, 99}, {98}}, cat)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(unknown, []int{99, 98}) {
		t.Fatalf("unexpected unknown ids %v", unknown)
	}
	if g.Len() != 1 {
		t.Fatalf("expected one group after dropping unknown ids, got %d", g.Len())
	}
	if _, ok := g.GroupOf(99); ok {
		t.Fatal("unknown id must not be grouped")
	}
	if got := g.Members(0); !slices.Equal(got, []int{1}) {
		t.Fatalf("unexpected members %v", got)
	}
}

func TestNewGroupsOverlap(t *testing.T) {
	cat := testCatalog(t, "a", "b", "c")
	_, _, err := NewGroups([][]int{{1, 2}, {2, 3}}, cat)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
