package runner

import (
	"slices"
	"testing"
)

func TestNaturalSort(t *testing.T) {
	in := []string{"page10.png", "Page2.png", "page1.png", "cover.png", "10", "9", "a10b2", "a10b10", "a9"}
	slices.SortFunc(in, compareNatural)
	want := []string{"9", "10", "a9", "a10b2", "a10b10", "cover.png", "page1.png", "Page2.png", "page10.png"}
	if !slices.Equal(in, want) {
		t.Fatalf("got %v\nwant %v", in, want)
	}
}

func TestIsImage(t *testing.T) {
	for name, want := range map[string]bool{
		"a.PNG": true, "b.jpeg": true, "c.webp": true, "d.avif": true, "e.txt": false, "f": false,
	} {
		if got := isImage(name); got != want {
			t.Errorf("isImage(%q) = %v", name, got)
		}
	}
}
