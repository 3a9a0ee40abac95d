package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadCSVWithHeader(t *testing.T) {
	in := "tag_id,name,category,count\n9999,general,9,100\n1,solo,0,50\n2,1girl,0,40\n3,hatsune_miku,4,10\n"
	c, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV returned error: %v", err)
	}
	if c.Len() != 4 {
		t.Fatalf("unexpected length: got %d want 4", c.Len())
	}
	if e := c.At(3); e.ID != 3 || e.Name != "hatsune_miku" || e.Category != 4 {
		t.Fatalf("unexpected entry at row 3: %+v", e)
	}
	name, ok := c.Name(2)
	if !ok || name != "1girl" {
		t.Fatalf("Name(2) = %q, %v", name, ok)
	}
	if id, ok := c.ID("solo"); !ok || id != 1 {
		t.Fatalf("ID(solo) = %d, %v", id, ok)
	}
	if !c.Valid(9999) {
		t.Fatal("expected every entry valid by default")
	}
}

func TestReadCSVWithoutHeader(t *testing.T) {
	c, err := ReadCSV(strings.NewReader("1,a\n2,b\n3,c\n"))
	if err != nil {
		t.Fatalf("ReadCSV returned error: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("unexpected length: %d", c.Len())
	}
	if name, _ := c.Name(3); name != "c" {
		t.Fatalf("unexpected name for 3: %q", name)
	}
}

func TestReadCSVRejectsDuplicates(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("1,a\n1,b\n2,a\n"))
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID in %v", err)
	}
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName in %v", err)
	}
}

func TestReadCSVBadID(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("tag_id,name\nx,a\n")); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestWithCategories(t *testing.T) {
	c, err := New([]Entry{
		{ID: 1, Name: "general", Category: 9},
		{ID: 2, Name: "solo", Category: 0},
		{ID: 3, Name: "miku", Category: 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	r := c.WithCategories([]int{0, 4})
	if r.Valid(1) {
		t.Error("rating tag should not be valid")
	}
	if !r.Valid(2) || !r.Valid(3) {
		t.Error("general and character tags should be valid")
	}
	if r.ValidCount() != 2 {
		t.Errorf("unexpected valid count %d", r.ValidCount())
	}
	if !c.Valid(1) {
		t.Error("original catalog must not change")
	}
	if name, ok := r.Name(1); !ok || name != "general" {
		t.Error("restricted catalog should still resolve names")
	}
}

func TestLoadBlacklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	if err := os.WriteFile(path, []byte("bad_tag\n\n  # comment\n  other \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := LoadBlacklist(path)
	if err != nil {
		t.Fatalf("LoadBlacklist returned error: %v", err)
	}
	if len(b) != 2 || !b.Contains("bad_tag") || !b.Contains("other") {
		t.Fatalf("unexpected blacklist: %v", b)
	}

	empty, err := LoadBlacklist("")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty blacklist for empty path, got %v %v", empty, err)
	}
}

func TestBlacklistUnknown(t *testing.T) {
	c, _ := New([]Entry{{ID: 1, Name: "a"}})
	b := NewBlacklist("a", "zz", "yy")
	got := b.Unknown(c)
	if len(got) != 2 || got[0] != "yy" || got[1] != "zz" {
		t.Fatalf("unexpected unknown names: %v", got)
	}
}
