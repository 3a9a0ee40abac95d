package catalog

import (
	"os"
	"slices"
	"strings"
)

// Blacklist holds tag names that never make it into the output.
type Blacklist map[string]struct{}

func NewBlacklist(names ...string) Blacklist {
	b := make(Blacklist, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			b[n] = struct{}{}
		}
	}
	return b
}

func (b Blacklist) Contains(name string) bool {
	_, ok := b[name]
	return ok
}

// Unknown returns the blacklisted names the catalog does not define.
func (b Blacklist) Unknown(c *Catalog) []string {
	var out []string
	for name := range b {
		if _, ok := c.ID(name); !ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// LoadBlacklist reads one tag name per line. A missing path yields an empty list.
func LoadBlacklist(path string) (Blacklist, error) {
	if path == "" {
		return Blacklist{}, nil
	}
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return NewBlacklist(lines...), nil
}

func ReadLines(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(b), "\n")
	var out []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" && !strings.HasPrefix(l, "#") {
			out = append(out, l)
		}
	}
	return out, nil
}
