package tagging

import "github.com/krau/tagpipe/catalog"

// Select walks tags in order and keeps the names that are valid and not
// blacklisted, stopping once limit names are collected. Skipped tags do not
// count toward the limit.
func Select(tags []Scored, cat *catalog.Catalog, blacklist catalog.Blacklist, limit int) []Scored {
	if limit <= 0 {
		return nil
	}
	out := make([]Scored, 0, min(len(tags), limit))
	for _, t := range tags {
		if len(out) >= limit {
			break
		}
		if !cat.Valid(t.ID) {
			continue
		}
		name, ok := cat.Name(t.ID)
		if !ok || blacklist.Contains(name) {
			continue
		}
		out = append(out, t)
	}
	return out
}
