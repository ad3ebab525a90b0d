package describe

import (
	"strings"

	"golang.org/x/text/cases"
)

// Tags builds the upload tag list: fixed base tags, patch tags, up to ten
// items each paired with a hero variant, then extra. Entries are trimmed,
// empties dropped, and case-insensitive duplicates removed keeping the first
// spelling. The result never exceeds MaxTags.
func Tags(hero, patch string, items, extra []string) []string {
	candidates := []string{
		"dota 2",
		"dota2",
		hero,
		hero + " gameplay",
		"dota 2 gameplay",
		"dota 2 ranked",
		"dota 2 highlights",
		"dota 2 build",
		"dota 2 items",
		"dota patch",
		"opendota",
	}
	if patch != "" {
		candidates = append(candidates, "dota 2 patch "+patch, "patch "+patch)
	}
	for _, item := range limit(items, maxItemTags) {
		candidates = append(candidates, item, hero+" "+item)
	}
	candidates = append(candidates, extra...)
	return dedupeFold(candidates, MaxTags)
}

func dedupeFold(values []string, capacity int) []string {
	folder := cases.Fold()
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, min(len(values), capacity))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		key := folder.String(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
		if len(out) == capacity {
			break
		}
	}
	return out
}
