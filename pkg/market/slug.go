package market

import (
	"regexp"
	"strings"
)

// slugOverrides pins url_names for item names whose derived slug never
// matches the API. The receiver/reciever candidates cover the known cases,
// so this stays empty until an item needs manual pinning.
var slugOverrides = map[string]string{}

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the canonical url_name form of an item name: trimmed,
// lowercased, "&" spelled out as "and", every run of other characters
// outside [a-z0-9] collapsed to a single underscore.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "&", "and")
	s = nonSlugRun.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// SlugCandidates returns the ordered url_name candidates for an item name,
// canonical slug first. Variants correct the recurring receiver -> reciever
// misspelling in the API's community-maintained item names; trying the
// correct spelling first costs one extra request only for affected items.
func SlugCandidates(name string) []string {
	base := slugOverrides[name]
	if base == "" {
		base = Slugify(name)
	}

	cands := []string{base}
	if strings.HasSuffix(base, "_receiver") {
		cands = append(cands, strings.TrimSuffix(base, "_receiver")+"_reciever")
	}
	if strings.Contains(base, "_receiver_") {
		cands = append(cands, strings.ReplaceAll(base, "_receiver_", "_reciever_"))
	}

	seen := make(map[string]struct{}, len(cands))
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
