package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	MaxTitleRunes       = 100
	MaxDescriptionBytes = 5000
	// MaxTagBudget is the combined tag length YouTube accepts. Tags with
	// spaces count their surrounding quotes and every tag after the first
	// counts a separating comma.
	MaxTagBudget = 500
)

var angleReplacer = strings.NewReplacer("<", "‹", ">", "›")

// Title normalizes s for use as a video title: NFC form, no angle brackets,
// single-spaced, and at most MaxTitleRunes characters.
func Title(s string) string {
	s = strings.Join(strings.Fields(clean(s)), " ")
	return TruncateRunes(s, MaxTitleRunes)
}

// Description normalizes s for use as a video description, keeping line
// breaks and capping it at MaxDescriptionBytes.
func Description(s string) string {
	return strings.TrimSpace(TruncateBytes(clean(s), MaxDescriptionBytes))
}

// Tags cleans tags and keeps them in order until the first one that does not
// fit MaxTagBudget; that tag and every later one are dropped. Empty tags and
// tags containing commas are skipped.
func Tags(tags []string) []string {
	out := make([]string, 0, len(tags))
	used := 0
	for _, tag := range tags {
		tag = strings.Join(strings.Fields(clean(tag)), " ")
		if tag == "" || strings.Contains(tag, ",") {
			continue
		}
		cost := tagCost(tag)
		if len(out) > 0 {
			cost++
		}
		if used+cost > MaxTagBudget {
			break
		}
		used += cost
		out = append(out, tag)
	}
	return out
}

func tagCost(tag string) int {
	n := utf8.RuneCountInString(tag)
	if strings.Contains(tag, " ") {
		n += 2
	}
	return n
}

func clean(s string) string {
	return angleReplacer.Replace(norm.NFC.String(s))
}

// TruncateRunes cuts s to at most n characters.
func TruncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// TruncateBytes cuts s to at most n bytes without splitting a rune.
func TruncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
