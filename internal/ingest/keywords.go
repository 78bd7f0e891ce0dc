package ingest

import (
	"regexp"
	"sort"
	"strings"
)

const (
	maxTextRunes    = 2000
	maxSummaryRunes = 160
	maxCaptionRunes = 500
	keywordCount    = 5
)

var wordRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

// Keywords returns the k most frequent words of at least three characters,
// lowercased. Ties keep first-appearance order.
func Keywords(text string, k int) []string {
	counts := map[string]int{}
	var order []string
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if len(w) < 3 {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > k {
		order = order[:k]
	}
	return order
}

// Summarize prefixes text and truncates it to a card-sized line.
func Summarize(text string) string {
	return "Life Moment: " + truncate(text, maxSummaryRunes, "...")
}

func truncate(s string, n int, suffix string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + suffix
}
