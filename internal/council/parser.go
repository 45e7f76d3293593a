package council

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Ranking extraction is best-effort by design: the input is free text
// produced by a third-party model. Malformed input degrades to a
// partial (or empty) ranking; it never fails the evaluation.

var (
	// rankingMarkerRegex locates the terminal heading that separates
	// commentary from the ranking list.
	rankingMarkerRegex = regexp.MustCompile(`(?i)final\s+ranking\s*:?`)

	// labelMentionRegex matches "Response A" … "Response AB" mentions.
	labelMentionRegex = regexp.MustCompile(`(?i)\bresponse\s+([A-Za-z]{1,2})\b`)

	// ordinalPrefixRegex matches a leading ordinal on a ranking line:
	// "1.", "2)", "3 -", or a bare ordinal word.
	ordinalPrefixRegex = regexp.MustCompile(`(?i)^\s*(?:(\d{1,3})|(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth))\s*[.):\-]?\s+`)
)

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

// ParseRanking extracts an ordered sequence of labels from an
// evaluator's free-text response. Everything before the first
// "FINAL RANKING:" marker is discarded commentary; without a marker
// the full text is scanned for label mentions in order of first
// appearance. Labels outside the known set are dropped and duplicate
// mentions keep their first position. The result may be shorter than
// the label set; worst case it is empty.
func ParseRanking(raw string, known LabelMap) []Label {
	if loc := rankingMarkerRegex.FindStringIndex(raw); loc != nil {
		return parseRankingSection(raw[loc[1]:], known)
	}
	return labelsInOrder(raw, known)
}

type rankedLine struct {
	label   Label
	ordinal int
	seq     int
	hasOrd  bool
}

// parseRankingSection orders the section's label mentions: lines with
// an explicit ordinal sort by that ordinal, lines without one keep
// their order of appearance after the ordinal entries.
func parseRankingSection(section string, known LabelMap) []Label {
	var entries []rankedLine
	seq := 0

	for _, line := range strings.Split(section, "\n") {
		mentions := labelMentionsOnLine(line, known)
		if len(mentions) == 0 {
			continue
		}

		if m := ordinalPrefixRegex.FindStringSubmatch(line); m != nil {
			ord := 0
			if m[1] != "" {
				ord, _ = strconv.Atoi(m[1])
			} else {
				ord = ordinalWords[strings.ToLower(m[2])]
			}
			// An ordinal line ranks exactly one item; extra mentions on
			// the same line are commentary.
			entries = append(entries, rankedLine{label: mentions[0], ordinal: ord, seq: seq, hasOrd: true})
			seq++
			continue
		}

		for _, label := range mentions {
			entries = append(entries, rankedLine{label: label, seq: seq})
			seq++
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].hasOrd != entries[j].hasOrd {
			return entries[i].hasOrd
		}
		if entries[i].hasOrd {
			return entries[i].ordinal < entries[j].ordinal
		}
		return entries[i].seq < entries[j].seq
	})

	return dedupeLabels(entries)
}

// labelsInOrder scans text for known label mentions in order of first
// appearance. Used as the marker-less fallback.
func labelsInOrder(text string, known LabelMap) []Label {
	var out []Label
	seen := make(map[Label]bool)
	for _, m := range labelMentionRegex.FindAllStringSubmatch(text, -1) {
		label := canonicalLabel(m[1])
		if !known.Known(label) || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}

func labelMentionsOnLine(line string, known LabelMap) []Label {
	var out []Label
	for _, m := range labelMentionRegex.FindAllStringSubmatch(line, -1) {
		label := canonicalLabel(m[1])
		if known.Known(label) {
			out = append(out, label)
		}
	}
	return out
}

func canonicalLabel(suffix string) Label {
	return Label("Response " + strings.ToUpper(suffix))
}

func dedupeLabels(entries []rankedLine) []Label {
	var out []Label
	seen := make(map[Label]bool, len(entries))
	for _, e := range entries {
		if seen[e.label] {
			continue
		}
		seen[e.label] = true
		out = append(out, e.label)
	}
	return out
}
