// Package intel tails EVE chat logs and turns system names mentioned in
// intel channels into map notifications.
package intel

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
)

// lineRe matches "[ 2024.01.31 18:04:05 ] Speaker Name > message".
var lineRe = regexp.MustCompile(`^\[ (\d{4}\.\d{2}\.\d{2} \d{2}:\d{2}:\d{2}) \] (.+?) > (.*)$`)

const timeLayout = "2006.01.02 15:04:05"

// Line is one parsed chat message. Timestamps in the logs are UTC.
type Line struct {
	At      time.Time
	Speaker string
	Text    string
}

// ParseLine parses a chat log line. Lines without the timestamp header,
// such as the log preamble, are rejected.
func ParseLine(s string) (Line, bool) {
	m := lineRe.FindStringSubmatch(strings.TrimRight(s, "\r\n"))
	if m == nil {
		return Line{}, false
	}
	at, err := time.ParseInLocation(timeLayout, m[1], time.UTC)
	if err != nil {
		return Line{}, false
	}
	return Line{At: at, Speaker: m[2], Text: m[3]}, true
}

// Matcher finds system names in free text.
type Matcher struct {
	ac    *ahocorasick.Matcher
	names []string
	ids   []int64
}

// NewMatcher builds a matcher over name -> system id. Matching is
// case-insensitive.
func NewMatcher(systems map[string]int64) *Matcher {
	m := &Matcher{}
	for name, id := range systems {
		if name == "" {
			continue
		}
		m.names = append(m.names, strings.ToLower(name))
		m.ids = append(m.ids, id)
	}
	m.ac = ahocorasick.NewStringMatcher(m.names)
	return m
}

// Len is the number of names in the dictionary.
func (m *Matcher) Len() int { return len(m.names) }

// Find returns the ids of every system named in text, in ascending order.
// A name only counts when it is not part of a longer word, so "Jita" does
// not match "Jitaa".
func (m *Matcher) Find(text string) []int64 {
	if len(m.names) == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	hits := m.ac.Match([]byte(lower))
	if len(hits) == 0 {
		return nil
	}
	seen := make(map[int64]bool, len(hits))
	var out []int64
	for _, i := range hits {
		if seen[m.ids[i]] || !containsWord(lower, m.names[i]) {
			continue
		}
		seen[m.ids[i]] = true
		out = append(out, m.ids[i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func containsWord(text, word string) bool {
	for start := 0; start <= len(text)-len(word); {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(word)
		if isBoundary(text, i, true) && isBoundary(text, end, false) {
			return true
		}
		start = i + 1
	}
	return false
}

// isBoundary reports whether the rune just before pos (before) or at pos
// (!before) ends a word. Hyphens are word characters since many system
// names contain one.
func isBoundary(text string, pos int, before bool) bool {
	var r rune
	if before {
		if pos == 0 {
			return true
		}
		r, _ = utf8.DecodeLastRuneInString(text[:pos])
	} else {
		if pos >= len(text) {
			return true
		}
		r, _ = utf8.DecodeRuneInString(text[pos:])
	}
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-')
}
