// Package requirements parses free-text requirement documents into
// ordered, tagged requirement statements.
//
// A document is plain text or markdown with one requirement per
// non-blank line. List markers and heading characters are stripped, so
// "- Support SSO login" and "## Support SSO login" both yield the same
// requirement text. Each requirement receives zero or more tags derived
// from a keyword lexicon; an unmatched line simply gets no tags.
package requirements

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmptyDocument indicates the document contained no usable
// requirement lines.
var ErrEmptyDocument = errors.New("requirement document contains no requirements")

// Requirement is a single requirement statement. Immutable once parsed.
type Requirement struct {
	// ID is 1-based and follows document order.
	ID int `json:"id"`

	// Text is the trimmed requirement statement.
	Text string `json:"text"`

	// Tags are derived domain keywords, sorted and deduplicated.
	Tags []string `json:"tags,omitempty"`
}

// HasTag reports whether the requirement carries the given tag.
func (r Requirement) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Lexicon maps a tag to the lowercase substrings that trigger it.
// Matching is case-insensitive substring matching against the
// requirement text.
type Lexicon map[string][]string

// DefaultLexicon covers the domain keywords the architect cares about.
// Callers needing different tagging policy can parse with their own
// lexicon via ParseWithLexicon.
func DefaultLexicon() Lexicon {
	return Lexicon{
		"security":    {"secure", "security", "privacy", "auth"},
		"scale":       {"scal", "availab", "distribut"},
		"integration": {"integrat"},
		"latency":     {"real-time", "realtime", "responsive", "latency"},
		"data":        {"data", "analytic", "pipeline"},
		"ux":          {"usab", "accessib", "ux"},
	}
}

// trimCutset covers list markers and heading characters around a line.
const trimCutset = " \t\r\n-*#"

// Parse splits raw into requirements using the default lexicon.
func Parse(raw string) ([]Requirement, error) {
	return ParseWithLexicon(raw, DefaultLexicon())
}

// ParseWithLexicon splits raw into one requirement per non-blank line,
// in document order, with contiguous 1-based IDs. Blank lines and lines
// that are only markers are skipped. Returns ErrEmptyDocument when
// nothing survives filtering.
func ParseWithLexicon(raw string, lexicon Lexicon) ([]Requirement, error) {
	var reqs []Requirement
	for _, line := range strings.Split(raw, "\n") {
		text := strings.Trim(line, trimCutset)
		if text == "" {
			continue
		}
		reqs = append(reqs, Requirement{
			ID:   len(reqs) + 1,
			Text: text,
			Tags: deriveTags(text, lexicon),
		})
	}
	if len(reqs) == 0 {
		return nil, ErrEmptyDocument
	}
	return reqs, nil
}

// deriveTags returns the sorted set of lexicon tags whose keywords
// appear in text. An empty result is valid.
func deriveTags(text string, lexicon Lexicon) []string {
	lower := strings.ToLower(text)
	var tags []string
	for tag, keywords := range lexicon {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, tag)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// DistinctTags returns the sorted set of tags observed across reqs.
func DistinctTags(reqs []Requirement) []string {
	seen := map[string]bool{}
	for _, r := range reqs {
		for _, t := range r.Tags {
			seen[t] = true
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Keywords extracts the sorted set of distinct lowercase tokens of at
// least four characters across all requirements. The architect uses
// these to choose an architecture pattern.
func Keywords(reqs []Requirement) []string {
	seen := map[string]bool{}
	for _, r := range reqs {
		cleaned := strings.NewReplacer(",", " ", ".", " ", ";", " ", ":", " ").Replace(r.Text)
		for _, token := range strings.Fields(cleaned) {
			normalized := strings.ToLower(token)
			if len(normalized) >= 4 {
				seen[normalized] = true
			}
		}
	}
	keywords := make([]string, 0, len(seen))
	for kw := range seen {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	return keywords
}
