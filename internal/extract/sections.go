// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// knownHeadings are section titles that papers use with near-total
// consistency, matched case-insensitively when a line holds nothing else.
var knownHeadings = map[string]bool{
	"abstract":         true,
	"introduction":     true,
	"background":       true,
	"related work":     true,
	"methods":          true,
	"methodology":      true,
	"experiments":      true,
	"results":          true,
	"evaluation":       true,
	"discussion":       true,
	"conclusion":       true,
	"conclusions":      true,
	"references":       true,
	"acknowledgments":  true,
	"acknowledgements": true,
	"appendix":         true,
}

// Sectionize splits extracted text into heading/body sections. A line is a
// heading when it is a Markdown heading, a numbered heading like
// "3. Results", or a bare well-known section title. Text before the first
// heading goes into an unnamed leading section.
func Sectionize(text string) []types.Section {
	var sections []types.Section
	var heading string
	var body strings.Builder

	flush := func() {
		b := strings.TrimSpace(body.String())
		if heading == "" && b == "" {
			return
		}
		sections = append(sections, types.Section{Heading: heading, Body: b})
		body.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		if h, ok := headingText(line); ok {
			flush()
			heading = h
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return sections
}

// headingText reports whether the line is a section heading and returns
// the cleaned heading text.
func headingText(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) > 80 {
		return "", false
	}

	// Markdown heading.
	if strings.HasPrefix(trimmed, "#") {
		return strings.TrimSpace(strings.TrimLeft(trimmed, "#")), true
	}

	// Numbered heading ("3. Results", "4.2 Ablations").
	rest, numbered := trimHeadingNumber(trimmed)
	if numbered && rest != "" && isTitleWord(rest) {
		return rest, true
	}

	// Bare well-known title.
	if knownHeadings[strings.ToLower(trimmed)] {
		return trimmed, true
	}
	return "", false
}

// trimHeadingNumber strips a leading section number like "3.", "4.2", or
// "A.1" and reports whether one was present.
func trimHeadingNumber(s string) (string, bool) {
	i := 0
	digits := 0
	for i < len(s) {
		c := s[i]
		if c >= '0' && c <= '9' {
			digits++
			i++
			continue
		}
		if c == '.' && digits > 0 {
			i++
			continue
		}
		break
	}
	if digits == 0 || i >= len(s) || s[i] != ' ' {
		return "", false
	}
	return strings.TrimSpace(s[i:]), true
}

// isTitleWord reports whether the heading candidate starts with an
// uppercase letter, filtering out numbered body text.
func isTitleWord(s string) bool {
	return s[0] >= 'A' && s[0] <= 'Z'
}
