// Package license turns free-text and URL license signals into canonical
// license codes. Pure functions; no storage or network access.
package license

import (
	"regexp"
	"strings"
)

// Canonical license codes recognized by the classifier.
const (
	CodeCC0          = "CC0"
	CodeCCBY         = "CC-BY"
	CodeCCBYSA       = "CC-BY-SA"
	CodePublicDomain = "Public Domain"
)

type textPattern struct {
	re   *regexp.Regexp
	code string
}

// Ordered, first match wins. CC-BY-SA text also matches the looser CC-BY
// pattern, so the more specific one is tried first.
var textPatterns = []textPattern{
	{regexp.MustCompile(`(?i)CC0|PUBLIC\s*DOMAIN\s*DEDICATION`), CodeCC0},
	{regexp.MustCompile(`(?i)CC-?BY-?SA`), CodeCCBYSA},
	{regexp.MustCompile(`(?i)CC-?BY`), CodeCCBY},
	{regexp.MustCompile(`(?i)PUBLIC\s*DOMAIN`), CodePublicDomain},
}

var ccURLPattern = regexp.MustCompile(`creativecommons\.org/(?:licenses|publicdomain)/([^/]+)`)

// ParseText returns the canonical code matched in free text, or "" when no
// pattern matches.
func ParseText(text string) string {
	if text == "" {
		return ""
	}
	for _, p := range textPatterns {
		if p.re.MatchString(text) {
			return p.code
		}
	}
	return ""
}

// ParseURL extracts the license slug from a canonical Creative Commons URL
// and maps it to a code, or returns "" for any other URL.
func ParseURL(url string) string {
	matches := ccURLPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return ""
	}
	slug := strings.ToUpper(matches[1])
	if slug == "ZERO" {
		return CodeCC0
	}
	return "CC-" + slug
}

// Signals carries every license hint one feed entry can provide.
type Signals struct {
	Rights      string
	License     string
	LinkURLs    []string
	Description string
}

// Detect resolves a license code from entry signals in a fixed precedence:
// explicit rights/license fields, then a Creative Commons URL among the
// entry links, then the free-text description as a fallback. Returns the
// code and the matched license URL (when URL-derived), or "" when nothing
// resolves.
func Detect(s Signals) (code, licenseURL string) {
	if s.Rights != "" {
		code = ParseText(s.Rights)
	}
	if s.License != "" {
		// The explicit license field always overrides the rights field,
		// even when it parses to nothing; an unrecognized license claim
		// must not silently inherit the rights-derived code.
		code = ParseText(s.License)
	}

	// A canonical URL is more authoritative than a substring match: the
	// first Creative Commons link overrides whatever the text fields said.
	for _, u := range s.LinkURLs {
		if strings.Contains(u, "creativecommons.org") {
			code = ParseURL(u)
			licenseURL = u
			break
		}
	}

	if code == "" {
		code = ParseText(s.Description)
	}
	return code, licenseURL
}
