package anidb

import (
	"regexp"
	"strings"
)

// Rule rewrites every match of Pattern with Replacement, which may use
// regexp.Expand syntax ($1, ${name}).
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// LiteralRule replaces every occurrence of old with replacement verbatim
func LiteralRule(old, replacement string) Rule {
	return Rule{
		Pattern:     regexp.MustCompile(regexp.QuoteMeta(old)),
		Replacement: strings.ReplaceAll(replacement, "$", "$$"),
	}
}

// Rewriter applies its rules in order
type Rewriter []Rule

func (rw Rewriter) Apply(s string) string {
	for _, r := range rw {
		s = r.Pattern.ReplaceAllString(s, r.Replacement)
	}
	return s
}

// DescriptionRules cleans AniDB description markup for display.
// Cross references like "http://anidb.net/ch123 [Name]" keep only "[Name]".
var DescriptionRules = Rewriter{
	{
		Pattern:     regexp.MustCompile(`https?://anidb\.net/(?:ch|cr|a)\d+\s*\[(.*?)\]`),
		Replacement: "[${1}]",
	},
	LiteralRule("Source: Wikipedia", `Source: <a href="https://www.wikipedia.org" target="_blank" rel="noopener noreferrer">Wikipedia</a>`),
	LiteralRule("Source: ANN", `Source: <a href="https://www.animenewsnetwork.com/" target="_blank" rel="noopener noreferrer">ANN</a>`),
}
