package textproc

import (
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var imgTagRe = regexp.MustCompile(`(?i)<img[^>]*>`)

// MatchType selects how a replacement rule's pattern is interpreted.
type MatchType int

const (
	MatchSimple MatchType = iota
	MatchRegex
)

// ReplacementRule is a user-defined find/replace applied after HTML
// flattening. A rule only fires for transformation kinds listed in
// AppliesTo.
type ReplacementRule struct {
	Pattern     string
	Replacement string
	MatchType   MatchType
	AppliesTo   []Transformation
}

func (r ReplacementRule) appliesTo(t Transformation) bool {
	for _, candidate := range r.AppliesTo {
		if candidate == t {
			return true
		}
	}
	return false
}

// Processor turns raw field values into plain text. It is a pure function
// of (text, transformation, rules); the same processor serves live preview
// and real transformations.
type Processor struct {
	rules  []ReplacementRule
	logger *slog.Logger
}

// NewProcessor creates a processor with the given ordered replacement rules.
func NewProcessor(rules []ReplacementRule, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{rules: rules, logger: logger}
}

// Process normalizes text for the given transformation kind: images are
// stripped, HTML is flattened to one line, then each applicable replacement
// rule runs in order. A malformed rule is logged and skipped, never fatal.
func (p *Processor) Process(text string, transformation Transformation) string {
	result := HTMLToTextLine(text)
	for _, rule := range p.rules {
		if !rule.appliesTo(transformation) {
			continue
		}
		result = p.applyRule(result, rule)
	}
	return result
}

func (p *Processor) applyRule(text string, rule ReplacementRule) string {
	if rule.MatchType == MatchSimple {
		return strings.ReplaceAll(text, rule.Pattern, rule.Replacement)
	}
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		p.logger.Warn("skipping malformed replacement rule",
			"pattern", rule.Pattern, "error", err)
		return text
	}
	return re.ReplaceAllString(text, rule.Replacement)
}

// IsEmpty reports whether text contains no visible characters once HTML is
// flattened. Whitespace, non-breaking-space entities and empty container
// tags all count as empty.
func IsEmpty(text string) bool {
	return len(HTMLToTextLine(text)) == 0
}

// HTMLToTextLine converts an HTML fragment to a single line of plain text.
// Image tags are dropped, block and line-break markup collapses into
// whitespace, and entities are decoded.
func HTMLToTextLine(fragment string) string {
	fragment = imgTagRe.ReplaceAllString(fragment, "")

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			break
		}
		switch tokenType {
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			// any tag acts as a word boundary so "<div>a</div><div>b</div>"
			// becomes "a b" rather than "ab"
			b.WriteByte(' ')
		}
	}
	return collapseWhitespace(b.String())
}

func collapseWhitespace(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ' '
	})
	return strings.Join(fields, " ")
}
