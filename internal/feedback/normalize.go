package feedback

import (
	"regexp"
	"strings"
)

// Transform is one text rewrite applied before JSON decoding.
type Transform func(string) string

// Pipeline applies transforms in order.
type Pipeline []Transform

// Apply runs every transform over s.
func (p Pipeline) Apply(s string) string {
	for _, t := range p {
		s = t(s)
	}
	return s
}

var (
	leadingFence  = regexp.MustCompile("^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
	leadingBrace  = regexp.MustCompile(`^\s*\{`)
	trailingBrace = regexp.MustCompile(`\}\s*$`)
)

// TrimSpace removes surrounding whitespace.
func TrimSpace(s string) string { return strings.TrimSpace(s) }

// StripLeadingFence drops an opening ``` or ```json marker.
func StripLeadingFence(s string) string { return leadingFence.ReplaceAllString(s, "") }

// StripTrailingFence drops a closing ``` marker.
func StripTrailingFence(s string) string { return trailingFence.ReplaceAllString(s, "") }

// TightenBraces removes whitespace outside the outermost braces.
func TightenBraces(s string) string {
	s = leadingBrace.ReplaceAllString(s, "{")
	return trailingBrace.ReplaceAllString(s, "}")
}

// UnescapeQuotes turns \" into ".
func UnescapeQuotes(s string) string { return strings.ReplaceAll(s, `\"`, `"`) }

// FlattenNewlines replaces CR and LF with spaces.
func FlattenNewlines(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// DefaultPipeline returns the normalization applied to string model output.
func DefaultPipeline() Pipeline {
	return Pipeline{
		TrimSpace,
		StripLeadingFence,
		StripTrailingFence,
		TightenBraces,
		UnescapeQuotes,
		FlattenNewlines,
	}
}
