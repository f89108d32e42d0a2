// Package format turns authored scene text into presentation text.
//
// Interpolation runs first, then a fixed sequence of markup rewrites.
// The rewrites are plain regular expressions applied one after another,
// so overlapping markup such as "**_x_**" resolves by rule order rather
// than by nesting.
package format

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var tokenRegex = regexp.MustCompile(`\$\{(.*?)\}`)

// Markup never spans a line, and "." and "$" only know about "\n".
var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// markupRule is a single rewrite in the markup pipeline.
type markupRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Order matters: bold must run before italic or "**x**" would become "<i></i>x<i></i>".
var markupRules = []markupRule{
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "<b>${1}</b>"},
	{regexp.MustCompile(`\*(.*?)\*`), "<i>${1}</i>"},
	{regexp.MustCompile(`__(.*?)__`), "<u>${1}</u>"},
	{regexp.MustCompile(`(?m)^> (.*)$`), "<blockquote>${1}</blockquote>"},
	{regexp.MustCompile(`---`), "<hr>"},
}

// Render interpolates variables into text and then applies markup.
func Render(text string, vars map[string]float64) string {
	return Parse(Interpolate(text, vars))
}

// Interpolate replaces every ${name} token with the value of vars[name].
// Tokens naming a variable that does not exist are left untouched, so a
// typo in a variable name shows up verbatim in the output.
func Interpolate(text string, vars map[string]float64) string {
	if text == "" {
		return ""
	}

	return tokenRegex.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := vars[name]; ok {
			return FormatNumber(v)
		}
		return match
	})
}

// UnresolvedTokens returns the names of ${name} tokens in text that have no
// matching variable, in order of appearance and without duplicates.
func UnresolvedTokens(text string, vars map[string]float64) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range tokenRegex.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if _, ok := vars[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Parse converts the lightweight markup in text into HTML.
func Parse(text string) string {
	if text == "" {
		return ""
	}

	result := lineEndings.Replace(text)
	for _, rule := range markupRules {
		result = rule.pattern.ReplaceAllString(result, rule.replacement)
	}
	return strings.ReplaceAll(result, "\n", "<br>")
}

// FormatNumber renders v the way story text has always shown numbers:
// integers without a decimal point, shortest round-trip digits otherwise,
// and exponent notation only for very large or very small magnitudes.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}

	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		// Go pads the exponent to two digits ("1e-07"); drop the padding.
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
