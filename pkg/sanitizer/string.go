package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reHexColor = regexp.MustCompile(`^#?([0-9a-f]{3}|[0-9a-f]{6})$`)

// TrimAndNormalize trims s and collapses every run of whitespace into a
// single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func SanitizeTitle(title string) string {
	return Pipeline{stripControl, TrimAndNormalize}.Apply(title)
}

func SanitizeRoomName(name string) string {
	return Pipeline{stripControl, TrimAndNormalize}.Apply(name)
}

// SanitizeText keeps line breaks and only trims the outer whitespace.
func SanitizeText(text string) string {
	return Pipeline{stripControl, strings.TrimSpace}.Apply(text)
}

func SanitizeID(id string) string {
	return strings.TrimSpace(id)
}

// SanitizeColor lowercases hex colors and adds a missing '#'. Other values
// are display tags and are only trimmed.
func SanitizeColor(color string) string {
	c := strings.ToLower(strings.TrimSpace(color))
	if reHexColor.MatchString(c) && !strings.HasPrefix(c, "#") {
		return "#" + c
	}
	if reHexColor.MatchString(c) {
		return c
	}
	return strings.TrimSpace(color)
}
