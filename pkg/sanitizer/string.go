package sanitizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxTitleLength    = 200
	MaxFreeTextLength = 2000
	MaxReasonLength   = 500
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

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

// StripControl drops control characters but keeps newlines and tabs.
func StripControl(s string) string {
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

func Truncate(max int) Strategy {
	return func(s string) string {
		if utf8.RuneCountInString(s) <= max {
			return s
		}
		return strings.TrimSpace(string([]rune(s)[:max]))
	}
}

func NormalizeTitle(title string) string {
	return Pipeline{StripControl, TrimAndNormalize, Truncate(MaxTitleLength)}.Apply(title)
}

// NormalizeFreeText keeps line breaks, used for descriptions, special
// requests and review comments.
func NormalizeFreeText(text string) string {
	return Pipeline{StripControl, strings.TrimSpace, Truncate(MaxFreeTextLength)}.Apply(text)
}

func NormalizeReason(reason string) string {
	return Pipeline{StripControl, TrimAndNormalize, Truncate(MaxReasonLength)}.Apply(reason)
}

func NormalizeCurrency(currency string) string {
	return strings.ToLower(strings.TrimSpace(currency))
}

func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}
