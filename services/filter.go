package services

import (
	"fmt"
	"regexp"
	"strings"

	"apartment-tracker/models"
)

// Matcher decides whether a new listing is worth an alert.
type Matcher interface {
	Matches(l models.Listing) bool
	String() string
}

// SubstringMatcher matches listings whose address contains Criterion.
// The comparison is case-sensitive and the address is used as extracted.
type SubstringMatcher struct {
	Criterion string
}

func (m SubstringMatcher) Matches(l models.Listing) bool {
	return strings.Contains(l.Address, m.Criterion)
}

func (m SubstringMatcher) String() string {
	return fmt.Sprintf("address contains %q", m.Criterion)
}

// RegexMatcher matches listings whose address matches a regular expression.
type RegexMatcher struct {
	re *regexp.Regexp
}

func NewRegexMatcher(pattern string) (*RegexMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("filter: compile %q: %w", pattern, err)
	}
	return &RegexMatcher{re: re}, nil
}

func (m *RegexMatcher) Matches(l models.Listing) bool {
	return m.re.MatchString(l.Address)
}

func (m *RegexMatcher) String() string {
	return fmt.Sprintf("address matches /%s/", m.re.String())
}

// NewMatcher builds the matcher selected by configuration.
func NewMatcher(mode, pattern string) (Matcher, error) {
	switch mode {
	case "", "substring":
		return SubstringMatcher{Criterion: pattern}, nil
	case "regex":
		return NewRegexMatcher(pattern)
	default:
		return nil, fmt.Errorf("filter: unknown mode %q", mode)
	}
}

// Matches reports whether criterion is a substring of the listing address.
func Matches(l models.Listing, criterion string) bool {
	return SubstringMatcher{Criterion: criterion}.Matches(l)
}

// Filter returns the listings accepted by m, in order.
func Filter(listings models.Snapshot, m Matcher) models.Snapshot {
	out := models.Snapshot{}
	for _, l := range listings {
		if m.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}
