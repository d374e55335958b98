package locator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"OpinionScanner/internal/ports"
)

// Kind names an extraction target with its own rule chain.
type Kind string

const (
	ArticleContainer  Kind = "article-container"
	ArticleLink       Kind = "article-link"
	Title             Kind = "title"
	TitleFallback     Kind = "title-fallback"
	ContentParagraphs Kind = "content-paragraphs"
	CoverImage        Kind = "cover-image"
	ConsentOverlay    Kind = "consent-overlay"
	ConsentAccept     Kind = "consent-accept"
)

// ErrNotFound is matched by every error returned when a whole chain misses.
var ErrNotFound = errors.New("element not found")

// Rule is one selector strategy. Attr picks the value source; empty means element text.
type Rule struct {
	Name     string
	Selector string
	Attr     string
	Timeout  time.Duration
	// Required rejects empty values.
	Required bool
	// Contains rejects values without this substring.
	Contains string
	// MinLength rejects values whose rune count is not strictly greater.
	MinLength int
	// Visible rejects elements that are not displayed.
	Visible bool
}

func (r Rule) label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Selector
}

func (r Rule) value(el ports.Element) (string, error) {
	if r.Attr == "" {
		text, err := el.Text()
		if err != nil {
			return "", err
		}
		return Normalize(text), nil
	}
	v, err := el.Attribute(r.Attr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func (r Rule) accepts(value string) bool {
	if r.Required && value == "" {
		return false
	}
	if r.Contains != "" && !strings.Contains(value, r.Contains) {
		return false
	}
	if r.MinLength > 0 && utf8.RuneCountInString(value) <= r.MinLength {
		return false
	}
	return true
}

// Normalize collapses whitespace runs the way XPath normalize-space does.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Match is an accepted element together with the rule that produced it.
type Match struct {
	Rule    Rule
	Element ports.Element
	Value   string
}

// RuleMiss records why a single rule did not yield anything.
type RuleMiss struct {
	Rule string
	Err  error
}

// MissError is returned when every rule in a chain failed.
type MissError struct {
	Kind   Kind
	Misses []RuleMiss
}

func (e *MissError) Error() string {
	if len(e.Misses) == 0 {
		return fmt.Sprintf("%s: no rules configured", e.Kind)
	}
	parts := make([]string, 0, len(e.Misses))
	for _, m := range e.Misses {
		parts = append(parts, fmt.Sprintf("%s: %v", m.Rule, m.Err))
	}
	return fmt.Sprintf("%s: no rule matched (%s)", e.Kind, strings.Join(parts, "; "))
}

func (e *MissError) Unwrap() error {
	return ErrNotFound
}

// Chain is an ordered list of rules tried strictly in sequence.
type Chain struct {
	Kind     Kind
	Rules    []Rule
	Interval time.Duration
}

// First returns the first accepted element of the first rule that yields one.
func (c Chain) First(ctx context.Context, scope ports.Finder) (Match, error) {
	matches, err := c.run(ctx, scope, 1)
	if err != nil {
		return Match{}, err
	}
	return matches[0], nil
}

// All returns every accepted element of the first rule that yields at least one.
func (c Chain) All(ctx context.Context, scope ports.Finder) ([]Match, error) {
	return c.run(ctx, scope, 0)
}

func (c Chain) run(ctx context.Context, scope ports.Finder, limit int) ([]Match, error) {
	miss := &MissError{Kind: c.Kind}
	for _, rule := range c.Rules {
		matches, err := c.collect(ctx, scope, rule, limit)
		if err == nil {
			return matches, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", c.Kind, ctxErr)
		}
		miss.Misses = append(miss.Misses, RuleMiss{Rule: rule.label(), Err: err})
	}
	return nil, miss
}

func (c Chain) collect(ctx context.Context, scope ports.Finder, rule Rule, limit int) ([]Match, error) {
	var matches []Match
	err := Poll(ctx, rule.Timeout, c.Interval, func(ctx context.Context) (bool, error) {
		matches = matches[:0]
		elements, err := scope.FindElements(ctx, rule.Selector)
		if err != nil {
			return false, err
		}
		for _, el := range elements {
			value, err := rule.value(el)
			if err != nil || !rule.accepts(value) {
				continue
			}
			if rule.Visible {
				if shown, err := el.Displayed(); err != nil || !shown {
					continue
				}
			}
			matches = append(matches, Match{Rule: rule, Element: el, Value: value})
			if limit > 0 && len(matches) == limit {
				break
			}
		}
		return len(matches) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}
