// internal/engine/predicate.go
package engine

import (
	"strings"
	"time"
)

// Kind classifies the shape of one stored predicate string.
type Kind int

const (
	KindWildcard Kind = iota
	KindExact
	KindCommaOr
	KindExclusion
)

const (
	exceptPrefix   = "except "
	declinedPrefix = "declined "
)

// wildcardTokens are stored values the importer uses to mean "applies to
// everything" for string dimensions. JSON nulls surface as the literal strings
// "null"/"none" after extraction, so they are treated the same way.
var wildcardTokens = map[string]bool{
	"":         true,
	"all":      true,
	"all make": true,
	"n/a":      true,
	"null":     true,
	"none":     true,
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// InferKind derives the predicate kind from the stored string's shape:
// exclusion prefix first, then comma list, then exact; blank is wildcard.
func InferKind(raw string) Kind {
	n := norm(raw)
	if wildcardTokens[n] {
		return KindWildcard
	}
	if strings.HasPrefix(n, exceptPrefix) || strings.HasPrefix(n, declinedPrefix) {
		return KindExclusion
	}
	if strings.Contains(n, ",") {
		return KindCommaOr
	}
	return KindExact
}

// splitTokens splits a comma list into trimmed, non-empty tokens.
func splitTokens(raw string) []string {
	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// exclusionTokens strips the leading Except/Declined token and returns the
// remaining comma list. Tokens mixed after the prefix are all treated as
// excluded values; the prefix governs the whole field.
func exclusionTokens(raw string) []string {
	s := strings.TrimSpace(raw)
	n := strings.ToLower(s)
	switch {
	case strings.HasPrefix(n, exceptPrefix):
		s = s[len(exceptPrefix):]
	case strings.HasPrefix(n, declinedPrefix):
		s = s[len(declinedPrefix):]
	}
	return splitTokens(s)
}

// EvalString evaluates one string-dimension predicate against one query value.
// An empty query value means the dimension was not collected and always
// matches. Deterministic and side-effect free.
func EvalString(raw, queryValue string) bool {
	qv := norm(queryValue)
	if qv == "" {
		return true
	}
	switch InferKind(raw) {
	case KindWildcard:
		return true
	case KindExclusion:
		for _, t := range exclusionTokens(raw) {
			if norm(t) == qv {
				return false
			}
		}
		return true
	case KindCommaOr:
		for _, t := range splitTokens(raw) {
			if norm(t) == qv {
				return true
			}
		}
		return false
	default:
		return norm(raw) == qv
	}
}

// EvalBusinessType applies the Business_Type special rule: a blank row value
// is not a universal wildcard, it matches only Old/Renewal/Rollover queries.
// Explicit values match normally after the query side folds Renewal/Rollover
// into Old.
func EvalBusinessType(raw, queryValue string) bool {
	qv := norm(queryValue)
	if qv == "" {
		return true
	}
	if qv == "renewal" || qv == "rollover" {
		qv = "old"
	}
	switch norm(raw) {
	case "", "null", "none":
		return qv == "old"
	}
	return EvalString(raw, qv)
}

// EvalPointInRange reports whether value lies inside [min, max]; nil bounds
// are open.
func EvalPointInRange(min, max *int, value int) bool {
	if min != nil && value < *min {
		return false
	}
	if max != nil && value > *max {
		return false
	}
	return true
}

// EvalOverlap reports whether the query interval [a, b] overlaps the row
// interval [min, max]. A row without a lower GVW bound never overlaps a slab
// query; only the upper bound is open.
func EvalOverlap(min, max *float64, a, b float64) bool {
	if min == nil {
		return false
	}
	if *min > b {
		return false
	}
	if max != nil && *max < a {
		return false
	}
	return true
}

// dateLayouts are the stored formats the importer emits; a date-only prefix is
// tried after a timestamped value.
var dateLayouts = []string{"2006-01-02T15:04:05", "2006-01-02", "02-01-2006"}

func parseRowDate(raw string) (time.Time, bool, error) {
	n := norm(raw)
	if n == "" || n == "null" || n == "none" {
		return time.Time{}, false, nil
	}
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, errMalformed(DimDate, raw)
}

// calendarDay collapses a time to its calendar day as read in its own
// location, so an evaluation date in a zone ahead of UTC keeps its wall-clock
// day.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EvalDateWindow checks whether the evaluation date falls inside the row's
// validity window. Unparsable stored dates fail closed: the row is excluded,
// never raised as a request error.
func EvalDateWindow(from, till string, at time.Time) (bool, error) {
	day := calendarDay(at)
	if f, ok, err := parseRowDate(from); err != nil {
		return false, err
	} else if ok && day.Before(calendarDay(f)) {
		return false, nil
	}
	if t, ok, err := parseRowDate(till); err != nil {
		return false, err
	} else if ok && day.After(calendarDay(t)) {
		return false, nil
	}
	return true, nil
}
