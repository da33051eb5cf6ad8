// Package cronx adapts the pack's real cron dependency, robfig/cron/v3, to
// the spec's 7-field Quartz-style expression (sec min hour dom month dow
// year?). robfig/cron supports 5/6 fields with cron.WithSeconds() and has
// no `?` token and no year field, so this package normalizes `?` to `*`
// before handing the first six fields to robfig, and validates an optional
// trailing year field itself at each tick.
package cronx

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
)

var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Schedule wraps a parsed 7-field expression.
type Schedule struct {
	inner cron.Schedule
	year  string // "*" or a literal year; empty means no constraint
}

// Parse validates and compiles a 7-field cron expression.
func Parse(expr string) (*Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 6 && len(fields) != 7 {
		return nil, fmt.Errorf("cronx: expression %q: expected 6 or 7 fields, got %d: %w", expr, len(fields), ingesterr.ErrConfig)
	}

	year := "*"
	if len(fields) == 7 {
		year = fields[6]
		if year != "*" && year != "?" {
			if _, err := strconv.Atoi(year); err != nil {
				return nil, fmt.Errorf("cronx: expression %q: invalid year field %q: %w", expr, year, ingesterr.ErrConfig)
			}
		}
	}

	sixField := strings.Join(normalizeQuestionMarks(fields[:6]), " ")
	inner, err := parser.Parse(sixField)
	if err != nil {
		return nil, fmt.Errorf("cronx: expression %q: %w: %v", expr, ingesterr.ErrConfig, err)
	}

	return &Schedule{inner: inner, year: year}, nil
}

// normalizeQuestionMarks replaces the Quartz `?` (day-of-month/day-of-week
// mutual-exclusion marker) with `*`, which robfig/cron treats identically
// for scheduling purposes.
func normalizeQuestionMarks(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		if f == "?" {
			out[i] = "*"
		} else {
			out[i] = f
		}
	}
	return out
}

// Next returns the next activation time strictly after t that also
// satisfies the optional year constraint.
func (s *Schedule) Next(t time.Time) time.Time {
	next := s.inner.Next(t)
	if s.year == "*" || s.year == "?" || s.year == "" {
		return next
	}
	wantYear, _ := strconv.Atoi(s.year)
	for next.Year() != wantYear {
		if next.Year() > wantYear {
			return time.Time{} // expression can never fire again
		}
		next = s.inner.Next(next)
	}
	return next
}
