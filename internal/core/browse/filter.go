// Package browse holds the filter and sort engines for book collections.
// Both are pure: they never mutate their inputs, never perform I/O, and are
// total over their domain. Degenerate input yields a non-match or an
// identity result, never an error.
package browse

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"booklore/internal/core/model"
)

// Engine evaluates filter criteria and sort options against book snapshots.
// It owns no state beyond its injected bucket tables and logger.
type Engine struct {
	tables Tables
	logger zerolog.Logger
}

func NewEngine(tables Tables, logger zerolog.Logger) *Engine {
	return &Engine{tables: tables, logger: logger}
}

// FilterBooks returns the subset of books satisfying the criteria under the
// given combination mode, preserving the original relative order. An empty
// criteria set is an order-preserving identity.
func (e *Engine) FilterBooks(books []model.Book, criteria model.FilterCriteria, mode model.FilterMode) []model.Book {
	if len(criteria) == 0 {
		return books
	}
	out := make([]model.Book, 0, len(books))
	for i := range books {
		if e.matches(&books[i], criteria, mode) {
			out = append(out, books[i])
		}
	}
	return out
}

func (e *Engine) matches(b *model.Book, criteria model.FilterCriteria, mode model.FilterMode) bool {
	all := true
	any := false
	for key, values := range criteria {
		m := e.matchKey(b, key, values, mode)
		all = all && m
		any = any || m
	}
	if mode == model.FilterModeAnd {
		return all
	}
	return any
}

// matchKey evaluates one criterion against one book. Unknown keys never
// match, and missing book fields fail closed instead of erroring.
func (e *Engine) matchKey(b *model.Book, key model.FilterKey, values []string, mode model.FilterMode) bool {
	if len(values) == 0 {
		// An empty selection is vacuously true under OR but blocks under AND.
		return mode == model.FilterModeOr
	}
	md := b.Metadata
	switch key {
	case model.FilterAuthor:
		var have []string
		if md != nil {
			have = md.Authors
		}
		return matchList(have, values, mode)
	case model.FilterCategory:
		var have []string
		if md != nil {
			have = md.Categories
		}
		return matchList(have, values, mode)
	case model.FilterMood:
		var have []string
		if md != nil {
			have = md.Moods
		}
		return matchList(have, values, mode)
	case model.FilterTag:
		var have []string
		if md != nil {
			have = md.Tags
		}
		return matchList(have, values, mode)
	case model.FilterPublisher:
		var have *string
		if md != nil {
			have = md.Publisher
		}
		return matchScalar(have, values, mode)
	case model.FilterSeries:
		var have *string
		if md != nil {
			have = md.SeriesName
		}
		return matchScalar(have, values, mode)
	case model.FilterReadStatus:
		// Mode-independent membership; books without a status carry UNSET.
		status := b.ReadStatus
		if status == "" {
			status = model.ReadStatusUnset
		}
		return containsString(values, string(status))
	case model.FilterAmazonRating:
		var r *float64
		if md != nil {
			r = md.AmazonRating
		}
		return anyInRange(values, r, e.tables.Rating)
	case model.FilterGoodreadsRating:
		var r *float64
		if md != nil {
			r = md.GoodreadsRating
		}
		return anyInRange(values, r, e.tables.Rating)
	case model.FilterHardcoverRating:
		var r *float64
		if md != nil {
			r = md.HardcoverRating
		}
		return anyInRange(values, r, e.tables.Rating)
	case model.FilterPersonalRating:
		var r *float64
		if md != nil {
			r = md.PersonalRating
		}
		for _, id := range values {
			if InRange10(r, id) {
				return true
			}
		}
		return false
	case model.FilterPublishedYear:
		// Year as a string, derived from the published date.
		d := publishedDate(md)
		if d == nil {
			return false
		}
		return containsString(values, strconv.Itoa(d.Year()))
	case model.FilterPublishedDate:
		// A second, independently-wired year test over the same date field.
		// Selections are parsed numerically here; unparsable ones never match.
		d := publishedDate(md)
		if d == nil {
			return false
		}
		for _, v := range values {
			if n, err := strconv.Atoi(v); err == nil && n == d.Year() {
				return true
			}
		}
		return false
	case model.FilterFileSize:
		var v *float64
		if b.FileSizeKB != nil {
			f := float64(*b.FileSizeKB)
			v = &f
		}
		return anyInRange(values, v, e.tables.FileSize)
	case model.FilterShelfStatus:
		shelved := "unshelved"
		if len(b.Shelves) > 0 {
			shelved = "shelved"
		}
		return containsString(values, shelved)
	case model.FilterPageCount:
		var v *float64
		if md != nil && md.PageCount != nil {
			f := float64(*md.PageCount)
			v = &f
		}
		return anyInRange(values, v, e.tables.PageCount)
	case model.FilterLanguage:
		if md == nil || md.Language == nil {
			return false
		}
		return containsString(values, *md.Language)
	case model.FilterMatchScore:
		return anyInRange(values, b.MetadataMatchScore, e.tables.MatchScore)
	case model.FilterBookType:
		return containsString(values, string(b.BookType))
	default:
		return false
	}
}

// matchList tests a book's list field against the selected values: under AND
// the list must contain all of them, under OR at least one.
func matchList(have, want []string, mode model.FilterMode) bool {
	if mode == model.FilterModeAnd {
		for _, v := range want {
			if !containsString(have, v) {
				return false
			}
		}
		return true
	}
	for _, v := range want {
		if containsString(have, v) {
			return true
		}
	}
	return false
}

// matchScalar applies the same ALL/ANY semantics to a single scalar field.
// AND with more than one distinct selection is unsatisfiable; that is the
// documented behavior, not an oversight.
func matchScalar(have *string, want []string, mode model.FilterMode) bool {
	if mode == model.FilterModeAnd {
		for _, v := range want {
			if have == nil || *have != v {
				return false
			}
		}
		return true
	}
	for _, v := range want {
		if have != nil && *have == v {
			return true
		}
	}
	return false
}

// anyInRange is OR across the selected buckets regardless of the global mode.
func anyInRange(ids []string, value *float64, table []model.RangeBucket) bool {
	for _, id := range ids {
		if InRange(value, id, table) {
			return true
		}
	}
	return false
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func publishedDate(md *model.BookMetadata) *time.Time {
	if md == nil {
		return nil
	}
	return md.PublishedDate
}
