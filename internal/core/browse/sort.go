package browse

import (
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"

	"booklore/internal/core/model"
)

type valueKind int

const (
	kindNull valueKind = iota
	kindString
	kindNumber
	kindPair
	kindBool
)

// sortKey is the comparable extracted from a book for one sort field. Pair
// keys carry a name plus a numeric tiebreak for series-aware title ordering.
type sortKey struct {
	kind    valueKind
	str     string
	num     float64
	pairStr string
	pairNum float64
}

// seriesNumberSentinel sorts books without a series number after every book
// that has one.
const seriesNumberSentinel = math.MaxFloat64

var nullKey = sortKey{kind: kindNull}

func strKey(s string) sortKey  { return sortKey{kind: kindString, str: s} }
func numKey(n float64) sortKey { return sortKey{kind: kindNumber, num: n} }

func boolKey(v bool) sortKey {
	k := sortKey{kind: kindBool}
	if v {
		k.num = 1
	}
	return k
}

func timeKey(t *time.Time) sortKey {
	if t == nil {
		return nullKey
	}
	return numKey(float64(t.UnixMilli()))
}

// floatKey treats zero like a missing value, so unrated and zero-rated books
// sort together at the end.
func floatKey(p *float64) sortKey {
	if p == nil || *p == 0 {
		return nullKey
	}
	return numKey(*p)
}

func intKey(p *int) sortKey {
	if p == nil || *p == 0 {
		return nullKey
	}
	return numKey(float64(*p))
}

// SortBooks returns a new ordering of books by the given option without
// mutating the input. A nil option is the identity; an unknown field logs a
// diagnostic and returns the input unchanged.
func (e *Engine) SortBooks(books []model.Book, opt *model.SortOption) []model.Book {
	if opt == nil {
		return books
	}
	if !knownSortField(opt.Field) {
		e.logger.Warn().Str("field", string(opt.Field)).Msg("no sort extractor for field")
		return books
	}

	type decorated struct {
		book model.Book
		key  sortKey
	}
	dec := make([]decorated, len(books))
	for i := range books {
		dec[i] = decorated{book: books[i], key: extract(opt.Field, &books[i])}
	}

	col := collators.Get().(*collate.Collator)
	defer collators.Put(col)

	sort.SliceStable(dec, func(i, j int) bool {
		return compareKeys(col, dec[i].key, dec[j].key, opt.Direction) < 0
	})

	out := make([]model.Book, len(dec))
	for i := range dec {
		out[i] = dec[i].book
	}
	return out
}

// compareKeys orders two extracted keys. Null values are pinned to the end
// before the direction flip is applied, so DESCENDING never surfaces them.
// Boolean keys compare equal and keep the incoming relative order.
func compareKeys(col *collate.Collator, a, b sortKey, dir model.SortDirection) int {
	switch {
	case a.kind == kindPair && b.kind == kindPair:
		if c := naturalWith(col, a.pairStr, b.pairStr); c != 0 {
			return flip(c, dir)
		}
		// The series-number tiebreak holds reading order within a series
		// for either direction.
		return floatSign(a.pairNum - b.pairNum)
	case a.kind == kindString && b.kind == kindString:
		return flip(naturalWith(col, a.str, b.str), dir)
	case a.kind == kindNumber && b.kind == kindNumber:
		return flip(floatSign(a.num-b.num), dir)
	default:
		if a.kind == kindNull && b.kind != kindNull {
			return 1
		}
		if a.kind != kindNull && b.kind == kindNull {
			return -1
		}
		return 0
	}
}

func flip(c int, dir model.SortDirection) int {
	if dir == model.Descending {
		return -c
	}
	return c
}

func floatSign(d float64) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

func knownSortField(f model.SortField) bool {
	switch f {
	case model.SortTitle, model.SortTitleSeries, model.SortAuthor,
		model.SortPublishedDate, model.SortPublisher, model.SortPageCount,
		model.SortRating, model.SortPersonalRating, model.SortReviewCount,
		model.SortAmazonRating, model.SortAmazonReviewCount,
		model.SortGoodreadsRating, model.SortGoodreadsReviewCount,
		model.SortHardcoverRating, model.SortHardcoverReviewCount,
		model.SortLocked, model.SortLastReadTime, model.SortAddedOn,
		model.SortFileSizeKB, model.SortFileName:
		return true
	default:
		return false
	}
}

// extract maps a sort field to the book's comparable for that field.
func extract(field model.SortField, b *model.Book) sortKey {
	md := b.Metadata
	switch field {
	case model.SortTitle:
		// Books in a series sort by series name; a missing series name falls
		// back to the title.
		if b.SeriesCount > 0 && md != nil && md.SeriesName != nil && *md.SeriesName != "" {
			return strKey(strings.ToLower(*md.SeriesName))
		}
		if md != nil && md.Title != nil && *md.Title != "" {
			return strKey(strings.ToLower(*md.Title))
		}
		return nullKey
	case model.SortTitleSeries:
		title := ""
		if md != nil && md.Title != nil {
			title = strings.ToLower(*md.Title)
		}
		if md != nil && md.SeriesName != nil && *md.SeriesName != "" {
			num := seriesNumberSentinel
			if md.SeriesNumber != nil {
				num = *md.SeriesNumber
			}
			return sortKey{kind: kindPair, pairStr: strings.ToLower(*md.SeriesName), pairNum: num}
		}
		return sortKey{kind: kindPair, pairStr: title, pairNum: seriesNumberSentinel}
	case model.SortAuthor:
		if md == nil || len(md.Authors) == 0 {
			return nullKey
		}
		lowered := make([]string, len(md.Authors))
		for i, a := range md.Authors {
			lowered[i] = strings.ToLower(a)
		}
		return strKey(strings.Join(lowered, ", "))
	case model.SortPublishedDate:
		if md == nil {
			return nullKey
		}
		return timeKey(md.PublishedDate)
	case model.SortPublisher:
		if md == nil || md.Publisher == nil || *md.Publisher == "" {
			return nullKey
		}
		return strKey(*md.Publisher)
	case model.SortPageCount:
		if md == nil {
			return nullKey
		}
		return intKey(md.PageCount)
	case model.SortRating:
		if md == nil {
			return nullKey
		}
		return floatKey(md.Rating)
	case model.SortPersonalRating:
		if md == nil {
			return nullKey
		}
		return floatKey(md.PersonalRating)
	case model.SortReviewCount:
		if md == nil {
			return nullKey
		}
		return intKey(md.ReviewCount)
	case model.SortAmazonRating:
		if md == nil {
			return nullKey
		}
		return floatKey(md.AmazonRating)
	case model.SortAmazonReviewCount:
		if md == nil {
			return nullKey
		}
		return intKey(md.AmazonReviewCount)
	case model.SortGoodreadsRating:
		if md == nil {
			return nullKey
		}
		return floatKey(md.GoodreadsRating)
	case model.SortGoodreadsReviewCount:
		if md == nil {
			return nullKey
		}
		return intKey(md.GoodreadsReviewCount)
	case model.SortHardcoverRating:
		if md == nil {
			return nullKey
		}
		return floatKey(md.HardcoverRating)
	case model.SortHardcoverReviewCount:
		if md == nil {
			return nullKey
		}
		return intKey(md.HardcoverReviewCount)
	case model.SortLocked:
		// Vacuously true when no lock flags exist. Boolean keys never
		// reorder, they only pin against nulls.
		if md == nil {
			return boolKey(true)
		}
		for _, locked := range md.Locks {
			if !locked {
				return boolKey(false)
			}
		}
		return boolKey(true)
	case model.SortLastReadTime:
		return timeKey(b.LastReadTime)
	case model.SortAddedOn:
		return timeKey(b.AddedOn)
	case model.SortFileSizeKB:
		if b.FileSizeKB == nil || *b.FileSizeKB == 0 {
			return nullKey
		}
		return numKey(float64(*b.FileSizeKB))
	case model.SortFileName:
		return strKey(b.FileName)
	default:
		return nullKey
	}
}
