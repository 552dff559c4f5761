//go:build unit

package browse

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booklore/internal/core/model"
	"booklore/pkg/util"
)

func newEngine() *Engine {
	return NewEngine(DefaultTables(), zerolog.Nop())
}

func bookWithMeta(id string, md *model.BookMetadata) model.Book {
	return model.Book{ID: id, Metadata: md}
}

func ids(books []model.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestInRange_HalfOpen(t *testing.T) {
	table := []model.RangeBucket{{ID: "a", Min: 10, Max: 20}, {ID: "b", Min: 20, Max: 30}}

	assert.True(t, InRange(util.GetPtr(10.0), "a", table))
	assert.True(t, InRange(util.GetPtr(19.999), "a", table))
	assert.False(t, InRange(util.GetPtr(20.0), "a", table))
	assert.False(t, InRange(util.GetPtr(9.999), "a", table))
	assert.True(t, InRange(util.GetPtr(20.0), "b", table))

	assert.False(t, InRange(nil, "a", table))
	assert.False(t, InRange(util.GetPtr(15.0), "missing", table))
}

func TestInRange10_ExactIntegerMatch(t *testing.T) {
	assert.True(t, InRange10(util.GetPtr(7.4), "7"))
	assert.False(t, InRange10(util.GetPtr(7.4), "8"))
	assert.True(t, InRange10(util.GetPtr(7.5), "8"))
	assert.True(t, InRange10(util.GetPtr(0.0), "0"))
	assert.False(t, InRange10(nil, "0"))
}

func TestFilter_EmptyCriteriaIsIdentity(t *testing.T) {
	e := newEngine()
	books := []model.Book{{ID: "b1"}, {ID: "b2"}, {ID: "b3"}}

	out := e.FilterBooks(books, model.FilterCriteria{}, model.FilterModeOr)
	assert.Equal(t, []string{"b1", "b2", "b3"}, ids(out))

	out = e.FilterBooks(books, nil, model.FilterModeAnd)
	assert.Equal(t, []string{"b1", "b2", "b3"}, ids(out))
}

func TestFilter_EmptyValueListByMode(t *testing.T) {
	e := newEngine()
	books := []model.Book{{ID: "b1"}, {ID: "b2"}}
	criteria := model.FilterCriteria{model.FilterAuthor: {}}

	// Empty selection is vacuously true under OR.
	out := e.FilterBooks(books, criteria, model.FilterModeOr)
	assert.Len(t, out, 2)

	// Under AND the same empty selection excludes everything.
	out = e.FilterBooks(books, criteria, model.FilterModeAnd)
	assert.Empty(t, out)
}

func TestFilter_AndVsOrListSemantics(t *testing.T) {
	e := newEngine()
	books := []model.Book{
		bookWithMeta("b1", &model.BookMetadata{Authors: []string{"A", "B"}}),
	}
	criteria := model.FilterCriteria{model.FilterAuthor: {"A", "C"}}

	// AND requires containing all selected values.
	out := e.FilterBooks(books, criteria, model.FilterModeAnd)
	assert.Empty(t, out)

	// OR requires at least one.
	out = e.FilterBooks(books, criteria, model.FilterModeOr)
	require.Len(t, out, 1)
	assert.Equal(t, "b1", out[0].ID)
}

func TestFilter_ScalarMultiSelect(t *testing.T) {
	e := newEngine()
	books := []model.Book{
		bookWithMeta("b1", &model.BookMetadata{Publisher: util.GetPtr("Tor")}),
		bookWithMeta("b2", &model.BookMetadata{Publisher: util.GetPtr("Orbit")}),
		bookWithMeta("b3", &model.BookMetadata{}),
	}

	out := e.FilterBooks(books, model.FilterCriteria{model.FilterPublisher: {"Tor", "Orbit"}}, model.FilterModeOr)
	assert.Equal(t, []string{"b1", "b2"}, ids(out))

	// AND over two distinct scalar selections is unsatisfiable.
	out = e.FilterBooks(books, model.FilterCriteria{model.FilterPublisher: {"Tor", "Orbit"}}, model.FilterModeAnd)
	assert.Empty(t, out)

	// AND with a single selection matches the exact scalar.
	out = e.FilterBooks(books, model.FilterCriteria{model.FilterPublisher: {"Tor"}}, model.FilterModeAnd)
	assert.Equal(t, []string{"b1"}, ids(out))
}

func TestFilter_ReadStatusDefaultsToUnset(t *testing.T) {
	e := newEngine()
	books := []model.Book{
		{ID: "b1", ReadStatus: model.ReadStatusRead},
		{ID: "b2"}, // no status
	}

	out := e.FilterBooks(books, model.FilterCriteria{model.FilterReadStatus: {"UNSET"}}, model.FilterModeAnd)
	assert.Equal(t, []string{"b2"}, ids(out))

	// Membership is OR across statuses regardless of global mode.
	out = e.FilterBooks(books, model.FilterCriteria{model.FilterReadStatus: {"READ", "UNSET"}}, model.FilterModeAnd)
	assert.Len(t, out, 2)
}

func TestFilter_RatingRangesAlwaysOr(t *testing.T) {
	e := newEngine()
	books := []model.Book{
		bookWithMeta("b1", &model.BookMetadata{AmazonRating: util.GetPtr(2.5)}),
		bookWithMeta("b2", &model.BookMetadata{AmazonRating: util.GetPtr(4.8)}),
		bookWithMeta("b3", &model.BookMetadata{}),
	}
	criteria := model.FilterCriteria{model.FilterAmazonRating: {"2-3", "4-5"}}

	for _, mode := range []model.FilterMode{model.FilterModeAnd, model.FilterModeOr} {
		out := e.FilterBooks(books, criteria, mode)
		assert.Equal(t, []string{"b1", "b2"}, ids(out), "mode %s", mode)
	}
}

func TestFilter_PersonalRatingBuckets(t *testing.T) {
	e := newEngine()
	books := []model.Book{
		bookWithMeta("b1", &model.BookMetadata{PersonalRating: util.GetPtr(7.4)}),
		bookWithMeta("b2", &model.BookMetadata{PersonalRating: util.GetPtr(8.0)}),
	}

	out := e.FilterBooks(books, model.FilterCriteria{model.FilterPersonalRating: {"7"}}, model.FilterModeOr)
	assert.Equal(t, []string{"b1"}, ids(out))

	out = e.FilterBooks(books, model.FilterCriteria{model.FilterPersonalRating: {"8"}}, model.FilterModeOr)
	assert.Equal(t, []string{"b2"}, ids(out))
}

func TestFilter_PublishedYearAndDate(t *testing.T) {
	e := newEngine()
	d := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	books := []model.Book{
		bookWithMeta("b1", &model.BookMetadata{PublishedDate: &d}),
		bookWithMeta("b2", &model.BookMetadata{}), // no date never matches
	}

	out := e.FilterBooks(books, model.FilterCriteria{model.FilterPublishedYear: {"2019"}}, model.FilterModeOr)
	assert.Equal(t, []string{"b1"}, ids(out))

	out = e.FilterBooks(books, model.FilterCriteria{model.FilterPublishedDate: {"2019"}}, model.FilterModeOr)
	assert.Equal(t, []string{"b1"}, ids(out))

	// Unparsable selections on the numeric path never match.
	out = e.FilterBooks(books, model.FilterCriteria{model.FilterPublishedDate: {"twenty-nineteen"}}, model.FilterModeOr)
	assert.Empty(t, out)
}

func TestFilter_ShelfStatus(t *testing.T) {
	e := newEngine()
	books := []model.Book{
		{ID: "b1", Shelves: []model.Shelf{{ID: "s1", Name: "Favorites"}}},
		{ID: "b2"},
	}

	out := e.FilterBooks(books, model.FilterCriteria{model.FilterShelfStatus: {"shelved"}}, model.FilterModeOr)
	assert.Equal(t, []string{"b1"}, ids(out))

	out = e.FilterBooks(books, model.FilterCriteria{model.FilterShelfStatus: {"unshelved"}}, model.FilterModeOr)
	assert.Equal(t, []string{"b2"}, ids(out))
}

func TestFilter_FileSizeAndPageCount(t *testing.T) {
	e := newEngine()
	books := []model.Book{
		{ID: "b1", FileSizeKB: util.GetPtr(int64(512)), Metadata: &model.BookMetadata{PageCount: util.GetPtr(250)}},
		{ID: "b2", FileSizeKB: util.GetPtr(int64(8192)), Metadata: &model.BookMetadata{PageCount: util.GetPtr(700)}},
	}

	out := e.FilterBooks(books, model.FilterCriteria{model.FilterFileSize: {"under-1mb"}}, model.FilterModeOr)
	assert.Equal(t, []string{"b1"}, ids(out))

	out = e.FilterBooks(books, model.FilterCriteria{model.FilterPageCount: {"over-500"}}, model.FilterModeOr)
	assert.Equal(t, []string{"b2"}, ids(out))
}

func TestFilter_UnknownKeyNeverMatches(t *testing.T) {
	e := newEngine()
	books := []model.Book{{ID: "b1"}}

	out := e.FilterBooks(books, model.FilterCriteria{"nonsense": {"x"}}, model.FilterModeOr)
	assert.Empty(t, out)
}

func TestFilter_CrossKeyCombination(t *testing.T) {
	e := newEngine()
	books := []model.Book{
		bookWithMeta("b1", &model.BookMetadata{Authors: []string{"A"}, Tags: []string{"scifi"}}),
		bookWithMeta("b2", &model.BookMetadata{Authors: []string{"A"}}),
		bookWithMeta("b3", &model.BookMetadata{Tags: []string{"scifi"}}),
	}
	criteria := model.FilterCriteria{
		model.FilterAuthor: {"A"},
		model.FilterTag:    {"scifi"},
	}

	out := e.FilterBooks(books, criteria, model.FilterModeAnd)
	assert.Equal(t, []string{"b1"}, ids(out))

	out = e.FilterBooks(books, criteria, model.FilterModeOr)
	assert.Equal(t, []string{"b1", "b2", "b3"}, ids(out))
}

func TestFilter_StableOrder(t *testing.T) {
	e := newEngine()
	books := []model.Book{
		{ID: "b3", BookType: model.BookTypeEPUB},
		{ID: "b1", BookType: model.BookTypeEPUB},
		{ID: "b2", BookType: model.BookTypePDF},
		{ID: "b4", BookType: model.BookTypeEPUB},
	}

	out := e.FilterBooks(books, model.FilterCriteria{model.FilterBookType: {"EPUB"}}, model.FilterModeOr)
	assert.Equal(t, []string{"b3", "b1", "b4"}, ids(out))
}

func TestFilter_NilMetadataFailsClosed(t *testing.T) {
	e := newEngine()
	books := []model.Book{{ID: "b1"}} // no metadata at all

	keys := []model.FilterKey{
		model.FilterAuthor, model.FilterCategory, model.FilterMood,
		model.FilterTag, model.FilterPublisher, model.FilterSeries,
		model.FilterAmazonRating, model.FilterGoodreadsRating,
		model.FilterHardcoverRating, model.FilterPersonalRating,
		model.FilterPublishedYear, model.FilterPublishedDate,
		model.FilterFileSize, model.FilterPageCount, model.FilterLanguage,
		model.FilterMatchScore,
	}
	for _, k := range keys {
		out := e.FilterBooks(books, model.FilterCriteria{k: {"anything"}}, model.FilterModeOr)
		assert.Empty(t, out, "key %s", k)
	}
}
