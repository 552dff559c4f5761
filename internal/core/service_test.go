//go:build unit

package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booklore/internal/adapter"
	"booklore/internal/core"
	"booklore/internal/core/browse"
	"booklore/internal/core/model"
	"booklore/pkg/util"
)

func newTestService(enrich core.EnrichmentClient) *core.Service {
	engine := browse.NewEngine(browse.DefaultTables(), zerolog.Nop())
	return core.NewService(
		adapter.NewBookRepo(),
		adapter.NewShelfRepo(),
		adapter.NewSessionRepo(),
		adapter.NewIconRepo(),
		enrich,
		engine,
	)
}

func titleInput(title string) model.CreateBookInput {
	return model.CreateBookInput{Metadata: &model.BookMetadata{Title: util.GetPtr(title)}}
}

func TestCreate_NoEnrich(t *testing.T) {
	svc := newTestService(mockEnrich{hit: false})
	out, err := svc.CreateBook(context.Background(), titleInput("My Book"))
	require.NoError(t, err)
	assert.Equal(t, "My Book", *out.Metadata.Title)
	assert.Equal(t, model.ReadStatusUnset, out.ReadStatus)
	assert.False(t, out.Enrichment.Attempted)
}

func TestCreate_RequiresTitleOrFileName(t *testing.T) {
	svc := newTestService(mockEnrich{hit: false})
	_, err := svc.CreateBook(context.Background(), model.CreateBookInput{})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.CreateBook(context.Background(), model.CreateBookInput{FileName: "dune.epub"})
	assert.NoError(t, err)
}

func TestCreate_EnrichHit_Merges(t *testing.T) {
	svc := newTestService(mockEnrich{hit: true})

	out, err := svc.CreateBook(context.Background(), model.CreateBookInput{ISBN: util.GetPtr("9780134494166"), Enrich: true})
	require.NoError(t, err)
	assert.True(t, out.Enrichment.Attempted)
	assert.Equal(t, model.EnrichmentOK, out.Enrichment.Status)
	assert.Equal(t, "Clean Architecture", *out.Metadata.Title)
	assert.NotZero(t, out.CreatedAt)
}

func TestCreate_EnrichHit_UserMetadataWins(t *testing.T) {
	svc := newTestService(mockEnrich{hit: true})

	in := titleInput("My Title")
	in.ISBN = util.GetPtr("9780134494166")
	in.Enrich = true
	out, err := svc.CreateBook(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "My Title", *out.Metadata.Title)
	// Missing fields still get filled in.
	require.NotNil(t, out.Metadata.PageCount)
	assert.Equal(t, 432, *out.Metadata.PageCount)
}

func TestCreate_EnrichMiss_RequireFalse_AllowsPartial(t *testing.T) {
	svc := newTestService(mockEnrich{hit: false})

	in := titleInput("Fallback Title")
	in.ISBN = util.GetPtr("9780134494166")
	in.Enrich = true
	out, err := svc.CreateBook(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.EnrichmentPartial, out.Enrichment.Status)
	assert.Equal(t, "Fallback Title", *out.Metadata.Title)
}

func TestCreate_EnrichMiss_RequireTrue_Fails(t *testing.T) {
	svc := newTestService(mockEnrich{hit: false})

	_, err := svc.CreateBook(context.Background(), model.CreateBookInput{
		ISBN: util.GetPtr("9780134494166"), Enrich: true, RequireEnrichment: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUpstream)
}

func TestDuplicateISBN_Fails(t *testing.T) {
	svc := newTestService(mockEnrich{hit: false})
	ctx := context.Background()

	in := titleInput("T")
	in.ISBN = util.GetPtr("9780000000000")
	_, err := svc.CreateBook(ctx, in)
	require.NoError(t, err)
	_, err = svc.CreateBook(ctx, in)
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestGetAndDelete(t *testing.T) {
	svc := newTestService(mockEnrich{hit: false})
	ctx := context.Background()

	b, err := svc.CreateBook(ctx, titleInput("X"))
	require.NoError(t, err)
	got, err := svc.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	require.NoError(t, svc.DeleteBook(ctx, b.ID))
	_, err = svc.GetBook(ctx, b.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateReadStatus(t *testing.T) {
	svc := newTestService(mockEnrich{hit: false})
	ctx := context.Background()

	b, err := svc.CreateBook(ctx, titleInput("X"))
	require.NoError(t, err)

	out, err := svc.UpdateReadStatus(ctx, b.ID, model.ReadStatusReading)
	require.NoError(t, err)
	assert.Equal(t, model.ReadStatusReading, out.ReadStatus)

	_, err = svc.UpdateReadStatus(ctx, "missing", model.ReadStatusRead)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListBooks_FilterSortPaginate(t *testing.T) {
	svc := newTestService(mockEnrich{hit: false})
	ctx := context.Background()

	for _, title := range []string{"Item 10", "Item 2", "Item 1", "Other"} {
		in := titleInput(title)
		in.Metadata.Tags = []string{"go"}
		if title == "Other" {
			in.Metadata.Tags = nil
		}
		_, err := svc.CreateBook(ctx, in)
		require.NoError(t, err)
	}

	page, err := svc.ListBooks(ctx, model.ListQuery{
		Criteria: model.FilterCriteria{model.FilterTag: {"go"}},
		Sort:     &model.SortOption{Field: model.SortTitle},
		Page:     1,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Item 1", *page.Data[0].Metadata.Title)
	assert.Equal(t, "Item 2", *page.Data[1].Metadata.Title)

	page2, err := svc.ListBooks(ctx, model.ListQuery{
		Criteria: model.FilterCriteria{model.FilterTag: {"go"}},
		Sort:     &model.SortOption{Field: model.SortTitle},
		Page:     2,
		PageSize: 2,
	})
	require.NoError(t, err)
	require.Len(t, page2.Data, 1)
	assert.Equal(t, "Item 10", *page2.Data[0].Metadata.Title)
}

func TestListBooks_SeriesCountsAnnotated(t *testing.T) {
	svc := newTestService(mockEnrich{hit: false})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		in := titleInput("Vol")
		in.Metadata.SeriesName = util.GetPtr("Dune")
		_, err := svc.CreateBook(ctx, in)
		require.NoError(t, err)
	}
	_, err := svc.CreateBook(ctx, titleInput("Standalone"))
	require.NoError(t, err)

	page, err := svc.ListBooks(ctx, model.ListQuery{})
	require.NoError(t, err)
	for _, b := range page.Data {
		if b.Metadata.SeriesName != nil {
			assert.Equal(t, 2, b.SeriesCount)
		} else {
			assert.Zero(t, b.SeriesCount)
		}
	}
}

func TestShelves_AssignAndDeleteStrips(t *testing.T) {
	svc := newTestService(mockEnrich{hit: false})
	ctx := context.Background()

	_, err := svc.CreateShelf(ctx, model.Shelf{})
	assert.ErrorIs(t, err, core.ErrValidation)

	shelf, err := svc.CreateShelf(ctx, model.Shelf{Name: "Favorites", UserID: "local"})
	require.NoError(t, err)
	require.NotEmpty(t, shelf.ID)

	b, err := svc.CreateBook(ctx, titleInput("X"))
	require.NoError(t, err)

	out, err := svc.AssignShelves(ctx, b.ID, []string{shelf.ID})
	require.NoError(t, err)
	require.Len(t, out.Shelves, 1)

	_, err = svc.AssignShelves(ctx, b.ID, []string{"missing"})
	assert.ErrorIs(t, err, core.ErrValidation)

	require.NoError(t, svc.DeleteShelf(ctx, shelf.ID))
	got, err := svc.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Shelves)
}

func TestSessions_RecordAndAggregate(t *testing.T) {
	svc := newTestService(mockEnrich{hit: false})
	ctx := context.Background()

	b, err := svc.CreateBook(ctx, titleInput("Dune"))
	require.NoError(t, err)

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	_, err = svc.RecordSession(ctx, "local", model.ReadingSession{
		BookID: b.ID, StartTime: start, EndTime: start.Add(20 * time.Minute), DurationSeconds: 1200})
	require.NoError(t, err)

	_, err = svc.RecordSession(ctx, "local", model.ReadingSession{
		BookID: "missing", StartTime: start, EndTime: start.Add(time.Minute)})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.RecordSession(ctx, "local", model.ReadingSession{
		BookID: b.ID, StartTime: start, EndTime: start.Add(-time.Minute)})
	assert.ErrorIs(t, err, core.ErrValidation)

	heatmap, err := svc.SessionHeatmap(ctx, "local", 2025)
	require.NoError(t, err)
	require.Len(t, heatmap, 1)
	assert.Equal(t, "2025-03-10", heatmap[0].Date)

	timeline, err := svc.SessionTimeline(ctx, "local", 2025, 11)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, "Dune", timeline[0].BookTitle)

	// Sessions are scoped per user.
	heatmap, err = svc.SessionHeatmap(ctx, "other", 2025)
	require.NoError(t, err)
	assert.Empty(t, heatmap)
}

func TestReadingVelocity_FiltersByLibrary(t *testing.T) {
	svc := newTestService(mockEnrich{hit: false})
	ctx := context.Background()

	in := titleInput("A")
	in.LibraryID = "lib1"
	b, err := svc.CreateBook(ctx, in)
	require.NoError(t, err)
	_, err = svc.UpdateReadStatus(ctx, b.ID, model.ReadStatusRead)
	require.NoError(t, err)

	out, err := svc.ReadingVelocity(ctx, "lib1")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	out, err = svc.ReadingVelocity(ctx, "lib2")
	require.NoError(t, err)
	assert.Empty(t, out)
}

type fakeIconCache struct {
	store map[string]string
}

func (c *fakeIconCache) Get(_ context.Context, name string) (string, bool) {
	v, ok := c.store[name]
	return v, ok
}
func (c *fakeIconCache) Put(_ context.Context, name, content string) { c.store[name] = content }
func (c *fakeIconCache) PutAll(_ context.Context, icons map[string]string) {
	for k, v := range icons {
		c.store[k] = v
	}
}
func (c *fakeIconCache) Remove(_ context.Context, name string) { delete(c.store, name) }

func TestIcons_CacheReadThrough(t *testing.T) {
	svc := newTestService(mockEnrich{hit: false})
	cache := &fakeIconCache{store: map[string]string{}}
	svc.IconCache = cache
	ctx := context.Background()

	assert.ErrorIs(t, svc.SaveIcon(ctx, "", "x"), core.ErrValidation)

	require.NoError(t, svc.SaveIcon(ctx, "star", "<svg/>"))
	assert.Equal(t, "<svg/>", cache.store["star"])

	// Hit comes from the cache even after the backing store forgets it.
	require.NoError(t, svc.Icons.Delete(ctx, "star"))
	content, err := svc.GetIcon(ctx, "star")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", content)

	cache.Remove(ctx, "star")
	_, err = svc.GetIcon(ctx, "star")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_Create_WithEnrichment_OK(t *testing.T) {
	// Mock Open Library server
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/isbn/9780134494166.json" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"title":           "Clean Architecture",
				"number_of_pages": 400,
				"publish_date":    "2020",
				"covers":          []int{5555},
				"authors":         []map[string]any{{"name": "Robert C. Martin"}},
			})
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	client := adapter.NewOpenLibraryClient(ts.URL, 1, http.DefaultClient)
	svc := newTestService(client)

	out, err := svc.CreateBook(context.Background(), model.CreateBookInput{ISBN: util.GetPtr("9780134494166"), Enrich: true})
	require.NoError(t, err)
	assert.Equal(t, "Clean Architecture", *out.Metadata.Title)
	assert.Equal(t, "ok", string(out.Enrichment.Status))
	require.NotNil(t, out.Metadata.PageCount)
	assert.Equal(t, 400, *out.Metadata.PageCount)
	require.NotNil(t, out.Metadata.PublishedDate)
	assert.Equal(t, 2020, out.Metadata.PublishedDate.Year())
}

func TestService_Create_WithEnrichment_RequireTrue_404Fails(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	client := adapter.NewOpenLibraryClient(ts.URL, 1, http.DefaultClient)
	svc := newTestService(client)

	_, err := svc.CreateBook(context.Background(), model.CreateBookInput{ISBN: util.GetPtr("0000000000"), Enrich: true, RequireEnrichment: true})
	require.Error(t, err)
}

type mockEnrich struct{ hit bool }

func (f mockEnrich) FetchByISBN(ctx context.Context, isbn string) (model.EnrichedBook, error) {
	if !f.hit {
		return model.EnrichedBook{}, errors.New("miss")
	}

	published := time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)
	return model.EnrichedBook{
		Title: util.GetPtr("Clean Architecture"), PublishedDate: &published, PageCount: util.GetPtr(432), Authors: []string{"Robert C. Martin"}}, nil
}
