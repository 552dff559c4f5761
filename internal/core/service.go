package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"booklore/internal/core/browse"
	"booklore/internal/core/model"
	"booklore/internal/core/stats"
	"booklore/internal/telemetry"
)

type BookRepository interface {
	Create(ctx context.Context, b model.Book) (model.Book, error)
	Update(ctx context.Context, b model.Book) (model.Book, error)
	GetByID(ctx context.Context, id string) (model.Book, error)
	GetByISBN(ctx context.Context, isbn string) (model.Book, error)
	ListAll(ctx context.Context) ([]model.Book, error)
	Delete(ctx context.Context, id string) error
}

type ShelfRepository interface {
	Create(ctx context.Context, s model.Shelf) (model.Shelf, error)
	GetByID(ctx context.Context, id string) (model.Shelf, error)
	List(ctx context.Context, userID string) ([]model.Shelf, error)
	Delete(ctx context.Context, id string) error
}

type SessionRepository interface {
	Record(ctx context.Context, s model.ReadingSession) (model.ReadingSession, error)
	ListByUser(ctx context.Context, userID string) ([]model.ReadingSession, error)
}

type IconRepository interface {
	Save(ctx context.Context, name, content string) error
	Get(ctx context.Context, name string) (string, error)
	All(ctx context.Context) (map[string]string, error)
	Delete(ctx context.Context, name string) error
}

// IconCache fronts the icon repository; a cache miss is never an error.
type IconCache interface {
	Get(ctx context.Context, name string) (string, bool)
	Put(ctx context.Context, name, content string)
	PutAll(ctx context.Context, icons map[string]string)
	Remove(ctx context.Context, name string)
}

type EnrichmentClient interface {
	FetchByISBN(ctx context.Context, isbn string) (model.EnrichedBook, error)
}

var (
	ErrValidation = errors.New("validation")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not_found")
	ErrUpstream   = errors.New("upstream")
)

type Service struct {
	Books    BookRepository
	Shelves  ShelfRepository
	Sessions SessionRepository
	Icons    IconRepository
	Enrich   EnrichmentClient
	Engine   *browse.Engine

	IconCache IconCache // optional
}

func NewService(books BookRepository, shelves ShelfRepository, sessions SessionRepository, icons IconRepository, enrich EnrichmentClient, engine *browse.Engine) *Service {
	return &Service{
		Books:    books,
		Shelves:  shelves,
		Sessions: sessions,
		Icons:    icons,
		Enrich:   enrich,
		Engine:   engine,
	}
}

func (s *Service) CreateBook(ctx context.Context, in model.CreateBookInput) (model.Book, error) {
	// basic validation
	if !in.Enrich || in.ISBN == nil {
		if in.FileName == "" && (in.Metadata == nil || in.Metadata.Title == nil || *in.Metadata.Title == "") {
			return model.Book{}, ErrValidation
		}
	}
	if in.Metadata != nil && in.Metadata.PageCount != nil && *in.Metadata.PageCount < 1 {
		return model.Book{}, ErrValidation
	}

	now := time.Now()
	md := in.Metadata
	if md == nil {
		md = &model.BookMetadata{}
	}
	b := model.Book{
		ID:         uuid.NewString(),
		LibraryID:  in.LibraryID,
		ISBN:       in.ISBN,
		FileName:   in.FileName,
		FileSizeKB: in.FileSizeKB,
		BookType:   in.BookType,
		ReadStatus: model.ReadStatusUnset,
		AddedOn:    &now,
		Metadata:   md,
		Enrichment: model.EnrichmentMeta{Attempted: false, Status: model.EnrichmentNotRequested},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// optional enrichment
	if in.Enrich && in.ISBN != nil && *in.ISBN != "" {
		b.Enrichment.Attempted = true
		b.Enrichment.Source = "openlibrary"
		b.Enrichment.LookedUpISBN = *in.ISBN
		res, err := s.Enrich.FetchByISBN(ctx, *in.ISBN)
		if err != nil {
			telemetry.EnrichmentLookups.WithLabelValues("error").Inc()
			if in.RequireEnrichment {
				return model.Book{}, ErrUpstream
			}
			b.Enrichment.Status = model.EnrichmentPartial
		} else {
			telemetry.EnrichmentLookups.WithLabelValues("ok").Inc()
			mergeEnriched(b.Metadata, res) // fill only missing fields; user wins
			b.Enrichment.Status = model.EnrichmentOK
		}
	}

	// duplicate ISBN protection via repo before create
	if b.ISBN != nil && *b.ISBN != "" {
		if _, err := s.Books.GetByISBN(ctx, *b.ISBN); err == nil {
			return model.Book{}, ErrConflict
		}
	}

	return s.Books.Create(ctx, b)
}

// ListBooks snapshots the collection, annotates series counts, then runs the
// filter and sort engines before paginating.
func (s *Service) ListBooks(ctx context.Context, q model.ListQuery) (model.Page[model.Book], error) {
	books, err := s.Books.ListAll(ctx)
	if err != nil {
		return model.Page[model.Book]{}, err
	}
	annotateSeriesCounts(books)
	telemetry.BooksFiltered.Add(float64(len(books)))

	mode := q.Mode
	if mode == "" {
		mode = model.FilterModeOr
	}
	books = s.Engine.FilterBooks(books, q.Criteria, mode)
	books = s.Engine.SortBooks(books, q.Sort)

	// pagination
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = 20
	}
	total := len(books)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	paged := make([]model.Book, end-start)
	copy(paged, books[start:end])

	return model.Page[model.Book]{Data: paged, Page: page, PageSize: size, Total: total}, nil
}

func (s *Service) GetBook(ctx context.Context, id string) (model.Book, error) {
	b, err := s.Books.GetByID(ctx, id)
	if err != nil {
		return model.Book{}, ErrNotFound
	}
	return b, nil
}

func (s *Service) DeleteBook(ctx context.Context, id string) error {
	if err := s.Books.Delete(ctx, id); err != nil {
		return ErrNotFound
	}
	return nil
}

func (s *Service) UpdateReadStatus(ctx context.Context, id string, status model.ReadStatus) (model.Book, error) {
	b, err := s.Books.GetByID(ctx, id)
	if err != nil {
		return model.Book{}, ErrNotFound
	}
	b.ReadStatus = status
	b.UpdatedAt = time.Now()
	return s.Books.Update(ctx, b)
}

// --- shelves ---

func (s *Service) CreateShelf(ctx context.Context, shelf model.Shelf) (model.Shelf, error) {
	if shelf.Name == "" {
		return model.Shelf{}, ErrValidation
	}
	if shelf.ID == "" {
		shelf.ID = uuid.NewString()
	}
	return s.Shelves.Create(ctx, shelf)
}

func (s *Service) ListShelves(ctx context.Context, userID string) ([]model.Shelf, error) {
	return s.Shelves.List(ctx, userID)
}

// DeleteShelf removes the shelf and strips it from every book carrying it.
func (s *Service) DeleteShelf(ctx context.Context, id string) error {
	if err := s.Shelves.Delete(ctx, id); err != nil {
		return ErrNotFound
	}
	books, err := s.Books.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, b := range books {
		kept := b.Shelves[:0:0]
		for _, sh := range b.Shelves {
			if sh.ID != id {
				kept = append(kept, sh)
			}
		}
		if len(kept) != len(b.Shelves) {
			b.Shelves = kept
			if _, err := s.Books.Update(ctx, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// AssignShelves replaces a book's shelf assignments.
func (s *Service) AssignShelves(ctx context.Context, bookID string, shelfIDs []string) (model.Book, error) {
	b, err := s.Books.GetByID(ctx, bookID)
	if err != nil {
		return model.Book{}, ErrNotFound
	}
	shelves := make([]model.Shelf, 0, len(shelfIDs))
	for _, id := range shelfIDs {
		sh, err := s.Shelves.GetByID(ctx, id)
		if err != nil {
			return model.Book{}, ErrValidation
		}
		shelves = append(shelves, sh)
	}
	b.Shelves = shelves
	b.UpdatedAt = time.Now()
	return s.Books.Update(ctx, b)
}

// --- reading sessions ---

func (s *Service) RecordSession(ctx context.Context, userID string, session model.ReadingSession) (model.ReadingSession, error) {
	if session.BookID == "" || session.EndTime.Before(session.StartTime) {
		return model.ReadingSession{}, ErrValidation
	}
	if _, err := s.Books.GetByID(ctx, session.BookID); err != nil {
		return model.ReadingSession{}, ErrNotFound
	}
	session.ID = uuid.NewString()
	session.UserID = userID
	return s.Sessions.Record(ctx, session)
}

func (s *Service) SessionHeatmap(ctx context.Context, userID string, year int) ([]stats.HeatmapEntry, error) {
	sessions, err := s.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return stats.SessionHeatmap(sessions, year), nil
}

func (s *Service) SessionTimeline(ctx context.Context, userID string, year, week int) ([]stats.TimelineEntry, error) {
	sessions, err := s.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	books, err := s.Books.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(books))
	for _, b := range books {
		if b.Metadata != nil && b.Metadata.Title != nil {
			titles[b.ID] = *b.Metadata.Title
		}
	}
	return stats.SessionTimeline(sessions, year, week, func(id string) string { return titles[id] }), nil
}

// --- stats ---

func (s *Service) ReadingVelocity(ctx context.Context, libraryID string) ([]stats.VelocityStat, error) {
	books, err := s.Books.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if libraryID != "" {
		kept := books[:0:0]
		for _, b := range books {
			if b.LibraryID == libraryID {
				kept = append(kept, b)
			}
		}
		books = kept
	}
	return stats.ReadingVelocity(books), nil
}

// --- icons ---

func (s *Service) SaveIcon(ctx context.Context, name, content string) error {
	if name == "" || content == "" {
		return ErrValidation
	}
	if err := s.Icons.Save(ctx, name, content); err != nil {
		return err
	}
	if s.IconCache != nil {
		s.IconCache.Put(ctx, name, content)
	}
	return nil
}

func (s *Service) GetIcon(ctx context.Context, name string) (string, error) {
	if s.IconCache != nil {
		if content, ok := s.IconCache.Get(ctx, name); ok {
			return content, nil
		}
	}
	content, err := s.Icons.Get(ctx, name)
	if err != nil {
		return "", ErrNotFound
	}
	if s.IconCache != nil {
		s.IconCache.Put(ctx, name, content)
	}
	return content, nil
}

func (s *Service) AllIcons(ctx context.Context) (map[string]string, error) {
	icons, err := s.Icons.All(ctx)
	if err != nil {
		return nil, err
	}
	if s.IconCache != nil {
		s.IconCache.PutAll(ctx, icons)
	}
	return icons, nil
}

func (s *Service) DeleteIcon(ctx context.Context, name string) error {
	if err := s.Icons.Delete(ctx, name); err != nil {
		return ErrNotFound
	}
	if s.IconCache != nil {
		s.IconCache.Remove(ctx, name)
	}
	return nil
}

// annotateSeriesCounts sets each book's SeriesCount to the number of books in
// the snapshot sharing its series name.
func annotateSeriesCounts(books []model.Book) {
	counts := make(map[string]int)
	for i := range books {
		if name := seriesName(&books[i]); name != "" {
			counts[name]++
		}
	}
	for i := range books {
		books[i].SeriesCount = counts[seriesName(&books[i])]
	}
}

func seriesName(b *model.Book) string {
	if b.Metadata == nil || b.Metadata.SeriesName == nil {
		return ""
	}
	return *b.Metadata.SeriesName
}

// mergeEnriched fills only missing metadata fields from the lookup result.
func mergeEnriched(md *model.BookMetadata, e model.EnrichedBook) {
	if md.Title == nil && e.Title != nil {
		md.Title = e.Title
	}
	if md.Subtitle == nil && e.Subtitle != nil {
		md.Subtitle = e.Subtitle
	}
	if md.PublishedDate == nil && e.PublishedDate != nil {
		md.PublishedDate = e.PublishedDate
	}
	if md.PageCount == nil && e.PageCount != nil {
		md.PageCount = e.PageCount
	}
	if len(md.Authors) == 0 && len(e.Authors) > 0 {
		md.Authors = append([]string(nil), e.Authors...)
	}
}
