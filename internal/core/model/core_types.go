package model

import (
	"time"
)

// All core models live here together for simplicity.

type EnrichmentStatus string

const (
	EnrichmentNotRequested EnrichmentStatus = "not_requested"
	EnrichmentOK           EnrichmentStatus = "ok"
	EnrichmentPartial      EnrichmentStatus = "partial"
)

type EnrichmentMeta struct {
	Attempted    bool
	Source       string // e.g., "openlibrary"
	Status       EnrichmentStatus
	LookedUpISBN string
}

// ReadStatus tracks where a book sits in the user's reading lifecycle.
// Books that have never been touched carry ReadStatusUnset.
type ReadStatus string

const (
	ReadStatusUnset     ReadStatus = "UNSET"
	ReadStatusUnread    ReadStatus = "UNREAD"
	ReadStatusReading   ReadStatus = "READING"
	ReadStatusPaused    ReadStatus = "PAUSED"
	ReadStatusRead      ReadStatus = "READ"
	ReadStatusReReading ReadStatus = "RE_READING"
	ReadStatusAbandoned ReadStatus = "ABANDONED"
)

type BookType string

const (
	BookTypeEPUB BookType = "EPUB"
	BookTypePDF  BookType = "PDF"
	BookTypeCBX  BookType = "CBX"
)

// FormatProgress is per-format reading progress reported by a reader client.
type FormatProgress struct {
	Percentage float64
}

// BookMetadata is the nested metadata record attached to a book. Every field
// is optional; absent values never match filters and sort last.
//
// Locks maps metadata field names suffixed with "Locked" (e.g. "titleLocked")
// to whether the field is protected from automated metadata refresh.
type BookMetadata struct {
	Title                *string
	Subtitle             *string
	Authors              []string
	Categories           []string
	Moods                []string
	Tags                 []string
	Publisher            *string
	SeriesName           *string
	SeriesNumber         *float64
	SeriesTotal          *int
	PublishedDate        *time.Time
	Language             *string
	PageCount            *int
	Rating               *float64
	ReviewCount          *int
	AmazonRating         *float64
	AmazonReviewCount    *int
	GoodreadsRating      *float64
	GoodreadsReviewCount *int
	HardcoverRating      *float64
	HardcoverReviewCount *int
	PersonalRating       *float64
	Locks                map[string]bool
}

// Shelf is a user-defined grouping of books. Sort orders shelves in listings.
type Shelf struct {
	ID     string
	Name   string
	Icon   string
	Sort   int
	UserID string
}

type Book struct {
	ID                 string
	LibraryID          string
	ISBN               *string
	FileName           string
	FileSizeKB         *int64
	BookType           BookType
	ReadStatus         ReadStatus
	AddedOn            *time.Time
	LastReadTime       *time.Time
	MetadataMatchScore *float64
	// SeriesCount is the number of books sharing this book's series in the
	// current view; maintained by the caller, consumed by title sorting.
	SeriesCount      int
	Shelves          []Shelf
	EpubProgress     *FormatProgress
	PdfProgress      *FormatProgress
	CbxProgress      *FormatProgress
	KoreaderProgress *FormatProgress
	KoboProgress     *FormatProgress
	Metadata         *BookMetadata
	Enrichment       EnrichmentMeta
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ReadingSession is one recorded stretch of reading a single book.
type ReadingSession struct {
	ID              string
	UserID          string
	BookID          string
	BookType        BookType
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int64
	StartProgress   *float64
	EndProgress     *float64
	ProgressDelta   *float64
	StartLocation   *string
	EndLocation     *string
}

// FilterMode controls both cross-key and within-key combination of filters.
type FilterMode string

const (
	FilterModeAnd FilterMode = "and"
	FilterModeOr  FilterMode = "or"
)

// FilterKey enumerates the supported filter criteria. Dispatch over keys is an
// exhaustive switch; anything outside this set never matches.
type FilterKey string

const (
	FilterAuthor          FilterKey = "author"
	FilterCategory        FilterKey = "category"
	FilterMood            FilterKey = "mood"
	FilterTag             FilterKey = "tag"
	FilterPublisher       FilterKey = "publisher"
	FilterSeries          FilterKey = "series"
	FilterReadStatus      FilterKey = "readStatus"
	FilterAmazonRating    FilterKey = "amazonRating"
	FilterGoodreadsRating FilterKey = "goodreadsRating"
	FilterHardcoverRating FilterKey = "hardcoverRating"
	FilterPersonalRating  FilterKey = "personalRating"
	FilterPublishedYear   FilterKey = "publishedYear"
	FilterPublishedDate   FilterKey = "publishedDate"
	FilterFileSize        FilterKey = "fileSize"
	FilterShelfStatus     FilterKey = "shelfStatus"
	FilterPageCount       FilterKey = "pageCount"
	FilterLanguage        FilterKey = "language"
	FilterMatchScore      FilterKey = "matchScore"
	FilterBookType        FilterKey = "bookType"
)

// FilterCriteria maps a filter key to the selected values (plain strings or
// range-bucket ids, depending on the key). Order-insensitive.
type FilterCriteria map[FilterKey][]string

type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// SortField enumerates the sortable fields.
type SortField string

const (
	SortTitle                SortField = "title"
	SortTitleSeries          SortField = "titleSeries"
	SortAuthor               SortField = "author"
	SortPublishedDate        SortField = "publishedDate"
	SortPublisher            SortField = "publisher"
	SortPageCount            SortField = "pageCount"
	SortRating               SortField = "rating"
	SortPersonalRating       SortField = "personalRating"
	SortReviewCount          SortField = "reviewCount"
	SortAmazonRating         SortField = "amazonRating"
	SortAmazonReviewCount    SortField = "amazonReviewCount"
	SortGoodreadsRating      SortField = "goodreadsRating"
	SortGoodreadsReviewCount SortField = "goodreadsReviewCount"
	SortHardcoverRating      SortField = "hardcoverRating"
	SortHardcoverReviewCount SortField = "hardcoverReviewCount"
	SortLocked               SortField = "locked"
	SortLastReadTime         SortField = "lastReadTime"
	SortAddedOn              SortField = "addedOn"
	SortFileSizeKB           SortField = "fileSizeKb"
	SortFileName             SortField = "fileName"
)

type SortOption struct {
	Field     SortField
	Direction SortDirection
}

// RangeBucket is a named numeric interval used to classify a continuous value
// into a discrete filter option. Intervals are half-open [Min, Max) except for
// the personal-rating scale, which matches rounded integers against bucket ids.
type RangeBucket struct {
	ID  string  `yaml:"id"`
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type Page[T any] struct {
	Data     []T
	Page     int
	PageSize int
	Total    int
}

type ListQuery struct {
	Criteria FilterCriteria
	Mode     FilterMode
	Sort     *SortOption
	Page     int
	PageSize int
}

type EnrichedBook struct {
	Title         *string
	Subtitle      *string
	PublishedDate *time.Time
	PageCount     *int
	CoverURL      *string
	Authors       []string
}

type CreateBookInput struct {
	ISBN              *string
	LibraryID         string
	FileName          string
	FileSizeKB        *int64
	BookType          BookType
	Metadata          *BookMetadata
	Enrich            bool
	RequireEnrichment bool
}
