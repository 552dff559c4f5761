package adapter

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"booklore/internal/core/model"
)

// BookRecord is the persisted shape of a book. Metadata and per-format
// progress are stored as JSON columns so the schema survives metadata
// additions without migrations.
type BookRecord struct {
	ID                 string  `gorm:"type:uuid;primaryKey"`
	LibraryID          string  `gorm:"type:uuid;index"`
	ISBN               *string `gorm:"uniqueIndex"`
	FileName           string
	FileSizeKB         *int64
	BookType           model.BookType   `gorm:"type:varchar(8)"`
	ReadStatus         model.ReadStatus `gorm:"type:varchar(16);index"`
	AddedOn            *time.Time
	LastReadTime       *time.Time
	MetadataMatchScore *float64
	Metadata           *model.BookMetadata   `gorm:"serializer:json"`
	EpubProgress       *model.FormatProgress `gorm:"serializer:json"`
	PdfProgress        *model.FormatProgress `gorm:"serializer:json"`
	CbxProgress        *model.FormatProgress `gorm:"serializer:json"`
	KoreaderProgress   *model.FormatProgress `gorm:"serializer:json"`
	KoboProgress       *model.FormatProgress `gorm:"serializer:json"`
	Enrichment         model.EnrichmentMeta  `gorm:"serializer:json"`
	Shelves            []ShelfRecord         `gorm:"many2many:book_shelves"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (BookRecord) TableName() string { return "books" }

// ShelfRecord is a user-defined shelf.
type ShelfRecord struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"index"`
	Icon      string
	Sort      int
	UserID    string `gorm:"type:uuid;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ShelfRecord) TableName() string { return "shelves" }

// SessionRecord is one recorded reading session.
type SessionRecord struct {
	ID              string         `gorm:"type:uuid;primaryKey"`
	UserID          string         `gorm:"type:uuid;index"`
	BookID          string         `gorm:"type:uuid;index"`
	BookType        model.BookType `gorm:"type:varchar(8)"`
	StartTime       time.Time      `gorm:"index"`
	EndTime         time.Time
	DurationSeconds int64
	CreatedAt       time.Time
}

func (SessionRecord) TableName() string { return "reading_sessions" }

// IconRecord stores shelf icon SVG content by name.
type IconRecord struct {
	Name      string `gorm:"primaryKey"`
	Content   string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (IconRecord) TableName() string { return "icons" }

// Migrate applies the schema via gorm auto-migrate.
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&ShelfRecord{},
		&BookRecord{},
		&SessionRecord{},
		&IconRecord{},
	)
}

// GormBookRepo persists books through gorm.
type GormBookRepo struct {
	db *gorm.DB
}

func NewGormBookRepo(db *gorm.DB) *GormBookRepo {
	return &GormBookRepo{db: db}
}

func (r *GormBookRepo) Create(ctx context.Context, b model.Book) (model.Book, error) {
	rec := toBookRecord(b)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.Book{}, errConflict
		}
		return model.Book{}, err
	}
	return fromBookRecord(rec), nil
}

func (r *GormBookRepo) Update(ctx context.Context, b model.Book) (model.Book, error) {
	rec := toBookRecord(b)
	tx := r.db.WithContext(ctx)
	if err := tx.Model(&BookRecord{ID: rec.ID}).Association("Shelves").Replace(rec.Shelves); err != nil {
		return model.Book{}, err
	}
	res := tx.Model(&BookRecord{}).Where("id = ?", rec.ID).Select("*").Omit("Shelves", "CreatedAt").Updates(&rec)
	if res.Error != nil {
		return model.Book{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.Book{}, errNotFound
	}
	return r.GetByID(ctx, rec.ID)
}

func (r *GormBookRepo) GetByID(ctx context.Context, id string) (model.Book, error) {
	var rec BookRecord
	err := r.db.WithContext(ctx).Preload("Shelves").First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Book{}, errNotFound
		}
		return model.Book{}, err
	}
	return fromBookRecord(rec), nil
}

func (r *GormBookRepo) GetByISBN(ctx context.Context, isbn string) (model.Book, error) {
	var rec BookRecord
	err := r.db.WithContext(ctx).Preload("Shelves").First(&rec, "isbn = ?", normalizeISBN(isbn)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Book{}, errNotFound
		}
		return model.Book{}, err
	}
	return fromBookRecord(rec), nil
}

func (r *GormBookRepo) ListAll(ctx context.Context) ([]model.Book, error) {
	var recs []BookRecord
	err := r.db.WithContext(ctx).Preload("Shelves").Order("created_at, id").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Book, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromBookRecord(rec))
	}
	return out, nil
}

func (r *GormBookRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&BookRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

func toBookRecord(b model.Book) BookRecord {
	rec := BookRecord{
		ID:                 b.ID,
		LibraryID:          b.LibraryID,
		FileName:           b.FileName,
		FileSizeKB:         b.FileSizeKB,
		BookType:           b.BookType,
		ReadStatus:         b.ReadStatus,
		AddedOn:            b.AddedOn,
		LastReadTime:       b.LastReadTime,
		MetadataMatchScore: b.MetadataMatchScore,
		Metadata:           b.Metadata,
		EpubProgress:       b.EpubProgress,
		PdfProgress:        b.PdfProgress,
		CbxProgress:        b.CbxProgress,
		KoreaderProgress:   b.KoreaderProgress,
		KoboProgress:       b.KoboProgress,
		Enrichment:         b.Enrichment,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if b.ISBN != nil {
		key := normalizeISBN(*b.ISBN)
		rec.ISBN = &key
	}
	for _, s := range b.Shelves {
		rec.Shelves = append(rec.Shelves, toShelfRecord(s))
	}
	return rec
}

func fromBookRecord(rec BookRecord) model.Book {
	b := model.Book{
		ID:                 rec.ID,
		LibraryID:          rec.LibraryID,
		ISBN:               rec.ISBN,
		FileName:           rec.FileName,
		FileSizeKB:         rec.FileSizeKB,
		BookType:           rec.BookType,
		ReadStatus:         rec.ReadStatus,
		AddedOn:            rec.AddedOn,
		LastReadTime:       rec.LastReadTime,
		MetadataMatchScore: rec.MetadataMatchScore,
		Metadata:           rec.Metadata,
		EpubProgress:       rec.EpubProgress,
		PdfProgress:        rec.PdfProgress,
		CbxProgress:        rec.CbxProgress,
		KoreaderProgress:   rec.KoreaderProgress,
		KoboProgress:       rec.KoboProgress,
		Enrichment:         rec.Enrichment,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}
	if b.ReadStatus == "" {
		b.ReadStatus = model.ReadStatusUnset
	}
	for _, s := range rec.Shelves {
		b.Shelves = append(b.Shelves, fromShelfRecord(s))
	}
	return b
}

// GormShelfRepo persists shelves through gorm.
type GormShelfRepo struct {
	db *gorm.DB
}

func NewGormShelfRepo(db *gorm.DB) *GormShelfRepo {
	return &GormShelfRepo{db: db}
}

func (r *GormShelfRepo) Create(ctx context.Context, s model.Shelf) (model.Shelf, error) {
	rec := toShelfRecord(s)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.Shelf{}, errConflict
		}
		return model.Shelf{}, err
	}
	return fromShelfRecord(rec), nil
}

func (r *GormShelfRepo) GetByID(ctx context.Context, id string) (model.Shelf, error) {
	var rec ShelfRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Shelf{}, errNotFound
		}
		return model.Shelf{}, err
	}
	return fromShelfRecord(rec), nil
}

func (r *GormShelfRepo) List(ctx context.Context, userID string) ([]model.Shelf, error) {
	var recs []ShelfRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? OR user_id = ''", userID).
		Order("sort, name, id").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Shelf, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromShelfRecord(rec))
	}
	return out, nil
}

func (r *GormShelfRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&ShelfRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

func toShelfRecord(s model.Shelf) ShelfRecord {
	return ShelfRecord{ID: s.ID, Name: s.Name, Icon: s.Icon, Sort: s.Sort, UserID: s.UserID}
}

func fromShelfRecord(rec ShelfRecord) model.Shelf {
	return model.Shelf{ID: rec.ID, Name: rec.Name, Icon: rec.Icon, Sort: rec.Sort, UserID: rec.UserID}
}

// GormSessionRepo persists reading sessions through gorm.
type GormSessionRepo struct {
	db *gorm.DB
}

func NewGormSessionRepo(db *gorm.DB) *GormSessionRepo {
	return &GormSessionRepo{db: db}
}

func (r *GormSessionRepo) Record(ctx context.Context, s model.ReadingSession) (model.ReadingSession, error) {
	rec := SessionRecord{
		ID:              s.ID,
		UserID:          s.UserID,
		BookID:          s.BookID,
		BookType:        s.BookType,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationSeconds: s.DurationSeconds,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return model.ReadingSession{}, err
	}
	return s, nil
}

func (r *GormSessionRepo) ListByUser(ctx context.Context, userID string) ([]model.ReadingSession, error) {
	var recs []SessionRecord
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("start_time").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.ReadingSession, 0, len(recs))
	for _, rec := range recs {
		out = append(out, model.ReadingSession{
			ID:              rec.ID,
			UserID:          rec.UserID,
			BookID:          rec.BookID,
			BookType:        rec.BookType,
			StartTime:       rec.StartTime,
			EndTime:         rec.EndTime,
			DurationSeconds: rec.DurationSeconds,
		})
	}
	return out, nil
}

// GormIconRepo persists icons through gorm.
type GormIconRepo struct {
	db *gorm.DB
}

func NewGormIconRepo(db *gorm.DB) *GormIconRepo {
	return &GormIconRepo{db: db}
}

func (r *GormIconRepo) Save(ctx context.Context, name, content string) error {
	rec := IconRecord{Name: name, Content: content}
	return r.db.WithContext(ctx).Save(&rec).Error
}

func (r *GormIconRepo) Get(ctx context.Context, name string) (string, error) {
	var rec IconRecord
	err := r.db.WithContext(ctx).First(&rec, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errNotFound
		}
		return "", err
	}
	return rec.Content, nil
}

func (r *GormIconRepo) All(ctx context.Context) (map[string]string, error) {
	var recs []IconRecord
	if err := r.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(recs))
	for _, rec := range recs {
		out[rec.Name] = rec.Content
	}
	return out, nil
}

func (r *GormIconRepo) Delete(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).Delete(&IconRecord{}, "name = ?", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}
