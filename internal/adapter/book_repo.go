package adapter

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"booklore/internal/core/model"
)

var (
	errNotFound = errors.New("not found")
	errConflict = errors.New("conflict")
)

// BookRepo is an in-memory book store used for tests and single-process runs.
type BookRepo struct {
	mu     sync.RWMutex
	byID   map[string]model.Book // id -> Book
	byISBN map[string]string     // normalized ISBN -> id
}

func NewBookRepo() *BookRepo {
	return &BookRepo{byID: make(map[string]model.Book), byISBN: make(map[string]string)}
}

func (r *BookRepo) Create(_ context.Context, b model.Book) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == "" {
		return model.Book{}, errConflict
	}
	if _, ok := r.byID[b.ID]; ok {
		return model.Book{}, errConflict
	}

	if b.ISBN != nil {
		key := normalizeISBN(*b.ISBN)
		if key != "" {
			if _, exists := r.byISBN[key]; exists {
				return model.Book{}, errConflict
			}
			r.byISBN[key] = b.ID
		}
	}
	r.byID[b.ID] = copyBook(b)
	return copyBook(b), nil
}

func (r *BookRepo) Update(_ context.Context, b model.Book) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[b.ID]; !ok {
		return model.Book{}, errNotFound
	}
	r.byID[b.ID] = copyBook(b)
	return copyBook(b), nil
}

func (r *BookRepo) GetByID(_ context.Context, id string) (model.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	if !ok {
		return model.Book{}, errNotFound
	}
	return copyBook(b), nil
}

func (r *BookRepo) GetByISBN(_ context.Context, isbn string) (model.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := normalizeISBN(isbn)
	id, ok := r.byISBN[key]
	if !ok {
		return model.Book{}, errNotFound
	}
	b, ok := r.byID[id]
	if !ok {
		return model.Book{}, errNotFound
	}
	return copyBook(b), nil
}

// ListAll snapshots every book, ordered by creation time then id so callers
// see a deterministic baseline before filtering and sorting.
func (r *BookRepo) ListAll(_ context.Context) ([]model.Book, error) {
	r.mu.RLock()
	items := make([]model.Book, 0, len(r.byID))
	for _, b := range r.byID {
		items = append(items, copyBook(b))
	}
	r.mu.RUnlock()

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (r *BookRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return errNotFound
	}
	if b.ISBN != nil {
		key := normalizeISBN(*b.ISBN)
		delete(r.byISBN, key)
	}
	delete(r.byID, id)
	return nil
}

func copyBook(b model.Book) model.Book {
	b.Shelves = append([]model.Shelf(nil), b.Shelves...)
	if b.Metadata != nil {
		md := *b.Metadata
		md.Authors = append([]string(nil), md.Authors...)
		md.Categories = append([]string(nil), md.Categories...)
		md.Moods = append([]string(nil), md.Moods...)
		md.Tags = append([]string(nil), md.Tags...)
		if md.Locks != nil {
			locks := make(map[string]bool, len(md.Locks))
			for k, v := range md.Locks {
				locks[k] = v
			}
			md.Locks = locks
		}
		b.Metadata = &md
	}
	return b
}

func normalizeISBN(s string) string {
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}
