package adapter

import (
	"context"
	"sort"
	"sync"

	"booklore/internal/core/model"
)

// ShelfRepo is an in-memory shelf store.
type ShelfRepo struct {
	mu   sync.RWMutex
	byID map[string]model.Shelf
}

func NewShelfRepo() *ShelfRepo {
	return &ShelfRepo{byID: make(map[string]model.Shelf)}
}

func (r *ShelfRepo) Create(_ context.Context, s model.Shelf) (model.Shelf, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		return model.Shelf{}, errConflict
	}
	if _, ok := r.byID[s.ID]; ok {
		return model.Shelf{}, errConflict
	}
	r.byID[s.ID] = s
	return s, nil
}

func (r *ShelfRepo) GetByID(_ context.Context, id string) (model.Shelf, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return model.Shelf{}, errNotFound
	}
	return s, nil
}

// List returns the user's shelves plus any unowned ones, ordered by their
// sort index then name.
func (r *ShelfRepo) List(_ context.Context, userID string) ([]model.Shelf, error) {
	r.mu.RLock()
	items := make([]model.Shelf, 0, len(r.byID))
	for _, s := range r.byID {
		if s.UserID == "" || s.UserID == userID {
			items = append(items, s)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Sort != items[j].Sort {
			return items[i].Sort < items[j].Sort
		}
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (r *ShelfRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return errNotFound
	}
	delete(r.byID, id)
	return nil
}

// SessionRepo is an in-memory reading-session store, append-ordered.
type SessionRepo struct {
	mu       sync.RWMutex
	sessions []model.ReadingSession
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{}
}

func (r *SessionRepo) Record(_ context.Context, s model.ReadingSession) (model.ReadingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
	return s, nil
}

func (r *SessionRepo) ListByUser(_ context.Context, userID string) ([]model.ReadingSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ReadingSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

// IconRepo is an in-memory icon store keyed by icon name.
type IconRepo struct {
	mu    sync.RWMutex
	icons map[string]string
}

func NewIconRepo() *IconRepo {
	return &IconRepo{icons: make(map[string]string)}
}

func (r *IconRepo) Save(_ context.Context, name, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.icons[name] = content
	return nil
}

func (r *IconRepo) Get(_ context.Context, name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	content, ok := r.icons[name]
	if !ok {
		return "", errNotFound
	}
	return content, nil
}

func (r *IconRepo) All(_ context.Context) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.icons))
	for name, content := range r.icons {
		out[name] = content
	}
	return out, nil
}

func (r *IconRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.icons[name]; !ok {
		return errNotFound
	}
	delete(r.icons, name)
	return nil
}
