// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vukotije/audiotheca/internal/app/domain/catalog"
	"github.com/Vukotije/audiotheca/internal/app/domain/review"
	"github.com/Vukotije/audiotheca/internal/app/domain/user"
	"github.com/Vukotije/audiotheca/internal/app/storage"
)

// Store holds all entities in maps guarded by a single mutex.
type Store struct {
	mu      sync.RWMutex
	users   map[string]user.User
	genres  map[string]catalog.Genre
	artists map[string]catalog.Artist
	works   map[string]catalog.MusicalWork
	reviews map[string]review.Review
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.GenreStore = (*Store)(nil)
var _ storage.ArtistStore = (*Store)(nil)
var _ storage.WorkStore = (*Store)(nil)
var _ storage.ReviewStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:   make(map[string]user.User),
		genres:  make(map[string]catalog.Genre),
		artists: make(map[string]catalog.Artist),
		works:   make(map[string]catalog.MusicalWork),
		reviews: make(map[string]review.Review),
	}
}

// UserStore implementation -------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return user.User{}, storage.ErrDuplicate
		}
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()

	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}

	for id, existing := range s.users {
		if id == u.ID {
			continue
		}
		if existing.Username == u.Username || existing.Email == u.Email {
			return user.User{}, storage.ErrDuplicate
		}
	}

	u.CreatedAt = original.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, storage.ErrNotFound
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, storage.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sortByCreated(result, func(u user.User) time.Time { return u.CreatedAt })
	return result, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)

	// Mirror the database-level cascade.
	for rid, r := range s.reviews {
		if r.UserID == id {
			delete(s.reviews, rid)
		}
	}
	return nil
}

// GenreStore implementation ------------------------------------------------

func (s *Store) CreateGenre(_ context.Context, g catalog.Genre) (catalog.Genre, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.genres {
		if existing.Name == g.Name {
			return catalog.Genre{}, storage.ErrDuplicate
		}
	}

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.CreatedAt = time.Now().UTC()

	s.genres[g.ID] = g
	return g, nil
}

func (s *Store) UpdateGenre(_ context.Context, g catalog.Genre) (catalog.Genre, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.genres[g.ID]
	if !ok {
		return catalog.Genre{}, storage.ErrNotFound
	}

	for id, existing := range s.genres {
		if id != g.ID && existing.Name == g.Name {
			return catalog.Genre{}, storage.ErrDuplicate
		}
	}

	g.CreatedAt = original.CreatedAt
	s.genres[g.ID] = g
	return g, nil
}

func (s *Store) GetGenre(_ context.Context, id string) (catalog.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.genres[id]
	if !ok {
		return catalog.Genre{}, storage.ErrNotFound
	}
	return g, nil
}

func (s *Store) GetGenreByName(_ context.Context, name string) (catalog.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.genres {
		if g.Name == name {
			return g, nil
		}
	}
	return catalog.Genre{}, storage.ErrNotFound
}

func (s *Store) ListGenres(_ context.Context) ([]catalog.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Genre, 0, len(s.genres))
	for _, g := range s.genres {
		result = append(result, g)
	}
	sortByCreated(result, func(g catalog.Genre) time.Time { return g.CreatedAt })
	return result, nil
}

func (s *Store) DeleteGenre(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.genres[id]; !ok {
		return storage.ErrNotFound
	}
	for _, w := range s.works {
		if w.GenreID == id {
			return storage.ErrReferenced
		}
	}
	delete(s.genres, id)
	return nil
}

// ArtistStore implementation -----------------------------------------------

func (s *Store) CreateArtist(_ context.Context, a catalog.Artist) (catalog.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()

	s.artists[a.ID] = a
	return a, nil
}

func (s *Store) UpdateArtist(_ context.Context, a catalog.Artist) (catalog.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.artists[a.ID]
	if !ok {
		return catalog.Artist{}, storage.ErrNotFound
	}

	a.CreatedAt = original.CreatedAt
	s.artists[a.ID] = a
	return a, nil
}

func (s *Store) GetArtist(_ context.Context, id string) (catalog.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artists[id]
	if !ok {
		return catalog.Artist{}, storage.ErrNotFound
	}
	return a, nil
}

func (s *Store) ListArtists(_ context.Context) ([]catalog.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Artist, 0, len(s.artists))
	for _, a := range s.artists {
		result = append(result, a)
	}
	sortByCreated(result, func(a catalog.Artist) time.Time { return a.CreatedAt })
	return result, nil
}

func (s *Store) DeleteArtist(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.artists[id]; !ok {
		return storage.ErrNotFound
	}
	for _, w := range s.works {
		if w.ArtistID == id {
			return storage.ErrReferenced
		}
	}
	delete(s.artists, id)
	return nil
}

func (s *Store) SearchArtists(_ context.Context, query string) ([]catalog.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	var result []catalog.Artist
	for _, a := range s.artists {
		if strings.Contains(strings.ToLower(a.Name), needle) {
			result = append(result, a)
		}
	}
	sortByCreated(result, func(a catalog.Artist) time.Time { return a.CreatedAt })
	return result, nil
}

// WorkStore implementation -------------------------------------------------

func (s *Store) CreateWork(_ context.Context, w catalog.MusicalWork) (catalog.MusicalWork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.CreatedAt = time.Now().UTC()

	s.works[w.ID] = w
	return w, nil
}

func (s *Store) UpdateWork(_ context.Context, w catalog.MusicalWork) (catalog.MusicalWork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.works[w.ID]
	if !ok {
		return catalog.MusicalWork{}, storage.ErrNotFound
	}

	w.CreatedAt = original.CreatedAt
	s.works[w.ID] = w
	return w, nil
}

func (s *Store) GetWork(_ context.Context, id string) (catalog.MusicalWork, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.works[id]
	if !ok {
		return catalog.MusicalWork{}, storage.ErrNotFound
	}
	return w, nil
}

func (s *Store) ListWorks(_ context.Context) ([]catalog.MusicalWork, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.MusicalWork, 0, len(s.works))
	for _, w := range s.works {
		result = append(result, w)
	}
	sortByCreated(result, func(w catalog.MusicalWork) time.Time { return w.CreatedAt })
	return result, nil
}

func (s *Store) DeleteWork(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.works[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.works, id)

	// Mirror the database-level cascade.
	for rid, r := range s.reviews {
		if r.MusicalWorkID == id {
			delete(s.reviews, rid)
		}
	}
	return nil
}

func (s *Store) SearchWorks(_ context.Context, query string) ([]catalog.MusicalWork, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	var result []catalog.MusicalWork
	for _, w := range s.works {
		if strings.Contains(strings.ToLower(w.Title), needle) {
			result = append(result, w)
		}
	}
	sortByCreated(result, func(w catalog.MusicalWork) time.Time { return w.CreatedAt })
	return result, nil
}

func (s *Store) CountWorksByGenre(_ context.Context, genreID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, w := range s.works {
		if w.GenreID == genreID {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountWorksByArtist(_ context.Context, artistID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, w := range s.works {
		if w.ArtistID == artistID {
			count++
		}
	}
	return count, nil
}

// ReviewStore implementation -----------------------------------------------

func (s *Store) CreateReview(_ context.Context, r review.Review) (review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Equivalent of the reviews(user_id, musical_work_id) unique constraint.
	for _, existing := range s.reviews {
		if existing.UserID == r.UserID && existing.MusicalWorkID == r.MusicalWorkID {
			return review.Review{}, storage.ErrDuplicate
		}
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	r.User = nil

	s.reviews[r.ID] = r
	return r, nil
}

func (s *Store) UpdateReview(_ context.Context, r review.Review) (review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.reviews[r.ID]
	if !ok {
		return review.Review{}, storage.ErrNotFound
	}

	r.UserID = original.UserID
	r.MusicalWorkID = original.MusicalWorkID
	r.CreatedAt = original.CreatedAt
	r.UpdatedAt = time.Now().UTC()
	r.User = nil

	s.reviews[r.ID] = r
	return r, nil
}

func (s *Store) GetReview(_ context.Context, id string) (review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok {
		return review.Review{}, storage.ErrNotFound
	}
	return r, nil
}

func (s *Store) DeleteReview(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *Store) GetReviewByUserAndWork(_ context.Context, userID, workID string) (review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.reviews {
		if r.UserID == userID && r.MusicalWorkID == workID {
			return r, nil
		}
	}
	return review.Review{}, storage.ErrNotFound
}

func (s *Store) ListReviewsByUser(_ context.Context, userID string) ([]review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []review.Review
	for _, r := range s.reviews {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	sortByCreated(result, func(r review.Review) time.Time { return r.CreatedAt })
	return result, nil
}

func (s *Store) ListReviewsByWork(_ context.Context, workID string, approvedOnly bool) ([]review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []review.Review
	for _, r := range s.reviews {
		if r.MusicalWorkID != workID {
			continue
		}
		if approvedOnly && !r.IsApproved {
			continue
		}
		result = append(result, r)
	}
	sortByCreated(result, func(r review.Review) time.Time { return r.CreatedAt })
	return result, nil
}

func (s *Store) ListPendingReviews(_ context.Context) ([]review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []review.Review
	for _, r := range s.reviews {
		if !r.IsApproved {
			result = append(result, r)
		}
	}
	sortByCreated(result, func(r review.Review) time.Time { return r.CreatedAt })
	return result, nil
}

// sortByCreated keeps listings deterministic; map iteration order is not.
func sortByCreated[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).Before(createdAt(items[j]))
	})
}
