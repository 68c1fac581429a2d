// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Vukotije/audiotheca/internal/app/domain/catalog"
	"github.com/Vukotije/audiotheca/internal/app/domain/review"
	"github.com/Vukotije/audiotheca/internal/app/domain/user"
	"github.com/Vukotije/audiotheca/internal/app/storage"
)

// Postgres error classes relevant to the invariants enforced in-schema.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Store implements the storage interfaces using database/sql.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.GenreStore = (*Store)(nil)
var _ storage.ArtistStore = (*Store)(nil)
var _ storage.WorkStore = (*Store)(nil)
var _ storage.ReviewStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func pgErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return user.User{}, storage.ErrDuplicate
		}
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, role = $5, is_active = $6
		WHERE id = $1
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.IsActive)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return user.User{}, storage.ErrDuplicate
		}
		return user.User{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, storage.ErrNotFound
	}
	return s.GetUser(ctx, u.ID)
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, is_active, created_at
		FROM users
		WHERE id = $1
	`, id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, is_active, created_at
		FROM users
		WHERE username = $1
	`, username))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, is_active, created_at
		FROM users
		WHERE email = $1
	`, email))
}

func (s *Store) scanUser(row *sql.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, storage.ErrNotFound
	}
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, email, password_hash, role, is_active, created_at
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	// reviews.user_id is ON DELETE CASCADE; one statement removes both.
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- GenreStore -------------------------------------------------------------

func (s *Store) CreateGenre(ctx context.Context, g catalog.Genre) (catalog.Genre, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO genres (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)
	`, g.ID, g.Name, g.Description, g.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return catalog.Genre{}, storage.ErrDuplicate
		}
		return catalog.Genre{}, err
	}
	return g, nil
}

func (s *Store) UpdateGenre(ctx context.Context, g catalog.Genre) (catalog.Genre, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE genres
		SET name = $2, description = $3
		WHERE id = $1
	`, g.ID, g.Name, g.Description)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return catalog.Genre{}, storage.ErrDuplicate
		}
		return catalog.Genre{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.Genre{}, storage.ErrNotFound
	}
	return s.GetGenre(ctx, g.ID)
}

func (s *Store) GetGenre(ctx context.Context, id string) (catalog.Genre, error) {
	return s.scanGenre(s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at
		FROM genres
		WHERE id = $1
	`, id))
}

func (s *Store) GetGenreByName(ctx context.Context, name string) (catalog.Genre, error) {
	return s.scanGenre(s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at
		FROM genres
		WHERE name = $1
	`, name))
}

func (s *Store) scanGenre(row *sql.Row) (catalog.Genre, error) {
	var g catalog.Genre
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Genre{}, storage.ErrNotFound
	}
	if err != nil {
		return catalog.Genre{}, err
	}
	return g, nil
}

func (s *Store) ListGenres(ctx context.Context) ([]catalog.Genre, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at
		FROM genres
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.Genre
	for rows.Next() {
		var g catalog.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (s *Store) DeleteGenre(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM genres WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return storage.ErrReferenced
		}
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- ArtistStore ------------------------------------------------------------

func (s *Store) CreateArtist(ctx context.Context, a catalog.Artist) (catalog.Artist, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artists (id, name, biography, multimedia, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.Name, a.Biography, a.Multimedia, a.CreatedAt)
	if err != nil {
		return catalog.Artist{}, err
	}
	return a, nil
}

func (s *Store) UpdateArtist(ctx context.Context, a catalog.Artist) (catalog.Artist, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE artists
		SET name = $2, biography = $3, multimedia = $4
		WHERE id = $1
	`, a.ID, a.Name, a.Biography, a.Multimedia)
	if err != nil {
		return catalog.Artist{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.Artist{}, storage.ErrNotFound
	}
	return s.GetArtist(ctx, a.ID)
}

func (s *Store) GetArtist(ctx context.Context, id string) (catalog.Artist, error) {
	var a catalog.Artist
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, biography, multimedia, created_at
		FROM artists
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.Biography, &a.Multimedia, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Artist{}, storage.ErrNotFound
	}
	if err != nil {
		return catalog.Artist{}, err
	}
	return a, nil
}

func (s *Store) ListArtists(ctx context.Context) ([]catalog.Artist, error) {
	return s.queryArtists(ctx, `
		SELECT id, name, biography, multimedia, created_at
		FROM artists
		ORDER BY created_at
	`)
}

func (s *Store) SearchArtists(ctx context.Context, query string) ([]catalog.Artist, error) {
	return s.queryArtists(ctx, `
		SELECT id, name, biography, multimedia, created_at
		FROM artists
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY created_at
	`, query)
}

func (s *Store) queryArtists(ctx context.Context, query string, args ...interface{}) ([]catalog.Artist, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.Artist
	for rows.Next() {
		var a catalog.Artist
		if err := rows.Scan(&a.ID, &a.Name, &a.Biography, &a.Multimedia, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) DeleteArtist(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM artists WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return storage.ErrReferenced
		}
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- WorkStore --------------------------------------------------------------

func (s *Store) CreateWork(ctx context.Context, w catalog.MusicalWork) (catalog.MusicalWork, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO musical_works (id, title, description, genre_id, artist_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, w.ID, w.Title, w.Description, w.GenreID, w.ArtistID, w.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return catalog.MusicalWork{}, storage.ErrNotFound
		}
		return catalog.MusicalWork{}, err
	}
	return w, nil
}

func (s *Store) UpdateWork(ctx context.Context, w catalog.MusicalWork) (catalog.MusicalWork, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE musical_works
		SET title = $2, description = $3, genre_id = $4, artist_id = $5
		WHERE id = $1
	`, w.ID, w.Title, w.Description, w.GenreID, w.ArtistID)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return catalog.MusicalWork{}, storage.ErrNotFound
		}
		return catalog.MusicalWork{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.MusicalWork{}, storage.ErrNotFound
	}
	return s.GetWork(ctx, w.ID)
}

func (s *Store) GetWork(ctx context.Context, id string) (catalog.MusicalWork, error) {
	var w catalog.MusicalWork
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, genre_id, artist_id, created_at
		FROM musical_works
		WHERE id = $1
	`, id).Scan(&w.ID, &w.Title, &w.Description, &w.GenreID, &w.ArtistID, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.MusicalWork{}, storage.ErrNotFound
	}
	if err != nil {
		return catalog.MusicalWork{}, err
	}
	return w, nil
}

func (s *Store) ListWorks(ctx context.Context) ([]catalog.MusicalWork, error) {
	return s.queryWorks(ctx, `
		SELECT id, title, description, genre_id, artist_id, created_at
		FROM musical_works
		ORDER BY created_at
	`)
}

func (s *Store) SearchWorks(ctx context.Context, query string) ([]catalog.MusicalWork, error) {
	return s.queryWorks(ctx, `
		SELECT id, title, description, genre_id, artist_id, created_at
		FROM musical_works
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY created_at
	`, query)
}

func (s *Store) queryWorks(ctx context.Context, query string, args ...interface{}) ([]catalog.MusicalWork, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.MusicalWork
	for rows.Next() {
		var w catalog.MusicalWork
		if err := rows.Scan(&w.ID, &w.Title, &w.Description, &w.GenreID, &w.ArtistID, &w.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

func (s *Store) DeleteWork(ctx context.Context, id string) error {
	// reviews.musical_work_id is ON DELETE CASCADE.
	result, err := s.db.ExecContext(ctx, `DELETE FROM musical_works WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CountWorksByGenre(ctx context.Context, genreID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM musical_works WHERE genre_id = $1
	`, genreID).Scan(&count)
	return count, err
}

func (s *Store) CountWorksByArtist(ctx context.Context, artistID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM musical_works WHERE artist_id = $1
	`, artistID).Scan(&count)
	return count, err
}

// --- ReviewStore ------------------------------------------------------------

func (s *Store) CreateReview(ctx context.Context, r review.Review) (review.Review, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, musical_work_id, rating, comment, is_approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.ID, r.UserID, r.MusicalWorkID, r.Rating, r.Comment, r.IsApproved, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		// The (user_id, musical_work_id) unique constraint closes the
		// concurrent double-submit race the application pre-check cannot.
		if pgErrorCode(err) == pgUniqueViolation {
			return review.Review{}, storage.ErrDuplicate
		}
		if pgErrorCode(err) == pgForeignKeyViolation {
			return review.Review{}, storage.ErrNotFound
		}
		return review.Review{}, err
	}
	r.User = nil
	return r, nil
}

func (s *Store) UpdateReview(ctx context.Context, r review.Review) (review.Review, error) {
	r.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE reviews
		SET rating = $2, comment = $3, is_approved = $4, updated_at = $5
		WHERE id = $1
	`, r.ID, r.Rating, r.Comment, r.IsApproved, r.UpdatedAt)
	if err != nil {
		return review.Review{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return review.Review{}, storage.ErrNotFound
	}
	return s.GetReview(ctx, r.ID)
}

func (s *Store) GetReview(ctx context.Context, id string) (review.Review, error) {
	return s.scanReview(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, musical_work_id, rating, comment, is_approved, created_at, updated_at
		FROM reviews
		WHERE id = $1
	`, id))
}

func (s *Store) GetReviewByUserAndWork(ctx context.Context, userID, workID string) (review.Review, error) {
	return s.scanReview(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, musical_work_id, rating, comment, is_approved, created_at, updated_at
		FROM reviews
		WHERE user_id = $1 AND musical_work_id = $2
	`, userID, workID))
}

func (s *Store) scanReview(row *sql.Row) (review.Review, error) {
	var r review.Review
	err := row.Scan(&r.ID, &r.UserID, &r.MusicalWorkID, &r.Rating, &r.Comment, &r.IsApproved, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return review.Review{}, storage.ErrNotFound
	}
	if err != nil {
		return review.Review{}, err
	}
	return r, nil
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListReviewsByUser(ctx context.Context, userID string) ([]review.Review, error) {
	return s.queryReviews(ctx, `
		SELECT id, user_id, musical_work_id, rating, comment, is_approved, created_at, updated_at
		FROM reviews
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
}

func (s *Store) ListReviewsByWork(ctx context.Context, workID string, approvedOnly bool) ([]review.Review, error) {
	if approvedOnly {
		return s.queryReviews(ctx, `
			SELECT id, user_id, musical_work_id, rating, comment, is_approved, created_at, updated_at
			FROM reviews
			WHERE musical_work_id = $1 AND is_approved
			ORDER BY created_at
		`, workID)
	}
	return s.queryReviews(ctx, `
		SELECT id, user_id, musical_work_id, rating, comment, is_approved, created_at, updated_at
		FROM reviews
		WHERE musical_work_id = $1
		ORDER BY created_at
	`, workID)
}

func (s *Store) ListPendingReviews(ctx context.Context) ([]review.Review, error) {
	return s.queryReviews(ctx, `
		SELECT id, user_id, musical_work_id, rating, comment, is_approved, created_at, updated_at
		FROM reviews
		WHERE NOT is_approved
		ORDER BY created_at
	`)
}

func (s *Store) queryReviews(ctx context.Context, query string, args ...interface{}) ([]review.Review, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []review.Review
	for rows.Next() {
		var r review.Review
		if err := rows.Scan(&r.ID, &r.UserID, &r.MusicalWorkID, &r.Rating, &r.Comment, &r.IsApproved, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
