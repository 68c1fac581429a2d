// Package storage defines the persistence interfaces implemented by the
// postgres and in-memory stores.
package storage

import (
	"context"
	"errors"

	"github.com/Vukotije/audiotheca/internal/app/domain/catalog"
	"github.com/Vukotije/audiotheca/internal/app/domain/review"
	"github.com/Vukotije/audiotheca/internal/app/domain/user"
)

// Sentinel errors shared by every store implementation. Services translate
// these into the user-facing error taxonomy.
var (
	ErrNotFound   = errors.New("storage: not found")
	ErrDuplicate  = errors.New("storage: duplicate")
	ErrReferenced = errors.New("storage: referenced by dependent rows")
)

// UserStore persists user accounts. Deleting a user removes their reviews.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// GenreStore persists genres. Genre names are unique.
type GenreStore interface {
	CreateGenre(ctx context.Context, g catalog.Genre) (catalog.Genre, error)
	UpdateGenre(ctx context.Context, g catalog.Genre) (catalog.Genre, error)
	GetGenre(ctx context.Context, id string) (catalog.Genre, error)
	GetGenreByName(ctx context.Context, name string) (catalog.Genre, error)
	ListGenres(ctx context.Context) ([]catalog.Genre, error)
	DeleteGenre(ctx context.Context, id string) error
}

// ArtistStore persists artists.
type ArtistStore interface {
	CreateArtist(ctx context.Context, a catalog.Artist) (catalog.Artist, error)
	UpdateArtist(ctx context.Context, a catalog.Artist) (catalog.Artist, error)
	GetArtist(ctx context.Context, id string) (catalog.Artist, error)
	ListArtists(ctx context.Context) ([]catalog.Artist, error)
	DeleteArtist(ctx context.Context, id string) error
	SearchArtists(ctx context.Context, query string) ([]catalog.Artist, error)
}

// WorkStore persists musical works. Deleting a work removes its reviews.
type WorkStore interface {
	CreateWork(ctx context.Context, w catalog.MusicalWork) (catalog.MusicalWork, error)
	UpdateWork(ctx context.Context, w catalog.MusicalWork) (catalog.MusicalWork, error)
	GetWork(ctx context.Context, id string) (catalog.MusicalWork, error)
	ListWorks(ctx context.Context) ([]catalog.MusicalWork, error)
	DeleteWork(ctx context.Context, id string) error
	SearchWorks(ctx context.Context, query string) ([]catalog.MusicalWork, error)
	CountWorksByGenre(ctx context.Context, genreID string) (int, error)
	CountWorksByArtist(ctx context.Context, artistID string) (int, error)
}

// ReviewStore persists reviews. CreateReview must enforce the one review
// per (user, work) invariant and return ErrDuplicate on violation.
type ReviewStore interface {
	CreateReview(ctx context.Context, r review.Review) (review.Review, error)
	UpdateReview(ctx context.Context, r review.Review) (review.Review, error)
	GetReview(ctx context.Context, id string) (review.Review, error)
	DeleteReview(ctx context.Context, id string) error
	GetReviewByUserAndWork(ctx context.Context, userID, workID string) (review.Review, error)
	ListReviewsByUser(ctx context.Context, userID string) ([]review.Review, error)
	ListReviewsByWork(ctx context.Context, workID string, approvedOnly bool) ([]review.Review, error)
	ListPendingReviews(ctx context.Context) ([]review.Review, error)
}
