// Package catalog implements genre, artist and musical work management plus
// the public search operations.
package catalog

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/Vukotije/audiotheca/internal/app/authz"
	"github.com/Vukotije/audiotheca/internal/app/domain/catalog"
	"github.com/Vukotije/audiotheca/internal/app/domain/review"
	"github.com/Vukotije/audiotheca/internal/app/domain/user"
	"github.com/Vukotije/audiotheca/internal/app/storage"
	"github.com/Vukotije/audiotheca/internal/errors"
	"github.com/Vukotije/audiotheca/internal/logging"
)

// Service provides catalog use-cases.
type Service struct {
	genres  storage.GenreStore
	artists storage.ArtistStore
	works   storage.WorkStore
	reviews storage.ReviewStore
	users   storage.UserStore
	log     *logging.Logger
}

// New constructs a catalog service.
func New(genres storage.GenreStore, artists storage.ArtistStore, works storage.WorkStore, reviews storage.ReviewStore, users storage.UserStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("catalog")
	}
	return &Service{genres: genres, artists: artists, works: works, reviews: reviews, users: users, log: log}
}

// SearchResults groups the combined search response.
type SearchResults struct {
	Artists      []catalog.Artist      `json:"artists"`
	MusicalWorks []catalog.WorkDetails `json:"musical_works"`
}

// --- Genres -----------------------------------------------------------------

// ListGenres returns all genres. Public.
func (s *Service) ListGenres(ctx context.Context) ([]catalog.Genre, error) {
	genres, err := s.genres.ListGenres(ctx)
	if err != nil {
		return nil, errors.Internal("list genres", err)
	}
	return genres, nil
}

// GetGenre returns one genre. Public.
func (s *Service) GetGenre(ctx context.Context, id string) (catalog.Genre, error) {
	g, err := s.genres.GetGenre(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return catalog.Genre{}, errors.NotFound("Genre not found")
		}
		return catalog.Genre{}, errors.Internal("get genre", err)
	}
	return g, nil
}

// CreateGenre creates a genre with a unique name. Producer/admin only.
func (s *Service) CreateGenre(ctx context.Context, actor *user.User, name, description string) (catalog.Genre, error) {
	if err := authz.Require(actor, authz.ActionWriteCatalog); err != nil {
		return catalog.Genre{}, err
	}
	if name == "" {
		return catalog.Genre{}, errors.Validation("Name is required")
	}

	if _, err := s.genres.GetGenreByName(ctx, name); err == nil {
		return catalog.Genre{}, errors.Conflict("Genre already exists")
	} else if !stderrors.Is(err, storage.ErrNotFound) {
		return catalog.Genre{}, errors.Internal("lookup genre", err)
	}

	g, err := s.genres.CreateGenre(ctx, catalog.Genre{Name: name, Description: description})
	if err != nil {
		if stderrors.Is(err, storage.ErrDuplicate) {
			return catalog.Genre{}, errors.Conflict("Genre already exists")
		}
		return catalog.Genre{}, errors.Internal("create genre", err)
	}
	return g, nil
}

// UpdateGenre applies a partial update; omitted fields keep prior values.
func (s *Service) UpdateGenre(ctx context.Context, actor *user.User, id string, name, description *string) (catalog.Genre, error) {
	if err := authz.Require(actor, authz.ActionWriteCatalog); err != nil {
		return catalog.Genre{}, err
	}

	g, err := s.GetGenre(ctx, id)
	if err != nil {
		return catalog.Genre{}, err
	}
	if name != nil {
		g.Name = *name
	}
	if description != nil {
		g.Description = *description
	}

	updated, err := s.genres.UpdateGenre(ctx, g)
	if err != nil {
		if stderrors.Is(err, storage.ErrDuplicate) {
			return catalog.Genre{}, errors.Conflict("Genre already exists")
		}
		if stderrors.Is(err, storage.ErrNotFound) {
			return catalog.Genre{}, errors.NotFound("Genre not found")
		}
		return catalog.Genre{}, errors.Internal("update genre", err)
	}
	return updated, nil
}

// DeleteGenre removes a genre. Deletion is blocked while musical works still
// reference it.
func (s *Service) DeleteGenre(ctx context.Context, actor *user.User, id string) error {
	if err := authz.Require(actor, authz.ActionWriteCatalog); err != nil {
		return err
	}

	count, err := s.works.CountWorksByGenre(ctx, id)
	if err != nil {
		return errors.Internal("count works", err)
	}
	if count > 0 {
		return errors.Conflict("Genre has musical works and cannot be deleted")
	}

	if err := s.genres.DeleteGenre(ctx, id); err != nil {
		switch {
		case stderrors.Is(err, storage.ErrNotFound):
			return errors.NotFound("Genre not found")
		case stderrors.Is(err, storage.ErrReferenced):
			return errors.Conflict("Genre has musical works and cannot be deleted")
		}
		return errors.Internal("delete genre", err)
	}
	return nil
}

// --- Artists ----------------------------------------------------------------

// ListArtists returns all artists. Public.
func (s *Service) ListArtists(ctx context.Context) ([]catalog.Artist, error) {
	artists, err := s.artists.ListArtists(ctx)
	if err != nil {
		return nil, errors.Internal("list artists", err)
	}
	return artists, nil
}

// GetArtist returns one artist. Public.
func (s *Service) GetArtist(ctx context.Context, id string) (catalog.Artist, error) {
	a, err := s.artists.GetArtist(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return catalog.Artist{}, errors.NotFound("Artist not found")
		}
		return catalog.Artist{}, errors.Internal("get artist", err)
	}
	return a, nil
}

// CreateArtist creates an artist. Producer/admin only.
func (s *Service) CreateArtist(ctx context.Context, actor *user.User, name, biography, multimedia string) (catalog.Artist, error) {
	if err := authz.Require(actor, authz.ActionWriteCatalog); err != nil {
		return catalog.Artist{}, err
	}
	if name == "" {
		return catalog.Artist{}, errors.Validation("Name is required")
	}

	a, err := s.artists.CreateArtist(ctx, catalog.Artist{Name: name, Biography: biography, Multimedia: multimedia})
	if err != nil {
		return catalog.Artist{}, errors.Internal("create artist", err)
	}
	return a, nil
}

// UpdateArtist applies a partial update.
func (s *Service) UpdateArtist(ctx context.Context, actor *user.User, id string, name, biography, multimedia *string) (catalog.Artist, error) {
	if err := authz.Require(actor, authz.ActionWriteCatalog); err != nil {
		return catalog.Artist{}, err
	}

	a, err := s.GetArtist(ctx, id)
	if err != nil {
		return catalog.Artist{}, err
	}
	if name != nil {
		a.Name = *name
	}
	if biography != nil {
		a.Biography = *biography
	}
	if multimedia != nil {
		a.Multimedia = *multimedia
	}

	updated, err := s.artists.UpdateArtist(ctx, a)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return catalog.Artist{}, errors.NotFound("Artist not found")
		}
		return catalog.Artist{}, errors.Internal("update artist", err)
	}
	return updated, nil
}

// DeleteArtist removes an artist unless musical works still reference it.
func (s *Service) DeleteArtist(ctx context.Context, actor *user.User, id string) error {
	if err := authz.Require(actor, authz.ActionWriteCatalog); err != nil {
		return err
	}

	count, err := s.works.CountWorksByArtist(ctx, id)
	if err != nil {
		return errors.Internal("count works", err)
	}
	if count > 0 {
		return errors.Conflict("Artist has musical works and cannot be deleted")
	}

	if err := s.artists.DeleteArtist(ctx, id); err != nil {
		switch {
		case stderrors.Is(err, storage.ErrNotFound):
			return errors.NotFound("Artist not found")
		case stderrors.Is(err, storage.ErrReferenced):
			return errors.Conflict("Artist has musical works and cannot be deleted")
		}
		return errors.Internal("delete artist", err)
	}
	return nil
}

// --- Musical works ----------------------------------------------------------

// ListWorks returns all works with nested artist and genre. Public.
func (s *Service) ListWorks(ctx context.Context) ([]catalog.WorkDetails, error) {
	works, err := s.works.ListWorks(ctx)
	if err != nil {
		return nil, errors.Internal("list works", err)
	}
	return s.expandWorks(ctx, works)
}

// GetWork returns a work with nested artist, genre and reviews. Reviews are
// filtered to approved ones unless the actor may moderate.
func (s *Service) GetWork(ctx context.Context, actor *user.User, id string) (catalog.WorkDetails, error) {
	w, err := s.works.GetWork(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return catalog.WorkDetails{}, errors.NotFound("Musical work not found")
		}
		return catalog.WorkDetails{}, errors.Internal("get work", err)
	}

	details, err := s.expandWork(ctx, w)
	if err != nil {
		return catalog.WorkDetails{}, err
	}

	approvedOnly := !authz.CanSeeUnapproved(actor)
	reviews, err := s.reviews.ListReviewsByWork(ctx, id, approvedOnly)
	if err != nil {
		return catalog.WorkDetails{}, errors.Internal("list reviews", err)
	}
	details.Reviews, err = s.attachAuthors(ctx, reviews)
	if err != nil {
		return catalog.WorkDetails{}, err
	}
	return details, nil
}

// CreateWork creates a work referencing an existing genre and artist.
func (s *Service) CreateWork(ctx context.Context, actor *user.User, title, description, genreID, artistID string) (catalog.WorkDetails, error) {
	if err := authz.Require(actor, authz.ActionWriteCatalog); err != nil {
		return catalog.WorkDetails{}, err
	}
	if title == "" || genreID == "" || artistID == "" {
		return catalog.WorkDetails{}, errors.Validation("Title, genre_id, and artist_id are required")
	}

	if _, err := s.GetGenre(ctx, genreID); err != nil {
		return catalog.WorkDetails{}, err
	}
	if _, err := s.GetArtist(ctx, artistID); err != nil {
		return catalog.WorkDetails{}, err
	}

	w, err := s.works.CreateWork(ctx, catalog.MusicalWork{
		Title:       title,
		Description: description,
		GenreID:     genreID,
		ArtistID:    artistID,
	})
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return catalog.WorkDetails{}, errors.NotFound("Genre or artist not found")
		}
		return catalog.WorkDetails{}, errors.Internal("create work", err)
	}
	return s.expandWork(ctx, w)
}

// UpdateWork applies a partial update with the same referential checks as
// creation.
func (s *Service) UpdateWork(ctx context.Context, actor *user.User, id string, title, description, genreID, artistID *string) (catalog.WorkDetails, error) {
	if err := authz.Require(actor, authz.ActionWriteCatalog); err != nil {
		return catalog.WorkDetails{}, err
	}

	w, err := s.works.GetWork(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return catalog.WorkDetails{}, errors.NotFound("Musical work not found")
		}
		return catalog.WorkDetails{}, errors.Internal("get work", err)
	}

	if title != nil {
		w.Title = *title
	}
	if description != nil {
		w.Description = *description
	}
	if genreID != nil {
		if _, err := s.GetGenre(ctx, *genreID); err != nil {
			return catalog.WorkDetails{}, err
		}
		w.GenreID = *genreID
	}
	if artistID != nil {
		if _, err := s.GetArtist(ctx, *artistID); err != nil {
			return catalog.WorkDetails{}, err
		}
		w.ArtistID = *artistID
	}

	updated, err := s.works.UpdateWork(ctx, w)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return catalog.WorkDetails{}, errors.NotFound("Musical work not found")
		}
		return catalog.WorkDetails{}, errors.Internal("update work", err)
	}
	return s.expandWork(ctx, updated)
}

// DeleteWork removes a work; its reviews are removed with it.
func (s *Service) DeleteWork(ctx context.Context, actor *user.User, id string) error {
	if err := authz.Require(actor, authz.ActionWriteCatalog); err != nil {
		return err
	}
	if err := s.works.DeleteWork(ctx, id); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("Musical work not found")
		}
		return errors.Internal("delete work", err)
	}
	return nil
}

// --- Search -----------------------------------------------------------------

// Search runs a case-insensitive substring search. searchType is one of
// "all", "artists" or "works".
func (s *Service) Search(ctx context.Context, query, searchType string) (SearchResults, error) {
	if strings.TrimSpace(query) == "" {
		return SearchResults{}, errors.Validation("Search query is required")
	}
	if searchType == "" {
		searchType = "all"
	}

	results := SearchResults{
		Artists:      []catalog.Artist{},
		MusicalWorks: []catalog.WorkDetails{},
	}

	if searchType == "all" || searchType == "artists" {
		artists, err := s.artists.SearchArtists(ctx, query)
		if err != nil {
			return SearchResults{}, errors.Internal("search artists", err)
		}
		if artists != nil {
			results.Artists = artists
		}
	}

	if searchType == "all" || searchType == "works" {
		works, err := s.works.SearchWorks(ctx, query)
		if err != nil {
			return SearchResults{}, errors.Internal("search works", err)
		}
		expanded, err := s.expandWorks(ctx, works)
		if err != nil {
			return SearchResults{}, err
		}
		if expanded != nil {
			results.MusicalWorks = expanded
		}
	}

	return results, nil
}

// SearchArtists searches artists only.
func (s *Service) SearchArtists(ctx context.Context, query string) ([]catalog.Artist, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.Validation("Search query is required")
	}
	artists, err := s.artists.SearchArtists(ctx, query)
	if err != nil {
		return nil, errors.Internal("search artists", err)
	}
	return artists, nil
}

// SearchWorks searches works only, with nested artist and genre.
func (s *Service) SearchWorks(ctx context.Context, query string) ([]catalog.WorkDetails, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.Validation("Search query is required")
	}
	works, err := s.works.SearchWorks(ctx, query)
	if err != nil {
		return nil, errors.Internal("search works", err)
	}
	return s.expandWorks(ctx, works)
}

// --- Expansion helpers ------------------------------------------------------

func (s *Service) expandWorks(ctx context.Context, works []catalog.MusicalWork) ([]catalog.WorkDetails, error) {
	result := make([]catalog.WorkDetails, 0, len(works))
	for _, w := range works {
		details, err := s.expandWork(ctx, w)
		if err != nil {
			return nil, err
		}
		result = append(result, details)
	}
	return result, nil
}

func (s *Service) expandWork(ctx context.Context, w catalog.MusicalWork) (catalog.WorkDetails, error) {
	details := catalog.WorkDetails{MusicalWork: w}

	if a, err := s.artists.GetArtist(ctx, w.ArtistID); err == nil {
		details.Artist = &a
	} else if !stderrors.Is(err, storage.ErrNotFound) {
		return catalog.WorkDetails{}, errors.Internal("expand artist", err)
	}

	if g, err := s.genres.GetGenre(ctx, w.GenreID); err == nil {
		details.Genre = &g
	} else if !stderrors.Is(err, storage.ErrNotFound) {
		return catalog.WorkDetails{}, errors.Internal("expand genre", err)
	}

	return details, nil
}

func (s *Service) attachAuthors(ctx context.Context, reviews []review.Review) ([]review.Review, error) {
	for i := range reviews {
		u, err := s.users.GetUser(ctx, reviews[i].UserID)
		if err != nil {
			if stderrors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, errors.Internal("load review author", err)
		}
		reviews[i].User = &u
	}
	return reviews, nil
}
