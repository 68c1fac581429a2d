// Package catalog defines genres, artists and musical works.
package catalog

import (
	"time"

	"github.com/Vukotije/audiotheca/internal/app/domain/review"
)

// Genre is a musical category with a unique name.
type Genre struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Artist is a performer or composer.
type Artist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Biography  string    `json:"biography"`
	Multimedia string    `json:"multimedia"`
	CreatedAt  time.Time `json:"created_at"`
}

// MusicalWork is a catalog entry referencing exactly one genre and one
// artist.
type MusicalWork struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	GenreID     string    `json:"genre_id"`
	ArtistID    string    `json:"artist_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkDetails is a musical work with its related entities resolved for
// responses.
type WorkDetails struct {
	MusicalWork
	Artist  *Artist         `json:"artist,omitempty"`
	Genre   *Genre          `json:"genre,omitempty"`
	Reviews []review.Review `json:"reviews,omitempty"`
}
